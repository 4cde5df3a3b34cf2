package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/service"
)

func ListCategories(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		categories, err := app.CategoryRepo().ListCategories(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch categories")
			return
		}
		HandleSuccess(c, app.Logger(), categories, map[string]any{"count": len(categories)})
	}
}

func PostCategory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request body")
			return
		}
		if err := service.ValidateCategoryRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Category validation failed")
			return
		}

		category := &internal.Category{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Name:      req.Name,
			Color:     req.Color,
			CreatedAt: time.Now().UTC(),
		}
		if err := app.CategoryRepo().CreateCategory(c.Request.Context(), category); err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save category")
			return
		}
		HandleCreated(c, app.Logger(), category)
	}
}

// DeleteCategory removes the category and detaches it from any goals that
// reference it; goals themselves are untouched. Goals are detached first so
// the category row is never deleted while still referenced.
func DeleteCategory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		categoryID := c.Param("id")

		if err := app.GoalRepo().DetachCategory(c.Request.Context(), user.ID, categoryID); err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to detach category from goals")
			return
		}
		if err := app.CategoryRepo().DeleteCategory(c.Request.Context(), user.ID, categoryID); err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to delete category")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
