package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kawafuchieirin/milestone-manager/internal/service"
)

func ListGoals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		goals, err := app.GoalRepo().ListGoals(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch goals")
			return
		}
		HandleSuccess(c, app.Logger(), goals, map[string]any{"count": len(goals)})
	}
}

func GetGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		goal, err := app.GoalRepo().GetGoal(c.Request.Context(), user.ID, c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Goal not found")
			return
		}
		HandleSuccess(c, app.Logger(), goal, nil)
	}
}

func PostGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.GoalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request body")
			return
		}
		if err := service.ValidateGoalRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Goal validation failed")
			return
		}

		goal, err := service.CreateGoal(c.Request.Context(), app.GoalRepo(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save goal")
			return
		}
		HandleCreated(c, app.Logger(), goal)
	}
}

func PutGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.GoalUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request body")
			return
		}
		if err := service.ValidateGoalUpdateRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Goal validation failed")
			return
		}

		goal, err := service.UpdateGoal(c.Request.Context(), app.GoalRepo(), user, c.Param("id"), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to update goal")
			return
		}
		HandleSuccess(c, app.Logger(), goal, nil)
	}
}

func DeleteGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		err := service.DeleteGoal(c.Request.Context(), app.GoalRepo(), app.MilestoneRepo(), user, c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to delete goal")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
