package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kawafuchieirin/milestone-manager/internal/service"
)

func ListMilestones(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		goalID := c.Param("id")

		if _, err := service.VerifyGoalOwnership(c.Request.Context(), app.GoalRepo(), user, goalID); err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Goal not found")
			return
		}
		milestones, err := app.MilestoneRepo().ListMilestones(c.Request.Context(), goalID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch milestones")
			return
		}
		HandleSuccess(c, app.Logger(), milestones, map[string]any{"count": len(milestones)})
	}
}

func GetMilestone(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		goalID := c.Param("id")

		if _, err := service.VerifyGoalOwnership(c.Request.Context(), app.GoalRepo(), user, goalID); err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Goal not found")
			return
		}
		milestone, err := app.MilestoneRepo().GetMilestone(c.Request.Context(), goalID, c.Param("mid"))
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Milestone not found")
			return
		}
		HandleSuccess(c, app.Logger(), milestone, nil)
	}
}

func PostMilestone(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.MilestoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request body")
			return
		}
		if err := service.ValidateMilestoneRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Milestone validation failed")
			return
		}

		milestone, err := service.CreateMilestone(c.Request.Context(), app.GoalRepo(), app.MilestoneRepo(), user, c.Param("id"), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to save milestone")
			return
		}
		HandleCreated(c, app.Logger(), milestone)
	}
}

func PutMilestone(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.MilestoneUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request body")
			return
		}
		if err := service.ValidateMilestoneUpdateRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Milestone validation failed")
			return
		}

		milestone, err := service.UpdateMilestone(c.Request.Context(), app.GoalRepo(), app.MilestoneRepo(), user, c.Param("id"), c.Param("mid"), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to update milestone")
			return
		}
		HandleSuccess(c, app.Logger(), milestone, nil)
	}
}

func DeleteMilestone(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		err := service.DeleteMilestone(c.Request.Context(), app.GoalRepo(), app.MilestoneRepo(), user, c.Param("id"), c.Param("mid"))
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to delete milestone")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ReorderMilestones commits a drag-end permutation. The response carries the
// full reordered list so the client can refresh its view from the committed
// state.
func ReorderMilestones(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.ReorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request body")
			return
		}
		if err := service.ValidateReorderRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Reorder validation failed")
			return
		}

		milestones, err := service.ReorderMilestones(c.Request.Context(), app.GoalRepo(), app.MilestoneRepo(), user, c.Param("id"), req.OrderedIDs)
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to reorder milestones")
			return
		}
		HandleSuccess(c, app.Logger(), milestones, map[string]any{"count": len(milestones)})
	}
}
