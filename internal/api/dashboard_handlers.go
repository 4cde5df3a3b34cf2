package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/service"
)

// listAllMilestones flattens the milestones of every goal of the user.
// Volumes are one user's data, so the per-goal fan-out is fine.
func listAllMilestones(ctx context.Context, app App, goals []internal.Goal) ([]internal.Milestone, error) {
	var all []internal.Milestone
	for _, g := range goals {
		ms, err := app.MilestoneRepo().ListMilestones(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, ms...)
	}
	return all, nil
}

func GetDashboardStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		goals, err := app.GoalRepo().ListGoals(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch goals for stats")
			return
		}
		milestones, err := listAllMilestones(c.Request.Context(), app, goals)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch milestones for stats")
			return
		}
		HandleSuccess(c, app.Logger(), service.ComputeStats(goals, milestones, time.Now()), nil)
	}
}

func GetActivityCalendar(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		goals, err := app.GoalRepo().ListGoals(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch goals for activity")
			return
		}
		activity := service.ComputeActivity(goals, time.Now())
		HandleSuccess(c, app.Logger(), activity, map[string]any{"count": len(activity)})
	}
}

func GetSkillStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		goals, err := app.GoalRepo().ListGoals(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch goals for skills")
			return
		}
		categories, err := app.CategoryRepo().ListCategories(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch categories for skills")
			return
		}
		HandleSuccess(c, app.Logger(), service.ComputeSkillStats(goals, categories), nil)
	}
}

func GetTimeline(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		goals, err := app.GoalRepo().ListGoals(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch goals for timeline")
			return
		}
		milestones, err := listAllMilestones(c.Request.Context(), app, goals)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch milestones for timeline")
			return
		}
		timeline := service.ComputeTimeline(goals, milestones)
		HandleSuccess(c, app.Logger(), timeline, map[string]any{"count": len(timeline)})
	}
}
