package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kawafuchieirin/milestone-manager/internal/auth"
	"github.com/kawafuchieirin/milestone-manager/internal/config"
)

// NewRouter wires middleware and all routes. Everything under /api requires
// a bearer token; /health does not.
func NewRouter(app App, provider auth.Provider, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "environment": cfg.Env})
	})

	authorized := r.Group("/api")
	authorized.Use(auth.AuthMiddleware(provider, cfg))
	{
		authorized.GET("/goals", ListGoals(app))
		authorized.POST("/goals", PostGoal(app))
		authorized.GET("/goals/:id", GetGoal(app))
		authorized.PUT("/goals/:id", PutGoal(app))
		authorized.DELETE("/goals/:id", DeleteGoal(app))

		authorized.GET("/goals/:id/milestones", ListMilestones(app))
		authorized.POST("/goals/:id/milestones", PostMilestone(app))
		authorized.POST("/goals/:id/milestones/reorder", ReorderMilestones(app))
		authorized.GET("/goals/:id/milestones/:mid", GetMilestone(app))
		authorized.PUT("/goals/:id/milestones/:mid", PutMilestone(app))
		authorized.DELETE("/goals/:id/milestones/:mid", DeleteMilestone(app))

		authorized.GET("/categories", ListCategories(app))
		authorized.POST("/categories", PostCategory(app))
		authorized.DELETE("/categories/:id", DeleteCategory(app))

		authorized.GET("/dashboard/stats", GetDashboardStats(app))
		authorized.GET("/dashboard/activity", GetActivityCalendar(app))
		authorized.GET("/dashboard/skills", GetSkillStats(app))
		authorized.GET("/dashboard/timeline", GetTimeline(app))
	}

	return r
}
