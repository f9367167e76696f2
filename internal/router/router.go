package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/canopy-dev/canopy/internal/handlers"
	"github.com/canopy-dev/canopy/internal/middleware"
	"github.com/canopy-dev/canopy/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", handlers.ListProjects)
			projects.POST("", handlers.CreateProject)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PUT("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)
		}

		sites := api.Group("/sites", middleware.AuthMiddleware())
		{
			sites.GET("", handlers.ListSites)
			sites.POST("", handlers.CreateSite)
			sites.GET("/:site_id", handlers.GetSite)
			sites.PUT("/:site_id", handlers.UpdateSite)
			sites.DELETE("/:site_id", handlers.DeleteSite)
		}

		analytics := api.Group("/analytics", middleware.AuthMiddleware())
		{
			analytics.GET("", handlers.ListAnalytics)
			analytics.POST("", handlers.RecordAnalytics)
			analytics.GET("/summary", handlers.GetSummary)
			analytics.GET("/time_series", handlers.GetTimeSeries)
			analytics.POST("/sample", handlers.SeedSampleAnalytics)
		}
	}

	return r
}
