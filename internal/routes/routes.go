package routes

import (
	"github.com/gin-gonic/gin"

	"taskdeck/internal/handlers"
	"taskdeck/internal/middleware"
	"taskdeck/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authService services.AuthService,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// ---- protected
	r.Use(middleware.AuthMiddleware(authService))

	tasks := r.Group("/tasks")
	{
		tasks.POST("/", taskHandler.Create)
		tasks.GET("/", taskHandler.List)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)

		tasks.GET("/:id/transitions/:to", taskHandler.ResolveTransition)
		tasks.POST("/:id/transitions", taskHandler.ApplyTransition)
		tasks.GET("/:id/suggestion", taskHandler.Suggestion)
		tasks.PUT("/:id/subtasks/:sid", taskHandler.SetSubtask)
		tasks.PUT("/:id/schedule", taskHandler.Reschedule)
	}

	reports := r.Group("/reports")
	{
		reports.GET("/summary", reportHandler.GetSummary)
		reports.GET("/export.pdf", reportHandler.ExportPDF)
	}

	return r
}
