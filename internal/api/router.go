package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scouthq/paperscout/internal/api/handler"
	"github.com/scouthq/paperscout/internal/api/middleware"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/repository"
	"github.com/scouthq/paperscout/internal/scheduler"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	sched *scheduler.Scheduler,
	articles *repository.ArticleRepository,
	jobs *repository.BatchJobRepository,
	notifications *repository.NotificationRepository,
	runTimeout time.Duration,
	mode string,
	log *logger.Logger,
) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))

	healthHandler := handler.NewHealthHandler()
	adminHandler := handler.NewAdminHandler(sched, articles, jobs, notifications, runTimeout, log)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		admin := v1.Group("/admin")
		{
			admin.POST("/run/:trigger", adminHandler.RunTrigger)
			admin.GET("/triggers", adminHandler.TriggerStatus)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	return r
}
