package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/youtubify-go/api/handlers"
	"github.com/yourusername/youtubify-go/api/middleware"
	"github.com/yourusername/youtubify-go/internal/app"
	"github.com/yourusername/youtubify-go/pkg/logger"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// SetupRouter sets up the HTTP router
func SetupRouter(jobMgr *app.JobManager, bus *logger.EventBus, probeTimeout time.Duration, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(jobMgr, Version)
	router.GET("/health", healthHandler.Health)

	jobHandler := handlers.NewJobHandler(jobMgr, probeTimeout, log)
	logHandler := handlers.NewLogHandler(bus)
	streamHandler := handlers.NewStreamHandler(bus, jobMgr, log)

	v1 := router.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.SubmitJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/stats", jobHandler.GetStats)
			jobs.GET("/:id", jobHandler.GetJob)
			jobs.POST("/:id/start", jobHandler.StartJob)
			jobs.POST("/:id/cancel", jobHandler.CancelJob)
			jobs.GET("/:id/events", streamHandler.StreamJob)
		}

		v1.POST("/probe", jobHandler.Probe)

		logs := v1.Group("/logs")
		{
			logs.GET("", logHandler.GetLogs)
			logs.GET("/stream", streamHandler.StreamLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return router
}
