package http

import (
	"github.com/doclens/backend/config"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *logrus.Entry) *gin.Engine {
	if logger == nil {
		logger = logrus.WithField("component", "http")
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Analysis.MaxDocumentBytes

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.POST("", handler.CreateProduct)
			products.GET("/:id", handler.GetProduct)
			products.PUT("/:id", handler.UpdateProduct)
			products.DELETE("/:id", handler.DeleteProduct)
		}

		analyses := v1.Group("/analyses")
		{
			analyses.POST("", handler.AnalyzeText)
			analyses.GET("", handler.ListAnalyses)
			analyses.POST("/upload", handler.UploadDocument)
			analyses.POST("/jobs", handler.SubmitJob)
			analyses.GET("/jobs/:id", handler.GetJob)
			analyses.DELETE("/jobs/:id", handler.CancelJob)
			analyses.GET("/:id", handler.GetAnalysis)
		}

		v1.POST("/normalize", handler.Normalize)
		v1.POST("/index", handler.Index)
		v1.POST("/context", handler.Context)
	}

	return router
}
