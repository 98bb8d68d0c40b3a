package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Sneha-Offi/qc-backend-engine/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Server.MaxUploadMB > 0 {
		router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/qc-analysis", handler.QCAnalysis)
		api.GET("/qc-analysis/:id", handler.GetAnalysis)

		// Search routes draw on a separate budget
		search := api.Group("", RateLimitMiddleware(cfg.RateLimit.Search))
		{
			search.POST("/search", handler.Search)
			search.POST("/search-vendor", handler.SearchVendor)
		}

		api.POST("/scrape", handler.Scrape)
		api.POST("/parse-pdf", handler.ParsePDF)
		api.POST("/parse-excel", handler.ParseExcel)
		api.POST("/analyze-conflicts", handler.AnalyzeConflicts)
		api.POST("/classify", handler.Classify)
	}

	return router
}
