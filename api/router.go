package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/convertly-go/api/handlers"
	"github.com/yourusername/convertly-go/api/middleware"
	"github.com/yourusername/convertly-go/internal/app"
	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/pkg/logger"
)

// SetupRouter sets up the HTTP router with all handlers and middleware
func SetupRouter(
	registry *domain.FormatRegistry,
	batchMgr *app.BatchManager,
	provisioning *app.ProvisioningManager,
	coordinator *app.DownloadCoordinator,
	queue *app.ConversionQueue,
	conversionMgr *app.ConversionManager,
	logAdapter *logger.LoggerAdapter,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logAdapter.GetSingleLogger()))
	router.Use(middleware.Recovery(logAdapter.GetSingleLogger()))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(queue, provisioning)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Format routing endpoints
		formatHandler := handlers.NewFormatHandler(registry)
		v1.GET("/formats/:ext", formatHandler.GetFormats)
		v1.GET("/engines", formatHandler.GetEngines)

		// Session file and batch selection endpoints
		batchHandler := handlers.NewBatchHandler(batchMgr)
		files := v1.Group("/files")
		{
			files.PUT("", batchHandler.SetFiles)
			files.GET("", batchHandler.GetFiles)
			files.DELETE("", batchHandler.RemoveFile)
			files.PATCH("/format", batchHandler.SetFileFormat)
		}
		batch := v1.Group("/batch")
		{
			batch.GET("", batchHandler.GetGroups)
			batch.POST("/:ext/format", batchHandler.ApplyBatchFormat)
		}

		// Tool provisioning endpoints
		toolHandler := handlers.NewToolHandler(provisioning, coordinator, logAdapter.GetSingleLogger())
		tools := v1.Group("/tools")
		{
			tools.GET("", toolHandler.GetStatus)
			tools.POST("/refresh", toolHandler.RefreshStatus)
			tools.GET("/updates", toolHandler.GetUpdates)
			tools.POST("/updates/refresh", toolHandler.RefreshUpdates)
			tools.GET("/readiness", toolHandler.GetReadiness)
			tools.GET("/progress", toolHandler.GetProgress)
			tools.POST("/:name/download", toolHandler.RequestDownload)
		}

		// Conversion endpoints
		conversionHandler := handlers.NewConversionHandler(queue, conversionMgr, logAdapter.GetSingleLogger())
		conversions := v1.Group("/conversions")
		{
			conversions.POST("", conversionHandler.AddConversion)
			conversions.GET("", conversionHandler.ListConversions)
			conversions.GET("/stats", conversionHandler.GetStats)
			conversions.GET("/:id", conversionHandler.GetConversion)
			conversions.POST("/:id/cancel", conversionHandler.CancelConversion)
			conversions.POST("/:id/retry", conversionHandler.RetryConversion)
			conversions.DELETE("/:id", conversionHandler.DeleteConversion)
		}
	}

	return router
}
