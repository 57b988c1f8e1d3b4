package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/convertly-go/internal/app"
	"go.uber.org/zap"
)

// ConversionHandler handles conversion-related HTTP requests
type ConversionHandler struct {
	queue         *app.ConversionQueue
	conversionMgr *app.ConversionManager
	logger        *zap.Logger
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(queue *app.ConversionQueue, conversionMgr *app.ConversionManager, logger *zap.Logger) *ConversionHandler {
	return &ConversionHandler{
		queue:         queue,
		conversionMgr: conversionMgr,
		logger:        logger,
	}
}

// AddConversionRequest represents a request to queue a conversion
type AddConversionRequest struct {
	InputPath    string `json:"input_path" binding:"required"`
	OutputFormat string `json:"output_format" binding:"required"`
	OutputDir    string `json:"output_dir,omitempty"`
}

// AddConversion handles POST /api/v1/conversions
func (h *ConversionHandler) AddConversion(c *gin.Context) {
	var req AddConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversion, err := h.queue.AddConversion(req.InputPath, req.OutputFormat, req.OutputDir)
	if err != nil {
		// Routing misses come back as 422: the request was well-formed,
		// there is just no engine for that pair
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, conversion)
}

// GetConversion handles GET /api/v1/conversions/:id
func (h *ConversionHandler) GetConversion(c *gin.Context) {
	id := c.Param("id")

	conversion, err := h.queue.GetConversion(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversion not found"})
		return
	}

	c.JSON(http.StatusOK, conversion)
}

// ListConversions handles GET /api/v1/conversions
func (h *ConversionHandler) ListConversions(c *gin.Context) {
	filters := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if engine := c.Query("engine"); engine != "" {
		filters["engine"] = engine
	}

	conversions, err := h.queue.ListConversions(filters)
	if err != nil {
		h.logger.Error("Failed to list conversions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversions)
}

// GetStats handles GET /api/v1/conversions/stats
func (h *ConversionHandler) GetStats(c *gin.Context) {
	stats, err := h.queue.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelConversion handles POST /api/v1/conversions/:id/cancel
func (h *ConversionHandler) CancelConversion(c *gin.Context) {
	id := c.Param("id")

	if err := h.conversionMgr.CancelConversion(id); err != nil {
		h.logger.Error("Failed to cancel conversion", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversion cancelled"})
}

// RetryConversion handles POST /api/v1/conversions/:id/retry
func (h *ConversionHandler) RetryConversion(c *gin.Context) {
	id := c.Param("id")

	if err := h.conversionMgr.RetryConversion(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to retry conversion", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversion queued for retry"})
}

// DeleteConversion handles DELETE /api/v1/conversions/:id
func (h *ConversionHandler) DeleteConversion(c *gin.Context) {
	id := c.Param("id")

	if err := h.queue.DeleteConversion(id); err != nil {
		h.logger.Error("Failed to delete conversion", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversion deleted"})
}
