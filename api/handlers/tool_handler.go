package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/convertly-go/internal/app"
	"go.uber.org/zap"
)

// ToolHandler handles tool provisioning HTTP requests
type ToolHandler struct {
	provisioning *app.ProvisioningManager
	coordinator  *app.DownloadCoordinator
	logger       *zap.Logger
}

// NewToolHandler creates a new tool handler
func NewToolHandler(provisioning *app.ProvisioningManager, coordinator *app.DownloadCoordinator, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{
		provisioning: provisioning,
		coordinator:  coordinator,
		logger:       logger,
	}
}

// GetStatus handles GET /api/v1/tools
// Returns the cached status from the last poll.
func (h *ToolHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.provisioning.Status())
}

// RefreshStatus handles POST /api/v1/tools/refresh
// A failed poll leaves the previous state intact; the error is transient.
func (h *ToolHandler) RefreshStatus(c *gin.Context) {
	status, err := h.provisioning.RefreshStatus(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to refresh tool status", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetUpdates handles GET /api/v1/tools/updates
func (h *ToolHandler) GetUpdates(c *gin.Context) {
	c.JSON(http.StatusOK, h.provisioning.UpdateInfo())
}

// RefreshUpdates handles POST /api/v1/tools/updates/refresh
func (h *ToolHandler) RefreshUpdates(c *gin.Context) {
	info, err := h.provisioning.RefreshUpdateInfo(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to refresh update info", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetReadiness handles GET /api/v1/tools/readiness
func (h *ToolHandler) GetReadiness(c *gin.Context) {
	c.JSON(http.StatusOK, h.provisioning.Readiness())
}

// RequestDownload handles POST /api/v1/tools/:name/download
// A duplicate request for an engine already downloading is rejected here at
// the API boundary; the coordinator's set insertion stays idempotent.
func (h *ToolHandler) RequestDownload(c *gin.Context) {
	name := c.Param("name")

	if h.coordinator.IsDownloading(name) {
		c.JSON(http.StatusConflict, gin.H{"error": "download already in progress for " + name})
		return
	}

	if err := h.coordinator.RequestDownload(c.Request.Context(), name); err != nil {
		h.logger.Error("Failed to request download", zap.String("engine", name), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "download started", "engine": name})
}

// GetProgress handles GET /api/v1/tools/progress
func (h *ToolHandler) GetProgress(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"downloading":   h.coordinator.Downloading(),
		"last_progress": h.coordinator.LastProgress(),
	})
}
