package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/convertly-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	queue        *app.ConversionQueue
	provisioning *app.ProvisioningManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(queue *app.ConversionQueue, provisioning *app.ProvisioningManager) *HealthHandler {
	return &HealthHandler{
		queue:        queue,
		provisioning: provisioning,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Queue   struct {
		Running bool `json:"running"`
	} `json:"queue"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	response.Queue.Running = h.queue.IsRunning()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
// Ready means the queue is running and the core engines are provisioned.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.queue.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "conversion queue not running",
		})
		return
	}

	readiness := h.provisioning.Readiness()
	if !readiness.CoreReady {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"reason":    "core engines not provisioned",
			"readiness": readiness,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "readiness": readiness})
}
