package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/convertly-go/internal/domain"
)

// FormatHandler answers format routing queries
type FormatHandler struct {
	registry *domain.FormatRegistry
}

// NewFormatHandler creates a new format handler
func NewFormatHandler(registry *domain.FormatRegistry) *FormatHandler {
	return &FormatHandler{registry: registry}
}

// GetFormats handles GET /api/v1/formats/:ext
// An extension with no reachable formats returns an empty list, not an error.
func (h *FormatHandler) GetFormats(c *gin.Context) {
	ext := c.Param("ext")

	options := h.registry.FormatOptions(ext)
	if options == nil {
		options = []domain.FormatOption{}
	}

	c.JSON(http.StatusOK, gin.H{
		"extension": domain.NormalizeExtension(ext),
		"formats":   options,
	})
}

// GetEngines handles GET /api/v1/engines
func (h *FormatHandler) GetEngines(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Engines())
}
