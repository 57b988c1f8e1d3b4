package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/convertly-go/internal/app"
	"github.com/yourusername/convertly-go/internal/domain"
)

// BatchHandler handles session file and batch selection HTTP requests
type BatchHandler struct {
	batchMgr *app.BatchManager
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batchMgr *app.BatchManager) *BatchHandler {
	return &BatchHandler{batchMgr: batchMgr}
}

// SessionFileRequest represents one file in a session replace request
type SessionFileRequest struct {
	Path string `json:"path" binding:"required"`
	Size int64  `json:"size"`
}

// SetFiles handles PUT /api/v1/files
func (h *BatchHandler) SetFiles(c *gin.Context) {
	var req []SessionFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files := make([]*domain.FileDescriptor, 0, len(req))
	for _, f := range req {
		files = append(files, domain.NewFileDescriptor(f.Path, f.Size))
	}
	h.batchMgr.SetFiles(files)

	c.JSON(http.StatusOK, gin.H{"files": len(files)})
}

// GetFiles handles GET /api/v1/files
func (h *BatchHandler) GetFiles(c *gin.Context) {
	c.JSON(http.StatusOK, h.batchMgr.Files())
}

// RemoveFile handles DELETE /api/v1/files
func (h *BatchHandler) RemoveFile(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter required"})
		return
	}

	if !h.batchMgr.RemoveFile(path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not in session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file removed"})
}

// FileFormatRequest represents a single-file format override
type FileFormatRequest struct {
	Path   string `json:"path" binding:"required"`
	Format string `json:"format" binding:"required"`
}

// SetFileFormat handles PATCH /api/v1/files/format
func (h *BatchHandler) SetFileFormat(c *gin.Context) {
	var req FileFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.batchMgr.SetFileFormat(req.Path, domain.NormalizeExtension(req.Format)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "format set"})
}

// BatchFormatRequest represents a batch format choice for one extension group
type BatchFormatRequest struct {
	Format string `json:"format" binding:"required"`
}

// ApplyBatchFormat handles POST /api/v1/batch/:ext/format
func (h *BatchHandler) ApplyBatchFormat(c *gin.Context) {
	ext := c.Param("ext")

	var req BatchFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applied := h.batchMgr.ApplyBatchFormat(ext, domain.NormalizeExtension(req.Format))
	if applied == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session files with extension " + domain.NormalizeExtension(ext)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

// GetGroups handles GET /api/v1/batch
func (h *BatchHandler) GetGroups(c *gin.Context) {
	c.JSON(http.StatusOK, h.batchMgr.Groups())
}
