package domain

import (
	"path/filepath"
	"strings"
)

// FileDescriptor represents a file in the current conversion session.
// SelectedFormat is the authoritative per-file choice; batch groups are
// always derived from it, never the other way around.
type FileDescriptor struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	Size           int64  `json:"size"`
	Extension      string `json:"extension"`
	SelectedFormat string `json:"selected_format,omitempty"`
}

// NewFileDescriptor creates a descriptor from a path, deriving name and
// lowercase extension
func NewFileDescriptor(path string, size int64) *FileDescriptor {
	return &FileDescriptor{
		Name:      filepath.Base(path),
		Path:      path,
		Size:      size,
		Extension: NormalizeExtension(filepath.Ext(path)),
	}
}

// NormalizeExtension lowercases an extension and strips a leading dot
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// BatchGroup is the derived selection state for all files sharing an
// extension. When IsMixed is true the Format value is meaningless and must
// be ignored by display layers.
type BatchGroup struct {
	Format  string `json:"format"`
	IsMixed bool   `json:"is_mixed"`
}
