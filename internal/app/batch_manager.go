package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/pkg/logger"
)

// BatchManager owns the session file set and the derived per-extension batch
// groups. Per-file SelectedFormat values are the only authoritative selection
// state; groups are recomputed from them and never written directly.
type BatchManager struct {
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	files       []*domain.FileDescriptor
	groups      map[string]domain.BatchGroup
}

// NewBatchManager creates an empty batch manager
func NewBatchManager(multiLogger *logger.MultiLogger) *BatchManager {
	return &BatchManager{
		multiLogger: multiLogger,
		groups:      make(map[string]domain.BatchGroup),
	}
}

// SetFiles replaces the session file set and recomputes all groups
func (bm *BatchManager) SetFiles(files []*domain.FileDescriptor) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	bm.files = files
	bm.recomputeAll()
}

// AddFile appends a file to the session and recomputes its extension group
func (bm *BatchManager) AddFile(file *domain.FileDescriptor) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	bm.files = append(bm.files, file)
	bm.recomputeGroup(file.Extension)
}

// RemoveFile removes a file by path. When the last file of an extension goes
// away its group entry goes with it.
func (bm *BatchManager) RemoveFile(path string) bool {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for i, f := range bm.files {
		if f.Path == path {
			ext := f.Extension
			bm.files = append(bm.files[:i], bm.files[i+1:]...)
			bm.recomputeGroup(ext)
			return true
		}
	}
	return false
}

// Files returns the current session files in insertion order
func (bm *BatchManager) Files() []*domain.FileDescriptor {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	out := make([]*domain.FileDescriptor, len(bm.files))
	copy(out, bm.files)
	return out
}

// ApplyBatchFormat sets the selected format on every file whose extension
// matches and collapses the group to a non-mixed choice
func (bm *BatchManager) ApplyBatchFormat(ext, format string) int {
	ext = domain.NormalizeExtension(ext)

	bm.mu.Lock()
	defer bm.mu.Unlock()

	applied := 0
	for _, f := range bm.files {
		if f.Extension == ext {
			f.SelectedFormat = format
			applied++
		}
	}
	bm.recomputeGroup(ext)

	if bm.multiLogger != nil && applied > 0 {
		bm.multiLogger.LogQueueEvent("batch_format_applied",
			zap.String("extension", ext),
			zap.String("format", format),
			zap.Int("files", applied))
	}

	return applied
}

// SetFileFormat overrides a single file's selection and recomputes only that
// extension's group
func (bm *BatchManager) SetFileFormat(path, format string) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for _, f := range bm.files {
		if f.Path == path {
			f.SelectedFormat = format
			bm.recomputeGroup(f.Extension)
			return nil
		}
	}
	return fmt.Errorf("no session file with path: %s", path)
}

// Groups returns a copy of the current batch groups keyed by extension
func (bm *BatchManager) Groups() map[string]domain.BatchGroup {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	out := make(map[string]domain.BatchGroup, len(bm.groups))
	for ext, g := range bm.groups {
		out[ext] = g
	}
	return out
}

// Group returns the group for one extension
func (bm *BatchManager) Group(ext string) (domain.BatchGroup, bool) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	g, ok := bm.groups[domain.NormalizeExtension(ext)]
	return g, ok
}

// recomputeGroup rebuilds one extension's group from the file set. Caller
// holds the write lock.
func (bm *BatchManager) recomputeGroup(ext string) {
	var first string
	seenSelection := false
	mixed := false
	present := false

	for _, f := range bm.files {
		if f.Extension != ext {
			continue
		}
		present = true
		if f.SelectedFormat == "" {
			continue
		}
		if !seenSelection {
			first = f.SelectedFormat
			seenSelection = true
		} else if f.SelectedFormat != first {
			mixed = true
		}
	}

	// Zero files or all-empty selections: no group entry
	if !present || !seenSelection {
		delete(bm.groups, ext)
		return
	}

	if mixed {
		bm.groups[ext] = domain.BatchGroup{IsMixed: true}
		return
	}
	bm.groups[ext] = domain.BatchGroup{Format: first}
}

// recomputeAll rebuilds every group. Caller holds the write lock.
func (bm *BatchManager) recomputeAll() {
	bm.groups = make(map[string]domain.BatchGroup)
	seen := make(map[string]bool)
	for _, f := range bm.files {
		if !seen[f.Extension] {
			seen[f.Extension] = true
			bm.recomputeGroup(f.Extension)
		}
	}
}
