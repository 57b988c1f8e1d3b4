package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/pkg/logger"
)

// ProvisioningManager owns the per-engine installation and version state.
// Both maps are only ever overwritten from polling results; nothing in this
// process infers availability locally. A failed poll leaves the previous
// (stale) state in place, which beats clearing known-good data.
type ProvisioningManager struct {
	registry    *domain.FormatRegistry
	status      domain.StatusProvider
	updates     domain.UpdateChecker
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	toolStatus  map[string]domain.ToolStatus
	updateInfo  map[string]domain.UpdateInfo
}

// NewProvisioningManager creates a provisioning manager over the given
// registry and collaborators
func NewProvisioningManager(
	registry *domain.FormatRegistry,
	status domain.StatusProvider,
	updates domain.UpdateChecker,
	multiLogger *logger.MultiLogger,
) *ProvisioningManager {
	return &ProvisioningManager{
		registry:    registry,
		status:      status,
		updates:     updates,
		multiLogger: multiLogger,
		toolStatus:  make(map[string]domain.ToolStatus),
		updateInfo:  make(map[string]domain.UpdateInfo),
	}
}

// Registry returns the static engine registry
func (pm *ProvisioningManager) Registry() *domain.FormatRegistry {
	return pm.registry
}

// EngineByName looks up a registry engine by name
func (pm *ProvisioningManager) EngineByName(name string) (domain.Engine, bool) {
	for _, e := range pm.registry.Engines() {
		if e.Name == name {
			return e, true
		}
	}
	return domain.Engine{}, false
}

// RefreshStatus polls the status collaborator and overwrites the local
// ToolStatus map. Must be re-invoked after any download completes; the
// collaborator holds the authoritative availability fact.
func (pm *ProvisioningManager) RefreshStatus(ctx context.Context) (map[string]domain.ToolStatus, error) {
	result, err := pm.status.QueryStatus(ctx, pm.registry.Engines())
	if err != nil {
		if pm.multiLogger != nil {
			pm.multiLogger.LogAppError("Tool status query failed", zap.Error(err))
		}
		return nil, fmt.Errorf("tool status query failed: %w", err)
	}

	pm.mu.Lock()
	pm.toolStatus = result
	pm.mu.Unlock()

	if pm.multiLogger != nil {
		pm.multiLogger.LogProvisionEvent("status_refreshed",
			zap.Int("engines", len(result)))
	}

	return pm.Status(), nil
}

// RefreshUpdateInfo polls the update collaborator and overwrites the local
// UpdateInfo map. This is a network round trip and is never triggered
// implicitly by RefreshStatus.
func (pm *ProvisioningManager) RefreshUpdateInfo(ctx context.Context) (map[string]domain.UpdateInfo, error) {
	result, err := pm.updates.CheckUpdates(ctx, pm.registry.Engines())
	if err != nil {
		if pm.multiLogger != nil {
			pm.multiLogger.LogAppError("Tool update check failed", zap.Error(err))
		}
		return nil, fmt.Errorf("tool update check failed: %w", err)
	}

	for name, info := range result {
		info.Normalize()
		result[name] = info
	}

	pm.mu.Lock()
	pm.updateInfo = result
	pm.mu.Unlock()

	if pm.multiLogger != nil {
		pm.multiLogger.LogProvisionEvent("update_info_refreshed",
			zap.Int("engines", len(result)))
	}

	return pm.UpdateInfo(), nil
}

// Status returns a copy of the current tool status map
func (pm *ProvisioningManager) Status() map[string]domain.ToolStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]domain.ToolStatus, len(pm.toolStatus))
	for name, s := range pm.toolStatus {
		out[name] = s
	}
	return out
}

// UpdateInfo returns a copy of the current update info map
func (pm *ProvisioningManager) UpdateInfo() map[string]domain.UpdateInfo {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]domain.UpdateInfo, len(pm.updateInfo))
	for name, u := range pm.updateInfo {
		out[name] = u
	}
	return out
}

// EngineAvailable reports whether the named engine was available at the last
// status poll
func (pm *ProvisioningManager) EngineAvailable(name string) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.toolStatus[name].Available
}

// Readiness derives readiness from the current tool status
func (pm *ProvisioningManager) Readiness() domain.Readiness {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return domain.ComputeReadiness(pm.toolStatus)
}
