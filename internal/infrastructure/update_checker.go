package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yourusername/convertly-go/internal/domain"
	"go.uber.org/zap"
)

// releaseManifest is the JSON payload served by the release endpoint:
// a map of engine name to its latest published version.
type releaseManifest struct {
	Tools map[string]struct {
		Version string `json:"version"`
	} `json:"tools"`
}

// HTTPUpdateChecker implements domain.UpdateChecker against a remote release
// manifest, combining the manifest with locally detected versions. This is
// the expensive, network-bound poll; callers invoke it explicitly.
type HTTPUpdateChecker struct {
	manifestURL string
	checker     *ExecStatusChecker
	client      *http.Client
	logger      *zap.Logger
}

// NewHTTPUpdateChecker creates an update checker for the given manifest URL
func NewHTTPUpdateChecker(manifestURL string, checker *ExecStatusChecker, logger *zap.Logger) *HTTPUpdateChecker {
	return &HTTPUpdateChecker{
		manifestURL: manifestURL,
		checker:     checker,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// CheckUpdates fetches the release manifest and returns per-engine update
// info. On any fetch or decode failure it returns an error and no partial
// data, so callers keep their previous state.
func (u *HTTPUpdateChecker) CheckUpdates(ctx context.Context, engines []domain.Engine) (map[string]domain.UpdateInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release manifest returned status %d", resp.StatusCode)
	}

	var manifest releaseManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode release manifest: %w", err)
	}

	result := make(map[string]domain.UpdateInfo, len(engines))
	for _, engine := range engines {
		current := u.checker.DetectVersion(ctx, engine)

		info := domain.UpdateInfo{
			Installed:      current != "",
			CurrentVersion: current,
		}
		if entry, ok := manifest.Tools[engine.Name]; ok {
			info.LatestVersion = entry.Version
		}
		info.Normalize()
		result[engine.Name] = info

		if u.logger != nil {
			u.logger.Debug("Update check",
				zap.String("engine", engine.Name),
				zap.String("current", info.CurrentVersion),
				zap.String("latest", info.LatestVersion),
				zap.Bool("update_available", info.UpdateAvailable))
		}
	}

	return result, nil
}
