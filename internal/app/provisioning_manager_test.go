package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/convertly-go/internal/domain"
)

// mockStatusProvider implements domain.StatusProvider for testing
type mockStatusProvider struct {
	result map[string]domain.ToolStatus
	err    error
	calls  int
}

func (m *mockStatusProvider) QueryStatus(ctx context.Context, engines []domain.Engine) (map[string]domain.ToolStatus, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.ToolStatus, len(m.result))
	for k, v := range m.result {
		out[k] = v
	}
	return out, nil
}

// mockUpdateChecker implements domain.UpdateChecker for testing
type mockUpdateChecker struct {
	result map[string]domain.UpdateInfo
	err    error
	calls  int
}

func (m *mockUpdateChecker) CheckUpdates(ctx context.Context, engines []domain.Engine) (map[string]domain.UpdateInfo, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.UpdateInfo, len(m.result))
	for k, v := range m.result {
		out[k] = v
	}
	return out, nil
}

func TestRefreshStatus_OverwritesState(t *testing.T) {
	status := &mockStatusProvider{result: map[string]domain.ToolStatus{
		domain.EngineFFmpeg: {Available: true, Path: "/opt/tools/ffmpeg"},
		domain.EnginePandoc: {Available: false},
	}}
	pm := NewProvisioningManager(domain.DefaultRegistry(), status, &mockUpdateChecker{}, nil)

	result, err := pm.RefreshStatus(context.Background())
	require.NoError(t, err)

	assert.True(t, result[domain.EngineFFmpeg].Available)
	assert.Equal(t, "/opt/tools/ffmpeg", result[domain.EngineFFmpeg].Path)
	assert.False(t, result[domain.EnginePandoc].Available)
	assert.True(t, pm.EngineAvailable(domain.EngineFFmpeg))
	assert.False(t, pm.EngineAvailable(domain.EnginePandoc))
}

func TestRefreshStatus_FailureKeepsStaleState(t *testing.T) {
	status := &mockStatusProvider{result: map[string]domain.ToolStatus{
		domain.EngineFFmpeg: {Available: true, Path: "/opt/tools/ffmpeg"},
	}}
	pm := NewProvisioningManager(domain.DefaultRegistry(), status, &mockUpdateChecker{}, nil)

	_, err := pm.RefreshStatus(context.Background())
	require.NoError(t, err)

	status.err = fmt.Errorf("probe timed out")
	_, err = pm.RefreshStatus(context.Background())
	require.Error(t, err)

	// The previous poll result is still served
	assert.True(t, pm.EngineAvailable(domain.EngineFFmpeg))
	assert.Equal(t, "/opt/tools/ffmpeg", pm.Status()[domain.EngineFFmpeg].Path)
}

func TestRefreshUpdateInfo_NormalizesEntries(t *testing.T) {
	updates := &mockUpdateChecker{result: map[string]domain.UpdateInfo{
		// Claims an update for an engine that is not installed
		domain.EngineFFmpeg: {Installed: false, LatestVersion: "7.1", UpdateAvailable: true},
		// Installed with a newer version available
		domain.EngineImageMagick: {Installed: true, CurrentVersion: "7.1.0", LatestVersion: "7.1.1"},
		// Installed and current
		domain.EnginePandoc: {Installed: true, CurrentVersion: "3.2", LatestVersion: "3.2", UpdateAvailable: true},
	}}
	pm := NewProvisioningManager(domain.DefaultRegistry(), &mockStatusProvider{}, updates, nil)

	result, err := pm.RefreshUpdateInfo(context.Background())
	require.NoError(t, err)

	assert.False(t, result[domain.EngineFFmpeg].UpdateAvailable, "not installed cannot have an update")
	assert.True(t, result[domain.EngineImageMagick].UpdateAvailable)
	assert.False(t, result[domain.EnginePandoc].UpdateAvailable, "same version cannot have an update")
}

func TestRefreshUpdateInfo_FailureKeepsStaleState(t *testing.T) {
	updates := &mockUpdateChecker{result: map[string]domain.UpdateInfo{
		domain.EngineFFmpeg: {Installed: true, CurrentVersion: "7.0", LatestVersion: "7.1"},
	}}
	pm := NewProvisioningManager(domain.DefaultRegistry(), &mockStatusProvider{}, updates, nil)

	_, err := pm.RefreshUpdateInfo(context.Background())
	require.NoError(t, err)

	updates.err = fmt.Errorf("manifest unreachable")
	_, err = pm.RefreshUpdateInfo(context.Background())
	require.Error(t, err)

	info := pm.UpdateInfo()
	assert.True(t, info[domain.EngineFFmpeg].UpdateAvailable)
	assert.Equal(t, "7.1", info[domain.EngineFFmpeg].LatestVersion)
}

func TestReadiness_FromStatus(t *testing.T) {
	status := &mockStatusProvider{result: map[string]domain.ToolStatus{
		domain.EngineFFmpeg: {Available: true},
		domain.EnginePandoc: {Available: true},
	}}
	pm := NewProvisioningManager(domain.DefaultRegistry(), status, &mockUpdateChecker{}, nil)

	// Nothing polled yet
	readiness := pm.Readiness()
	assert.False(t, readiness.CoreReady)
	assert.False(t, readiness.AllReady)

	_, err := pm.RefreshStatus(context.Background())
	require.NoError(t, err)

	readiness = pm.Readiness()
	assert.True(t, readiness.CoreReady)
	assert.False(t, readiness.AllReady, "imagemagick still missing")

	status.result[domain.EngineImageMagick] = domain.ToolStatus{Available: true}
	_, err = pm.RefreshStatus(context.Background())
	require.NoError(t, err)

	readiness = pm.Readiness()
	assert.True(t, readiness.CoreReady)
	assert.True(t, readiness.AllReady)
}

func TestStatus_ReturnsCopy(t *testing.T) {
	status := &mockStatusProvider{result: map[string]domain.ToolStatus{
		domain.EngineFFmpeg: {Available: true},
	}}
	pm := NewProvisioningManager(domain.DefaultRegistry(), status, &mockUpdateChecker{}, nil)

	_, err := pm.RefreshStatus(context.Background())
	require.NoError(t, err)

	copy := pm.Status()
	copy[domain.EngineFFmpeg] = domain.ToolStatus{Available: false}

	assert.True(t, pm.EngineAvailable(domain.EngineFFmpeg), "mutating the copy must not leak back")
}

func TestEngineByName(t *testing.T) {
	pm := NewProvisioningManager(domain.DefaultRegistry(), &mockStatusProvider{}, &mockUpdateChecker{}, nil)

	engine, ok := pm.EngineByName(domain.EngineLibreOffice)
	require.True(t, ok)
	assert.Equal(t, "soffice", engine.Command)

	_, ok = pm.EngineByName("ghostscript")
	assert.False(t, ok)
}
