package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/internal/infrastructure"
)

// mockToolInstaller implements domain.ToolInstaller for testing
type mockToolInstaller struct {
	events   chan domain.ProgressEvent
	err      error
	requests int32
}

func newMockToolInstaller() *mockToolInstaller {
	return &mockToolInstaller{events: make(chan domain.ProgressEvent, 16)}
}

func (m *mockToolInstaller) RequestDownload(ctx context.Context, engine domain.Engine) error {
	atomic.AddInt32(&m.requests, 1)
	return m.err
}

func (m *mockToolInstaller) Events() <-chan domain.ProgressEvent {
	return m.events
}

// countingStatusProvider counts polls with atomics so the consumer goroutine
// can be observed from the test
type countingStatusProvider struct {
	calls int32
}

func (c *countingStatusProvider) QueryStatus(ctx context.Context, engines []domain.Engine) (map[string]domain.ToolStatus, error) {
	atomic.AddInt32(&c.calls, 1)
	return map[string]domain.ToolStatus{
		domain.EngineFFmpeg: {Available: true, Path: "/opt/tools/ffmpeg"},
	}, nil
}

type countingUpdateChecker struct {
	calls int32
}

func (c *countingUpdateChecker) CheckUpdates(ctx context.Context, engines []domain.Engine) (map[string]domain.UpdateInfo, error) {
	atomic.AddInt32(&c.calls, 1)
	return map[string]domain.UpdateInfo{
		domain.EngineFFmpeg: {Installed: true, CurrentVersion: "7.1"},
	}, nil
}

func coordinatorConfig() *domain.ToolsConfig {
	return &domain.ToolsConfig{
		SettleDelay:           10 * time.Millisecond,
		ProgressDisplayWindow: 20 * time.Millisecond,
		StallTimeout:          time.Hour,
	}
}

func TestRequestDownload_Idempotent(t *testing.T) {
	installer := newMockToolInstaller()
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))
	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))

	assert.True(t, dc.IsDownloading(domain.EngineFFmpeg))
	assert.Equal(t, []string{domain.EngineFFmpeg}, dc.Downloading(),
		"re-requesting must not create a second logical session")
}

func TestRequestDownload_UnknownEngine(t *testing.T) {
	installer := newMockToolInstaller()
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	err := dc.RequestDownload(context.Background(), "ghostscript")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
	assert.Empty(t, dc.Downloading())
}

func TestRequestDownload_SyncFailureTearsDownSession(t *testing.T) {
	installer := newMockToolInstaller()
	installer.err = fmt.Errorf("connection refused")
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	err := dc.RequestDownload(context.Background(), domain.EngineFFmpeg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	assert.False(t, dc.IsDownloading(domain.EngineFFmpeg))
	assert.Nil(t, dc.LastProgress(), "a rejected request leaves no progress behind")

	// The session is fully torn down, so a retry goes through
	installer.err = nil
	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))
	assert.True(t, dc.IsDownloading(domain.EngineFFmpeg))
}

func TestRequestDownload_OutlivesRequestContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	installer := infrastructure.NewHTTPToolInstaller(server.URL, t.TempDir(), nil)
	status := &countingStatusProvider{}
	pm := NewProvisioningManager(domain.DefaultRegistry(), status, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.Start(context.Background()))
	defer dc.Stop()

	// The request context dies as soon as the accepting handler returns;
	// the session must still run to completion
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, dc.RequestDownload(ctx, domain.EngineFFmpeg))
	cancel()

	assert.Eventually(t, func() bool {
		return !dc.IsDownloading(domain.EngineFFmpeg) &&
			atomic.LoadInt32(&status.calls) == 1
	}, 3*time.Second, 10*time.Millisecond, "session never reached the post-download poll")

	assert.True(t, pm.EngineAvailable(domain.EngineFFmpeg))
}

func TestConsumeEvents_NonTerminalUpdatesProgress(t *testing.T) {
	installer := newMockToolInstaller()
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.Start(context.Background()))
	defer dc.Stop()

	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))

	installer.events <- domain.ProgressEvent{
		Tool:    domain.EngineFFmpeg,
		Status:  domain.ProgressStatusDownloading,
		Message: "12 MB / 80 MB",
		Percent: 15,
	}

	assert.Eventually(t, func() bool {
		p := dc.LastProgress()
		return p != nil && p.Tool == domain.EngineFFmpeg && p.Percent == 15
	}, time.Second, 5*time.Millisecond)

	assert.True(t, dc.IsDownloading(domain.EngineFFmpeg), "non-terminal events keep the session alive")
}

func TestConsumeEvents_TerminalTriggersSingleRefresh(t *testing.T) {
	installer := newMockToolInstaller()
	status := &countingStatusProvider{}
	updates := &countingUpdateChecker{}
	pm := NewProvisioningManager(domain.DefaultRegistry(), status, updates, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.Start(context.Background()))

	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))

	installer.events <- domain.ProgressEvent{
		Tool:   domain.EngineFFmpeg,
		Status: domain.ProgressStatusComplete,
	}

	// Session removed, one status poll, then the update check after settle
	assert.Eventually(t, func() bool {
		return !dc.IsDownloading(domain.EngineFFmpeg)
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&updates.calls) == 1
	}, time.Second, 5*time.Millisecond)

	// Progress clears once its display window elapses
	assert.Eventually(t, func() bool {
		return dc.LastProgress() == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, dc.Stop())
	assert.Equal(t, int32(1), atomic.LoadInt32(&status.calls),
		"a terminal event triggers exactly one status refresh")

	assert.True(t, pm.EngineAvailable(domain.EngineFFmpeg),
		"availability comes from the post-download poll")
}

func TestConsumeEvents_InterleavedTools(t *testing.T) {
	installer := newMockToolInstaller()
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.Start(context.Background()))
	defer dc.Stop()

	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))
	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineImageMagick))

	// Completion of one tool must not end the other's session
	installer.events <- domain.ProgressEvent{
		Tool:   domain.EngineImageMagick,
		Status: domain.ProgressStatusComplete,
	}

	assert.Eventually(t, func() bool {
		return !dc.IsDownloading(domain.EngineImageMagick)
	}, time.Second, 5*time.Millisecond)

	assert.True(t, dc.IsDownloading(domain.EngineFFmpeg))
}

func TestConsumeEvents_TerminalWithoutSessionIgnored(t *testing.T) {
	installer := newMockToolInstaller()
	status := &countingStatusProvider{}
	pm := NewProvisioningManager(domain.DefaultRegistry(), status, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.Start(context.Background()))

	// Nothing was requested, so this completion claim has no session
	installer.events <- domain.ProgressEvent{
		Tool:   domain.EngineFFmpeg,
		Status: domain.ProgressStatusComplete,
	}

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, dc.Stop())

	assert.Zero(t, atomic.LoadInt32(&status.calls), "no session means no refresh")
	assert.Nil(t, dc.LastProgress())
}

func TestReapStalled_RemovesSilentSession(t *testing.T) {
	installer := newMockToolInstaller()
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)

	config := coordinatorConfig()
	config.StallTimeout = 50 * time.Millisecond
	dc := NewDownloadCoordinator(installer, pm, config, nil)

	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))

	// Backdate the session past the stall timeout
	dc.mu.Lock()
	dc.downloading[domain.EngineFFmpeg] = time.Now().Add(-time.Minute)
	dc.mu.Unlock()

	dc.reapStalled()

	assert.False(t, dc.IsDownloading(domain.EngineFFmpeg))

	p := dc.LastProgress()
	require.NotNil(t, p)
	assert.Equal(t, domain.EngineFFmpeg, p.Tool)
	assert.Equal(t, domain.ProgressStatusStalled, p.Status)
}

func TestReapStalled_KeepsActiveSession(t *testing.T) {
	installer := newMockToolInstaller()
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.RequestDownload(context.Background(), domain.EngineFFmpeg))

	dc.reapStalled()

	assert.True(t, dc.IsDownloading(domain.EngineFFmpeg))
	assert.Nil(t, dc.LastProgress())
}

func TestCoordinator_StartStop(t *testing.T) {
	installer := newMockToolInstaller()
	pm := NewProvisioningManager(domain.DefaultRegistry(), &countingStatusProvider{}, &countingUpdateChecker{}, nil)
	dc := NewDownloadCoordinator(installer, pm, coordinatorConfig(), nil)

	require.NoError(t, dc.Start(context.Background()))
	assert.Error(t, dc.Start(context.Background()), "double start must fail")

	require.NoError(t, dc.Stop())
	assert.Error(t, dc.Stop(), "double stop must fail")
}
