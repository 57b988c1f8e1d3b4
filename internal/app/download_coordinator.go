package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/pkg/logger"
)

// DownloadCoordinator tracks in-flight engine downloads and reconciles their
// completion against the provisioning state. It never trusts the progress
// stream's completion claim by itself: a terminal event only triggers a
// status re-poll, and that poll is the source of truth.
type DownloadCoordinator struct {
	installer    domain.ToolInstaller
	provisioning *ProvisioningManager
	multiLogger  *logger.MultiLogger

	settleDelay   time.Duration // wait before the post-install update check
	displayWindow time.Duration // how long a completed progress line lingers
	stallTimeout  time.Duration // silence on the stream before giving up

	mu           sync.Mutex
	downloading  map[string]time.Time // engine name -> last event time
	lastProgress *domain.ProgressEvent
	progressSeq  uint64

	running  bool
	stopChan chan struct{}
	workerWg sync.WaitGroup
}

// NewDownloadCoordinator creates a coordinator over the given installer and
// provisioning manager
func NewDownloadCoordinator(
	installer domain.ToolInstaller,
	provisioning *ProvisioningManager,
	config *domain.ToolsConfig,
	multiLogger *logger.MultiLogger,
) *DownloadCoordinator {
	return &DownloadCoordinator{
		installer:     installer,
		provisioning:  provisioning,
		multiLogger:   multiLogger,
		settleDelay:   config.SettleDelay,
		displayWindow: config.ProgressDisplayWindow,
		stallTimeout:  config.StallTimeout,
		downloading:   make(map[string]time.Time),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming the shared progress stream
func (dc *DownloadCoordinator) Start(ctx context.Context) error {
	dc.mu.Lock()
	if dc.running {
		dc.mu.Unlock()
		return fmt.Errorf("download coordinator already running")
	}
	dc.running = true
	dc.mu.Unlock()

	dc.workerWg.Add(1)
	go dc.consumeEvents(ctx)

	return nil
}

// Stop stops the event consumer and waits for in-flight reconciliation
func (dc *DownloadCoordinator) Stop() error {
	dc.mu.Lock()
	if !dc.running {
		dc.mu.Unlock()
		return fmt.Errorf("download coordinator not running")
	}
	dc.running = false
	dc.mu.Unlock()

	close(dc.stopChan)
	dc.workerWg.Wait()

	return nil
}

// RequestDownload submits a download request for the named engine. The
// insertion into the downloading set is idempotent: re-requesting an engine
// already in flight never creates a second logical session. Submission is
// fire-and-forget; completion arrives on the progress stream.
func (dc *DownloadCoordinator) RequestDownload(ctx context.Context, engineName string) error {
	engine, ok := dc.provisioning.EngineByName(engineName)
	if !ok {
		return fmt.Errorf("unknown engine: %s", engineName)
	}

	dc.mu.Lock()
	if _, inFlight := dc.downloading[engineName]; !inFlight {
		dc.downloading[engineName] = time.Now()
	}
	dc.mu.Unlock()

	if dc.multiLogger != nil {
		dc.multiLogger.LogProvisionEvent("download_requested",
			zap.String("engine", engineName))
	}

	if err := dc.installer.RequestDownload(ctx, engine); err != nil {
		// Synchronous rejection: the request never made it out, so the
		// session is torn down immediately and the user may retry.
		dc.mu.Lock()
		delete(dc.downloading, engineName)
		dc.lastProgress = nil
		dc.progressSeq++
		dc.mu.Unlock()

		if dc.multiLogger != nil {
			dc.multiLogger.LogAppError("Download request failed",
				zap.String("engine", engineName),
				zap.Error(err))
		}
		return fmt.Errorf("download request for %s failed: %w", engineName, err)
	}

	return nil
}

// IsDownloading reports whether the named engine has an in-flight download
func (dc *DownloadCoordinator) IsDownloading(engineName string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.downloading[engineName]
	return ok
}

// Downloading returns the engines currently downloading, sorted by name
func (dc *DownloadCoordinator) Downloading() []string {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	names := make([]string, 0, len(dc.downloading))
	for name := range dc.downloading {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LastProgress returns the most recent progress event, or nil
func (dc *DownloadCoordinator) LastProgress() *domain.ProgressEvent {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.lastProgress == nil {
		return nil
	}
	ev := *dc.lastProgress
	return &ev
}

// consumeEvents drains the shared progress stream and watches for stalls.
// Events for different engines interleave arbitrarily; every decision is
// keyed by the event's Tool field.
func (dc *DownloadCoordinator) consumeEvents(ctx context.Context) {
	defer dc.workerWg.Done()

	stallTicker := time.NewTicker(dc.stallCheckInterval())
	defer stallTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dc.stopChan:
			return
		case ev, ok := <-dc.installer.Events():
			if !ok {
				return
			}
			dc.handleEvent(ctx, ev)
		case <-stallTicker.C:
			dc.reapStalled()
		}
	}
}

func (dc *DownloadCoordinator) stallCheckInterval() time.Duration {
	interval := dc.stallTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// handleEvent processes one event from the shared stream
func (dc *DownloadCoordinator) handleEvent(ctx context.Context, ev domain.ProgressEvent) {
	dc.mu.Lock()

	// A completion claim for an engine with no in-flight session has
	// nothing to settle; dropping it avoids a spurious refresh cycle.
	if ev.IsTerminal() {
		if _, inFlight := dc.downloading[ev.Tool]; !inFlight {
			dc.mu.Unlock()
			return
		}
	}

	progress := ev
	dc.lastProgress = &progress
	dc.progressSeq++
	seq := dc.progressSeq

	if !ev.IsTerminal() {
		if _, ok := dc.downloading[ev.Tool]; ok {
			dc.downloading[ev.Tool] = time.Now()
		}
		dc.mu.Unlock()
		return
	}

	delete(dc.downloading, ev.Tool)
	dc.mu.Unlock()

	if dc.multiLogger != nil {
		dc.multiLogger.LogProvisionEvent("download_complete",
			zap.String("engine", ev.Tool))
	}

	dc.workerWg.Add(1)
	go dc.reconcileCompletion(ctx, ev.Tool, seq)
}

// reconcileCompletion re-polls provisioning state after a terminal event:
// exactly one status refresh immediately, then the update check after a
// settle delay, then the progress line is cleared once its display window
// elapses (unless newer events replaced it).
func (dc *DownloadCoordinator) reconcileCompletion(ctx context.Context, engineName string, seq uint64) {
	defer dc.workerWg.Done()

	if _, err := dc.provisioning.RefreshStatus(ctx); err != nil {
		if dc.multiLogger != nil {
			dc.multiLogger.LogAppError("Post-download status refresh failed",
				zap.String("engine", engineName),
				zap.Error(err))
		}
	}

	if !dc.sleep(ctx, dc.settleDelay) {
		return
	}

	if _, err := dc.provisioning.RefreshUpdateInfo(ctx); err != nil {
		if dc.multiLogger != nil {
			dc.multiLogger.LogAppError("Post-download update check failed",
				zap.String("engine", engineName),
				zap.Error(err))
		}
	}

	if !dc.sleep(ctx, dc.displayWindow) {
		return
	}

	dc.mu.Lock()
	if dc.progressSeq == seq {
		dc.lastProgress = nil
	}
	dc.mu.Unlock()
}

// sleep waits for d, returning false if the context is cancelled or the
// coordinator is stopped before the duration elapses.
func (dc *DownloadCoordinator) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-dc.stopChan:
		return false
	}
}

// reapStalled drops sessions that have gone silent past the stall timeout.
// The underlying transfer is not cancelled (there is no cancellation path);
// the session is surfaced as stalled so the user can retry.
func (dc *DownloadCoordinator) reapStalled() {
	now := time.Now()

	dc.mu.Lock()
	var stalled []string
	for name, lastEvent := range dc.downloading {
		if now.Sub(lastEvent) > dc.stallTimeout {
			stalled = append(stalled, name)
		}
	}
	for _, name := range stalled {
		delete(dc.downloading, name)
		dc.lastProgress = &domain.ProgressEvent{
			Tool:    name,
			Status:  domain.ProgressStatusStalled,
			Message: fmt.Sprintf("No progress from %s download for %s; request it again to retry", name, dc.stallTimeout),
		}
		dc.progressSeq++
	}
	dc.mu.Unlock()

	for _, name := range stalled {
		if dc.multiLogger != nil {
			dc.multiLogger.LogAppError("Download stalled",
				zap.String("engine", name),
				zap.Duration("stall_timeout", dc.stallTimeout))
		}
	}
}
