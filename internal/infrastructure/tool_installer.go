package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/pkg/logger"
	"go.uber.org/zap"
)

// HTTPToolInstaller implements domain.ToolInstaller by streaming engine
// binaries from a release endpoint into the managed tools directory. All
// installs report onto one shared event channel; every event carries the
// engine name explicitly so consumers never parse identity out of message
// text.
type HTTPToolInstaller struct {
	baseURL     string
	toolsDir    string
	client      *http.Client
	events      chan domain.ProgressEvent
	eventLogger *logger.MultiLogger
}

// NewHTTPToolInstaller creates an installer downloading from baseURL into
// toolsDir
func NewHTTPToolInstaller(baseURL, toolsDir string, eventLogger *logger.MultiLogger) *HTTPToolInstaller {
	return &HTTPToolInstaller{
		baseURL:     baseURL,
		toolsDir:    toolsDir,
		client:      &http.Client{Timeout: 30 * time.Minute},
		events:      make(chan domain.ProgressEvent, 64),
		eventLogger: eventLogger,
	}
}

// Events returns the shared progress stream
func (inst *HTTPToolInstaller) Events() <-chan domain.ProgressEvent {
	return inst.events
}

// RequestDownload validates the request and starts the transfer in the
// background. A nil return only means the request was accepted; completion
// is signaled on the event stream.
func (inst *HTTPToolInstaller) RequestDownload(ctx context.Context, engine domain.Engine) error {
	if err := os.MkdirAll(inst.toolsDir, 0755); err != nil {
		return fmt.Errorf("failed to create tools directory: %w", err)
	}

	url := inst.downloadURL(engine)

	// The caller's context covers acceptance only. HTTP handlers cancel
	// their request context the moment they write a response, which would
	// abort the transfer mid-stream; the background goroutine keeps the
	// caller's values but not its cancellation.
	go inst.download(context.WithoutCancel(ctx), engine, url)
	return nil
}

// downloadURL builds the per-platform artifact URL for an engine
func (inst *HTTPToolInstaller) downloadURL(engine domain.Engine) string {
	return fmt.Sprintf("%s/%s/%s-%s-%s", inst.baseURL, engine.Name, engine.Command, runtime.GOOS, runtime.GOARCH)
}

// download streams the artifact to disk, emitting progress along the way.
// Errors after acceptance surface as a stalled session on the consumer side
// (the stream goes silent); the partial file is cleaned up here.
func (inst *HTTPToolInstaller) download(ctx context.Context, engine domain.Engine, url string) {
	inst.emit(domain.ProgressEvent{
		Tool:    engine.Name,
		Status:  domain.ProgressStatusDownloading,
		Message: fmt.Sprintf("Downloading %s", engine.Name),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		inst.logDownloadError(engine.Name, err)
		return
	}

	resp, err := inst.client.Do(req)
	if err != nil {
		inst.logDownloadError(engine.Name, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		inst.logDownloadError(engine.Name, fmt.Errorf("download returned status %d", resp.StatusCode))
		return
	}

	partPath := filepath.Join(inst.toolsDir, engine.Command+".part")
	finalPath := filepath.Join(inst.toolsDir, engine.Command)

	file, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		inst.logDownloadError(engine.Name, err)
		return
	}

	if err := inst.copyWithProgress(file, resp.Body, engine.Name, resp.ContentLength); err != nil {
		file.Close()
		os.Remove(partPath)
		inst.logDownloadError(engine.Name, err)
		return
	}
	file.Close()

	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		inst.logDownloadError(engine.Name, err)
		return
	}

	inst.emit(domain.ProgressEvent{
		Tool:    engine.Name,
		Status:  domain.ProgressStatusComplete,
		Message: fmt.Sprintf("%s installed", engine.Name),
		Percent: 100,
	})

	if inst.eventLogger != nil {
		inst.eventLogger.LogProvisionEvent("tool_installed",
			zap.String("engine", engine.Name),
			zap.String("path", finalPath))
	}
}

// copyWithProgress streams body to file, emitting a progress event roughly
// every megabyte
func (inst *HTTPToolInstaller) copyWithProgress(dst io.Writer, src io.Reader, tool string, total int64) error {
	buf := make([]byte, 256*1024)
	var written int64
	var lastReport int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			written += int64(n)

			if written-lastReport >= 1<<20 {
				lastReport = written
				inst.emit(domain.ProgressEvent{
					Tool:    tool,
					Status:  domain.ProgressStatusDownloading,
					Message: fmt.Sprintf("Downloading %s (%s)", tool, formatBytes(written)),
					Percent: percentOf(written, total),
				})
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// emit delivers an event without ever blocking a transfer on a slow consumer
func (inst *HTTPToolInstaller) emit(ev domain.ProgressEvent) {
	select {
	case inst.events <- ev:
	default:
	}
}

func (inst *HTTPToolInstaller) logDownloadError(tool string, err error) {
	if inst.eventLogger != nil {
		inst.eventLogger.LogAppError("Tool download failed",
			zap.String("engine", tool),
			zap.Error(err))
	}
}

func percentOf(written, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(written) / float64(total) * 100
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// isExecutable checks if a path exists as a regular executable file
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
