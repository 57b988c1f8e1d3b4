package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/pkg/logger"
)

// ConversionQueue manages the conversion queue
type ConversionQueue struct {
	repo          domain.ConversionRepository
	conversionMgr *ConversionManager
	registry      *domain.FormatRegistry
	config        *domain.QueueConfig
	multiLogger   *logger.MultiLogger
	mu            sync.RWMutex
	running       bool
	stopChan      chan struct{}
	exitChan      chan struct{}
	exitOnce      sync.Once
	workerWg      sync.WaitGroup
}

// NewConversionQueue creates a new conversion queue
func NewConversionQueue(
	repo domain.ConversionRepository,
	conversionMgr *ConversionManager,
	registry *domain.FormatRegistry,
	config *domain.QueueConfig,
	multiLogger *logger.MultiLogger,
) *ConversionQueue {
	return &ConversionQueue{
		repo:          repo,
		conversionMgr: conversionMgr,
		registry:      registry,
		config:        config,
		multiLogger:   multiLogger,
		stopChan:      make(chan struct{}),
		exitChan:      make(chan struct{}),
	}
}

// Start starts the queue processor
func (cq *ConversionQueue) Start(ctx context.Context) error {
	cq.mu.Lock()
	if cq.running {
		cq.mu.Unlock()
		return fmt.Errorf("conversion queue already running")
	}
	cq.running = true
	cq.mu.Unlock()

	if cq.multiLogger != nil {
		cq.multiLogger.LogQueueEvent("queue_started")
	}

	cq.workerWg.Add(1)
	go cq.processQueue(ctx)

	return nil
}

// Stop stops the queue processor
func (cq *ConversionQueue) Stop() error {
	cq.mu.Lock()
	if !cq.running {
		cq.mu.Unlock()
		return fmt.Errorf("conversion queue not running")
	}
	cq.running = false
	cq.mu.Unlock()

	if cq.multiLogger != nil {
		cq.multiLogger.LogQueueEvent("queue_stopped")
	}
	close(cq.stopChan)
	cq.workerWg.Wait()

	return nil
}

// IsRunning returns whether the queue is running
func (cq *ConversionQueue) IsRunning() bool {
	cq.mu.RLock()
	defer cq.mu.RUnlock()
	return cq.running
}

// WaitForExit returns a channel closed when the queue auto-exits on empty
func (cq *ConversionQueue) WaitForExit() <-chan struct{} {
	return cq.exitChan
}

// AddConversion routes a conversion request and queues it. Routing is the
// only decision made here: whether the engine is installed is checked at
// processing time against provisioning state.
func (cq *ConversionQueue) AddConversion(inputPath, outputFormat, outputDir string) (*domain.Conversion, error) {
	inputExt := domain.NormalizeExtension(filepath.Ext(inputPath))
	outputFormat = domain.NormalizeExtension(outputFormat)

	if inputExt == "" {
		return nil, fmt.Errorf("input file has no extension: %s", inputPath)
	}
	if outputFormat == "" {
		return nil, fmt.Errorf("output format not specified")
	}

	engine := cq.registry.EngineFor(inputExt, outputFormat)
	if engine == nil {
		return nil, fmt.Errorf("no engine converts %s to %s", inputExt, outputFormat)
	}

	conversion := domain.NewConversion(inputPath, inputExt, outputFormat, outputDir, engine.Name)

	if err := cq.repo.Create(conversion); err != nil {
		return nil, fmt.Errorf("failed to create conversion: %w", err)
	}

	if cq.multiLogger != nil {
		cq.multiLogger.LogQueueEvent("conversion_added",
			zap.String("id", conversion.ID),
			zap.String("input", inputPath),
			zap.String("format", outputFormat),
			zap.String("engine", engine.Name))
	}

	return conversion, nil
}

// GetConversion retrieves a conversion by ID
func (cq *ConversionQueue) GetConversion(id string) (*domain.Conversion, error) {
	return cq.repo.FindByID(id)
}

// ListConversions lists all conversions with optional filters
func (cq *ConversionQueue) ListConversions(filters map[string]interface{}) ([]*domain.Conversion, error) {
	return cq.repo.FindAll(filters)
}

// DeleteConversion deletes a conversion record
func (cq *ConversionQueue) DeleteConversion(id string) error {
	return cq.repo.Delete(id)
}

// GetStats returns queue statistics
func (cq *ConversionQueue) GetStats() (*domain.ConversionStats, error) {
	return cq.repo.GetStats()
}

// processQueue processes the conversion queue
func (cq *ConversionQueue) processQueue(ctx context.Context) {
	defer cq.workerWg.Done()

	ticker := time.NewTicker(cq.config.CheckInterval)
	defer ticker.Stop()

	emptyStartTime := time.Time{}

	for {
		select {
		case <-ctx.Done():
			if cq.multiLogger != nil {
				cq.multiLogger.LogQueueEvent("queue_processor_stopped",
					zap.String("reason", "context_cancelled"))
			}
			return
		case <-cq.stopChan:
			if cq.multiLogger != nil {
				cq.multiLogger.LogQueueEvent("queue_processor_stopped",
					zap.String("reason", "stop_signal"))
			}
			return
		case <-ticker.C:
			pending, err := cq.repo.FindPending()
			if err != nil {
				if cq.multiLogger != nil {
					cq.multiLogger.LogAppError("Failed to fetch pending conversions", zap.Error(err))
				}
				continue
			}

			if len(pending) == 0 {
				if emptyStartTime.IsZero() {
					emptyStartTime = time.Now()
					if cq.multiLogger != nil {
						cq.multiLogger.LogQueueEvent("queue_empty")
					}
				} else if cq.config.AutoExitOnEmpty && time.Since(emptyStartTime) > cq.config.EmptyWaitTime {
					if cq.multiLogger != nil {
						cq.multiLogger.LogQueueEvent("queue_auto_exit",
							zap.String("reason", "empty_timeout"))
					}
					cq.exitOnce.Do(func() { close(cq.exitChan) })
					return
				}
				continue
			}

			emptyStartTime = time.Time{}

			// Spawn a goroutine per conversion; the per-engine semaphores
			// in ConversionManager control actual concurrency
			for _, conversion := range pending {
				cv := conversion

				if cq.multiLogger != nil {
					cq.multiLogger.LogQueueEvent("conversion_started",
						zap.String("id", cv.ID),
						zap.String("input", cv.InputPath),
						zap.String("engine", cv.Engine))
				}

				cq.workerWg.Add(1)
				go func(conversion *domain.Conversion) {
					defer cq.workerWg.Done()

					if err := cq.conversionMgr.ProcessConversion(ctx, conversion); err != nil {
						if cq.multiLogger != nil {
							cq.multiLogger.LogQueueEvent("conversion_failed",
								zap.String("id", conversion.ID),
								zap.Error(err))
						}
					} else {
						if cq.multiLogger != nil {
							cq.multiLogger.LogQueueEvent("conversion_completed",
								zap.String("id", conversion.ID),
								zap.String("status", string(conversion.Status)),
								zap.String("output", conversion.OutputPath))
						}
					}
				}(cv)
			}
		}
	}
}
