package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/internal/infrastructure"
)

// ConversionManager runs individual conversions through the routed engine
type ConversionManager struct {
	repo             domain.ConversionRepository
	converter        domain.Converter
	provisioning     *ProvisioningManager
	notifier         *infrastructure.NotificationService
	config           *domain.ConvertConfig
	logger           *zap.Logger
	engineSemaphores map[string]chan struct{} // Per-engine semaphores (limit=1 each)
	mu               sync.RWMutex
}

// NewConversionManager creates a new conversion manager
func NewConversionManager(
	repo domain.ConversionRepository,
	converter domain.Converter,
	provisioning *ProvisioningManager,
	notifier *infrastructure.NotificationService,
	config *domain.ConvertConfig,
	logger *zap.Logger,
) *ConversionManager {
	// One slot per engine: different engines convert in parallel while
	// conversions through the same engine are serialized
	engineSemaphores := make(map[string]chan struct{})
	for _, engine := range provisioning.Registry().Engines() {
		engineSemaphores[engine.Name] = make(chan struct{}, 1)
	}

	return &ConversionManager{
		repo:             repo,
		converter:        converter,
		provisioning:     provisioning,
		notifier:         notifier,
		config:           config,
		logger:           logger,
		engineSemaphores: engineSemaphores,
	}
}

// ProcessConversion processes a single conversion
func (cm *ConversionManager) ProcessConversion(ctx context.Context, conversion *domain.Conversion) error {
	cm.mu.RLock()
	engineSem, ok := cm.engineSemaphores[conversion.Engine]
	cm.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no semaphore for engine: %s", conversion.Engine)
	}

	select {
	case engineSem <- struct{}{}:
		defer func() { <-engineSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	cm.logger.Info("Processing conversion",
		zap.String("id", conversion.ID),
		zap.String("input", conversion.InputPath),
		zap.String("format", conversion.OutputFormat),
		zap.String("engine", conversion.Engine))

	// Provisioning gate: the routed engine must have reported available on
	// the last status poll. Failing fast here gives the user an actionable
	// install hint instead of a process spawn error.
	if !cm.provisioning.EngineAvailable(conversion.Engine) {
		err := fmt.Errorf("engine %s is not installed; download it from the tools screen", conversion.Engine)
		conversion.MarkFailed(err)
		cm.repo.Update(conversion)
		cm.notifier.NotifyConversionFailed(conversion.InputPath, conversion.OutputFormat, err)
		return err
	}

	engine, ok := cm.provisioning.EngineByName(conversion.Engine)
	if !ok {
		err := fmt.Errorf("engine %s is not registered", conversion.Engine)
		conversion.MarkFailed(err)
		cm.repo.Update(conversion)
		return err
	}

	// Mark as processing
	conversion.MarkProcessing()
	if err := cm.repo.Update(conversion); err != nil {
		return fmt.Errorf("failed to update conversion status: %w", err)
	}

	cm.notifier.NotifyConversionStarted(conversion.InputPath, conversion.OutputFormat)

	// Attempt conversion with retries
	var lastErr error
	for attempt := 0; attempt <= cm.config.MaxRetries; attempt++ {
		if attempt > 0 {
			cm.logger.Info("Retrying conversion",
				zap.String("id", conversion.ID),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", cm.config.MaxRetries))

			select {
			case <-time.After(cm.config.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}

			conversion.IncrementRetry()
			cm.repo.Update(conversion)
		}

		err := cm.converter.Convert(ctx, conversion, engine)
		if err == nil {
			conversion.MarkCompleted(conversion.OutputPath)
			if err := cm.repo.Update(conversion); err != nil {
				cm.logger.Error("Failed to update conversion status", zap.Error(err))
			}

			cm.logger.Info("Conversion completed",
				zap.String("id", conversion.ID),
				zap.String("output", conversion.OutputPath))

			cm.notifier.NotifyConversionCompleted(conversion.OutputPath)
			return nil
		}

		lastErr = err
		cm.logger.Warn("Conversion attempt failed",
			zap.String("id", conversion.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	// All retries exhausted
	conversion.MarkFailed(lastErr)
	if err := cm.repo.Update(conversion); err != nil {
		cm.logger.Error("Failed to update conversion status", zap.Error(err))
	}

	cm.logger.Error("Conversion failed after retries",
		zap.String("id", conversion.ID),
		zap.String("input", conversion.InputPath),
		zap.Error(lastErr))

	cm.notifier.NotifyConversionFailed(conversion.InputPath, conversion.OutputFormat, lastErr)
	return lastErr
}

// CancelConversion cancels a queued or processing conversion record. The
// underlying engine process, if already started, runs to completion; only
// the record state changes.
func (cm *ConversionManager) CancelConversion(id string) error {
	conversion, err := cm.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("conversion not found: %w", err)
	}

	if conversion.IsTerminal() {
		return fmt.Errorf("conversion already in terminal state: %s", conversion.Status)
	}

	conversion.Status = domain.StatusCancelled
	conversion.UpdatedAt = time.Now()

	if err := cm.repo.Update(conversion); err != nil {
		return fmt.Errorf("failed to update conversion: %w", err)
	}

	cm.logger.Info("Conversion cancelled", zap.String("id", id))
	return nil
}

// RetryConversion re-queues a failed conversion
func (cm *ConversionManager) RetryConversion(ctx context.Context, id string) error {
	conversion, err := cm.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("conversion not found: %w", err)
	}

	if conversion.Status != domain.StatusFailed {
		return fmt.Errorf("conversion is not in failed state: %s", conversion.Status)
	}

	conversion.Status = domain.StatusQueued
	conversion.RetryCount = 0
	conversion.ErrorMessage = ""
	conversion.UpdatedAt = time.Now()

	if err := cm.repo.Update(conversion); err != nil {
		return fmt.Errorf("failed to update conversion: %w", err)
	}

	cm.logger.Info("Conversion queued for retry", zap.String("id", id))
	return nil
}
