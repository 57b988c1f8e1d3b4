package infrastructure

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/yourusername/convertly-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending desktop notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NotificationService) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}

	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NotificationService) sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}

	return nil
}

// NotifyConversionStarted sends notification when a conversion starts
func (n *NotificationService) NotifyConversionStarted(inputPath, format string) {
	title := "Conversion Started"
	message := fmt.Sprintf("Converting %s to %s", filepath.Base(inputPath), format)
	n.Send(title, message)
}

// NotifyConversionCompleted sends notification when a conversion completes
func (n *NotificationService) NotifyConversionCompleted(outputPath string) {
	title := "Conversion Completed"
	message := fmt.Sprintf("Saved %s", filepath.Base(outputPath))
	n.Send(title, message)
}

// NotifyConversionFailed sends notification when a conversion fails
func (n *NotificationService) NotifyConversionFailed(inputPath, format string, err error) {
	title := "Conversion Failed"
	message := fmt.Sprintf("Could not convert %s to %s", filepath.Base(inputPath), format)
	n.Send(title, message)
}

// NotifyToolInstalled sends notification when an engine finishes installing
func (n *NotificationService) NotifyToolInstalled(engine string) {
	title := "Tool Installed"
	message := fmt.Sprintf("%s is ready to use", engine)
	n.Send(title, message)
}
