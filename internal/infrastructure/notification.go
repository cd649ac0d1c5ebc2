package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/youtubify-go/internal/domain"
)

// commandRunner runs a desktop notification command
type commandRunner func(name string, args ...string) error

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// NotificationService implements domain.Notifier with desktop notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    commandRunner
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run:    runCommand,
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

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent", zap.String("title", title))
	return nil
}

// NotifyJobCompleted sends notification when a job completes
func (n *NotificationService) NotifyJobCompleted(snap domain.Snapshot) {
	title := "Download Complete"
	if snap.Kind == domain.KindPlaylist {
		title = "Playlist Download Complete"
	}
	_ = n.Send(title, describe(snap))
}

// NotifyJobFailed sends notification when a job fails
func (n *NotificationService) NotifyJobFailed(snap domain.Snapshot) {
	message := describe(snap)
	if snap.Error != nil {
		message += ": " + truncateString(snap.Error.Message, 60)
	}
	_ = n.Send("Download Failed", message)
}

// describe names a job by its probed title, falling back to the URL
func describe(snap domain.Snapshot) string {
	if snap.Metadata != nil && strings.TrimSpace(snap.Metadata.Title) != "" {
		return truncateString(snap.Metadata.Title, 40)
	}
	return truncateString(snap.SourceURL, 40)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
