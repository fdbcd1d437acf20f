// Package notify delivers user notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"daydesk/internal/logger"
)

// ErrUnavailable is returned when a sink cannot deliver notifications.
var ErrUnavailable = errors.New("notifications unavailable")

// Sink delivers notifications. Notify is fire-and-forget.
type Sink interface {
	// RequestPermission asks whether notifications may be shown.
	RequestPermission(ctx context.Context) error
	Notify(title, body string)
}

// Desktop shows notifications through notify-send.
type Desktop struct {
	logger  *logger.Logger
	command string
	timeout time.Duration
}

// NewDesktop creates a Desktop sink.
func NewDesktop(logger *logger.Logger) *Desktop {
	return &Desktop{logger: logger, command: "notify-send", timeout: 5 * time.Second}
}

// RequestPermission succeeds when notify-send is installed.
func (d *Desktop) RequestPermission(ctx context.Context) error {
	if _, err := exec.LookPath(d.command); err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnavailable, d.command)
	}
	return nil
}

// Notify shows a notification. Failures are logged and otherwise ignored.
func (d *Desktop) Notify(title, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := exec.CommandContext(ctx, d.command, "--app-name=daydesk", title, body).Run(); err != nil {
		d.logger.Debugw("Notification failed", "title", title, "error", err)
	}
}

// Log writes notifications to the log. It is used when no desktop is
// available and by dry runs.
type Log struct {
	logger *logger.Logger
}

// NewLog creates a Log sink.
func NewLog(logger *logger.Logger) *Log {
	return &Log{logger: logger}
}

// RequestPermission always succeeds.
func (l *Log) RequestPermission(context.Context) error { return nil }

// Notify logs the notification.
func (l *Log) Notify(title, body string) {
	l.logger.Infow("Notification", "title", title, "body", body)
}
