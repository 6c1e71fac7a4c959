// Package notify is the output sink for user-facing notifications. The engine
// only decides when a notification is due; rendering (toasts, banners) is the
// consumer's business.
package notify

import (
	"context"
	"log/slog"
)

// Severity hints at how a consumer should render the notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Notification is one user-facing message.
type Notification struct {
	Title    string
	Body     string
	Severity Severity
}

// Notifier delivers notifications. Implementations must not block the caller
// for long; the reconciler emits from its event loop.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Log writes notifications to the structured log. Default production sink
// when no push channel is wired.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, n Notification) {
	l.Logger.InfoContext(ctx, "notification",
		"title", n.Title,
		"body", n.Body,
		"severity", n.Severity,
	)
}

// Func adapts a function to the Notifier interface. Test helper.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}
