// Package notify is the boundary to whatever shows user-facing messages
// (toasts in a browser, lines in the CLI).
package notify

import (
	"context"

	"github.com/dmitrijs2005/webappsync/internal/logging"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

type Notification struct {
	Kind    Kind
	Code    string
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	args := []any{"kind", n.Kind, "code", n.Code}
	switch n.Kind {
	case KindError:
		l.logger.Error(ctx, n.Message, args...)
	case KindWarning:
		l.logger.Warn(ctx, n.Message, args...)
	default:
		l.logger.Info(ctx, n.Message, args...)
	}
}
