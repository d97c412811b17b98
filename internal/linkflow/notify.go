package linkflow

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier delivers user-facing messages about a link attempt (toasts, push, email).
// Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, title, description string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, title, description string) error

func (f NotifierFunc) Notify(ctx context.Context, title, description string) error {
	return f(ctx, title, description)
}

// SafeNotify calls n and absorbs any failure, including a panic. Failures are logged and
// never returned to the caller.
func SafeNotify(ctx context.Context, logger *slog.Logger, n Notifier, title, description string) {
	if n == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "notifier panicked",
				"title", title,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()

	if err := n.Notify(ctx, title, description); err != nil {
		logger.WarnContext(ctx, "notifier unavailable",
			"title", title,
			"error", err,
		)
	}
}
