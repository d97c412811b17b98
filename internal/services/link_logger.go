package services

import (
	"context"
	"log/slog"
	"time"

	"finance-tracker/internal/linkflow"

	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID attaches a request correlation id that LinkLogger adds to every line
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, or ""
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}

type LinkLogger struct {
	logger *slog.Logger
}

func NewLinkLogger(logger *slog.Logger) LinkLoggerInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkLogger{logger: logger}
}

func (l *LinkLogger) LogSessionStarted(ctx context.Context, userID uuid.UUID, sessionID string, branch linkflow.StartResult) {
	l.logger.InfoContext(ctx, "link session started",
		slog.String("event_type", "link_session_started"),
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID),
		slog.String("branch", string(branch)),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LinkLogger) LogSessionCompleted(ctx context.Context, userID uuid.UUID, sessionID, recordID, institution string, durationMs int64) {
	l.logger.InfoContext(ctx, "link session completed",
		slog.String("event_type", "link_session_completed"),
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID),
		slog.String("record_id", recordID),
		slog.String("institution", institution),
		slog.Int64("duration_ms", durationMs),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LinkLogger) LogSessionExited(ctx context.Context, userID uuid.UUID, sessionID, errorCode string) {
	attrs := []slog.Attr{
		slog.String("event_type", "link_session_exited"),
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	}
	if errorCode != "" {
		attrs = append(attrs, slog.String("error_code", errorCode))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "link session exited", attrs...)
}

func (l *LinkLogger) LogSessionClosed(ctx context.Context, userID uuid.UUID, sessionID, reason string) {
	l.logger.InfoContext(ctx, "link session closed",
		slog.String("event_type", "link_session_closed"),
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LinkLogger) LogProviderEvent(ctx context.Context, userID uuid.UUID, sessionID, eventName string) {
	l.logger.DebugContext(ctx, "link provider event",
		slog.String("event_type", "link_provider_event"),
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID),
		slog.String("event_name", eventName),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LinkLogger) LogExchangeFailed(ctx context.Context, userID uuid.UUID, sessionID, errorMsg string) {
	l.logger.WarnContext(ctx, "public token exchange failed",
		slog.String("event_type", "link_exchange_failed"),
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID),
		slog.String("error", errorMsg),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LinkLogger) LogAccountRefreshed(ctx context.Context, userID uuid.UUID, recordID, oldBalance, newBalance string) {
	l.logger.InfoContext(ctx, "linked account refreshed",
		slog.String("event_type", "linked_account_refreshed"),
		slog.String("user_id", userID.String()),
		slog.String("record_id", recordID),
		slog.String("old_balance", oldBalance),
		slog.String("new_balance", newBalance),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LinkLogger) LogItemStatusChange(ctx context.Context, itemID uuid.UUID, oldStatus, newStatus string) {
	level := slog.LevelInfo
	if newStatus != "active" {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "item status change",
		slog.String("event_type", "item_status_change"),
		slog.String("item_id", itemID.String()),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LinkLogger) LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string) {
	l.logger.WarnContext(ctx, "circuit breaker state change",
		slog.String("event_type", "circuit_breaker_state_change"),
		slog.String("service", service),
		slog.String("old_state", oldState),
		slog.String("new_state", newState),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}
