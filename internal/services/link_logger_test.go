package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"finance-tracker/internal/linkflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLinkLogger() (LinkLoggerInterface, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewLinkLogger(logger), buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLinkLogger_SessionStartedCarriesCorrelationID(t *testing.T) {
	l, buf := captureLinkLogger()
	userID := uuid.New()
	ctx := WithCorrelationID(context.Background(), "req-42")

	l.LogSessionStarted(ctx, userID, "sess-1", linkflow.StartSimulated)

	entry := lastLine(t, buf)
	assert.Equal(t, "link session started", entry["msg"])
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, string(linkflow.StartSimulated), entry["branch"])
	assert.Equal(t, "req-42", entry["correlation_id"])
}

func TestLinkLogger_ExitedOmitsEmptyErrorCode(t *testing.T) {
	l, buf := captureLinkLogger()

	l.LogSessionExited(context.Background(), uuid.New(), "sess-1", "")
	entry := lastLine(t, buf)
	_, ok := entry["error_code"]
	assert.False(t, ok)

	l.LogSessionExited(context.Background(), uuid.New(), "sess-1", "ITEM_LOGIN_REQUIRED")
	assert.Equal(t, "ITEM_LOGIN_REQUIRED", lastLine(t, buf)["error_code"])
}

func TestLinkLogger_ItemStatusLevel(t *testing.T) {
	l, buf := captureLinkLogger()

	l.LogItemStatusChange(context.Background(), uuid.New(), "active", "login_required")
	assert.Equal(t, "WARN", lastLine(t, buf)["level"])

	l.LogItemStatusChange(context.Background(), uuid.New(), "login_required", "active")
	assert.Equal(t, "INFO", lastLine(t, buf)["level"])
}

func TestLinkLogger_CompletedAndRefreshed(t *testing.T) {
	l, buf := captureLinkLogger()
	ctx := context.Background()

	l.LogSessionCompleted(ctx, uuid.New(), "sess-1", "acc_1", "Chase", 1500)
	entry := lastLine(t, buf)
	assert.Equal(t, "acc_1", entry["record_id"])
	assert.Equal(t, "Chase", entry["institution"])
	assert.Equal(t, float64(1500), entry["duration_ms"])

	l.LogAccountRefreshed(ctx, uuid.New(), "acc_1", "100.00", "250.50")
	entry = lastLine(t, buf)
	assert.Equal(t, "100.00", entry["old_balance"])
	assert.Equal(t, "250.50", entry["new_balance"])
}

func TestCorrelationID(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
	assert.Equal(t, context.Background(), WithCorrelationID(context.Background(), ""))
	assert.Equal(t, "abc", CorrelationID(WithCorrelationID(context.Background(), "abc")))
}
