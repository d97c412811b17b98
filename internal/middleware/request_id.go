package middleware

import (
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	TraceIDHeader     = "X-Trace-ID"
	TraceIDContextKey = "trace_id"

	maxTraceIDLength = 128
)

// RequestID tags every request with a trace id. A caller-supplied X-Trace-ID (or X-Request-ID)
// is reused when it looks sane, otherwise a fresh uuid is minted. The id is echoed back in the
// response header and carried on the request context as the link log correlation id.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			traceID := inboundTraceID(req.Header.Get(TraceIDHeader), req.Header.Get(echo.HeaderXRequestID))

			c.Set(TraceIDContextKey, traceID)
			c.Response().Header().Set(TraceIDHeader, traceID)
			c.SetRequest(req.WithContext(services.WithCorrelationID(req.Context(), traceID)))
			return next(c)
		}
	}
}

func inboundTraceID(candidates ...string) string {
	for _, id := range candidates {
		if validTraceID(id) {
			return id
		}
	}
	return uuid.NewString()
}

// validTraceID accepts short printable ASCII ids so a header can't smuggle control bytes into logs
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetTraceID returns the request's trace id, or "" outside the RequestID middleware
func GetTraceID(c echo.Context) string {
	traceID, _ := c.Get(TraceIDContextKey).(string)
	return traceID
}
