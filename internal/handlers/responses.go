package handlers

import (
	"net/http"

	"finance-tracker/internal/errors"

	"github.com/labstack/echo/v4"
)

// Handlers report failures through two helpers:
//
//   - SendError for client and business errors (4xx), e.g.
//     SendError(c, errors.LinkSessionNotFound) or
//     SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
//   - SendSystemError for repository and provider failures; the cause is never sent to the client
//
// Validation errors from c.Validate are returned as-is and rendered by the HTTP error handler.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError answers 500 with a generic body. The caller logs err.
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, _ := errors.WrapSystemError(err, traceID)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}
