package errors

import (
	"fmt"
	"net/http"
	"sort"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id"`
}

// ErrorOption adjusts a response built by NewErrorResponse
type ErrorOption func(*ErrorResponse)

// WithDetails replaces the detail lines
func WithDetails(details ...string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Details = details
	}
}

// WithMessage overrides the catalogue message for the code
func WithMessage(message string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Message = message
	}
}

// NewErrorResponse builds an error body for code, stamped with the request trace ID
func NewErrorResponse(code ErrorCode, traceID string, opts ...ErrorOption) *ErrorResponse {
	response := &ErrorResponse{
		Error: ErrorDetail{
			Code:    string(code),
			Message: GetErrorMessage(code),
			TraceID: traceID,
			Details: []string{},
		},
	}
	for _, opt := range opts {
		opt(response)
	}
	return response
}

// NewValidationError renders field errors as "field: message" details, ordered by field
func NewValidationError(fieldErrors map[string]string, traceID string) *ErrorResponse {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, fmt.Sprintf("%s: %s", field, fieldErrors[field]))
	}
	return NewErrorResponse(ValidationGeneral, traceID, WithDetails(details...))
}

// WrapSystemError hides err behind a generic body. err is returned unchanged for logging.
func WrapSystemError(err error, traceID string) (*ErrorResponse, error) {
	return NewErrorResponse(SystemInternalError, traceID), err
}

var statusByCode = map[ErrorCode]int{
	ValidationGeneral:           http.StatusBadRequest,
	ValidationRequiredField:     http.StatusBadRequest,
	ValidationInvalidFormat:     http.StatusBadRequest,
	ValidationInvalidEmail:      http.StatusBadRequest,
	ValidationInvalidID:         http.StatusBadRequest,
	LinkInvalidVariant:          http.StatusBadRequest,
	WebhookInvalidPayload:       http.StatusBadRequest,
	TransactionInvalidDateRange: http.StatusBadRequest,

	AuthInvalidCredentials: http.StatusUnauthorized,
	AuthMissingToken:       http.StatusUnauthorized,
	AuthExpiredToken:       http.StatusUnauthorized,
	AuthInvalidTokenFormat: http.StatusUnauthorized,

	AuthInsufficientPermission: http.StatusForbidden,
	AuthAccountLocked:          http.StatusForbidden,

	LinkSessionNotFound: http.StatusNotFound,
	AccountNotFound:     http.StatusNotFound,
	WebhookUnknownItem:  http.StatusNotFound,
	ItemNotFound:        http.StatusNotFound,
	SystemRouteNotFound: http.StatusNotFound,

	LinkSessionPending:   http.StatusConflict,
	AuthEmailTaken:       http.StatusConflict,
	AccountAlreadyLinked: http.StatusConflict,

	LinkSessionClosed: http.StatusGone,

	AccountDisconnected: http.StatusUnprocessableEntity,
	LinkExchangeFailed:  http.StatusUnprocessableEntity,
	ItemNotUsable:       http.StatusUnprocessableEntity,

	SystemRateLimitExceeded: http.StatusTooManyRequests,

	LinkTokenUnavailable:  http.StatusBadGateway,
	AccountRefreshFailed:  http.StatusBadGateway,
	TransactionSyncFailed: http.StatusBadGateway,
	ItemProviderFailed:    http.StatusBadGateway,

	SystemServiceUnavailable:   http.StatusServiceUnavailable,
	LinkProviderUnavailable:    http.StatusServiceUnavailable,
	TransactionSyncUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus maps an error code to its HTTP status. Unknown codes map to 500.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (er *ErrorResponse) GetHTTPStatus() int {
	return GetHTTPStatus(ErrorCode(er.Error.Code))
}
