package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ResponseTestSuite struct {
	suite.Suite
	traceID string
}

func (s *ResponseTestSuite) SetupTest() {
	s.traceID = "6f1c2a8e-4b7d-4e52-9a3f-0c1d2e3f4a5b"
}

func TestResponseTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) TestNewErrorResponse_Defaults() {
	response := NewErrorResponse(LinkSessionPending, s.traceID)

	s.Equal("LINK_002", response.Error.Code)
	s.Equal("A link session is already in progress", response.Error.Message)
	s.Equal(s.traceID, response.Error.TraceID)
	s.Empty(response.Error.Details)
}

func (s *ResponseTestSuite) TestNewErrorResponse_Options() {
	response := NewErrorResponse(ValidationGeneral, s.traceID,
		WithDetails("public_token is required"),
		WithMessage("Link completion rejected"),
	)

	s.Equal("Link completion rejected", response.Error.Message)
	s.Equal([]string{"public_token is required"}, response.Error.Details)
}

func (s *ResponseTestSuite) TestWithDetails_LastCallWins() {
	response := NewErrorResponse(ValidationGeneral, s.traceID, WithDetails("a"), WithDetails("b", "c"))
	s.Equal([]string{"b", "c"}, response.Error.Details)
}

func (s *ResponseTestSuite) TestNewValidationError() {
	response := NewValidationError(map[string]string{"variant": "must be one of the known variants"}, s.traceID)

	s.Equal(string(ValidationGeneral), response.Error.Code)
	s.Equal([]string{"variant: must be one of the known variants"}, response.Error.Details)

	ordered := NewValidationError(map[string]string{"public_token": "is required", "accounts": "is required"}, s.traceID)
	s.Equal([]string{"accounts: is required", "public_token: is required"}, ordered.Error.Details)

	empty := NewValidationError(map[string]string{}, s.traceID)
	s.Empty(empty.Error.Details)
}

func (s *ResponseTestSuite) TestWrapSystemError_HidesInternalError() {
	internal := errors.New("pq: relation \"linked_accounts\" does not exist")

	response, err := WrapSystemError(internal, s.traceID)

	s.Equal(internal, err)
	s.Equal(string(SystemInternalError), response.Error.Code)
	s.NotContains(response.Error.Message, "linked_accounts")
}

func (s *ResponseTestSuite) TestGetHTTPStatus() {
	testCases := []struct {
		code     ErrorCode
		expected int
	}{
		{ValidationGeneral, http.StatusBadRequest},
		{LinkInvalidVariant, http.StatusBadRequest},
		{WebhookInvalidPayload, http.StatusBadRequest},
		{AuthMissingToken, http.StatusUnauthorized},
		{AuthAccountLocked, http.StatusForbidden},
		{LinkSessionNotFound, http.StatusNotFound},
		{AccountNotFound, http.StatusNotFound},
		{ItemNotFound, http.StatusNotFound},
		{TransactionInvalidDateRange, http.StatusBadRequest},
		{ItemNotUsable, http.StatusUnprocessableEntity},
		{ItemProviderFailed, http.StatusBadGateway},
		{TransactionSyncUnavailable, http.StatusServiceUnavailable},
		{LinkSessionPending, http.StatusConflict},
		{AuthEmailTaken, http.StatusConflict},
		{LinkSessionClosed, http.StatusGone},
		{LinkExchangeFailed, http.StatusUnprocessableEntity},
		{SystemRateLimitExceeded, http.StatusTooManyRequests},
		{LinkTokenUnavailable, http.StatusBadGateway},
		{LinkProviderUnavailable, http.StatusServiceUnavailable},
		{SystemDatabaseError, http.StatusInternalServerError},
		{"UNKNOWN_001", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		s.Run(string(tc.code), func() {
			s.Equal(tc.expected, GetHTTPStatus(tc.code))
		})
	}
}

func (s *ResponseTestSuite) TestJSONShape() {
	response := NewErrorResponse(AccountNotFound, s.traceID, WithDetails("acc_1700000000000"))

	data, err := json.Marshal(response)
	s.Require().NoError(err)

	var decoded map[string]map[string]interface{}
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Equal("ACCOUNT_001", decoded["error"]["code"])
	s.Equal(s.traceID, decoded["error"]["trace_id"])
	s.Len(decoded["error"]["details"], 1)
	s.Equal(http.StatusNotFound, response.GetHTTPStatus())
}
