package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/repositories/repository_mocks"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type stubPinger struct{ err error }

func (p stubPinger) HealthCheck(context.Context) error { return p.err }

type ServerTestSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	tokenService   *service_mocks.MockTokenServiceInterface
	blacklistRepo  *repository_mocks.MockBlacklistedTokenRepositoryInterface
	accountService *service_mocks.MockLinkedAccountServiceInterface
	gateway        *service_mocks.MockProviderGatewayInterface
	e              *echo.Echo
}

func (s *ServerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tokenService = service_mocks.NewMockTokenServiceInterface(s.ctrl)
	s.blacklistRepo = repository_mocks.NewMockBlacklistedTokenRepositoryInterface(s.ctrl)
	s.accountService = service_mocks.NewMockLinkedAccountServiceInterface(s.ctrl)
	s.gateway = service_mocks.NewMockProviderGatewayInterface(s.ctrl)

	registry := prometheus.NewRegistry()
	s.e = New(Options{
		Metrics:              services.NewPrometheusMetrics(registry),
		Gatherer:             registry,
		TokenService:         s.tokenService,
		BlacklistedTokenRepo: s.blacklistRepo,
	}, Handlers{
		Health:      handlers.NewHealthCheckHandler(stubPinger{}, s.gateway),
		Auth:        handlers.NewAuthHandler(service_mocks.NewMockAuthServiceInterface(s.ctrl), s.tokenService, service_mocks.NewMockAuditServiceInterface(s.ctrl), nil),
		Link:        handlers.NewLinkHandler(service_mocks.NewMockLinkServiceInterface(s.ctrl), nil),
		Account:     handlers.NewAccountHandler(s.accountService, nil),
		Transaction: handlers.NewTransactionHandler(service_mocks.NewMockTransactionServiceInterface(s.ctrl), nil),
		Item:        handlers.NewItemHandler(service_mocks.NewMockItemServiceInterface(s.ctrl), nil),
		Webhook:     handlers.NewWebhookHandler(service_mocks.NewMockWebhookServiceInterface(s.ctrl), nil),
	})
}

func (s *ServerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func (s *ServerTestSuite) TestHealth() {
	s.gateway.EXPECT().Configured().Return(false)

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/health", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"provider":"simulated"`)
	s.NotEmpty(rec.Header().Get(middleware.TraceIDHeader))
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func (s *ServerTestSuite) TestMetricsEndpoint() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerTestSuite) TestUnknownRoute() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(string(errors.SystemRouteNotFound), s.errorCode(rec))
}

func (s *ServerTestSuite) TestProtectedRoutesRequireToken() {
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/accounts"},
		{http.MethodPost, "/api/v1/link/session"},
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodDelete, "/api/v1/accounts/acc_1"},
		{http.MethodGet, "/api/v1/accounts/acc_1/transactions"},
		{http.MethodPost, "/api/v1/transactions/sync"},
		{http.MethodPut, "/api/v1/items/" + uuid.NewString() + "/webhook"},
	} {
		rec := s.serve(httptest.NewRequest(route.method, route.path, nil))

		s.Equal(http.StatusUnauthorized, rec.Code, route.path)
		s.Equal(string(errors.AuthMissingToken), s.errorCode(rec), route.path)
	}
}

func (s *ServerTestSuite) TestAuthenticatedAccountList() {
	userID := uuid.New()
	claims := &models.CustomClaims{UserID: userID.String(), Role: models.RoleMember}
	claims.ID = "jti-1"

	s.tokenService.EXPECT().ExtractTokenFromHeader("Bearer token").Return("token", nil)
	s.tokenService.EXPECT().ValidateAccessToken("token").Return(claims, nil)
	s.blacklistRepo.EXPECT().GetByJTI("jti-1").Return(nil, repositories.ErrTokenNotFound)
	s.accountService.EXPECT().List(userID).Return([]models.LinkedAccount{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")
	rec := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"accounts":[],"count":0}`, rec.Body.String())
}

func (s *ServerTestSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/accounts", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := s.serve(req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
