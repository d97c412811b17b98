package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"finance-tracker/internal/provider"
	"finance-tracker/internal/provider/provider_mocks"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type ProviderGatewayTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	client     *provider_mocks.MockClient
	linkLogger *service_mocks.MockLinkLoggerInterface
	breaker    *CircuitBreaker
	clock      *fakeClock
	gateway    ProviderGatewayInterface
}

func TestProviderGatewaySuite(t *testing.T) {
	suite.Run(t, new(ProviderGatewayTestSuite))
}

func (s *ProviderGatewayTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = provider_mocks.NewMockClient(s.ctrl)
	s.linkLogger = service_mocks.NewMockLinkLoggerInterface(s.ctrl)
	s.clock = &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.breaker = newCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute}, s.clock.Now)
	s.gateway = NewProviderGateway(s.client, s.breaker, NoopMetrics{}, s.linkLogger,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *ProviderGatewayTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ProviderGatewayTestSuite) TestPassesThroughResults() {
	ctx := context.Background()
	s.client.EXPECT().ExchangePublicToken(ctx, "public-sandbox-1").Return(&provider.Exchange{AccessToken: "access-1", ItemID: "item-1"}, nil)

	exchange, err := s.gateway.ExchangePublicToken(ctx, "public-sandbox-1")

	s.Require().NoError(err)
	s.Equal("item-1", exchange.ItemID)
	s.Equal(StateClosed, s.breaker.GetState())
}

func (s *ProviderGatewayTestSuite) TestOpensAfterRepeatedFailures() {
	ctx := context.Background()
	s.client.EXPECT().GetAccounts(ctx, "access-1").Return(nil, errors.New("connection reset")).Times(2)
	s.linkLogger.EXPECT().LogCircuitBreakerStateChange(ctx, "plaid", "closed", "open")

	for i := 0; i < 2; i++ {
		_, err := s.gateway.GetAccounts(ctx, "access-1")
		s.Error(err)
	}

	_, err := s.gateway.GetAccounts(ctx, "access-1")
	s.ErrorIs(err, ErrProviderUnavailable)
}

func (s *ProviderGatewayTestSuite) TestCallerErrorsDoNotTripBreaker() {
	ctx := context.Background()
	s.client.EXPECT().ExchangePublicToken(ctx, "bad").Return(nil, provider.ErrInvalidPublicToken).Times(3)

	for i := 0; i < 3; i++ {
		_, err := s.gateway.ExchangePublicToken(ctx, "bad")
		s.ErrorIs(err, provider.ErrInvalidPublicToken)
	}
	s.Equal(StateClosed, s.breaker.GetState())
}

func (s *ProviderGatewayTestSuite) TestHalfOpenTrialClosesBreaker() {
	ctx := context.Background()
	s.client.EXPECT().RemoveItem(ctx, "access-1").Return(errors.New("timeout")).Times(2)
	s.linkLogger.EXPECT().LogCircuitBreakerStateChange(ctx, "plaid", "closed", "open")
	s.failTwice(ctx)

	s.clock.Advance(2 * time.Minute)
	s.client.EXPECT().RemoveItem(ctx, "access-1").Return(nil)
	s.linkLogger.EXPECT().LogCircuitBreakerStateChange(ctx, "plaid", "open", "closed")

	s.NoError(s.gateway.RemoveItem(ctx, "access-1"))
	s.Equal(StateClosed, s.breaker.GetState())
}

func (s *ProviderGatewayTestSuite) failTwice(ctx context.Context) {
	for i := 0; i < 2; i++ {
		s.Error(s.gateway.RemoveItem(ctx, "access-1"))
	}
}

func (s *ProviderGatewayTestSuite) TestConfigured() {
	s.client.EXPECT().Configured().Return(true)
	s.True(s.gateway.Configured())
}

func (s *ProviderGatewayTestSuite) TestCreateLinkTokenWithSandboxClient() {
	gateway := NewProviderGateway(provider.NewSandboxClient(), nil, nil, nil, nil)

	token, err := gateway.CreateLinkToken(context.Background(), "user-1")

	s.Require().NoError(err)
	s.Equal("link-sandbox-abc123", token.Token)
	s.False(gateway.Configured())
}

func (s *ProviderGatewayTestSuite) TestTransactionAndItemCalls() {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	s.client.EXPECT().GetTransactions(ctx, "access-1", start, end, 100, 0).
		Return(&provider.TransactionsPage{Total: 3}, nil)
	s.client.EXPECT().SyncTransactions(ctx, "access-1", "c1").
		Return(&provider.TransactionsSync{NextCursor: "c2"}, nil)
	s.client.EXPECT().GetItem(ctx, "access-1").
		Return(&provider.ItemInfo{ItemID: "item-1"}, nil)
	s.client.EXPECT().UpdateItemWebhook(ctx, "access-1", "https://hooks.example.com/provider").
		Return(&provider.ItemInfo{WebhookURL: "https://hooks.example.com/provider"}, nil)

	page, err := s.gateway.GetTransactions(ctx, "access-1", start, end, 100, 0)
	s.Require().NoError(err)
	s.Equal(3, page.Total)

	batch, err := s.gateway.SyncTransactions(ctx, "access-1", "c1")
	s.Require().NoError(err)
	s.Equal("c2", batch.NextCursor)

	info, err := s.gateway.GetItem(ctx, "access-1")
	s.Require().NoError(err)
	s.Equal("item-1", info.ItemID)

	info, err = s.gateway.UpdateItemWebhook(ctx, "access-1", "https://hooks.example.com/provider")
	s.Require().NoError(err)
	s.Equal("https://hooks.example.com/provider", info.WebhookURL)
}

func (s *ProviderGatewayTestSuite) TestAvailableFollowsBreaker() {
	ctx := context.Background()
	s.client.EXPECT().Configured().Return(true).AnyTimes()
	s.True(s.gateway.Available())

	s.client.EXPECT().SyncTransactions(ctx, "access-1", "").Return(nil, errors.New("timeout")).Times(2)
	s.linkLogger.EXPECT().LogCircuitBreakerStateChange(ctx, "plaid", "closed", "open")
	for i := 0; i < 2; i++ {
		_, err := s.gateway.SyncTransactions(ctx, "access-1", "")
		s.Error(err)
	}

	s.False(s.gateway.Available())
	_, err := s.gateway.SyncTransactions(ctx, "access-1", "")
	s.ErrorIs(err, ErrProviderUnavailable)
}

func (s *ProviderGatewayTestSuite) TestAvailableWithoutCredentials() {
	s.client.EXPECT().Configured().Return(false)
	s.False(s.gateway.Available())
}
