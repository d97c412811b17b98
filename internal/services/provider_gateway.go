package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
)

const providerServiceName = "plaid"

var ErrProviderUnavailable = errors.New("account provider is temporarily unavailable")

// ProviderGateway wraps the provider client with a circuit breaker, request metrics and logging
type ProviderGateway struct {
	client     provider.Client
	breaker    CircuitBreakerInterface
	metrics    MetricsRecorderInterface
	linkLogger LinkLoggerInterface
	logger     *slog.Logger
}

func NewProviderGateway(
	client provider.Client,
	breaker CircuitBreakerInterface,
	metrics MetricsRecorderInterface,
	linkLogger LinkLoggerInterface,
	logger *slog.Logger,
) ProviderGatewayInterface {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultCircuitBreakerConfig())
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if linkLogger == nil {
		linkLogger = NewLinkLogger(logger)
	}
	return &ProviderGateway{
		client:     client,
		breaker:    breaker,
		metrics:    metrics,
		linkLogger: linkLogger,
		logger:     logger,
	}
}

func (g *ProviderGateway) Configured() bool {
	return g.client.Configured()
}

// Available reports whether a provider call would be attempted right now
func (g *ProviderGateway) Available() bool {
	return g.client.Configured() && !g.breaker.IsOpen()
}

func (g *ProviderGateway) CreateLinkToken(ctx context.Context, clientUserID string) (*provider.LinkToken, error) {
	var token *provider.LinkToken
	err := g.call(ctx, "create_link_token", func(ctx context.Context) error {
		var err error
		token, err = g.client.CreateLinkToken(ctx, clientUserID)
		return err
	})
	return token, err
}

func (g *ProviderGateway) ExchangePublicToken(ctx context.Context, publicToken string) (*provider.Exchange, error) {
	var exchange *provider.Exchange
	err := g.call(ctx, "exchange_public_token", func(ctx context.Context) error {
		var err error
		exchange, err = g.client.ExchangePublicToken(ctx, publicToken)
		return err
	})
	return exchange, err
}

func (g *ProviderGateway) GetAccounts(ctx context.Context, accessToken string) (*provider.AccountsResult, error) {
	var result *provider.AccountsResult
	err := g.call(ctx, "get_accounts", func(ctx context.Context) error {
		var err error
		result, err = g.client.GetAccounts(ctx, accessToken)
		return err
	})
	return result, err
}

func (g *ProviderGateway) RemoveItem(ctx context.Context, accessToken string) error {
	return g.call(ctx, "remove_item", func(ctx context.Context) error {
		return g.client.RemoveItem(ctx, accessToken)
	})
}

func (g *ProviderGateway) GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count, offset int) (*provider.TransactionsPage, error) {
	var page *provider.TransactionsPage
	err := g.call(ctx, "get_transactions", func(ctx context.Context) error {
		var err error
		page, err = g.client.GetTransactions(ctx, accessToken, start, end, count, offset)
		return err
	})
	return page, err
}

func (g *ProviderGateway) SyncTransactions(ctx context.Context, accessToken, cursor string) (*provider.TransactionsSync, error) {
	var batch *provider.TransactionsSync
	err := g.call(ctx, "sync_transactions", func(ctx context.Context) error {
		var err error
		batch, err = g.client.SyncTransactions(ctx, accessToken, cursor)
		return err
	})
	return batch, err
}

func (g *ProviderGateway) GetItem(ctx context.Context, accessToken string) (*provider.ItemInfo, error) {
	var info *provider.ItemInfo
	err := g.call(ctx, "get_item", func(ctx context.Context) error {
		var err error
		info, err = g.client.GetItem(ctx, accessToken)
		return err
	})
	return info, err
}

func (g *ProviderGateway) UpdateItemWebhook(ctx context.Context, accessToken, webhookURL string) (*provider.ItemInfo, error) {
	var info *provider.ItemInfo
	err := g.call(ctx, "update_item_webhook", func(ctx context.Context) error {
		var err error
		info, err = g.client.UpdateItemWebhook(ctx, accessToken, webhookURL)
		return err
	})
	return info, err
}

func (g *ProviderGateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	before := g.breaker.GetState()
	if g.breaker.IsOpen() {
		g.metrics.IncrementCounter(MetricProviderRequest, map[string]string{"operation": op, "status": "rejected"})
		return fmt.Errorf("%s: %w", op, ErrProviderUnavailable)
	}

	start := time.Now()
	err := fn(ctx)
	g.metrics.RecordProcessingTime(MetricProviderDuration+"."+op, time.Since(start))

	status := "success"
	switch {
	case err == nil:
		g.breaker.RecordSuccess()
	case isCallerError(err):
		// the provider answered; the request itself was bad
		status = "rejected_input"
		g.breaker.RecordSuccess()
	default:
		status = "error"
		g.breaker.RecordFailure()
		g.logger.WarnContext(ctx, "provider request failed",
			"operation", op,
			"error", err,
			"failures", g.breaker.GetFailureCount())
	}
	g.metrics.IncrementCounter(MetricProviderRequest, map[string]string{"operation": op, "status": status})
	g.reportState(ctx, before)

	return err
}

func (g *ProviderGateway) reportState(ctx context.Context, before models.CircuitBreakerState) {
	after := g.breaker.GetState()
	if after == before {
		return
	}
	g.metrics.RecordGauge(MetricCircuitBreaker, float64(after), map[string]string{"service": providerServiceName})
	g.linkLogger.LogCircuitBreakerStateChange(ctx, providerServiceName, before.String(), after.String())
}

func isCallerError(err error) bool {
	return errors.Is(err, provider.ErrInvalidPublicToken) ||
		errors.Is(err, provider.ErrInvalidAccessToken) ||
		errors.Is(err, provider.ErrNotConfigured) ||
		errors.Is(err, provider.ErrUnsupportedProduct)
}
