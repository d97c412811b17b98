package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/linkflow"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/server"
	"finance-tracker/internal/services"

	"github.com/joho/godotenv"
)

const (
	shutdownTimeout  = 15 * time.Second
	janitorInterval  = time.Minute
	rateLimiterSweep = time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, level); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, level *slog.LevelVar) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.IsDevelopment() {
		level.Set(slog.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db.DB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db.DB)
	blacklistedTokenRepo := repositories.NewBlacklistedTokenRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)
	itemRepo := repositories.NewItemRepository(db.DB)
	accountRepo := repositories.NewLinkedAccountRepository(db.DB)
	eventRepo := repositories.NewLinkEventRepository(db.DB)
	txnRepo := repositories.NewTransactionRepository(db.DB)

	metrics := services.NewPrometheusMetrics(nil)
	linkLogger := services.NewLinkLogger(logger)
	auditService := services.NewAuditService(auditRepo)
	passwordService := services.NewPasswordService(cfg.Security.BCryptCost)
	tokenService := services.NewTokenService(&cfg.JWT)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, blacklistedTokenRepo, auditService,
		passwordService, tokenService, metrics, logger)

	client := newProviderClient(cfg, logger)
	breaker := services.NewCircuitBreaker(services.CircuitBreakerConfig{
		MaxFailures:     cfg.Link.BreakerFailures,
		ResetTimeout:    cfg.Link.BreakerReset,
		HalfOpenMaxSucc: 1,
	})
	gateway := services.NewProviderGateway(client, breaker, metrics, linkLogger, logger)

	notifier := linkflow.NotifierFunc(func(ctx context.Context, title, description string) error {
		logger.InfoContext(ctx, "link notification", "title", title, "description", description)
		return nil
	})
	linkService := services.NewLinkService(gateway, accountRepo, itemRepo, eventRepo, auditService,
		notifier, metrics, linkLogger, cfg.Link, logger)
	accountService := services.NewLinkedAccountService(accountRepo, itemRepo, txnRepo, gateway, auditService,
		metrics, linkLogger, logger)
	transactionService := services.NewTransactionService(txnRepo, accountRepo, itemRepo, gateway, auditService,
		metrics, logger)
	itemService := services.NewItemService(itemRepo, gateway, auditService, logger)
	webhookService := services.NewWebhookService(itemRepo, accountRepo, eventRepo, auditService,
		transactionService, metrics, linkLogger, logger)

	retention := services.NewRetentionService(refreshTokenRepo, blacklistedTokenRepo, auditRepo, eventRepo,
		cfg.Retention, metrics, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitPerSecond*2)

	e := server.New(server.Options{
		Config:               cfg,
		Logger:               logger,
		Metrics:              metrics,
		TokenService:         tokenService,
		BlacklistedTokenRepo: blacklistedTokenRepo,
		RateLimiter:          rateLimiter,
	}, server.Handlers{
		Health:      handlers.NewHealthCheckHandler(db, gateway),
		Auth:        handlers.NewAuthHandler(authService, tokenService, auditService, logger),
		Link:        handlers.NewLinkHandler(linkService, logger),
		Account:     handlers.NewAccountHandler(accountService, logger),
		Transaction: handlers.NewTransactionHandler(transactionService, logger),
		Item:        handlers.NewItemHandler(itemService, logger),
		Webhook:     handlers.NewWebhookHandler(webhookService, logger),
	})

	linkService.StartJanitor(ctx, janitorInterval)
	defer linkService.Shutdown()
	rateLimiter.StartCleanup(ctx, rateLimiterSweep)
	go retention.Run(ctx)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", srv.Addr,
			"environment", cfg.Server.Environment,
			"provider_configured", gateway.Configured())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newProviderClient falls back to the sandbox client when credentials are missing or rejected
func newProviderClient(cfg *config.Config, logger *slog.Logger) provider.Client {
	if !cfg.Provider.Configured() {
		logger.Info("provider credentials not set, link attempts will be simulated")
		return provider.NewSandboxClient()
	}
	client, err := provider.NewPlaidClient(&cfg.Provider, logger)
	if err != nil {
		logger.Warn("provider client unavailable, link attempts will be simulated", "error", err)
		return provider.NewSandboxClient()
	}
	return client
}
