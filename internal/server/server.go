package server

import (
	"log/slog"
	"net/http"

	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodySize = "1M"

// Handlers groups the HTTP handlers mounted by New
type Handlers struct {
	Health      *handlers.HealthCheckHandler
	Auth        *handlers.AuthHandler
	Link        *handlers.LinkHandler
	Account     *handlers.AccountHandler
	Transaction *handlers.TransactionHandler
	Item        *handlers.ItemHandler
	Webhook     *handlers.WebhookHandler
}

// Options carries everything New needs besides the handlers
type Options struct {
	Config               *config.Config
	Logger               *slog.Logger
	Metrics              services.MetricsRecorderInterface
	Gatherer             prometheus.Gatherer
	TokenService         services.TokenServiceInterface
	BlacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	RateLimiter          *middleware.RateLimiter
}

// New builds the echo instance with the middleware chain and every route
func New(opts Options, h Handlers) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = middleware.NewRateLimiter(0, 0)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.NewHTTPErrorHandler(opts.Logger, opts.Metrics)

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery(opts.Logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: corsOrigins(opts.Config),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.TraceIDHeader},
	}))

	e.GET("/health", h.Health.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api/v1")
	api.Use(opts.RateLimiter.Middleware())

	// called by the provider directly, no user token
	api.POST("/webhooks/provider", h.Webhook.HandleProviderWebhook)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)

	requireAuth := middleware.RequireAuth(opts.TokenService, opts.BlacklistedTokenRepo)

	authed := auth.Group("", requireAuth)
	authed.POST("/logout", h.Auth.Logout)
	authed.GET("/me", h.Auth.Me)
	authed.GET("/activity", h.Auth.Activity)

	link := api.Group("/link", requireAuth)
	link.POST("/token", h.Link.CreateLinkToken)
	link.POST("/session", h.Link.StartSession)
	link.GET("/session", h.Link.GetSession)
	link.DELETE("/session", h.Link.CloseSession)
	link.POST("/session/success", h.Link.CompleteSession)
	link.POST("/session/exit", h.Link.ExitSession)
	link.POST("/session/event", h.Link.RecordEvent)
	link.GET("/events", h.Link.ListEvents)

	accounts := api.Group("/accounts", requireAuth)
	accounts.GET("", h.Account.ListAccounts)
	accounts.GET("/summary", h.Account.Summary)
	accounts.GET("/:accountId", h.Account.GetAccount)
	accounts.POST("/:accountId/refresh", h.Account.RefreshAccount)
	accounts.DELETE("/:accountId", h.Account.DisconnectAccount)
	accounts.GET("/:accountId/transactions", h.Transaction.ListAccountTransactions)

	transactions := api.Group("/transactions", requireAuth)
	transactions.GET("", h.Transaction.ListTransactions)
	transactions.POST("/sync", h.Transaction.SyncTransactions)

	items := api.Group("/items", requireAuth)
	items.GET("", h.Item.ListItems)
	items.GET("/:itemId", h.Item.GetItem)
	items.PUT("/:itemId/webhook", h.Item.UpdateItemWebhook)

	return e
}

func corsOrigins(cfg *config.Config) []string {
	if cfg == nil || len(cfg.Server.CORSAllowOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.Server.CORSAllowOrigins
}
