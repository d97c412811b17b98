package handlers

import (
	"context"
	"net/http"
	"time"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 2 * time.Second

// DatabasePinger is satisfied by *database.DB
type DatabasePinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckHandler reports database connectivity and whether link attempts reach the provider
type HealthCheckHandler struct {
	db      DatabasePinger
	gateway services.ProviderGatewayInterface
}

func NewHealthCheckHandler(db DatabasePinger, gateway services.ProviderGatewayInterface) *HealthCheckHandler {
	return &HealthCheckHandler{db: db, gateway: gateway}
}

// HealthCheck pings the database
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,provider=string,time=string}
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003"
// @Router /health [get]
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("Database connection failed"))
	}

	providerMode := "simulated"
	if h.gateway != nil && h.gateway.Configured() {
		providerMode = "configured"
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "healthy",
		"provider": providerMode,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
