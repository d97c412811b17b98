package handlers

import (
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

const maxWebhookBodyBytes = 64 << 10

// WebhookHandler receives provider webhooks. The route is unauthenticated.
type WebhookHandler struct {
	webhookService services.WebhookServiceInterface
	logger         *slog.Logger
}

func NewWebhookHandler(webhookService services.WebhookServiceInterface, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{webhookService: webhookService, logger: logger}
}

// HandleProviderWebhook applies an item status webhook or logs a transactions webhook
// @Summary Provider webhook
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} errors.ErrorResponse "WEBHOOK_001"
// @Failure 404 {object} errors.ErrorResponse "WEBHOOK_002"
// @Router /webhooks/provider [post]
func (h *WebhookHandler) HandleProviderWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes+1))
	if err != nil {
		return SendError(c, errors.WebhookInvalidPayload, errors.WithDetails("Could not read request body"))
	}
	if len(body) > maxWebhookBodyBytes {
		return SendError(c, errors.WebhookInvalidPayload, errors.WithDetails("Request body too large"))
	}

	result, err := h.webhookService.Handle(c.Request().Context(), body)
	if err != nil {
		switch {
		case stderrors.Is(err, provider.ErrInvalidWebhook):
			return SendError(c, errors.WebhookInvalidPayload, errors.WithDetails(err.Error()))
		case stderrors.Is(err, services.ErrUnknownItem):
			return SendError(c, errors.WebhookUnknownItem)
		}
		h.logger.ErrorContext(c.Request().Context(), "webhook processing failed", "error", err)
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.WebhookAckResponse{Received: true, Action: result.Action})
}
