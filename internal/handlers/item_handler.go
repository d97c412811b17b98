package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ItemHandler serves the user's provider connections
type ItemHandler struct {
	itemService services.ItemServiceInterface
	logger      *slog.Logger
}

func NewItemHandler(itemService services.ItemServiceInterface, logger *slog.Logger) *ItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemHandler{itemService: itemService, logger: logger}
}

// ListItems returns the stored provider connections
// @Summary List items
// @Tags Items
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ItemListResponse
// @Router /items [get]
func (h *ItemHandler) ListItems(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	items, err := h.itemService.List(userID)
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "item listing failed", "user_id", userID, "error", err)
		return SendSystemError(c, err)
	}

	resp := dto.ItemListResponse{Items: make([]dto.ItemResponse, 0, len(items)), Count: len(items)}
	for i := range items {
		resp.Items = append(resp.Items, dto.NewItemResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetItem returns one item with the provider's current view of it
// @Summary Get item
// @Tags Items
// @Security BearerAuth
// @Produce json
// @Param itemId path string true "Item id"
// @Success 200 {object} dto.ItemResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_005"
// @Failure 404 {object} errors.ErrorResponse "ITEM_001"
// @Router /items/{itemId} [get]
func (h *ItemHandler) GetItem(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidID)
	}

	resp, err := h.itemService.Get(c.Request().Context(), userID, itemID)
	if err != nil {
		return h.itemError(c, "item lookup failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateItemWebhook points the item's provider webhooks at a new URL
// @Summary Update item webhook
// @Tags Items
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param itemId path string true "Item id"
// @Param request body dto.UpdateItemWebhookRequest true "Webhook URL"
// @Success 200 {object} dto.ItemResponse
// @Failure 404 {object} errors.ErrorResponse "ITEM_001"
// @Failure 422 {object} errors.ErrorResponse "ITEM_002"
// @Failure 502 {object} errors.ErrorResponse "ITEM_003"
// @Failure 503 {object} errors.ErrorResponse "LINK_007, TXN_002"
// @Router /items/{itemId}/webhook [put]
func (h *ItemHandler) UpdateItemWebhook(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidID)
	}

	var req dto.UpdateItemWebhookRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	resp, err := h.itemService.UpdateWebhook(c.Request().Context(), userID, itemID, req.WebhookURL)
	if err != nil {
		return h.itemError(c, "item webhook update failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) itemError(c echo.Context, msg string, err error) error {
	switch {
	case stderrors.Is(err, services.ErrItemNotFound):
		return SendError(c, errors.ItemNotFound)
	case stderrors.Is(err, services.ErrItemNotUsable):
		return SendError(c, errors.ItemNotUsable)
	case stderrors.Is(err, services.ErrSyncUnavailable):
		return SendError(c, errors.TransactionSyncUnavailable)
	case stderrors.Is(err, services.ErrProviderUnavailable):
		return SendError(c, errors.LinkProviderUnavailable)
	}

	h.logger.ErrorContext(c.Request().Context(), msg, "item_id", c.Param("itemId"), "error", err)
	if stderrors.Is(err, services.ErrItemProviderFailed) {
		return SendError(c, errors.ItemProviderFailed)
	}
	return SendSystemError(c, err)
}
