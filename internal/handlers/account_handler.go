package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// AccountHandler serves the linked accounts dashboard
type AccountHandler struct {
	accountService services.LinkedAccountServiceInterface
	logger         *slog.Logger
}

func NewAccountHandler(accountService services.LinkedAccountServiceInterface, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{accountService: accountService, logger: logger}
}

// ListAccounts returns the user's linked accounts in the order they were linked
// @Summary List linked accounts
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.LinkedAccountListResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accounts, err := h.accountService.List(userID)
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "linked account listing failed", "user_id", userID, "error", err)
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewLinkedAccountListResponse(accounts))
}

// GetAccount returns one linked account
// @Summary Get linked account
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Param accountId path string true "Account record id"
// @Success 200 {object} dto.LinkedAccountResponse
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001"
// @Router /accounts/{accountId} [get]
func (h *AccountHandler) GetAccount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	account, err := h.accountService.Get(userID, c.Param("accountId"))
	if err != nil {
		return h.accountError(c, "linked account lookup failed", err)
	}
	return c.JSON(http.StatusOK, dto.NewLinkedAccountResponse(account))
}

// Summary returns dashboard totals
// @Summary Linked account summary
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AccountSummaryResponse
// @Router /accounts/summary [get]
func (h *AccountHandler) Summary(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	summary, err := h.accountService.Summary(userID)
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "account summary failed", "user_id", userID, "error", err)
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewAccountSummaryResponse(summary))
}

// RefreshAccount re-reads the balance from the provider, or only bumps the update time for
// accounts without a provider item
// @Summary Refresh linked account
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Param accountId path string true "Account record id"
// @Success 200 {object} dto.LinkedAccountResponse
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001"
// @Failure 422 {object} errors.ErrorResponse "ACCOUNT_002"
// @Failure 502 {object} errors.ErrorResponse "ACCOUNT_003"
// @Router /accounts/{accountId}/refresh [post]
func (h *AccountHandler) RefreshAccount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	account, err := h.accountService.Refresh(c.Request().Context(), userID, c.Param("accountId"))
	if err != nil {
		return h.accountError(c, "linked account refresh failed", err)
	}
	return c.JSON(http.StatusOK, dto.NewLinkedAccountResponse(account))
}

// DisconnectAccount removes a linked account
// @Summary Disconnect linked account
// @Tags Accounts
// @Security BearerAuth
// @Param accountId path string true "Account record id"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001"
// @Router /accounts/{accountId} [delete]
func (h *AccountHandler) DisconnectAccount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if err := h.accountService.Disconnect(c.Request().Context(), userID, c.Param("accountId")); err != nil {
		return h.accountError(c, "linked account disconnect failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) accountError(c echo.Context, msg string, err error) error {
	switch {
	case stderrors.Is(err, services.ErrLinkedAccountNotFound):
		return SendError(c, errors.AccountNotFound)
	case stderrors.Is(err, services.ErrAccountDisconnected):
		return SendError(c, errors.AccountDisconnected)
	case stderrors.Is(err, services.ErrProviderUnavailable):
		return SendError(c, errors.LinkProviderUnavailable)
	}

	h.logger.ErrorContext(c.Request().Context(), msg, "account_id", c.Param("accountId"), "error", err)
	if stderrors.Is(err, services.ErrBalanceRefreshFailed) {
		return SendError(c, errors.AccountRefreshFailed)
	}
	return SendSystemError(c, err)
}
