package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// TransactionHandler serves synced transactions
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
	logger             *slog.Logger
}

func NewTransactionHandler(transactionService services.TransactionServiceInterface, logger *slog.Logger) *TransactionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionHandler{transactionService: transactionService, logger: logger}
}

// ListTransactions pages through all of the user's transactions, newest first
// @Summary List transactions
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param start_date query string false "Earliest date (YYYY-MM-DD)"
// @Param end_date query string false "Latest date (YYYY-MM-DD)"
// @Param pending query bool false "Only pending or only posted"
// @Param offset query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.TransactionListResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003, TXN_001"
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	filter, details := transactionFilter(c)
	if details != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(details...))
	}

	resp, err := h.transactionService.List(userID, filter)
	if err != nil {
		return h.transactionError(c, "transaction listing failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListAccountTransactions pages through one linked account's transactions, newest first
// @Summary List account transactions
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param accountId path string true "Account record id"
// @Param start_date query string false "Earliest date (YYYY-MM-DD)"
// @Param end_date query string false "Latest date (YYYY-MM-DD)"
// @Param pending query bool false "Only pending or only posted"
// @Param offset query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.TransactionListResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003, TXN_001"
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001"
// @Router /accounts/{accountId}/transactions [get]
func (h *TransactionHandler) ListAccountTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	filter, details := transactionFilter(c)
	if details != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(details...))
	}

	resp, err := h.transactionService.ListForAccount(userID, c.Param("accountId"), filter)
	if err != nil {
		return h.transactionError(c, "account transaction listing failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SyncTransactions pulls new, changed and removed transactions for every item the user owns
// @Summary Sync transactions
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.TransactionSyncResponse
// @Failure 503 {object} errors.ErrorResponse "TXN_002"
// @Router /transactions/sync [post]
func (h *TransactionHandler) SyncTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	resp, err := h.transactionService.Sync(c.Request().Context(), userID)
	if err != nil {
		return h.transactionError(c, "transaction sync failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *TransactionHandler) transactionError(c echo.Context, msg string, err error) error {
	switch {
	case stderrors.Is(err, services.ErrInvalidDateRange):
		return SendError(c, errors.TransactionInvalidDateRange)
	case stderrors.Is(err, services.ErrLinkedAccountNotFound):
		return SendError(c, errors.AccountNotFound)
	case stderrors.Is(err, services.ErrSyncUnavailable):
		return SendError(c, errors.TransactionSyncUnavailable)
	}

	h.logger.ErrorContext(c.Request().Context(), msg, "error", err)
	return SendSystemError(c, err)
}

// transactionFilter reads the date, pending and paging query parameters. Malformed values
// are returned as detail lines.
func transactionFilter(c echo.Context) (repositories.TransactionFilter, []string) {
	var filter repositories.TransactionFilter
	var details []string

	if raw := c.QueryParam("start_date"); raw != "" {
		if t, err := time.Parse(provider.TransactionDateLayout, raw); err == nil {
			filter.Start = &t
		} else {
			details = append(details, "start_date: must be YYYY-MM-DD")
		}
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		if t, err := time.Parse(provider.TransactionDateLayout, raw); err == nil {
			filter.End = &t
		} else {
			details = append(details, "end_date: must be YYYY-MM-DD")
		}
	}
	if raw := c.QueryParam("pending"); raw != "" {
		if pending, err := strconv.ParseBool(raw); err == nil {
			filter.Pending = &pending
		} else {
			details = append(details, "pending: must be true or false")
		}
	}

	filter.Offset, filter.Limit = getPagination(c)
	return filter, details
}
