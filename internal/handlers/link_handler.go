package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/linkflow"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LinkHandler exposes the user's link controller over HTTP
type LinkHandler struct {
	linkService services.LinkServiceInterface
	logger      *slog.Logger
}

func NewLinkHandler(linkService services.LinkServiceInterface, logger *slog.Logger) *LinkHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkHandler{linkService: linkService, logger: logger}
}

// CreateLinkToken requests a widget token from the provider
// @Summary Create link token
// @Tags Link
// @Security BearerAuth
// @Produce json
// @Success 201 {object} dto.LinkTokenResponse
// @Failure 502 {object} errors.ErrorResponse "LINK_005"
// @Failure 503 {object} errors.ErrorResponse "LINK_007"
// @Router /link/token [post]
func (h *LinkHandler) CreateLinkToken(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	token, err := h.linkService.CreateLinkToken(c.Request().Context(), userID)
	if err != nil {
		if stderrors.Is(err, services.ErrProviderUnavailable) {
			return SendError(c, errors.LinkProviderUnavailable)
		}
		h.logger.WarnContext(c.Request().Context(), "link token request failed", "user_id", userID, "error", err)
		return SendError(c, errors.LinkTokenUnavailable)
	}

	return c.JSON(http.StatusCreated, token)
}

// StartSession starts a link attempt. Without a link token the attempt is simulated.
// @Summary Start link session
// @Tags Link
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.StartSessionRequest false "Session options"
// @Success 200 {object} dto.LinkSessionResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 or LINK_004"
// @Router /link/session [post]
func (h *LinkHandler) StartSession(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	status, err := h.linkService.StartSession(c.Request().Context(), userID, &req)
	if err != nil {
		if stderrors.Is(err, linkflow.ErrInvalidVariant) {
			return SendError(c, errors.LinkInvalidVariant, errors.WithDetails(err.Error()))
		}
		h.logger.ErrorContext(c.Request().Context(), "link session start failed", "user_id", userID, "error", err)
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

// GetSession returns the state of the user's link controller
// @Summary Get link session
// @Tags Link
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.LinkSessionResponse
// @Failure 404 {object} errors.ErrorResponse "LINK_001"
// @Router /link/session [get]
func (h *LinkHandler) GetSession(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	status := h.linkService.GetSession(userID)
	if status == nil {
		return SendError(c, errors.LinkSessionNotFound)
	}
	return c.JSON(http.StatusOK, status)
}

// CompleteSession reports the widget's onSuccess and returns the stored account
// @Summary Complete link session
// @Tags Link
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CompleteSessionRequest true "Public token and metadata"
// @Success 201 {object} dto.LinkedAccountResponse
// @Failure 410 {object} errors.ErrorResponse "LINK_003"
// @Router /link/session/success [post]
func (h *LinkHandler) CompleteSession(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CompleteSessionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	account, err := h.linkService.CompleteSession(c.Request().Context(), userID, req.PublicToken, req.Metadata)
	if err != nil {
		if stderrors.Is(err, services.ErrSessionClosed) {
			return SendError(c, errors.LinkSessionClosed)
		}
		h.logger.ErrorContext(c.Request().Context(), "link completion failed", "user_id", userID, "error", err)
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.NewLinkedAccountResponse(account))
}

// ExitSession reports the widget's onExit
// @Summary Exit link session
// @Tags Link
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ExitSessionRequest false "Exit error and metadata"
// @Success 200 {object} dto.LinkSessionResponse
// @Failure 404 {object} errors.ErrorResponse "LINK_001"
// @Router /link/session/exit [post]
func (h *LinkHandler) ExitSession(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.ExitSessionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	status, err := h.linkService.CancelSession(c.Request().Context(), userID, req.Error, req.Metadata)
	if err != nil {
		return h.sessionError(c, userID, err)
	}
	return c.JSON(http.StatusOK, status)
}

// RecordEvent forwards an intermediate widget event
// @Summary Record link event
// @Tags Link
// @Security BearerAuth
// @Accept json
// @Param request body dto.LinkEventRequest true "Event"
// @Success 202
// @Failure 404 {object} errors.ErrorResponse "LINK_001"
// @Router /link/session/event [post]
func (h *LinkHandler) RecordEvent(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.LinkEventRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.linkService.RecordEvent(c.Request().Context(), userID, req.EventName, req.Metadata); err != nil {
		return h.sessionError(c, userID, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// CloseSession tears the user's link controller down
// @Summary Close link session
// @Tags Link
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} errors.ErrorResponse "LINK_001"
// @Router /link/session [delete]
func (h *LinkHandler) CloseSession(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if err := h.linkService.CloseSession(c.Request().Context(), userID); err != nil {
		return h.sessionError(c, userID, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListEvents pages through the user's link events, newest first. With link_session_id it
// returns that widget session's events in order, unpaged.
// @Summary List link events
// @Tags Link
// @Security BearerAuth
// @Produce json
// @Param offset query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Param link_session_id query string false "Widget session id"
// @Success 200 {object} dto.LinkEventListResponse
// @Router /link/events [get]
func (h *LinkHandler) ListEvents(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if sessionID := c.QueryParam("link_session_id"); sessionID != "" {
		events, err := h.linkService.ListSessionEvents(userID, sessionID)
		if err != nil {
			h.logger.ErrorContext(c.Request().Context(), "link session event listing failed", "user_id", userID, "error", err)
			return SendSystemError(c, err)
		}
		if events == nil {
			events = []models.LinkEvent{}
		}
		return c.JSON(http.StatusOK, dto.LinkEventListResponse{
			Events:     events,
			Pagination: dto.PaginationResponse{Limit: len(events), Total: int64(len(events))},
		})
	}

	offset, limit := getPagination(c)
	events, total, err := h.linkService.ListEvents(userID, offset, limit)
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "link event listing failed", "user_id", userID, "error", err)
		return SendSystemError(c, err)
	}
	if events == nil {
		events = []models.LinkEvent{}
	}

	return c.JSON(http.StatusOK, dto.LinkEventListResponse{
		Events:     events,
		Pagination: dto.PaginationResponse{Offset: offset, Limit: limit, Total: total},
	})
}

func (h *LinkHandler) sessionError(c echo.Context, userID uuid.UUID, err error) error {
	if stderrors.Is(err, services.ErrSessionNotFound) {
		return SendError(c, errors.LinkSessionNotFound)
	}
	h.logger.ErrorContext(c.Request().Context(), "link session request failed", "user_id", userID, "error", err)
	return SendSystemError(c, err)
}
