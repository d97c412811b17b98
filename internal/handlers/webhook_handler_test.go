package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestWebhookHandler(t *testing.T) {
	suite.Run(t, new(WebhookHandlerSuite))
}

type WebhookHandlerSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	webhookService *service_mocks.MockWebhookServiceInterface
	handler        *WebhookHandler
	e              *echo.Echo
}

func (s *WebhookHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.webhookService = service_mocks.NewMockWebhookServiceInterface(s.ctrl)
	s.handler = NewWebhookHandler(s.webhookService, nil)
	s.e = newTestEcho()
}

func (s *WebhookHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

const itemErrorWebhook = `{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"item-1","error":{"error_code":"ITEM_LOGIN_REQUIRED"}}`

func (s *WebhookHandlerSuite) TestStatusChange() {
	s.webhookService.EXPECT().Handle(gomock.Any(), []byte(itemErrorWebhook)).
		Return(&dto.WebhookResult{Action: services.WebhookActionStatusChanged, ItemID: "item-1", OldStatus: "active", NewStatus: "errored"}, nil)

	c, rec := newRequestContext(s.e, http.MethodPost, "/api/v1/webhooks/provider", itemErrorWebhook, nil)
	s.NoError(s.handler.HandleProviderWebhook(c))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"received":true,"action":"`+services.WebhookActionStatusChanged+`"}`, rec.Body.String())
}

func (s *WebhookHandlerSuite) TestErrors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid payload", fmt.Errorf("%w: item_id is required", provider.ErrInvalidWebhook), http.StatusBadRequest, "WEBHOOK_001"},
		{"unknown item", services.ErrUnknownItem, http.StatusNotFound, "WEBHOOK_002"},
		{"database", errors.New("failed to update item: timeout"), http.StatusInternalServerError, "SYSTEM_001"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.webhookService.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			c, rec := newRequestContext(s.e, http.MethodPost, "/api/v1/webhooks/provider", itemErrorWebhook, nil)
			s.NoError(s.handler.HandleProviderWebhook(c))
			s.Equal(tt.status, rec.Code)
			s.Equal(tt.code, decodeError(rec).Error.Code)
		})
	}
}

func (s *WebhookHandlerSuite) TestOversizedBody() {
	body := `{"webhook_type":"TRANSACTIONS","padding":"` + strings.Repeat("x", maxWebhookBodyBytes) + `"}`

	c, rec := newRequestContext(s.e, http.MethodPost, "/api/v1/webhooks/provider", body, nil)
	s.NoError(s.handler.HandleProviderWebhook(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("WEBHOOK_001", decodeError(rec).Error.Code)
}
