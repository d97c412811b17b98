package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestItemHandler(t *testing.T) {
	suite.Run(t, new(ItemHandlerSuite))
}

type ItemHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	itemService *service_mocks.MockItemServiceInterface
	handler     *ItemHandler
	e           *echo.Echo
	userID      uuid.UUID
}

func (s *ItemHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.itemService = service_mocks.NewMockItemServiceInterface(s.ctrl)
	s.handler = NewItemHandler(s.itemService, nil)
	s.e = newTestEcho()
	s.userID = uuid.New()
}

func (s *ItemHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

// withItemID sets the :itemId path parameter
func withItemID(c echo.Context, id string) echo.Context {
	c.SetParamNames("itemId")
	c.SetParamValues(id)
	return c
}

func (s *ItemHandlerSuite) TestListItems() {
	items := []models.Item{
		{ID: uuid.New(), UserID: s.userID, ProviderItemID: gofakeit.UUID(), InstitutionName: gofakeit.Company(), Status: models.ItemStatusActive},
		{ID: uuid.New(), UserID: s.userID, ProviderItemID: gofakeit.UUID(), InstitutionName: gofakeit.Company(), Status: models.ItemStatusLoginRequired},
	}
	s.itemService.EXPECT().List(s.userID).Return(items, nil)

	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/items", nil, &s.userID)
	s.NoError(s.handler.ListItems(c))

	s.Equal(http.StatusOK, rec.Code)
	var body dto.ItemListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(2, body.Count)
	s.Equal(items[1].ProviderItemID, body.Items[1].ItemID)
	s.Equal(models.ItemStatusLoginRequired, body.Items[1].Status)
}

func (s *ItemHandlerSuite) TestGetItem_InvalidID() {
	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/items/not-a-uuid", nil, &s.userID)
	s.NoError(s.handler.GetItem(withItemID(c, "not-a-uuid")))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_005", decodeError(rec).Error.Code)
}

func (s *ItemHandlerSuite) TestGetItem_NotFound() {
	itemID := uuid.New()
	s.itemService.EXPECT().Get(gomock.Any(), s.userID, itemID).Return(nil, services.ErrItemNotFound)

	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/items/"+itemID.String(), nil, &s.userID)
	s.NoError(s.handler.GetItem(withItemID(c, itemID.String())))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("ITEM_001", decodeError(rec).Error.Code)
}

func (s *ItemHandlerSuite) TestUpdateItemWebhook() {
	itemID := uuid.New()
	s.itemService.EXPECT().UpdateWebhook(gomock.Any(), s.userID, itemID, "https://hooks.example.com/provider").
		Return(&dto.ItemResponse{ID: itemID, WebhookURL: "https://hooks.example.com/provider", ProviderReachable: true}, nil)

	body := map[string]string{"webhook_url": "https://hooks.example.com/provider"}
	c, rec := newRequestContext(s.e, http.MethodPut, "/api/v1/items/"+itemID.String()+"/webhook", body, &s.userID)
	s.NoError(s.handler.UpdateItemWebhook(withItemID(c, itemID.String())))

	s.Equal(http.StatusOK, rec.Code)
	var resp dto.ItemResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("https://hooks.example.com/provider", resp.WebhookURL)
	s.True(resp.ProviderReachable)
}

func (s *ItemHandlerSuite) TestUpdateItemWebhook_InvalidURL() {
	itemID := uuid.New()
	body := map[string]string{"webhook_url": "not a url"}
	c, _ := newRequestContext(s.e, http.MethodPut, "/api/v1/items/"+itemID.String()+"/webhook", body, &s.userID)

	s.Error(s.handler.UpdateItemWebhook(withItemID(c, itemID.String())))
}

func (s *ItemHandlerSuite) TestUpdateItemWebhook_Errors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", services.ErrItemNotFound, http.StatusNotFound, "ITEM_001"},
		{"needs relink", services.ErrItemNotUsable, http.StatusUnprocessableEntity, "ITEM_002"},
		{"no credentials", services.ErrSyncUnavailable, http.StatusServiceUnavailable, "TXN_002"},
		{"breaker open", services.ErrProviderUnavailable, http.StatusServiceUnavailable, "LINK_007"},
		{"provider rejected", fmt.Errorf("%w: INVALID_WEBHOOK", services.ErrItemProviderFailed), http.StatusBadGateway, "ITEM_003"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			itemID := uuid.New()
			s.itemService.EXPECT().UpdateWebhook(gomock.Any(), s.userID, itemID, gomock.Any()).Return(nil, tt.err)

			body := map[string]string{"webhook_url": "https://hooks.example.com/provider"}
			c, rec := newRequestContext(s.e, http.MethodPut, "/api/v1/items/"+itemID.String()+"/webhook", body, &s.userID)
			s.NoError(s.handler.UpdateItemWebhook(withItemID(c, itemID.String())))
			s.Equal(tt.status, rec.Code)
			s.Equal(tt.code, decodeError(rec).Error.Code)
		})
	}
}
