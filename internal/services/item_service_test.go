package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/repositories/repository_mocks"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type ItemServiceTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	itemRepo     *repository_mocks.MockItemRepositoryInterface
	gateway      *service_mocks.MockProviderGatewayInterface
	auditService *service_mocks.MockAuditServiceInterface
	service      ItemServiceInterface
	userID       uuid.UUID
	item         *models.Item
}

func TestItemServiceSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceTestSuite))
}

func (s *ItemServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.itemRepo = repository_mocks.NewMockItemRepositoryInterface(s.ctrl)
	s.gateway = service_mocks.NewMockProviderGatewayInterface(s.ctrl)
	s.auditService = service_mocks.NewMockAuditServiceInterface(s.ctrl)
	s.service = NewItemService(s.itemRepo, s.gateway, s.auditService, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.userID = uuid.New()
	s.item = &models.Item{
		ID:              uuid.New(),
		UserID:          s.userID,
		ProviderItemID:  "item-1",
		AccessToken:     "access-1",
		InstitutionName: "Acme Bank",
		Status:          models.ItemStatusActive,
		WebhookURL:      "https://old.example.com/hook",
	}
}

func (s *ItemServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ItemServiceTestSuite) TestGet_MergesProviderView() {
	consent := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)
	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().GetItem(gomock.Any(), "access-1").Return(&provider.ItemInfo{
		ItemID:            "item-1",
		WebhookURL:        "https://live.example.com/hook",
		ErrorCode:         "PENDING_EXPIRATION",
		ConsentExpiration: &consent,
	}, nil)

	resp, err := s.service.Get(context.Background(), s.userID, s.item.ID)

	s.Require().NoError(err)
	s.True(resp.ProviderReachable)
	s.Equal("https://live.example.com/hook", resp.WebhookURL)
	s.Equal("PENDING_EXPIRATION", resp.ErrorCode)
	s.Equal(&consent, resp.ConsentExpiresAt)
}

func (s *ItemServiceTestSuite) TestGet_ProviderFailureReturnsStoredView() {
	s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)
	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().GetItem(gomock.Any(), "access-1").Return(nil, ErrProviderUnavailable)

	resp, err := s.service.Get(context.Background(), s.userID, s.item.ID)

	s.Require().NoError(err)
	s.False(resp.ProviderReachable)
	s.Equal("https://old.example.com/hook", resp.WebhookURL)
}

func (s *ItemServiceTestSuite) TestGet_UnusableItemSkipsProvider() {
	s.item.Status = models.ItemStatusRevoked
	s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)

	resp, err := s.service.Get(context.Background(), s.userID, s.item.ID)

	s.Require().NoError(err)
	s.Equal(models.ItemStatusRevoked, resp.Status)
	s.False(resp.ProviderReachable)
}

func (s *ItemServiceTestSuite) TestGet_OtherUsersItemIsNotFound() {
	s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)

	_, err := s.service.Get(context.Background(), uuid.New(), s.item.ID)
	s.ErrorIs(err, ErrItemNotFound)

	missing := uuid.New()
	s.itemRepo.EXPECT().GetByID(missing).Return(nil, repositories.ErrItemNotFound)
	_, err = s.service.Get(context.Background(), s.userID, missing)
	s.ErrorIs(err, ErrItemNotFound)
}

func (s *ItemServiceTestSuite) TestUpdateWebhook() {
	s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)
	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().UpdateItemWebhook(gomock.Any(), "access-1", "https://new.example.com/hook").
		Return(&provider.ItemInfo{ItemID: "item-1", WebhookURL: "https://new.example.com/hook"}, nil)
	s.itemRepo.EXPECT().Update(gomock.Any()).DoAndReturn(func(item *models.Item) error {
		s.Equal("https://new.example.com/hook", item.WebhookURL)
		return nil
	})
	s.auditService.EXPECT().LogLinkActivity(s.userID, models.AuditActionItemWebhook, s.item.ID.String(), map[string]interface{}{
		"old_url": "https://old.example.com/hook",
		"new_url": "https://new.example.com/hook",
	}).Return(nil)

	resp, err := s.service.UpdateWebhook(context.Background(), s.userID, s.item.ID, "https://new.example.com/hook")

	s.Require().NoError(err)
	s.Equal("https://new.example.com/hook", resp.WebhookURL)
	s.True(resp.ProviderReachable)
}

func (s *ItemServiceTestSuite) TestUpdateWebhook_Errors() {
	s.Run("needs relink", func() {
		item := *s.item
		item.Status = models.ItemStatusLoginRequired
		s.itemRepo.EXPECT().GetByID(item.ID).Return(&item, nil)

		_, err := s.service.UpdateWebhook(context.Background(), s.userID, item.ID, "https://new.example.com/hook")
		s.ErrorIs(err, ErrItemNotUsable)
	})

	s.Run("no credentials", func() {
		s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)
		s.gateway.EXPECT().Configured().Return(false)

		_, err := s.service.UpdateWebhook(context.Background(), s.userID, s.item.ID, "https://new.example.com/hook")
		s.ErrorIs(err, ErrSyncUnavailable)
	})

	s.Run("breaker open", func() {
		s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)
		s.gateway.EXPECT().Configured().Return(true)
		s.gateway.EXPECT().UpdateItemWebhook(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, ErrProviderUnavailable)

		_, err := s.service.UpdateWebhook(context.Background(), s.userID, s.item.ID, "https://new.example.com/hook")
		s.ErrorIs(err, ErrProviderUnavailable)
		s.NotErrorIs(err, ErrItemProviderFailed)
	})

	s.Run("provider rejected", func() {
		s.itemRepo.EXPECT().GetByID(s.item.ID).Return(s.item, nil)
		s.gateway.EXPECT().Configured().Return(true)
		s.gateway.EXPECT().UpdateItemWebhook(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("INVALID_WEBHOOK"))

		_, err := s.service.UpdateWebhook(context.Background(), s.userID, s.item.ID, "https://new.example.com/hook")
		s.ErrorIs(err, ErrItemProviderFailed)
	})
}
