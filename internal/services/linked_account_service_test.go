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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LinkedAccountServiceTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	accountRepo  *repository_mocks.MockLinkedAccountRepositoryInterface
	itemRepo     *repository_mocks.MockItemRepositoryInterface
	txnRepo      *repository_mocks.MockTransactionRepositoryInterface
	gateway      *service_mocks.MockProviderGatewayInterface
	auditService *service_mocks.MockAuditServiceInterface
	service      LinkedAccountServiceInterface
	userID       uuid.UUID
}

func TestLinkedAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(LinkedAccountServiceTestSuite))
}

func (s *LinkedAccountServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.accountRepo = repository_mocks.NewMockLinkedAccountRepositoryInterface(s.ctrl)
	s.itemRepo = repository_mocks.NewMockItemRepositoryInterface(s.ctrl)
	s.txnRepo = repository_mocks.NewMockTransactionRepositoryInterface(s.ctrl)
	s.gateway = service_mocks.NewMockProviderGatewayInterface(s.ctrl)
	s.auditService = service_mocks.NewMockAuditServiceInterface(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewLinkedAccountService(s.accountRepo, s.itemRepo, s.txnRepo, s.gateway, s.auditService,
		NoopMetrics{}, NewLinkLogger(logger), logger)
	s.userID = uuid.New()
}

func (s *LinkedAccountServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LinkedAccountServiceTestSuite) account(itemID *uuid.UUID) *models.LinkedAccount {
	return &models.LinkedAccount{
		ID:                uuid.New(),
		RecordID:          "acc_1700000000000",
		UserID:            s.userID,
		ItemID:            itemID,
		ProviderAccountID: "prov-acc-1",
		Name:              "Acme Bank Account",
		Type:              models.LinkedAccountTypeChecking,
		Institution:       "Acme Bank",
		Balance:           decimal.NewFromInt(1000),
		AccountNumber:     "****4321",
		Connected:         true,
		LastUpdated:       time.Now().Add(-48 * time.Hour),
	}
}

func (s *LinkedAccountServiceTestSuite) TestGet_NotFound() {
	s.accountRepo.EXPECT().GetByRecordID(s.userID, "acc_missing").Return(nil, repositories.ErrLinkedAccountNotFound)

	_, err := s.service.Get(s.userID, "acc_missing")
	s.ErrorIs(err, ErrLinkedAccountNotFound)
}

func (s *LinkedAccountServiceTestSuite) TestRefresh_WithoutItemTouchesOnly() {
	account := s.account(nil)
	before := account.LastUpdated

	s.accountRepo.EXPECT().GetByRecordID(s.userID, account.RecordID).Return(account, nil)
	s.accountRepo.EXPECT().Update(account).Return(nil)
	s.auditService.EXPECT().LogLinkActivity(s.userID, models.AuditActionAccountRefresh, account.RecordID, gomock.Any()).Return(nil)

	refreshed, err := s.service.Refresh(context.Background(), s.userID, account.RecordID)

	s.Require().NoError(err)
	s.True(refreshed.LastUpdated.After(before))
	s.True(refreshed.Balance.Equal(decimal.NewFromInt(1000)))
}

func (s *LinkedAccountServiceTestSuite) TestRefresh_ReadsBalanceFromProvider() {
	itemID := uuid.New()
	account := s.account(&itemID)
	item := &models.Item{ID: itemID, AccessToken: "access-1", Status: models.ItemStatusActive}

	s.accountRepo.EXPECT().GetByRecordID(s.userID, account.RecordID).Return(account, nil)
	s.itemRepo.EXPECT().GetByID(itemID).Return(item, nil)
	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().GetAccounts(gomock.Any(), "access-1").Return(&provider.AccountsResult{
		Accounts: []provider.Account{{ID: "prov-acc-1", Type: "depository", Subtype: "checking", CurrentBalance: decimal.RequireFromString("1234.56")}},
	}, nil)
	s.accountRepo.EXPECT().Update(account).Return(nil)
	s.auditService.EXPECT().LogLinkActivity(s.userID, models.AuditActionAccountRefresh, account.RecordID, map[string]interface{}{"source": "provider"}).Return(nil)

	refreshed, err := s.service.Refresh(context.Background(), s.userID, account.RecordID)

	s.Require().NoError(err)
	s.True(refreshed.Balance.Equal(decimal.RequireFromString("1234.56")))
}

func (s *LinkedAccountServiceTestSuite) TestRefresh_UnusableItemTouchesOnly() {
	itemID := uuid.New()
	account := s.account(&itemID)

	s.accountRepo.EXPECT().GetByRecordID(s.userID, account.RecordID).Return(account, nil)
	s.itemRepo.EXPECT().GetByID(itemID).Return(&models.Item{ID: itemID, Status: models.ItemStatusRevoked}, nil)
	s.accountRepo.EXPECT().Update(account).Return(nil)
	s.auditService.EXPECT().LogLinkActivity(s.userID, models.AuditActionAccountRefresh, account.RecordID, map[string]interface{}{"source": "touch"}).Return(nil)

	_, err := s.service.Refresh(context.Background(), s.userID, account.RecordID)
	s.NoError(err)
}

func (s *LinkedAccountServiceTestSuite) TestRefresh_ProviderErrorIsReturned() {
	itemID := uuid.New()
	account := s.account(&itemID)

	s.accountRepo.EXPECT().GetByRecordID(s.userID, account.RecordID).Return(account, nil)
	s.itemRepo.EXPECT().GetByID(itemID).Return(&models.Item{ID: itemID, AccessToken: "access-1", Status: models.ItemStatusActive}, nil)
	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().GetAccounts(gomock.Any(), "access-1").Return(nil, ErrProviderUnavailable)

	_, err := s.service.Refresh(context.Background(), s.userID, account.RecordID)
	s.ErrorIs(err, ErrProviderUnavailable)
	s.ErrorIs(err, ErrBalanceRefreshFailed)
}

func (s *LinkedAccountServiceTestSuite) TestRefresh_Disconnected() {
	account := s.account(nil)
	account.Connected = false
	s.accountRepo.EXPECT().GetByRecordID(s.userID, account.RecordID).Return(account, nil)

	_, err := s.service.Refresh(context.Background(), s.userID, account.RecordID)
	s.ErrorIs(err, ErrAccountDisconnected)
}

func (s *LinkedAccountServiceTestSuite) TestDisconnect_LastAccountReleasesItem() {
	itemID := uuid.New()
	account := s.account(&itemID)
	item := &models.Item{ID: itemID, AccessToken: "access-1"}

	s.accountRepo.EXPECT().GetByRecordID(s.userID, account.RecordID).Return(account, nil)
	s.accountRepo.EXPECT().Delete(s.userID, account.RecordID).Return(nil)
	s.accountRepo.EXPECT().CountByItemID(itemID).Return(int64(0), nil)
	s.itemRepo.EXPECT().GetByID(itemID).Return(item, nil)
	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().RemoveItem(gomock.Any(), "access-1").Return(errors.New("provider down"))
	s.txnRepo.EXPECT().DeleteByItemID(itemID).Return(int64(3), nil)
	s.itemRepo.EXPECT().Delete(itemID).Return(nil)
	s.auditService.EXPECT().LogLinkActivity(s.userID, models.AuditActionAccountRemoved, account.RecordID, gomock.Any()).Return(nil)

	s.NoError(s.service.Disconnect(context.Background(), s.userID, account.RecordID))
}

func (s *LinkedAccountServiceTestSuite) TestDisconnect_SharedItemKept() {
	itemID := uuid.New()
	account := s.account(&itemID)

	s.accountRepo.EXPECT().GetByRecordID(s.userID, account.RecordID).Return(account, nil)
	s.accountRepo.EXPECT().Delete(s.userID, account.RecordID).Return(nil)
	s.accountRepo.EXPECT().CountByItemID(itemID).Return(int64(1), nil)
	s.auditService.EXPECT().LogLinkActivity(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	s.NoError(s.service.Disconnect(context.Background(), s.userID, account.RecordID))
}

func (s *LinkedAccountServiceTestSuite) TestDisconnect_NotFound() {
	s.accountRepo.EXPECT().GetByRecordID(s.userID, "acc_missing").Return(nil, repositories.ErrLinkedAccountNotFound)

	err := s.service.Disconnect(context.Background(), s.userID, "acc_missing")
	s.ErrorIs(err, ErrLinkedAccountNotFound)
}

func (s *LinkedAccountServiceTestSuite) TestSummary_ExcludesCreditFromTotal() {
	accounts := []models.LinkedAccount{
		{Institution: "Acme Bank", Type: models.LinkedAccountTypeChecking, Balance: decimal.RequireFromString("1000.00"), Connected: true},
		{Institution: "Acme Bank", Type: models.LinkedAccountTypeSavings, Balance: decimal.RequireFromString("2500.50"), Connected: true},
		{Institution: "Card Co", Type: models.LinkedAccountTypeCredit, Balance: decimal.RequireFromString("300.25"), Connected: false},
	}
	s.accountRepo.EXPECT().ListByUserID(s.userID).Return(accounts, nil)

	summary, err := s.service.Summary(s.userID)

	s.Require().NoError(err)
	s.Equal("3500.50", summary.TotalBalance.StringFixed(2))
	s.Equal("300.25", summary.CreditBalance.StringFixed(2))
	s.Equal(3, summary.AccountCount)
	s.Equal(2, summary.ConnectedCount)
	s.Equal(2, summary.InstitutionCount)
}

func (s *LinkedAccountServiceTestSuite) TestList_RepositoryError() {
	s.accountRepo.EXPECT().ListByUserID(s.userID).Return(nil, errors.New("database error"))

	_, err := s.service.List(s.userID)
	s.Error(err)
	s.Contains(err.Error(), "failed to list linked accounts")
}
