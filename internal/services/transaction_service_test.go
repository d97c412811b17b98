package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TransactionServiceTestSuite struct {
	suite.Suite
	db          *database.DB
	ctrl        *gomock.Controller
	gateway     *service_mocks.MockProviderGatewayInterface
	txnRepo     repositories.TransactionRepositoryInterface
	accountRepo repositories.LinkedAccountRepositoryInterface
	itemRepo    repositories.ItemRepositoryInterface
	metrics     *PrometheusMetrics
	svc         TransactionServiceInterface
	user        *models.User
	item        *models.Item
	ctx         context.Context
}

func TestTransactionServiceSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}

func (s *TransactionServiceTestSuite) SetupSuite() {
	s.db = database.SetupTestDB(s.T())
}

func (s *TransactionServiceTestSuite) SetupTest() {
	database.CleanupTestDB(s.T(), s.db)

	s.ctrl = gomock.NewController(s.T())
	s.gateway = service_mocks.NewMockProviderGatewayInterface(s.ctrl)
	s.txnRepo = repositories.NewTransactionRepository(s.db.DB)
	s.accountRepo = repositories.NewLinkedAccountRepository(s.db.DB)
	s.itemRepo = repositories.NewItemRepository(s.db.DB)
	s.metrics, _ = newTestMetrics(s.T())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditService := NewAuditService(repositories.NewAuditLogRepository(s.db.DB))
	s.svc = NewTransactionService(s.txnRepo, s.accountRepo, s.itemRepo, s.gateway, auditService, s.metrics, logger)

	s.user = database.CreateTestUser(s.T(), s.db, "ledger@example.com")
	s.item = database.CreateTestItem(s.T(), s.db, s.user.ID, "item-ledger")
	s.ctx = context.Background()
}

func (s *TransactionServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func providerTxn(id, account string, d int, amount string, pending bool) provider.Transaction {
	return provider.Transaction{
		ID:        id,
		AccountID: account,
		Name:      "Purchase " + id,
		Amount:    decimal.RequireFromString(amount),
		Currency:  "USD",
		Date:      time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC),
		Pending:   pending,
	}
}

func (s *TransactionServiceTestSuite) linkAccount(recordID, providerAccountID string) {
	s.Require().NoError(s.accountRepo.Create(&models.LinkedAccount{
		RecordID:          recordID,
		UserID:            s.user.ID,
		ItemID:            &s.item.ID,
		ProviderAccountID: providerAccountID,
		Name:              "Everyday",
		Type:              models.LinkedAccountTypeChecking,
		Institution:       "First Platypus Bank",
		Balance:           decimal.NewFromInt(100),
		AccountNumber:     "****0000",
		Connected:         true,
		LastUpdated:       time.Now(),
	}))
}

func (s *TransactionServiceTestSuite) stored() []models.Transaction {
	txns, _, err := s.txnRepo.ListByUserID(s.user.ID, repositories.TransactionFilter{Limit: 100})
	s.Require().NoError(err)
	return txns
}

func (s *TransactionServiceTestSuite) reloadItem() *models.Item {
	item, err := s.itemRepo.GetByID(s.item.ID)
	s.Require().NoError(err)
	return item
}

func (s *TransactionServiceTestSuite) TestSync_PagesAndSavesCursor() {
	s.gateway.EXPECT().Configured().Return(true)
	gomock.InOrder(
		s.gateway.EXPECT().SyncTransactions(gomock.Any(), s.item.AccessToken, "").Return(&provider.TransactionsSync{
			Added:      []provider.Transaction{providerTxn("t1", "acc-1", 10, "12.00", true), providerTxn("t2", "acc-1", 11, "3.10", false)},
			NextCursor: "c1",
			HasMore:    true,
		}, nil),
		s.gateway.EXPECT().SyncTransactions(gomock.Any(), s.item.AccessToken, "c1").Return(&provider.TransactionsSync{
			Modified:   []provider.Transaction{providerTxn("t1", "acc-1", 12, "12.50", false)},
			Removed:    []string{"t2"},
			NextCursor: "c2",
		}, nil),
	)

	resp, err := s.svc.Sync(s.ctx, s.user.ID)

	s.Require().NoError(err)
	s.Equal(2, resp.Added)
	s.Equal(1, resp.Modified)
	s.Equal(1, resp.Removed)
	s.Require().Len(resp.Items, 1)
	s.Empty(resp.Items[0].Error)

	txns := s.stored()
	s.Require().Len(txns, 1)
	s.Equal("t1", txns[0].ProviderTransactionID)
	s.False(txns[0].Pending)
	s.Equal("12.50", txns[0].Amount.StringFixed(2))
	s.Equal("c2", s.reloadItem().TransactionsCursor)

	s.Equal(2.0, testutil.ToFloat64(s.metrics.transactionsSynced.WithLabelValues("added")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.transactionsSynced.WithLabelValues("removed")))

	logs, _, err := NewAuditService(repositories.NewAuditLogRepository(s.db.DB)).GetUserActivity(s.user.ID, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(models.AuditActionTxnSynced, logs[0].Action)
}

func (s *TransactionServiceTestSuite) TestSync_ContinuesFromSavedCursor() {
	s.item.TransactionsCursor = "c7"
	s.Require().NoError(s.itemRepo.Update(s.item))

	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().SyncTransactions(gomock.Any(), s.item.AccessToken, "c7").
		Return(&provider.TransactionsSync{NextCursor: "c8"}, nil)

	resp, err := s.svc.Sync(s.ctx, s.user.ID)

	s.Require().NoError(err)
	s.Zero(resp.Added)
	s.Equal("c8", s.reloadItem().TransactionsCursor)
}

func (s *TransactionServiceTestSuite) TestSync_ProviderFailureKeepsCursor() {
	s.item.TransactionsCursor = "c3"
	s.Require().NoError(s.itemRepo.Update(s.item))

	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().SyncTransactions(gomock.Any(), s.item.AccessToken, "c3").
		Return(nil, errors.New("TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION"))

	resp, err := s.svc.Sync(s.ctx, s.user.ID)

	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(ErrTransactionSyncFailed.Error(), resp.Items[0].Error)
	s.Equal("c3", s.reloadItem().TransactionsCursor)
}

func (s *TransactionServiceTestSuite) TestSync_BreakerOpenReported() {
	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().SyncTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, ErrProviderUnavailable)

	resp, err := s.svc.Sync(s.ctx, s.user.ID)

	s.Require().NoError(err)
	s.Equal(ErrProviderUnavailable.Error(), resp.Items[0].Error)
}

func (s *TransactionServiceTestSuite) TestSync_SkipsUnusableItem() {
	s.Require().NoError(s.item.ApplyStatus(models.ItemStatusLoginRequired, "ITEM_LOGIN_REQUIRED", "", time.Now()))
	s.Require().NoError(s.itemRepo.Update(s.item))
	s.gateway.EXPECT().Configured().Return(true)

	resp, err := s.svc.Sync(s.ctx, s.user.ID)

	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Contains(resp.Items[0].Error, models.ItemStatusLoginRequired)
}

func (s *TransactionServiceTestSuite) TestSync_Unconfigured() {
	s.gateway.EXPECT().Configured().Return(false)

	_, err := s.svc.Sync(s.ctx, s.user.ID)
	s.ErrorIs(err, ErrSyncUnavailable)
}

func (s *TransactionServiceTestSuite) TestSync_OtherUsersItemsUntouched() {
	other := database.CreateTestUser(s.T(), s.db, "other@example.com")
	database.CreateTestItem(s.T(), s.db, other.ID, "item-other")

	s.gateway.EXPECT().Configured().Return(true)
	s.gateway.EXPECT().SyncTransactions(gomock.Any(), s.item.AccessToken, "").
		Return(&provider.TransactionsSync{NextCursor: "c1"}, nil)

	resp, err := s.svc.Sync(s.ctx, s.user.ID)

	s.Require().NoError(err)
	s.Len(resp.Items, 1)
}

func (s *TransactionServiceTestSuite) TestListForAccount_UsesRecordID() {
	s.linkAccount("acc_1700000000001", "prov-acc-1")
	s.linkAccount("acc_1700000000002", "prov-acc-2")
	for _, txn := range []provider.Transaction{
		providerTxn("t1", "prov-acc-1", 10, "5.00", false),
		providerTxn("t2", "prov-acc-2", 11, "6.00", false),
		providerTxn("t3", "prov-acc-1", 12, "7.00", true),
	} {
		s.Require().NoError(s.txnRepo.Upsert(toTransaction(s.item, txn)))
	}

	resp, err := s.svc.ListForAccount(s.user.ID, "acc_1700000000001", repositories.TransactionFilter{Limit: 20})

	s.Require().NoError(err)
	s.Equal(int64(2), resp.Pagination.Total)
	s.Require().Len(resp.Transactions, 2)
	s.Equal("t3", resp.Transactions[0].ID)
	s.Equal("acc_1700000000001", resp.Transactions[0].AccountID)
	s.Equal("2026-03-10", resp.Transactions[1].Date)

	all, err := s.svc.List(s.user.ID, repositories.TransactionFilter{Limit: 20})
	s.Require().NoError(err)
	s.Len(all.Transactions, 3)
	s.Equal("acc_1700000000002", all.Transactions[1].AccountID)
}

func (s *TransactionServiceTestSuite) TestListForAccount_UnmatchedAccountIsEmpty() {
	s.linkAccount("acc_1700000000003", "")

	resp, err := s.svc.ListForAccount(s.user.ID, "acc_1700000000003", repositories.TransactionFilter{Limit: 20})

	s.Require().NoError(err)
	s.NotNil(resp.Transactions)
	s.Empty(resp.Transactions)
}

func (s *TransactionServiceTestSuite) TestListForAccount_Errors() {
	_, err := s.svc.ListForAccount(s.user.ID, "acc_missing", repositories.TransactionFilter{Limit: 20})
	s.ErrorIs(err, ErrLinkedAccountNotFound)

	start := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.svc.ListForAccount(s.user.ID, "acc_missing", repositories.TransactionFilter{Start: &start, End: &end})
	s.ErrorIs(err, ErrInvalidDateRange)
}
