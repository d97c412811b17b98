package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

// maxSyncPages bounds one item's sync so a provider that keeps reporting more data cannot
// hold a request forever. The cursor is saved, so the next sync continues from there.
const maxSyncPages = 25

var (
	ErrInvalidDateRange      = errors.New("start date is after end date")
	ErrSyncUnavailable       = errors.New("transaction sync needs provider credentials")
	ErrTransactionSyncFailed = errors.New("failed to sync transactions")
)

// TransactionService stores provider transactions and serves them per account
type TransactionService struct {
	txnRepo      repositories.TransactionRepositoryInterface
	accountRepo  repositories.LinkedAccountRepositoryInterface
	itemRepo     repositories.ItemRepositoryInterface
	gateway      ProviderGatewayInterface
	auditService AuditServiceInterface
	metrics      MetricsRecorderInterface
	logger       *slog.Logger
}

func NewTransactionService(
	txnRepo repositories.TransactionRepositoryInterface,
	accountRepo repositories.LinkedAccountRepositoryInterface,
	itemRepo repositories.ItemRepositoryInterface,
	gateway ProviderGatewayInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		txnRepo:      txnRepo,
		accountRepo:  accountRepo,
		itemRepo:     itemRepo,
		gateway:      gateway,
		auditService: auditService,
		metrics:      metrics,
		logger:       logger,
	}
}

// List pages through every transaction the user has, newest first
func (s *TransactionService) List(userID uuid.UUID, filter repositories.TransactionFilter) (*dto.TransactionListResponse, error) {
	if err := validateRange(filter); err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	recordIDs := make(map[string]string, len(accounts))
	for _, a := range accounts {
		if a.ProviderAccountID != "" {
			recordIDs[a.ProviderAccountID] = a.RecordID
		}
	}

	txns, total, err := s.txnRepo.ListByUserID(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactionPage(txns, total, filter, func(t *models.Transaction) string {
		return recordIDs[t.ProviderAccountID]
	}), nil
}

// ListForAccount pages through one linked account's transactions. Accounts that were never
// matched to a provider account have none.
func (s *TransactionService) ListForAccount(userID uuid.UUID, recordID string, filter repositories.TransactionFilter) (*dto.TransactionListResponse, error) {
	if err := validateRange(filter); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByRecordID(userID, recordID)
	if err != nil {
		if errors.Is(err, repositories.ErrLinkedAccountNotFound) {
			return nil, ErrLinkedAccountNotFound
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}
	if account.ProviderAccountID == "" {
		return transactionPage(nil, 0, filter, nil), nil
	}

	filter.ProviderAccountID = account.ProviderAccountID
	txns, total, err := s.txnRepo.ListByUserID(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactionPage(txns, total, filter, func(*models.Transaction) string {
		return account.RecordID
	}), nil
}

// Sync pulls pending changes for every usable item the user owns. A failing item is
// reported in its result and does not stop the others.
func (s *TransactionService) Sync(ctx context.Context, userID uuid.UUID) (*dto.TransactionSyncResponse, error) {
	if !s.gateway.Configured() {
		return nil, ErrSyncUnavailable
	}

	items, err := s.itemRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	resp := &dto.TransactionSyncResponse{Items: make([]dto.ItemSyncResult, 0, len(items))}
	for i := range items {
		item := &items[i]
		if !item.IsUsable() {
			resp.Add(dto.ItemSyncResult{
				ItemID:      item.ID,
				Institution: item.InstitutionName,
				Error:       "item status is " + item.Status,
			})
			continue
		}

		result, err := s.SyncItem(ctx, item)
		if err != nil {
			s.logger.WarnContext(ctx, "item transaction sync failed",
				"error", err,
				"item_id", item.ID,
				"user_id", userID)
			result.Error = syncErrorMessage(err)
		}
		resp.Add(result)
	}

	s.audit(userID, models.AuditActionTxnSynced, userID.String(), map[string]interface{}{
		"items":    len(items),
		"added":    resp.Added,
		"modified": resp.Modified,
		"removed":  resp.Removed,
	})
	return resp, nil
}

// SyncItem applies every change since the item's cursor and saves the new cursor. On error
// the cursor is left alone; stored changes are idempotent so the next sync replays safely.
func (s *TransactionService) SyncItem(ctx context.Context, item *models.Item) (dto.ItemSyncResult, error) {
	result := dto.ItemSyncResult{ItemID: item.ID, Institution: item.InstitutionName}

	cursor := item.TransactionsCursor
	for page := 0; page < maxSyncPages; page++ {
		batch, err := s.gateway.SyncTransactions(ctx, item.AccessToken, cursor)
		if err != nil {
			return result, fmt.Errorf("%w: %w", ErrTransactionSyncFailed, err)
		}

		for _, txn := range batch.Added {
			if err := s.txnRepo.Upsert(toTransaction(item, txn)); err != nil {
				return result, err
			}
			result.Added++
		}
		for _, txn := range batch.Modified {
			if err := s.txnRepo.Upsert(toTransaction(item, txn)); err != nil {
				return result, err
			}
			result.Modified++
		}
		removed, err := s.txnRepo.DeleteByProviderIDs(item.ID, batch.Removed)
		if err != nil {
			return result, err
		}
		result.Removed += int(removed)

		cursor = batch.NextCursor
		if !batch.HasMore {
			break
		}
		if page == maxSyncPages-1 {
			s.logger.WarnContext(ctx, "transaction sync stopped with more pages pending",
				"item_id", item.ID,
				"pages", maxSyncPages)
		}
	}

	item.TransactionsCursor = cursor
	if err := s.itemRepo.Update(item); err != nil {
		return result, fmt.Errorf("failed to save sync cursor: %w", err)
	}

	s.metrics.AddCounter(MetricTransactionsSynced, float64(result.Added), map[string]string{"change": "added"})
	s.metrics.AddCounter(MetricTransactionsSynced, float64(result.Modified), map[string]string{"change": "modified"})
	s.metrics.AddCounter(MetricTransactionsSynced, float64(result.Removed), map[string]string{"change": "removed"})
	s.logger.InfoContext(ctx, "transactions synced",
		"item_id", item.ID,
		"added", result.Added,
		"modified", result.Modified,
		"removed", result.Removed)

	return result, nil
}

func (s *TransactionService) audit(userID uuid.UUID, action, resourceID string, metadata map[string]interface{}) {
	if s.auditService == nil {
		return
	}
	if err := s.auditService.LogLinkActivity(userID, action, resourceID, metadata); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", action)
	}
}

func toTransaction(item *models.Item, txn provider.Transaction) *models.Transaction {
	return &models.Transaction{
		UserID:                item.UserID,
		ItemID:                item.ID,
		ProviderAccountID:     txn.AccountID,
		ProviderTransactionID: txn.ID,
		Name:                  txn.Name,
		MerchantName:          txn.MerchantName,
		Amount:                txn.Amount,
		Currency:              txn.Currency,
		Date:                  txn.Date.UTC(),
		Pending:               txn.Pending,
		Category:              txn.Category,
		CategoryID:            txn.CategoryID,
		PaymentChannel:        txn.PaymentChannel,
	}
}

func transactionPage(txns []models.Transaction, total int64, filter repositories.TransactionFilter, accountFor func(*models.Transaction) string) *dto.TransactionListResponse {
	resp := &dto.TransactionListResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(txns)),
		Pagination:   dto.PaginationResponse{Offset: filter.Offset, Limit: filter.Limit, Total: total},
	}
	for i := range txns {
		resp.Transactions = append(resp.Transactions, dto.NewTransactionResponse(&txns[i], accountFor(&txns[i])))
	}
	return resp
}

func validateRange(filter repositories.TransactionFilter) error {
	if filter.Start != nil && filter.End != nil && filter.Start.After(*filter.End) {
		return ErrInvalidDateRange
	}
	return nil
}

func syncErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		return ErrProviderUnavailable.Error()
	case errors.Is(err, provider.ErrInvalidAccessToken):
		return provider.ErrInvalidAccessToken.Error()
	case errors.Is(err, ErrTransactionSyncFailed):
		return ErrTransactionSyncFailed.Error()
	}
	return "internal error"
}
