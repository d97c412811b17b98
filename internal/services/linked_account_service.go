package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrLinkedAccountNotFound = errors.New("linked account not found")
	ErrAccountDisconnected   = errors.New("linked account is disconnected")
	ErrBalanceRefreshFailed  = errors.New("failed to read balances from the provider")
)

// LinkedAccountService serves the accounts dashboard
type LinkedAccountService struct {
	accountRepo  repositories.LinkedAccountRepositoryInterface
	itemRepo     repositories.ItemRepositoryInterface
	txnRepo      repositories.TransactionRepositoryInterface
	gateway      ProviderGatewayInterface
	auditService AuditServiceInterface
	metrics      MetricsRecorderInterface
	linkLogger   LinkLoggerInterface
	logger       *slog.Logger
	now          func() time.Time
}

func NewLinkedAccountService(
	accountRepo repositories.LinkedAccountRepositoryInterface,
	itemRepo repositories.ItemRepositoryInterface,
	txnRepo repositories.TransactionRepositoryInterface,
	gateway ProviderGatewayInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	linkLogger LinkLoggerInterface,
	logger *slog.Logger,
) LinkedAccountServiceInterface {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if linkLogger == nil {
		linkLogger = NewLinkLogger(logger)
	}
	return &LinkedAccountService{
		accountRepo:  accountRepo,
		itemRepo:     itemRepo,
		txnRepo:      txnRepo,
		gateway:      gateway,
		auditService: auditService,
		metrics:      metrics,
		linkLogger:   linkLogger,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *LinkedAccountService) List(userID uuid.UUID) ([]models.LinkedAccount, error) {
	accounts, err := s.accountRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	return accounts, nil
}

func (s *LinkedAccountService) Get(userID uuid.UUID, recordID string) (*models.LinkedAccount, error) {
	account, err := s.accountRepo.GetByRecordID(userID, recordID)
	if err != nil {
		if errors.Is(err, repositories.ErrLinkedAccountNotFound) {
			return nil, ErrLinkedAccountNotFound
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}
	return account, nil
}

// Refresh re-reads the balance from the provider when the account is backed by a usable
// item. Otherwise only LastUpdated moves.
func (s *LinkedAccountService) Refresh(ctx context.Context, userID uuid.UUID, recordID string) (*models.LinkedAccount, error) {
	account, err := s.Get(userID, recordID)
	if err != nil {
		return nil, err
	}
	if !account.Connected {
		return nil, ErrAccountDisconnected
	}

	oldBalance := account.Balance
	source := "touch"

	item, err := s.usableItem(account)
	if err != nil {
		return nil, err
	}
	if item != nil {
		result, err := s.gateway.GetAccounts(ctx, item.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBalanceRefreshFailed, err)
		}
		if match, ok := matchProviderAccount(result.Accounts, account.ProviderAccountID); ok {
			account.Balance = match.CurrentBalance
			account.Type = provider.LedgerType(match.Type, match.Subtype)
			source = "provider"
		}
	}

	account.Touch(s.now())
	if err := s.accountRepo.Update(account); err != nil {
		return nil, fmt.Errorf("failed to update linked account: %w", err)
	}

	s.metrics.IncrementCounter(MetricAccountRefreshed, map[string]string{"source": source})
	s.linkLogger.LogAccountRefreshed(ctx, userID, account.RecordID, oldBalance.StringFixed(2), account.Balance.StringFixed(2))
	s.audit(userID, models.AuditActionAccountRefresh, account.RecordID, map[string]interface{}{"source": source})

	return account, nil
}

func (s *LinkedAccountService) usableItem(account *models.LinkedAccount) (*models.Item, error) {
	if account.ItemID == nil {
		return nil, nil
	}
	item, err := s.itemRepo.GetByID(*account.ItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if !item.IsUsable() || !s.gateway.Configured() {
		return nil, nil
	}
	return item, nil
}

// Disconnect removes the account. When it was the last account of its item the item is
// removed at the provider (best effort) and deleted along with its transactions.
func (s *LinkedAccountService) Disconnect(ctx context.Context, userID uuid.UUID, recordID string) error {
	account, err := s.Get(userID, recordID)
	if err != nil {
		return err
	}

	if err := s.accountRepo.Delete(userID, recordID); err != nil {
		if errors.Is(err, repositories.ErrLinkedAccountNotFound) {
			return ErrLinkedAccountNotFound
		}
		return fmt.Errorf("failed to delete linked account: %w", err)
	}

	if account.ItemID != nil {
		s.releaseItem(ctx, *account.ItemID)
	}

	s.metrics.IncrementCounter(MetricAccountDisconnected, nil)
	s.audit(userID, models.AuditActionAccountRemoved, recordID, map[string]interface{}{
		"institution": account.Institution,
	})
	return nil
}

func (s *LinkedAccountService) releaseItem(ctx context.Context, itemID uuid.UUID) {
	remaining, err := s.accountRepo.CountByItemID(itemID)
	if err != nil || remaining > 0 {
		return
	}

	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return
	}
	if s.gateway.Configured() {
		if err := s.gateway.RemoveItem(ctx, item.AccessToken); err != nil {
			s.logger.WarnContext(ctx, "failed to remove item at provider",
				"error", err,
				"item_id", item.ID)
		}
	}
	if s.txnRepo != nil {
		if _, err := s.txnRepo.DeleteByItemID(item.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete item transactions",
				"error", err,
				"item_id", item.ID)
		}
	}
	if err := s.itemRepo.Delete(item.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete item",
			"error", err,
			"item_id", item.ID)
	}
}

// Summary totals the user's balances. Credit balances are reported apart from the total.
func (s *LinkedAccountService) Summary(userID uuid.UUID) (*models.LinkedAccountSummary, error) {
	accounts, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeLinkedAccounts(accounts)
	return &summary, nil
}

func (s *LinkedAccountService) audit(userID uuid.UUID, action, resourceID string, metadata map[string]interface{}) {
	if s.auditService == nil {
		return
	}
	if err := s.auditService.LogLinkActivity(userID, action, resourceID, metadata); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", action)
	}
}
