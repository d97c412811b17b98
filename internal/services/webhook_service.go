package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"
)

var ErrUnknownItem = errors.New("webhook references an unknown item")

// Webhook actions reported back to the caller
const (
	WebhookActionStatusChanged = "status_changed"
	WebhookActionLogged        = "logged"
	WebhookActionSynced        = "transactions_synced"
	WebhookActionIgnored       = "ignored"
)

// WebhookService applies provider webhooks to stored items
type WebhookService struct {
	itemRepo     repositories.ItemRepositoryInterface
	accountRepo  repositories.LinkedAccountRepositoryInterface
	eventRepo    repositories.LinkEventRepositoryInterface
	auditService AuditServiceInterface
	syncer       TransactionSyncer
	metrics      MetricsRecorderInterface
	linkLogger   LinkLoggerInterface
	logger       *slog.Logger
	now          func() time.Time
}

func NewWebhookService(
	itemRepo repositories.ItemRepositoryInterface,
	accountRepo repositories.LinkedAccountRepositoryInterface,
	eventRepo repositories.LinkEventRepositoryInterface,
	auditService AuditServiceInterface,
	syncer TransactionSyncer,
	metrics MetricsRecorderInterface,
	linkLogger LinkLoggerInterface,
	logger *slog.Logger,
) WebhookServiceInterface {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if linkLogger == nil {
		linkLogger = NewLinkLogger(logger)
	}
	return &WebhookService{
		itemRepo:     itemRepo,
		accountRepo:  accountRepo,
		eventRepo:    eventRepo,
		auditService: auditService,
		syncer:       syncer,
		metrics:      metrics,
		linkLogger:   linkLogger,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *WebhookService) Handle(ctx context.Context, body []byte) (*dto.WebhookResult, error) {
	hook, err := provider.ParseWebhook(body)
	if err != nil {
		s.metrics.IncrementCounter(MetricWebhookReceived, map[string]string{"type": "unknown", "code": "unknown", "status": "invalid"})
		return nil, err
	}

	result, err := s.apply(ctx, hook)
	status := "processed"
	if err != nil {
		status = "failed"
		if errors.Is(err, ErrUnknownItem) {
			status = "unknown_item"
		}
	}
	s.metrics.IncrementCounter(MetricWebhookReceived, map[string]string{
		"type":   hook.WebhookType,
		"code":   hook.WebhookCode,
		"status": status,
	})
	return result, err
}

func (s *WebhookService) apply(ctx context.Context, hook *provider.Webhook) (*dto.WebhookResult, error) {
	item, err := s.itemRepo.GetByProviderItemID(hook.ItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			s.logger.WarnContext(ctx, "webhook for unknown item",
				"item_id", hook.ItemID,
				"webhook_type", hook.WebhookType,
				"webhook_code", hook.WebhookCode)
			return nil, ErrUnknownItem
		}
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}

	result := &dto.WebhookResult{ItemID: hook.ItemID, Action: WebhookActionIgnored}

	newStatus, changes := hook.ItemStatus()
	switch {
	case changes:
		oldStatus := item.Status
		if err := item.ApplyStatus(newStatus, hook.ErrorCode(), hook.ErrorMessage(), s.now()); err != nil {
			return nil, err
		}
		if err := s.itemRepo.Update(item); err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
		if _, err := s.accountRepo.SetConnectedByItemID(item.ID, item.IsUsable()); err != nil {
			return nil, fmt.Errorf("failed to update linked accounts: %w", err)
		}

		s.linkLogger.LogItemStatusChange(ctx, item.ID, oldStatus, newStatus)
		s.recordEvent(ctx, item, hook)
		if s.auditService != nil {
			if err := s.auditService.LogLinkActivity(item.UserID, models.AuditActionItemStatus, item.ID.String(), map[string]interface{}{
				"old_status": oldStatus,
				"new_status": newStatus,
				"error_code": hook.ErrorCode(),
			}); err != nil {
				s.logger.ErrorContext(ctx, "failed to create audit log", "error", err, "item_id", item.ID)
			}
		}

		result.Action = WebhookActionStatusChanged
		result.OldStatus = oldStatus
		result.NewStatus = newStatus
	case hook.IsTransactionUpdate():
		s.logger.InfoContext(ctx, "transactions update available",
			"item_id", hook.ItemID,
			"webhook_code", hook.WebhookCode,
			"new_transactions", hook.NewTransactions,
			"removed_transactions", len(hook.RemovedTransactions))
		result.Action = WebhookActionLogged
		if s.syncer == nil || !item.IsUsable() {
			break
		}
		// a failed sync leaves the cursor in place; the next webhook or manual sync retries
		synced, err := s.syncer.SyncItem(ctx, item)
		if err != nil {
			s.logger.WarnContext(ctx, "webhook triggered sync failed", "error", err, "item_id", item.ID)
			break
		}
		result.Action = WebhookActionSynced
		result.Added = synced.Added
		result.Modified = synced.Modified
		result.Removed = synced.Removed
	default:
		s.logger.DebugContext(ctx, "webhook ignored",
			"item_id", hook.ItemID,
			"webhook_type", hook.WebhookType,
			"webhook_code", hook.WebhookCode)
	}

	return result, nil
}

func (s *WebhookService) recordEvent(ctx context.Context, item *models.Item, hook *provider.Webhook) {
	event := &models.LinkEvent{
		UserID:          item.UserID,
		EventName:       hook.WebhookType + "_" + hook.WebhookCode,
		Status:          models.LinkEventStatusInfo,
		InstitutionID:   item.InstitutionID,
		InstitutionName: item.InstitutionName,
		ErrorCode:       hook.ErrorCode(),
		ErrorMessage:    hook.ErrorMessage(),
	}
	if err := s.eventRepo.Create(event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record webhook event", "error", err, "item_id", item.ID)
	}
}
