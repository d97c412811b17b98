package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrItemNotUsable      = errors.New("item needs to be relinked")
	ErrItemProviderFailed = errors.New("provider rejected the item request")
)

// ItemService exposes the user's provider connections
type ItemService struct {
	itemRepo     repositories.ItemRepositoryInterface
	gateway      ProviderGatewayInterface
	auditService AuditServiceInterface
	logger       *slog.Logger
}

func NewItemService(
	itemRepo repositories.ItemRepositoryInterface,
	gateway ProviderGatewayInterface,
	auditService AuditServiceInterface,
	logger *slog.Logger,
) ItemServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemService{
		itemRepo:     itemRepo,
		gateway:      gateway,
		auditService: auditService,
		logger:       logger,
	}
}

func (s *ItemService) List(userID uuid.UUID) ([]models.Item, error) {
	items, err := s.itemRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Get returns the stored item merged with the provider's current view. A provider failure
// is logged and the stored view returned with ProviderReachable false.
func (s *ItemService) Get(ctx context.Context, userID, itemID uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.owned(userID, itemID)
	if err != nil {
		return nil, err
	}

	resp := dto.NewItemResponse(item)
	if !item.IsUsable() || !s.gateway.Configured() {
		return &resp, nil
	}

	info, err := s.gateway.GetItem(ctx, item.AccessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read item from provider",
			"error", err,
			"item_id", item.ID)
		return &resp, nil
	}

	resp.ProviderReachable = true
	if info.WebhookURL != "" {
		resp.WebhookURL = info.WebhookURL
	}
	if info.ErrorCode != "" {
		resp.ErrorCode = info.ErrorCode
		resp.ErrorMessage = info.ErrorMessage
	}
	resp.ConsentExpiresAt = info.ConsentExpiration
	return &resp, nil
}

// UpdateWebhook points the item's webhooks at webhookURL
func (s *ItemService) UpdateWebhook(ctx context.Context, userID, itemID uuid.UUID, webhookURL string) (*dto.ItemResponse, error) {
	item, err := s.owned(userID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsUsable() {
		return nil, ErrItemNotUsable
	}
	if !s.gateway.Configured() {
		return nil, ErrSyncUnavailable
	}

	info, err := s.gateway.UpdateItemWebhook(ctx, item.AccessToken, webhookURL)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrItemProviderFailed, err)
	}

	oldURL := item.WebhookURL
	item.WebhookURL = webhookURL
	if info.WebhookURL != "" {
		item.WebhookURL = info.WebhookURL
	}
	if err := s.itemRepo.Update(item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	if s.auditService != nil {
		if err := s.auditService.LogLinkActivity(userID, models.AuditActionItemWebhook, item.ID.String(), map[string]interface{}{
			"old_url": oldURL,
			"new_url": item.WebhookURL,
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to create audit log", "error", err, "item_id", item.ID)
		}
	}

	resp := dto.NewItemResponse(item)
	resp.ProviderReachable = true
	return &resp, nil
}

// owned loads an item, reporting another user's item as not found
func (s *ItemService) owned(userID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item.UserID != userID {
		return nil, ErrItemNotFound
	}
	return item, nil
}
