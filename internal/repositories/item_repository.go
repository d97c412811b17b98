package repositories

import (
	"errors"
	"fmt"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrItemAlreadyExists = errors.New("item already exists")
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepositoryInterface {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(item *models.Item) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}

	if err := r.db.Create(item).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrItemAlreadyExists
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (r *ItemRepository) GetByID(id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetByProviderItemID resolves the provider's item id, as carried by webhooks
func (r *ItemRepository) GetByProviderItemID(providerItemID string) (*models.Item, error) {
	var item models.Item
	if err := r.db.Where("provider_item_id = ?", providerItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item by provider id: %w", err)
	}
	return &item, nil
}

func (r *ItemRepository) ListByUserID(userID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Update(item *models.Item) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}

	if err := r.db.Save(item).Error; err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (r *ItemRepository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&models.Item{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}
