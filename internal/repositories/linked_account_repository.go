package repositories

import (
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrLinkedAccountNotFound = errors.New("linked account not found")
	ErrLinkedAccountExists   = errors.New("linked account already exists")
)

type LinkedAccountRepository struct {
	db *gorm.DB
}

func NewLinkedAccountRepository(db *gorm.DB) LinkedAccountRepositoryInterface {
	return &LinkedAccountRepository{db: db}
}

func (r *LinkedAccountRepository) Create(account *models.LinkedAccount) error {
	if account == nil {
		return errors.New("linked account cannot be nil")
	}

	if err := r.db.Create(account).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrLinkedAccountExists
		}
		return fmt.Errorf("failed to create linked account: %w", err)
	}
	return nil
}

// GetByRecordID fetches one of the user's accounts by its public record id
func (r *LinkedAccountRepository) GetByRecordID(userID uuid.UUID, recordID string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := r.db.Where("user_id = ? AND record_id = ?", userID, recordID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkedAccountNotFound
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}
	return &account, nil
}

// ListByUserID returns the user's accounts in the order they were linked
func (r *LinkedAccountRepository) ListByUserID(userID uuid.UUID) ([]models.LinkedAccount, error) {
	var accounts []models.LinkedAccount
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC, record_id ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	return accounts, nil
}

func (r *LinkedAccountRepository) Update(account *models.LinkedAccount) error {
	if account == nil {
		return errors.New("linked account cannot be nil")
	}

	if err := r.db.Save(account).Error; err != nil {
		return fmt.Errorf("failed to update linked account: %w", err)
	}
	return nil
}

func (r *LinkedAccountRepository) Delete(userID uuid.UUID, recordID string) error {
	result := r.db.Where("user_id = ? AND record_id = ?", userID, recordID).Delete(&models.LinkedAccount{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete linked account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLinkedAccountNotFound
	}
	return nil
}

func (r *LinkedAccountRepository) CountByItemID(itemID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.Model(&models.LinkedAccount{}).Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count linked accounts: %w", err)
	}
	return count, nil
}

// SetConnectedByItemID flips the connected flag on every account backed by the item
func (r *LinkedAccountRepository) SetConnectedByItemID(itemID uuid.UUID, connected bool) (int64, error) {
	result := r.db.Model(&models.LinkedAccount{}).
		Where("item_id = ?", itemID).
		Updates(map[string]interface{}{
			"connected":  connected,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update linked accounts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
