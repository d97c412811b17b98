package repositories

import (
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionFilter narrows a transaction listing. Zero values mean no constraint; Start and
// End are inclusive dates.
type TransactionFilter struct {
	ProviderAccountID string
	Start             *time.Time
	End               *time.Time
	Pending           *bool
	Offset            int
	Limit             int
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &TransactionRepository{db: db}
}

// Upsert inserts the transaction or, when its provider id is already stored, overwrites the
// mutable fields. Pending transactions settle this way.
func (r *TransactionRepository) Upsert(txn *models.Transaction) error {
	if txn == nil {
		return errors.New("transaction cannot be nil")
	}

	txn.UpdatedAt = time.Now()
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_account_id", "name", "merchant_name", "amount", "currency", "date",
			"pending", "category", "category_id", "payment_channel", "updated_at",
		}),
	}).Create(txn).Error
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// ListByUserID pages through a user's transactions, newest first
func (r *TransactionRepository) ListByUserID(userID uuid.UUID, filter TransactionFilter) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	var total int64

	query := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.ProviderAccountID != "" {
		query = query.Where("provider_account_id = ?", filter.ProviderAccountID)
	}
	if filter.Start != nil {
		query = query.Where("date >= ?", filter.Start.UTC())
	}
	if filter.End != nil {
		query = query.Where("date <= ?", filter.End.UTC())
	}
	if filter.Pending != nil {
		query = query.Where("pending = ?", *filter.Pending)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Order("date DESC").
		Order("created_at DESC").
		Offset(filter.Offset).
		Find(&txns).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txns, total, nil
}

// DeleteByProviderIDs removes transactions the provider reported as removed
func (r *TransactionRepository) DeleteByProviderIDs(itemID uuid.UUID, providerIDs []string) (int64, error) {
	if len(providerIDs) == 0 {
		return 0, nil
	}
	result := r.db.Where("item_id = ? AND provider_transaction_id IN ?", itemID, providerIDs).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *TransactionRepository) DeleteByItemID(itemID uuid.UUID) (int64, error) {
	result := r.db.Where("item_id = ?", itemID).Delete(&models.Transaction{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete item transactions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
