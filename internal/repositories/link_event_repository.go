package repositories

import (
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LinkEventRepository struct {
	db *gorm.DB
}

func NewLinkEventRepository(db *gorm.DB) LinkEventRepositoryInterface {
	return &LinkEventRepository{db: db}
}

func (r *LinkEventRepository) Create(event *models.LinkEvent) error {
	if event == nil {
		return errors.New("link event cannot be nil")
	}

	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create link event: %w", err)
	}
	return nil
}

// ListByUserID pages through a user's events, newest first
func (r *LinkEventRepository) ListByUserID(userID uuid.UUID, offset, limit int) ([]models.LinkEvent, int64, error) {
	var events []models.LinkEvent
	var total int64

	query := r.db.Model(&models.LinkEvent{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count link events: %w", err)
	}

	if err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list link events: %w", err)
	}

	return events, total, nil
}

// ListBySessionID returns one attempt's events in the order they happened
func (r *LinkEventRepository) ListBySessionID(userID uuid.UUID, linkSessionID string) ([]models.LinkEvent, error) {
	var events []models.LinkEvent
	err := r.db.Where("user_id = ? AND link_session_id = ?", userID, linkSessionID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list link events for session: %w", err)
	}
	return events, nil
}

func (r *LinkEventRepository) DeleteOlderThan(duration time.Duration) (int64, error) {
	result := r.db.Where("created_at < ?", time.Now().Add(-duration)).Delete(&models.LinkEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old link events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
