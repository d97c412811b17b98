package services

import (
	"errors"
	"fmt"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

// AuditService handles audit logging operations
type AuditService struct {
	repo repositories.AuditLogRepositoryInterface
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface) AuditServiceInterface {
	return &AuditService{
		repo: repo,
	}
}

var (
	ErrInvalidUserID   = errors.New("invalid user ID")
	ErrInvalidAuditLog = errors.New("invalid audit log")
)

// ValidateActivityType rejects actions outside the known set
func ValidateActivityType(action string) error {
	if models.AuditResourceFor(action) == "" {
		return fmt.Errorf("invalid activity type: %s", action)
	}
	return nil
}

func (s *AuditService) CreateAuditLog(log *models.AuditLog) error {
	if log == nil {
		return ErrInvalidAuditLog
	}

	if err := ValidateActivityType(log.Action); err != nil {
		return err
	}

	if err := s.repo.Create(log); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

// GetUserActivity pages through a user's audit trail, newest first
func (s *AuditService) GetUserActivity(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, ErrInvalidUserID
	}
	return s.repo.GetByUserID(userID, offset, limit)
}

// LogLinkActivity records an account-link action against a linked account or item
func (s *AuditService) LogLinkActivity(userID uuid.UUID, action, resourceID string, metadata map[string]interface{}) error {
	if userID == uuid.Nil {
		return ErrInvalidUserID
	}

	return s.CreateAuditLog(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   models.AuditResourceFor(action),
		ResourceID: resourceID,
		Metadata:   metadata,
	})
}
