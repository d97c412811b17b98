package repositories

import (
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
)

type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	UpdateFailedLoginAttempts(user *models.User) error
}

type RefreshTokenRepositoryInterface interface {
	Create(token *models.RefreshToken) error
	GetByTokenHash(tokenHash string) (*models.RefreshToken, error)
	Revoke(tokenID uuid.UUID) error
	RevokeAllForUser(userID uuid.UUID) error
	DeleteExpired() (int64, error)
}

type BlacklistedTokenRepositoryInterface interface {
	Create(token *models.BlacklistedToken) error
	GetByJTI(jti string) (*models.BlacklistedToken, error)
	DeleteExpired() (int64, error)
}

type AuditLogRepositoryInterface interface {
	Create(log *models.AuditLog) error
	GetByUserID(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(duration time.Duration) (int64, error)
}

// LinkedAccountRepositoryInterface stores accounts produced by successful link attempts
type LinkedAccountRepositoryInterface interface {
	Create(account *models.LinkedAccount) error
	GetByRecordID(userID uuid.UUID, recordID string) (*models.LinkedAccount, error)
	ListByUserID(userID uuid.UUID) ([]models.LinkedAccount, error)
	Update(account *models.LinkedAccount) error
	Delete(userID uuid.UUID, recordID string) error
	CountByItemID(itemID uuid.UUID) (int64, error)
	SetConnectedByItemID(itemID uuid.UUID, connected bool) (int64, error)
}

type ItemRepositoryInterface interface {
	Create(item *models.Item) error
	GetByID(id uuid.UUID) (*models.Item, error)
	GetByProviderItemID(providerItemID string) (*models.Item, error)
	ListByUserID(userID uuid.UUID) ([]models.Item, error)
	Update(item *models.Item) error
	Delete(id uuid.UUID) error
}

type LinkEventRepositoryInterface interface {
	Create(event *models.LinkEvent) error
	ListByUserID(userID uuid.UUID, offset, limit int) ([]models.LinkEvent, int64, error)
	ListBySessionID(userID uuid.UUID, linkSessionID string) ([]models.LinkEvent, error)
	DeleteOlderThan(duration time.Duration) (int64, error)
}

type TransactionRepositoryInterface interface {
	Upsert(txn *models.Transaction) error
	ListByUserID(userID uuid.UUID, filter TransactionFilter) ([]models.Transaction, int64, error)
	DeleteByProviderIDs(itemID uuid.UUID, providerIDs []string) (int64, error)
	DeleteByItemID(itemID uuid.UUID) (int64, error)
}
