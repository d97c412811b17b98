package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ItemStatusActive            = "active"
	ItemStatusLoginRequired     = "login_required"
	ItemStatusErrored           = "errored"
	ItemStatusPendingExpiration = "pending_expiration"
	ItemStatusRevoked           = "revoked"
)

var ErrInvalidItemStatus = errors.New("invalid item status")

// Item is one provider connection to an institution. A single item may back several
// linked accounts.
type Item struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderItemID  string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"item_id"`
	AccessToken     string     `gorm:"type:varchar(255);not null" json:"-"`
	InstitutionID   string     `gorm:"type:varchar(50)" json:"institution_id,omitempty"`
	InstitutionName string     `gorm:"type:varchar(150)" json:"institution_name,omitempty"`
	Status          string     `gorm:"type:varchar(30);not null;default:'active';index" json:"status"`
	ErrorCode       string     `gorm:"type:varchar(100)" json:"error_code,omitempty"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message,omitempty"`
	WebhookURL      string     `gorm:"type:varchar(255)" json:"-"`
	LastWebhookAt   *time.Time `json:"last_webhook_at,omitempty"`
	// TransactionsCursor is where the next transactions sync resumes; empty means from the start
	TransactionsCursor string         `gorm:"type:text" json:"-"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = ItemStatusActive
	}

	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = now
	}

	return i.Validate()
}

func (i *Item) Validate() error {
	if i.ProviderItemID == "" {
		return errors.New("provider item id is required")
	}
	if i.AccessToken == "" {
		return errors.New("access token is required")
	}
	if !IsValidItemStatus(i.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidItemStatus, i.Status)
	}
	return nil
}

func IsValidItemStatus(status string) bool {
	switch status {
	case ItemStatusActive, ItemStatusLoginRequired, ItemStatusErrored,
		ItemStatusPendingExpiration, ItemStatusRevoked:
		return true
	}
	return false
}

// IsUsable reports whether the access token can still be used to read accounts
func (i *Item) IsUsable() bool {
	return i.Status == ItemStatusActive || i.Status == ItemStatusPendingExpiration
}

// ApplyStatus records a webhook driven status change. Returning to active clears the last error.
func (i *Item) ApplyStatus(status, errorCode, errorMessage string, at time.Time) error {
	if !IsValidItemStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidItemStatus, status)
	}

	i.Status = status
	i.ErrorCode = errorCode
	i.ErrorMessage = errorMessage
	if status == ItemStatusActive {
		i.ErrorCode = ""
		i.ErrorMessage = ""
	}
	i.LastWebhookAt = &at
	return nil
}

func (i *Item) TableName() string {
	return "items"
}
