package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const transactionDateLayout = "2006-01-02"

var (
	ErrMissingProviderTransactionID = errors.New("provider transaction id is required")
	ErrMissingTransactionAccount    = errors.New("provider account id is required")
)

// Transaction is one provider transaction on a linked account. Amount is positive when money
// leaves the account.
type Transaction struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ItemID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProviderAccountID     string          `gorm:"type:varchar(100);not null;index" json:"-"`
	ProviderTransactionID string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"transaction_id"`
	Name                  string          `gorm:"type:varchar(255);not null" json:"name"`
	MerchantName          string          `gorm:"type:varchar(255)" json:"merchant_name,omitempty"`
	Amount                decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency              string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Date                  time.Time       `gorm:"type:date;not null;index" json:"-"`
	Pending               bool            `gorm:"not null;default:false" json:"pending"`
	Category              pq.StringArray  `gorm:"type:text[]" json:"category,omitempty"`
	CategoryID            string          `gorm:"type:varchar(50)" json:"category_id,omitempty"`
	PaymentChannel        string          `gorm:"type:varchar(30)" json:"payment_channel,omitempty"`
	CreatedAt             time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"not null" json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Item Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

func (t *Transaction) Validate() error {
	if t.ProviderTransactionID == "" {
		return ErrMissingProviderTransactionID
	}
	if t.ProviderAccountID == "" {
		return ErrMissingTransactionAccount
	}
	return nil
}

// DateString renders Date as YYYY-MM-DD
func (t *Transaction) DateString() string {
	return t.Date.UTC().Format(transactionDateLayout)
}

// DisplayName prefers the merchant over the raw statement descriptor
func (t *Transaction) DisplayName() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Name
}

// IsOutflow reports whether money left the account
func (t *Transaction) IsOutflow() bool {
	return t.Amount.IsPositive()
}

func (t *Transaction) TableName() string {
	return "transactions"
}
