package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	LinkedAccountTypeChecking   = "checking"
	LinkedAccountTypeSavings    = "savings"
	LinkedAccountTypeCredit     = "credit"
	LinkedAccountTypeInvestment = "investment"

	lastUpdatedLayout = "2006-01-02"
)

var (
	ErrInvalidLinkedAccountType = errors.New("invalid linked account type")
	ErrMissingRecordID          = errors.New("record id is required")
	ErrMissingInstitution       = errors.New("institution is required")
)

// LinkedAccount is an external account connected through the link flow
type LinkedAccount struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"-"`
	RecordID          string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_linked_accounts_user_record" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_linked_accounts_user_record" json:"-"`
	ItemID            *uuid.UUID      `gorm:"type:uuid;index" json:"item_id,omitempty"`
	ProviderAccountID string          `gorm:"type:varchar(100);index" json:"-"`
	Name              string          `gorm:"type:varchar(150);not null" json:"name"`
	Type              string          `gorm:"type:varchar(20);not null;default:'checking'" json:"type"`
	Institution       string          `gorm:"type:varchar(150);not null" json:"institution"`
	Balance           decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	AccountNumber     string          `gorm:"type:varchar(16);not null" json:"accountNumber"`
	Connected         bool            `gorm:"not null;default:true" json:"connected"`
	LastUpdated       time.Time       `gorm:"not null" json:"-"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`

	User User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:SET NULL" json:"-"`
}

func (a *LinkedAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Type == "" {
		a.Type = LinkedAccountTypeChecking
	}
	if a.Currency == "" {
		a.Currency = "USD"
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.LastUpdated.IsZero() {
		a.LastUpdated = now
	}

	return a.Validate()
}

func (a *LinkedAccount) Validate() error {
	if a.RecordID == "" {
		return ErrMissingRecordID
	}
	if a.Institution == "" {
		return ErrMissingInstitution
	}
	if !IsValidLinkedAccountType(a.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidLinkedAccountType, a.Type)
	}
	return nil
}

func IsValidLinkedAccountType(t string) bool {
	switch t {
	case LinkedAccountTypeChecking, LinkedAccountTypeSavings, LinkedAccountTypeCredit, LinkedAccountTypeInvestment:
		return true
	}
	return false
}

// IsCredit reports whether the balance is owed rather than held
func (a *LinkedAccount) IsCredit() bool {
	return a.Type == LinkedAccountTypeCredit
}

// LastUpdatedDate renders LastUpdated as YYYY-MM-DD
func (a *LinkedAccount) LastUpdatedDate() string {
	return a.LastUpdated.UTC().Format(lastUpdatedLayout)
}

// Touch marks the account as freshly synced
func (a *LinkedAccount) Touch(at time.Time) {
	a.LastUpdated = at
}

func (a *LinkedAccount) TableName() string {
	return "linked_accounts"
}

// LinkedAccountSummary aggregates a user's linked accounts. Credit balances are reported
// separately and never counted toward TotalBalance.
type LinkedAccountSummary struct {
	TotalBalance     decimal.Decimal `json:"total_balance"`
	CreditBalance    decimal.Decimal `json:"credit_balance"`
	AccountCount     int             `json:"account_count"`
	ConnectedCount   int             `json:"connected_count"`
	InstitutionCount int             `json:"institution_count"`
}

// SummarizeLinkedAccounts totals balances across accounts
func SummarizeLinkedAccounts(accounts []LinkedAccount) LinkedAccountSummary {
	summary := LinkedAccountSummary{
		TotalBalance:  decimal.Zero,
		CreditBalance: decimal.Zero,
		AccountCount:  len(accounts),
	}

	institutions := make(map[string]struct{})
	for i := range accounts {
		account := &accounts[i]
		if account.Connected {
			summary.ConnectedCount++
		}
		institutions[account.Institution] = struct{}{}

		if account.IsCredit() {
			summary.CreditBalance = summary.CreditBalance.Add(account.Balance)
			continue
		}
		summary.TotalBalance = summary.TotalBalance.Add(account.Balance)
	}
	summary.InstitutionCount = len(institutions)

	return summary
}
