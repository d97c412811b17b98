package provider

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured      = errors.New("provider credentials are not configured")
	ErrInvalidPublicToken = errors.New("public token is invalid or expired")
	ErrInvalidAccessToken = errors.New("access token is invalid")
	ErrUnsupportedProduct = errors.New("unsupported provider product")
)

// LinkToken is a short-lived token that initializes the provider widget
type LinkToken struct {
	Token      string
	Expiration time.Time
	RequestID  string
}

// Exchange is the result of trading a public token for a durable access token
type Exchange struct {
	AccessToken string
	ItemID      string
	RequestID   string
}

// Account is one account read from the provider
type Account struct {
	ID             string
	Name           string
	Mask           string
	Type           string
	Subtype        string
	CurrentBalance decimal.Decimal
	Currency       string
}

// AccountsResult groups accounts with the item they belong to
type AccountsResult struct {
	ItemID        string
	InstitutionID string
	Accounts      []Account
}

// Transaction is one posted or pending transaction read from the provider. A positive
// amount is money leaving the account.
type Transaction struct {
	ID             string
	AccountID      string
	Name           string
	MerchantName   string
	Amount         decimal.Decimal
	Currency       string
	Date           time.Time
	Pending        bool
	Category       []string
	CategoryID     string
	PaymentChannel string
}

// TransactionsPage is one offset page of transactions for a date range
type TransactionsPage struct {
	Transactions []Transaction
	Total        int
	RequestID    string
}

// TransactionsSync is one batch of changes since a cursor. An empty cursor starts from the
// beginning of the item's history.
type TransactionsSync struct {
	Added      []Transaction
	Modified   []Transaction
	Removed    []string
	NextCursor string
	HasMore    bool
	RequestID  string
}

// ItemInfo is the provider's view of an item
type ItemInfo struct {
	ItemID            string
	InstitutionID     string
	WebhookURL        string
	ErrorCode         string
	ErrorMessage      string
	ConsentExpiration *time.Time
	RequestID         string
}

// TransactionDateLayout is the provider's date format for transaction ranges
const TransactionDateLayout = "2006-01-02"

// Client is the account aggregation provider
type Client interface {
	// Configured reports whether real credentials are present
	Configured() bool
	CreateLinkToken(ctx context.Context, clientUserID string) (*LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResult, error)
	RemoveItem(ctx context.Context, accessToken string) error
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count, offset int) (*TransactionsPage, error)
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*TransactionsSync, error)
	GetItem(ctx context.Context, accessToken string) (*ItemInfo, error)
	UpdateItemWebhook(ctx context.Context, accessToken, webhookURL string) (*ItemInfo, error)
}

// LedgerType maps a provider account type and subtype onto a linked account type
func LedgerType(accountType, subtype string) string {
	switch accountType {
	case "credit", "loan":
		return "credit"
	case "investment", "brokerage":
		return "investment"
	}
	if subtype == "savings" || subtype == "money market" || subtype == "cd" {
		return "savings"
	}
	return "checking"
}
