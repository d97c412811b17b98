package dto

import (
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
)

// TransactionResponse is one transaction as the dashboard renders it. AccountID is the
// linked account record id, empty when the account has since been disconnected.
type TransactionResponse struct {
	ID             string   `json:"id"`
	AccountID      string   `json:"accountId,omitempty"`
	Name           string   `json:"name"`
	MerchantName   string   `json:"merchantName,omitempty"`
	Amount         string   `json:"amount"`
	Currency       string   `json:"currency"`
	Date           string   `json:"date"`
	Pending        bool     `json:"pending"`
	Category       []string `json:"category,omitempty"`
	PaymentChannel string   `json:"paymentChannel,omitempty"`
}

func NewTransactionResponse(txn *models.Transaction, accountID string) TransactionResponse {
	return TransactionResponse{
		ID:             txn.ProviderTransactionID,
		AccountID:      accountID,
		Name:           txn.DisplayName(),
		MerchantName:   txn.MerchantName,
		Amount:         txn.Amount.StringFixed(2),
		Currency:       txn.Currency,
		Date:           txn.DateString(),
		Pending:        txn.Pending,
		Category:       txn.Category,
		PaymentChannel: txn.PaymentChannel,
	}
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   PaginationResponse    `json:"pagination"`
}

// ItemSyncResult counts the changes one item's sync applied. Error is set when the item
// could not be synced; the other items still are.
type ItemSyncResult struct {
	ItemID      uuid.UUID `json:"itemId"`
	Institution string    `json:"institution,omitempty"`
	Added       int       `json:"added"`
	Modified    int       `json:"modified"`
	Removed     int       `json:"removed"`
	Error       string    `json:"error,omitempty"`
}

type TransactionSyncResponse struct {
	Items    []ItemSyncResult `json:"items"`
	Added    int              `json:"added"`
	Modified int              `json:"modified"`
	Removed  int              `json:"removed"`
}

// Add folds one item's counts into the totals
func (r *TransactionSyncResponse) Add(result ItemSyncResult) {
	r.Items = append(r.Items, result)
	r.Added += result.Added
	r.Modified += result.Modified
	r.Removed += result.Removed
}

// ItemResponse is a provider connection with the provider's live view merged in when it
// could be read
type ItemResponse struct {
	ID                uuid.UUID  `json:"id"`
	ItemID            string     `json:"itemId"`
	InstitutionID     string     `json:"institutionId,omitempty"`
	InstitutionName   string     `json:"institutionName,omitempty"`
	Status            string     `json:"status"`
	WebhookURL        string     `json:"webhookUrl,omitempty"`
	ErrorCode         string     `json:"errorCode,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	ConsentExpiresAt  *time.Time `json:"consentExpiresAt,omitempty"`
	LastWebhookAt     *time.Time `json:"lastWebhookAt,omitempty"`
	ProviderReachable bool       `json:"providerReachable"`
}

func NewItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		ItemID:          item.ProviderItemID,
		InstitutionID:   item.InstitutionID,
		InstitutionName: item.InstitutionName,
		Status:          item.Status,
		WebhookURL:      item.WebhookURL,
		ErrorCode:       item.ErrorCode,
		ErrorMessage:    item.ErrorMessage,
		LastWebhookAt:   item.LastWebhookAt,
	}
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}

type UpdateItemWebhookRequest struct {
	WebhookURL string `json:"webhook_url" validate:"required,url,max=255"`
}
