package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"finance-tracker/internal/models"
)

const (
	WebhookTypeItem         = "ITEM"
	WebhookTypeTransactions = "TRANSACTIONS"
)

var ErrInvalidWebhook = errors.New("invalid webhook payload")

// WebhookError is the error object attached to ITEM/ERROR webhooks
type WebhookError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Webhook is the subset of provider webhook fields this service acts on
type Webhook struct {
	WebhookType         string        `json:"webhook_type"`
	WebhookCode         string        `json:"webhook_code"`
	ItemID              string        `json:"item_id"`
	Error               *WebhookError `json:"error,omitempty"`
	NewTransactions     int           `json:"new_transactions,omitempty"`
	RemovedTransactions []string      `json:"removed_transactions,omitempty"`
	ConsentExpiration   string        `json:"consent_expiration_time,omitempty"`
	Environment         string        `json:"environment,omitempty"`
}

// ParseWebhook decodes a webhook body. Type, code and item id are required.
func ParseWebhook(body []byte) (*Webhook, error) {
	var hook Webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if hook.WebhookType == "" || hook.WebhookCode == "" {
		return nil, fmt.Errorf("%w: webhook_type and webhook_code are required", ErrInvalidWebhook)
	}
	if hook.ItemID == "" {
		return nil, fmt.Errorf("%w: item_id is required", ErrInvalidWebhook)
	}
	return &hook, nil
}

// ItemStatus returns the item status a webhook moves the item to, or false when the webhook
// does not change item status.
func (w *Webhook) ItemStatus() (string, bool) {
	if w.WebhookType != WebhookTypeItem {
		return "", false
	}

	switch w.WebhookCode {
	case "ERROR":
		if w.Error != nil && w.Error.ErrorCode == "ITEM_LOGIN_REQUIRED" {
			return models.ItemStatusLoginRequired, true
		}
		return models.ItemStatusErrored, true
	case "PENDING_EXPIRATION", "PENDING_DISCONNECT":
		return models.ItemStatusPendingExpiration, true
	case "USER_PERMISSION_REVOKED", "USER_ACCOUNT_REVOKED":
		return models.ItemStatusRevoked, true
	case "LOGIN_REPAIRED":
		return models.ItemStatusActive, true
	}
	return "", false
}

// ErrorCode returns the attached error code, if any
func (w *Webhook) ErrorCode() string {
	if w.Error == nil {
		return ""
	}
	return w.Error.ErrorCode
}

func (w *Webhook) ErrorMessage() string {
	if w.Error == nil {
		return ""
	}
	return w.Error.ErrorMessage
}

// IsTransactionUpdate reports whether new transaction data is available for the item
func (w *Webhook) IsTransactionUpdate() bool {
	if w.WebhookType != WebhookTypeTransactions {
		return false
	}
	switch w.WebhookCode {
	case "INITIAL_UPDATE", "HISTORICAL_UPDATE", "DEFAULT_UPDATE", "SYNC_UPDATES_AVAILABLE", "TRANSACTIONS_REMOVED":
		return true
	}
	return false
}
