package provider

import (
	"testing"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestConvertTransaction(t *testing.T) {
	c := &PlaidClient{logger: discardLogger()}

	txn := plaid.Transaction{}
	txn.SetTransactionId("txn-1")
	txn.SetAccountId("prov-acc-1")
	txn.SetName("COFFEE ROASTERS 0042")
	txn.SetMerchantName("Coffee Roasters")
	txn.SetAmount(4.5)
	txn.SetIsoCurrencyCode("USD")
	txn.SetDate("2026-03-14")
	txn.SetPending(true)
	txn.SetCategory([]string{"Food and Drink", "Coffee Shop"})
	txn.SetCategoryId("13005043")

	got := c.convertTransaction(txn)

	assert.Equal(t, "txn-1", got.ID)
	assert.Equal(t, "prov-acc-1", got.AccountID)
	assert.Equal(t, "Coffee Roasters", got.MerchantName)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("4.50")), got.Amount.String())
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), got.Date)
	assert.True(t, got.Pending)
	assert.Equal(t, []string{"Food and Drink", "Coffee Shop"}, got.Category)
	assert.Equal(t, "13005043", got.CategoryID)
}

func TestConvertTransaction_BadDateLeavesZero(t *testing.T) {
	c := &PlaidClient{logger: discardLogger()}

	txn := plaid.Transaction{}
	txn.SetTransactionId("txn-2")
	txn.SetDate("14/03/2026")

	got := c.convertTransaction(txn)

	assert.Equal(t, "txn-2", got.ID)
	assert.True(t, got.Date.IsZero())
}

func TestItemInfo(t *testing.T) {
	item := plaid.Item{}
	item.SetItemId("item-1")
	item.SetInstitutionId("ins_acme")
	item.SetWebhook("https://example.com/hook")

	info := itemInfo(item, "req-1")

	assert.Equal(t, "item-1", info.ItemID)
	assert.Equal(t, "ins_acme", info.InstitutionID)
	assert.Equal(t, "https://example.com/hook", info.WebhookURL)
	assert.Equal(t, "req-1", info.RequestID)
	assert.Empty(t, info.ErrorCode)
	assert.Nil(t, info.ConsentExpiration)
}
