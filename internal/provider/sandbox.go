package provider

import (
	"context"
	"time"

	"finance-tracker/internal/linkflow"
)

// SandboxClient stands in for the provider when no credentials are configured. It hands out
// the placeholder link token and refuses every call that would need a real item.
type SandboxClient struct {
	now func() time.Time
}

func NewSandboxClient() Client {
	return &SandboxClient{now: time.Now}
}

func (c *SandboxClient) Configured() bool {
	return false
}

func (c *SandboxClient) CreateLinkToken(ctx context.Context, clientUserID string) (*LinkToken, error) {
	return &LinkToken{
		Token:      linkflow.SandboxLinkToken,
		Expiration: c.now().Add(4 * time.Hour),
	}, nil
}

func (c *SandboxClient) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	return nil, ErrNotConfigured
}

func (c *SandboxClient) GetAccounts(ctx context.Context, accessToken string) (*AccountsResult, error) {
	return nil, ErrNotConfigured
}

func (c *SandboxClient) RemoveItem(ctx context.Context, accessToken string) error {
	return ErrNotConfigured
}

func (c *SandboxClient) GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count, offset int) (*TransactionsPage, error) {
	return nil, ErrNotConfigured
}

func (c *SandboxClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*TransactionsSync, error) {
	return nil, ErrNotConfigured
}

func (c *SandboxClient) GetItem(ctx context.Context, accessToken string) (*ItemInfo, error) {
	return nil, ErrNotConfigured
}

func (c *SandboxClient) UpdateItemWebhook(ctx context.Context, accessToken, webhookURL string) (*ItemInfo, error) {
	return nil, ErrNotConfigured
}
