package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/config"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
)

// PlaidClient talks to the Plaid API
type PlaidClient struct {
	api          *plaid.APIClient
	clientName   string
	language     string
	products     []plaid.Products
	countryCodes []plaid.CountryCode
	webhookURL   string
	logger       *slog.Logger
}

// NewPlaidClient builds a client from cfg. Unknown products or country codes are rejected.
func NewPlaidClient(cfg *config.ProviderConfig, logger *slog.Logger) (Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	products, err := parseProducts(cfg.Products)
	if err != nil {
		return nil, err
	}
	countryCodes, err := parseCountryCodes(cfg.CountryCodes)
	if err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	configuration.UseEnvironment(environmentFor(cfg.Environment, logger))
	configuration.HTTPClient = &http.Client{
		Transport: newLoggingTransport(http.DefaultTransport, logger),
		Timeout:   cfg.Timeout,
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}

	return &PlaidClient{
		api:          plaid.NewAPIClient(configuration),
		clientName:   cfg.ClientName,
		language:     language,
		products:     products,
		countryCodes: countryCodes,
		webhookURL:   cfg.WebhookURL,
		logger:       logger,
	}, nil
}

func environmentFor(name string, logger *slog.Logger) plaid.Environment {
	switch strings.ToLower(name) {
	case "", "sandbox":
		return plaid.Sandbox
	case "development":
		return plaid.Development
	case "production":
		return plaid.Production
	default:
		logger.Warn("unknown provider environment, using sandbox", "environment", name)
		return plaid.Sandbox
	}
}

func parseProducts(names []string) ([]plaid.Products, error) {
	products := make([]plaid.Products, 0, len(names))
	for _, name := range names {
		product, err := plaid.NewProductsFromValue(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedProduct, name)
		}
		products = append(products, *product)
	}
	if len(products) == 0 {
		products = append(products, plaid.PRODUCTS_TRANSACTIONS)
	}
	return products, nil
}

func parseCountryCodes(codes []string) ([]plaid.CountryCode, error) {
	out := make([]plaid.CountryCode, 0, len(codes))
	for _, code := range codes {
		cc, err := plaid.NewCountryCodeFromValue(strings.ToUpper(strings.TrimSpace(code)))
		if err != nil {
			return nil, fmt.Errorf("unsupported country code %q: %w", code, err)
		}
		out = append(out, *cc)
	}
	if len(out) == 0 {
		out = append(out, plaid.COUNTRYCODE_US)
	}
	return out, nil
}

func (c *PlaidClient) Configured() bool {
	return true
}

func (c *PlaidClient) CreateLinkToken(ctx context.Context, clientUserID string) (*LinkToken, error) {
	user := plaid.LinkTokenCreateRequestUser{ClientUserId: clientUserID}
	request := plaid.NewLinkTokenCreateRequest(c.clientName, c.language, c.countryCodes, user)
	request.SetProducts(c.products)
	if c.webhookURL != "" {
		request.SetWebhook(c.webhookURL)
	}

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return nil, c.wrap("create link token", err)
	}

	return &LinkToken{
		Token:      resp.GetLinkToken(),
		Expiration: resp.GetExpiration(),
		RequestID:  resp.GetRequestId(),
	}, nil
}

func (c *PlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return nil, c.wrap("exchange public token", err)
	}

	return &Exchange{
		AccessToken: resp.GetAccessToken(),
		ItemID:      resp.GetItemId(),
		RequestID:   resp.GetRequestId(),
	}, nil
}

func (c *PlaidClient) GetAccounts(ctx context.Context, accessToken string) (*AccountsResult, error) {
	request := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, c.wrap("get accounts", err)
	}

	item := resp.GetItem()
	result := &AccountsResult{
		ItemID:        item.GetItemId(),
		InstitutionID: item.GetInstitutionId(),
	}
	for _, acct := range resp.GetAccounts() {
		balances := acct.GetBalances()
		result.Accounts = append(result.Accounts, Account{
			ID:             acct.GetAccountId(),
			Name:           acct.GetName(),
			Mask:           acct.GetMask(),
			Type:           string(acct.GetType()),
			Subtype:        string(acct.GetSubtype()),
			CurrentBalance: decimal.NewFromFloat(balances.GetCurrent()).Round(2),
			Currency:       balances.GetIsoCurrencyCode(),
		})
	}
	return result, nil
}

func (c *PlaidClient) RemoveItem(ctx context.Context, accessToken string) error {
	request := plaid.NewItemRemoveRequest(accessToken)
	if _, _, err := c.api.PlaidApi.ItemRemove(ctx).ItemRemoveRequest(*request).Execute(); err != nil {
		return c.wrap("remove item", err)
	}
	return nil
}

func (c *PlaidClient) GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count, offset int) (*TransactionsPage, error) {
	request := plaid.NewTransactionsGetRequest(accessToken, start.Format(TransactionDateLayout), end.Format(TransactionDateLayout))
	if count > 0 || offset > 0 {
		options := plaid.NewTransactionsGetRequestOptions()
		if count > 0 {
			options.SetCount(int32(count))
		}
		if offset > 0 {
			options.SetOffset(int32(offset))
		}
		request.SetOptions(*options)
	}

	resp, _, err := c.api.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
	if err != nil {
		return nil, c.wrap("get transactions", err)
	}

	page := &TransactionsPage{
		Total:     int(resp.GetTotalTransactions()),
		RequestID: resp.GetRequestId(),
	}
	for _, txn := range resp.GetTransactions() {
		page.Transactions = append(page.Transactions, c.convertTransaction(txn))
	}
	return page, nil
}

func (c *PlaidClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*TransactionsSync, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}

	resp, _, err := c.api.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return nil, c.wrap("sync transactions", err)
	}

	batch := &TransactionsSync{
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
		RequestID:  resp.GetRequestId(),
	}
	for _, txn := range resp.GetAdded() {
		batch.Added = append(batch.Added, c.convertTransaction(txn))
	}
	for _, txn := range resp.GetModified() {
		batch.Modified = append(batch.Modified, c.convertTransaction(txn))
	}
	for _, removed := range resp.GetRemoved() {
		batch.Removed = append(batch.Removed, removed.GetTransactionId())
	}
	return batch, nil
}

func (c *PlaidClient) GetItem(ctx context.Context, accessToken string) (*ItemInfo, error) {
	request := plaid.NewItemGetRequest(accessToken)
	resp, _, err := c.api.PlaidApi.ItemGet(ctx).ItemGetRequest(*request).Execute()
	if err != nil {
		return nil, c.wrap("get item", err)
	}
	return itemInfo(resp.GetItem(), resp.GetRequestId()), nil
}

func (c *PlaidClient) UpdateItemWebhook(ctx context.Context, accessToken, webhookURL string) (*ItemInfo, error) {
	request := plaid.NewItemWebhookUpdateRequest(accessToken)
	request.SetWebhook(webhookURL)
	resp, _, err := c.api.PlaidApi.ItemWebhookUpdate(ctx).ItemWebhookUpdateRequest(*request).Execute()
	if err != nil {
		return nil, c.wrap("update item webhook", err)
	}
	return itemInfo(resp.GetItem(), resp.GetRequestId()), nil
}

func itemInfo(item plaid.Item, requestID string) *ItemInfo {
	info := &ItemInfo{
		ItemID:        item.GetItemId(),
		InstitutionID: item.GetInstitutionId(),
		WebhookURL:    item.GetWebhook(),
		RequestID:     requestID,
	}
	if itemErr := item.GetError(); itemErr.GetErrorCode() != "" {
		info.ErrorCode = itemErr.GetErrorCode()
		info.ErrorMessage = itemErr.GetErrorMessage()
	}
	if expires := item.GetConsentExpirationTime(); !expires.IsZero() {
		info.ConsentExpiration = &expires
	}
	return info
}

func (c *PlaidClient) convertTransaction(txn plaid.Transaction) Transaction {
	out := Transaction{
		ID:             txn.GetTransactionId(),
		AccountID:      txn.GetAccountId(),
		Name:           txn.GetName(),
		MerchantName:   txn.GetMerchantName(),
		Amount:         decimal.NewFromFloat(txn.GetAmount()).Round(2),
		Currency:       txn.GetIsoCurrencyCode(),
		Pending:        txn.GetPending(),
		Category:       txn.GetCategory(),
		CategoryID:     txn.GetCategoryId(),
		PaymentChannel: txn.GetPaymentChannel(),
	}
	date, err := time.Parse(TransactionDateLayout, txn.GetDate())
	if err != nil {
		c.logger.Warn("provider transaction has unparseable date",
			"transaction_id", out.ID,
			"date", txn.GetDate())
	} else {
		out.Date = date
	}
	return out
}

// wrap converts a Plaid API error into one of the package sentinels where a mapping exists
func (c *PlaidClient) wrap(op string, err error) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		c.logger.Error("provider request failed", "operation", op, "error", err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	c.logger.Error("provider returned error",
		"operation", op,
		"error_type", plaidErr.GetErrorType(),
		"error_code", plaidErr.GetErrorCode(),
		"request_id", plaidErr.GetRequestId(),
	)

	var sentinel error
	switch plaidErr.GetErrorCode() {
	case "INVALID_PUBLIC_TOKEN":
		sentinel = ErrInvalidPublicToken
	case "INVALID_ACCESS_TOKEN", "ITEM_NOT_FOUND":
		sentinel = ErrInvalidAccessToken
	}
	if sentinel != nil {
		return fmt.Errorf("failed to %s: %w: %s", op, sentinel, plaidErr.GetErrorMessage())
	}
	return fmt.Errorf("failed to %s: %s", op, plaidErr.GetErrorMessage())
}

var _ Client = (*PlaidClient)(nil)
