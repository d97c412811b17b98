package services

import (
	"context"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/linkflow"
	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error)
	Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error)
	RefreshTokens(refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error)
	Logout(accessToken, ipAddress, userAgent string) error
	GetProfile(userID uuid.UUID) (*models.User, error)
}

type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ValidateRefreshToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
}

// AuditServiceInterface records security and account-link activity in the audit log
type AuditServiceInterface interface {
	CreateAuditLog(log *models.AuditLog) error
	GetUserActivity(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	LogLinkActivity(userID uuid.UUID, action, resourceID string, metadata map[string]interface{}) error
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	AddCounter(name string, n float64, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

// LinkLoggerInterface writes structured log lines for link flow activity
type LinkLoggerInterface interface {
	LogSessionStarted(ctx context.Context, userID uuid.UUID, sessionID string, branch linkflow.StartResult)
	LogSessionCompleted(ctx context.Context, userID uuid.UUID, sessionID, recordID, institution string, durationMs int64)
	LogSessionExited(ctx context.Context, userID uuid.UUID, sessionID, errorCode string)
	LogSessionClosed(ctx context.Context, userID uuid.UUID, sessionID, reason string)
	LogProviderEvent(ctx context.Context, userID uuid.UUID, sessionID, eventName string)
	LogExchangeFailed(ctx context.Context, userID uuid.UUID, sessionID, errorMsg string)
	LogAccountRefreshed(ctx context.Context, userID uuid.UUID, recordID, oldBalance, newBalance string)
	LogItemStatusChange(ctx context.Context, itemID uuid.UUID, oldStatus, newStatus string)
	LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string)
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() models.CircuitBreakerState
	GetFailureCount() int
}

// ProviderGatewayInterface guards provider calls with the circuit breaker
type ProviderGatewayInterface interface {
	Configured() bool
	// Available is Configured with the breaker closed or half-open
	Available() bool
	CreateLinkToken(ctx context.Context, clientUserID string) (*provider.LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*provider.Exchange, error)
	GetAccounts(ctx context.Context, accessToken string) (*provider.AccountsResult, error)
	RemoveItem(ctx context.Context, accessToken string) error
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count, offset int) (*provider.TransactionsPage, error)
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*provider.TransactionsSync, error)
	GetItem(ctx context.Context, accessToken string) (*provider.ItemInfo, error)
	UpdateItemWebhook(ctx context.Context, accessToken, webhookURL string) (*provider.ItemInfo, error)
}

// LinkServiceInterface owns one link controller per user
type LinkServiceInterface interface {
	CreateLinkToken(ctx context.Context, userID uuid.UUID) (*dto.LinkTokenResponse, error)
	StartSession(ctx context.Context, userID uuid.UUID, req *dto.StartSessionRequest) (*dto.LinkSessionResponse, error)
	GetSession(userID uuid.UUID) *dto.LinkSessionResponse
	CompleteSession(ctx context.Context, userID uuid.UUID, publicToken string, md linkflow.Metadata) (*models.LinkedAccount, error)
	CancelSession(ctx context.Context, userID uuid.UUID, exitErr *linkflow.ExitError, md linkflow.Metadata) (*dto.LinkSessionResponse, error)
	RecordEvent(ctx context.Context, userID uuid.UUID, eventName string, md linkflow.Metadata) error
	CloseSession(ctx context.Context, userID uuid.UUID) error
	ListEvents(userID uuid.UUID, offset, limit int) ([]models.LinkEvent, int64, error)
	ListSessionEvents(userID uuid.UUID, linkSessionID string) ([]models.LinkEvent, error)
	StartJanitor(ctx context.Context, interval time.Duration)
	Shutdown()
}

type LinkedAccountServiceInterface interface {
	List(userID uuid.UUID) ([]models.LinkedAccount, error)
	Get(userID uuid.UUID, recordID string) (*models.LinkedAccount, error)
	Refresh(ctx context.Context, userID uuid.UUID, recordID string) (*models.LinkedAccount, error)
	Disconnect(ctx context.Context, userID uuid.UUID, recordID string) error
	Summary(userID uuid.UUID) (*models.LinkedAccountSummary, error)
}

// TransactionSyncer pulls an item's pending transaction changes
type TransactionSyncer interface {
	SyncItem(ctx context.Context, item *models.Item) (dto.ItemSyncResult, error)
}

type TransactionServiceInterface interface {
	TransactionSyncer
	List(userID uuid.UUID, filter repositories.TransactionFilter) (*dto.TransactionListResponse, error)
	ListForAccount(userID uuid.UUID, recordID string, filter repositories.TransactionFilter) (*dto.TransactionListResponse, error)
	Sync(ctx context.Context, userID uuid.UUID) (*dto.TransactionSyncResponse, error)
}

type ItemServiceInterface interface {
	List(userID uuid.UUID) ([]models.Item, error)
	Get(ctx context.Context, userID, itemID uuid.UUID) (*dto.ItemResponse, error)
	UpdateWebhook(ctx context.Context, userID, itemID uuid.UUID, webhookURL string) (*dto.ItemResponse, error)
}

type WebhookServiceInterface interface {
	Handle(ctx context.Context, body []byte) (*dto.WebhookResult, error)
}
