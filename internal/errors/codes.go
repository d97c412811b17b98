package errors

// ErrorCode is a stable, machine-readable error identifier returned by the API
type ErrorCode string

// Authentication (AUTH_*)
const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthExpiredToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
	AuthAccountLocked          ErrorCode = "AUTH_006"
	AuthEmailTaken             ErrorCode = "AUTH_007"
)

// Validation (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationInvalidEmail  ErrorCode = "VALIDATION_004"
	ValidationInvalidID     ErrorCode = "VALIDATION_005"
)

// Link sessions (LINK_*)
const (
	LinkSessionNotFound     ErrorCode = "LINK_001"
	LinkSessionPending      ErrorCode = "LINK_002"
	LinkSessionClosed       ErrorCode = "LINK_003"
	LinkInvalidVariant      ErrorCode = "LINK_004"
	LinkTokenUnavailable    ErrorCode = "LINK_005"
	LinkExchangeFailed      ErrorCode = "LINK_006"
	LinkProviderUnavailable ErrorCode = "LINK_007"
)

// Linked accounts (ACCOUNT_*)
const (
	AccountNotFound      ErrorCode = "ACCOUNT_001"
	AccountDisconnected  ErrorCode = "ACCOUNT_002"
	AccountRefreshFailed ErrorCode = "ACCOUNT_003"
	AccountAlreadyLinked ErrorCode = "ACCOUNT_004"
)

// Transactions (TXN_*)
const (
	TransactionInvalidDateRange ErrorCode = "TXN_001"
	TransactionSyncUnavailable  ErrorCode = "TXN_002"
	TransactionSyncFailed       ErrorCode = "TXN_003"
)

// Provider items (ITEM_*)
const (
	ItemNotFound       ErrorCode = "ITEM_001"
	ItemNotUsable      ErrorCode = "ITEM_002"
	ItemProviderFailed ErrorCode = "ITEM_003"
)

// Provider webhooks (WEBHOOK_*)
const (
	WebhookInvalidPayload ErrorCode = "WEBHOOK_001"
	WebhookUnknownItem    ErrorCode = "WEBHOOK_002"
)

// System (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_005"
	SystemRouteNotFound      ErrorCode = "SYSTEM_006"
)

var errorMessages = map[ErrorCode]string{
	AuthInvalidCredentials:     "Invalid email or password",
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",
	AuthAccountLocked:          "Account is locked or disabled",
	AuthEmailTaken:             "An account with this email already exists",

	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationInvalidEmail:  "Invalid email address format",
	ValidationInvalidID:     "Invalid identifier format",

	LinkSessionNotFound:     "No link session is active",
	LinkSessionPending:      "A link session is already in progress",
	LinkSessionClosed:       "The link session has been closed",
	LinkInvalidVariant:      "Unknown link control variant",
	LinkTokenUnavailable:    "Could not create a link token",
	LinkExchangeFailed:      "Could not exchange the public token",
	LinkProviderUnavailable: "Account provider is temporarily unavailable",

	AccountNotFound:      "Linked account not found",
	AccountDisconnected:  "Linked account is disconnected",
	AccountRefreshFailed: "Could not refresh the linked account",
	AccountAlreadyLinked: "This account is already linked",

	TransactionInvalidDateRange: "Start date must not be after end date",
	TransactionSyncUnavailable:  "Transaction sync is not available",
	TransactionSyncFailed:       "Could not sync transactions",

	ItemNotFound:       "Item not found",
	ItemNotUsable:      "Item needs to be relinked",
	ItemProviderFailed: "The provider rejected the item update",

	WebhookInvalidPayload: "Webhook payload could not be parsed",
	WebhookUnknownItem:    "Webhook refers to an unknown item",

	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemConfigurationError: "System configuration error",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemRouteNotFound:      "Resource not found",
}

// GetErrorMessage returns the default message for code, or a generic one for unknown codes
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
