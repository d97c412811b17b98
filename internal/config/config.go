package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Security  SecurityConfig
	Provider  ProviderConfig
	Link      LinkConfig
	Retention RetentionConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	PrivateKey           *rsa.PrivateKey
	PublicKey            *rsa.PublicKey
	Issuer               string
}

type SecurityConfig struct {
	BCryptCost          int
	RateLimitPerSecond  int
	MaxFailedAttempts   int
	PasswordMinLength   int
	RequireUppercase    bool
	RequireLowercase    bool
	RequireNumbers      bool
	RequireSpecialChars bool
}

// ProviderConfig holds credentials for the account aggregation provider. An empty ClientID or
// Secret leaves the provider unconfigured and every link attempt is simulated.
type ProviderConfig struct {
	ClientID     string
	Secret       string
	Environment  string
	ClientName   string
	Language     string
	Products     []string
	CountryCodes []string
	WebhookURL   string
	Timeout      time.Duration
}

type LinkConfig struct {
	DemoDelay       time.Duration
	DefaultVariant  string
	SessionIdleTTL  time.Duration
	BreakerFailures int
	BreakerReset    time.Duration
}

// RetentionConfig controls the periodic purge of expired tokens and old history rows.
// A zero age keeps that history forever.
type RetentionConfig struct {
	Interval   time.Duration
	AuditLogs  time.Duration
	LinkEvents time.Duration
}

func (p *ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.Secret != ""
}

// Load reads the configuration from the environment. Unset or malformed values fall back to
// their defaults; only the token signing keys can fail.
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			Environment:  getEnv("APP_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "finance_user"),
			Password:        getEnv("DB_PASSWORD", "finance_password"),
			Name:            getEnv("DB_NAME", "finance_tracker"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Security: SecurityConfig{
			BCryptCost:          getIntEnv("BCRYPT_COST", 12),
			RateLimitPerSecond:  getIntEnv("RATE_LIMIT_PER_SECOND", 5),
			MaxFailedAttempts:   getIntEnv("MAX_FAILED_ATTEMPTS", 3),
			PasswordMinLength:   getIntEnv("PASSWORD_MIN_LENGTH", 12),
			RequireUppercase:    getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
			RequireLowercase:    getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
			RequireNumbers:      getBoolEnv("PASSWORD_REQUIRE_NUMBERS", true),
			RequireSpecialChars: getBoolEnv("PASSWORD_REQUIRE_SPECIAL", true),
		},
		JWT: JWTConfig{
			AccessTokenDuration:  getDurationEnv("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour),
			RefreshTokenDuration: getDurationEnv("JWT_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			Issuer:               getEnv("JWT_ISSUER", "finance-tracker"),
		},
		Provider: ProviderConfig{
			ClientID:     getEnv("PLAID_CLIENT_ID", ""),
			Secret:       getEnv("PLAID_SECRET", ""),
			Environment:  getEnv("PLAID_ENV", "sandbox"),
			ClientName:   getEnv("PLAID_CLIENT_NAME", "Finance Tracker"),
			Language:     getEnv("PLAID_LANGUAGE", "en"),
			Products:     getListEnv("PLAID_PRODUCTS", []string{"transactions"}),
			CountryCodes: getListEnv("PLAID_COUNTRY_CODES", []string{"US"}),
			WebhookURL:   getEnv("PLAID_WEBHOOK_URL", ""),
			Timeout:      getDurationEnv("PLAID_TIMEOUT", 10*time.Second),
		},
		Link: LinkConfig{
			DemoDelay:       getDurationEnv("LINK_DEMO_DELAY", 500*time.Millisecond),
			DefaultVariant:  getEnv("LINK_DEFAULT_VARIANT", "default"),
			SessionIdleTTL:  getDurationEnv("LINK_SESSION_IDLE_TTL", 30*time.Minute),
			BreakerFailures: getIntEnv("LINK_BREAKER_MAX_FAILURES", 5),
			BreakerReset:    getDurationEnv("LINK_BREAKER_RESET", 30*time.Second),
		},
		Retention: RetentionConfig{
			Interval:   getDurationEnv("RETENTION_INTERVAL", time.Hour),
			AuditLogs:  getDurationEnv("RETENTION_AUDIT_LOGS", 365*24*time.Hour),
			LinkEvents: getDurationEnv("RETENTION_LINK_EVENTS", 90*24*time.Hour),
		},
	}

	config.Server.CORSAllowOrigins = getListEnv("CORS_ALLOW_ORIGINS", []string{"*"})

	keys, err := config.signingKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to load token signing keys: %w", err)
	}
	config.JWT.PrivateKey, config.JWT.PublicKey = keys.private, keys.public

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	return parsedEnv(key, defaultValue, func(v string) (string, error) { return v, nil })
}

func getIntEnv(key string, defaultValue int) int {
	return parsedEnv(key, defaultValue, strconv.Atoi)
}

func getBoolEnv(key string, defaultValue bool) bool {
	return parsedEnv(key, defaultValue, strconv.ParseBool)
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	return parsedEnv(key, defaultValue, time.ParseDuration)
}

// getListEnv splits a comma separated value, dropping empty entries
func getListEnv(key string, defaultValue []string) []string {
	return parsedEnv(key, defaultValue, func(v string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return nil, errors.New("empty list")
		}
		return out, nil
	})
}

// parsedEnv returns defaultValue when key is unset, empty or does not parse
func parsedEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := parse(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

type keyPair struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// signingKeys decodes the base64 PEM pair in JWT_PRIVATE_KEY and JWT_PUBLIC_KEY. Production
// refuses to start without them; elsewhere a throwaway pair is generated, so tokens do not
// survive a restart.
func (c *Config) signingKeys() (keyPair, error) {
	privateB64, publicB64 := os.Getenv("JWT_PRIVATE_KEY"), os.Getenv("JWT_PUBLIC_KEY")
	if privateB64 == "" || publicB64 == "" {
		if c.IsProduction() {
			return keyPair{}, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required in production")
		}
		slog.Warn("token signing keys not set, generating a temporary pair")
		private, public, err := GenerateRSAKeyPair()
		return keyPair{private: private, public: public}, err
	}

	privatePEM, err := base64.StdEncoding.DecodeString(privateB64)
	if err != nil {
		return keyPair{}, fmt.Errorf("JWT_PRIVATE_KEY is not base64: %w", err)
	}
	publicPEM, err := base64.StdEncoding.DecodeString(publicB64)
	if err != nil {
		return keyPair{}, fmt.Errorf("JWT_PUBLIC_KEY is not base64: %w", err)
	}

	private, err := parsePrivateKey(privatePEM)
	if err != nil {
		return keyPair{}, fmt.Errorf("JWT_PRIVATE_KEY: %w", err)
	}
	public, err := parsePublicKey(publicPEM)
	if err != nil {
		return keyPair{}, fmt.Errorf("JWT_PUBLIC_KEY: %w", err)
	}
	if !private.PublicKey.Equal(public) {
		return keyPair{}, errors.New("JWT_PUBLIC_KEY does not match JWT_PRIVATE_KEY")
	}
	return keyPair{private: private, public: public}, nil
}

func GenerateRSAKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	return private, &private.PublicKey, nil
}

// parsePrivateKey accepts PKCS#1 and PKCS#8 encodings
func parsePrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("unsupported private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

func parsePublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("unsupported public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}
