package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountLocked       = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists   = errors.New("user with this email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
)

// requestMeta is who made an auth request, for the audit trail
type requestMeta struct {
	ip        string
	userAgent string
}

// AuthService owns the user and token lifecycle: registration, login with lockout, refresh
// token rotation and logout
type AuthService struct {
	userRepo             repositories.UserRepositoryInterface
	refreshTokenRepo     repositories.RefreshTokenRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	auditService         AuditServiceInterface
	passwordService      PasswordServiceInterface
	tokenService         TokenServiceInterface
	metrics              MetricsRecorderInterface
	logger               *slog.Logger
	now                  func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	auditService AuditServiceInterface,
	passwordService PasswordServiceInterface,
	tokenService TokenServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) AuthServiceInterface {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:             userRepo,
		refreshTokenRepo:     refreshTokenRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		auditService:         auditService,
		passwordService:      passwordService,
		tokenService:         tokenService,
		metrics:              metrics,
		logger:               logger,
		now:                  time.Now,
	}
}

func (s *AuthService) Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error) {
	meta := requestMeta{ip: ipAddress, userAgent: userAgent}

	existing, err := s.userRepo.GetByEmail(req.Email)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		s.audit(nil, models.AuditActionRegister, "", meta, "email_already_exists", req.Email)
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleMember,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit(&user.ID, models.AuditActionRegister, user.ID.String(), meta, "", "")
	s.countEvent("register")
	return user, nil
}

// Login checks the password and issues a token pair. The account locks after
// models.MaxFailedLoginAttempts consecutive failures.
func (s *AuthService) Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	meta := requestMeta{ip: ipAddress, userAgent: userAgent}

	user, err := s.userRepo.GetByEmail(req.Email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		s.audit(nil, models.AuditActionFailedLogin, "", meta, "user_not_found", req.Email)
		s.countEvent("login_failed")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsLocked() {
		s.audit(nil, models.AuditActionFailedLogin, "", meta, "account_locked", req.Email)
		return nil, ErrAccountLocked
	}

	if !s.passwordService.ComparePassword(req.Password, user.PasswordHash) {
		s.recordFailedPassword(user, meta)
		return nil, ErrInvalidCredentials
	}

	user.RecordLogin(s.now())
	if err := s.userRepo.UpdateFailedLoginAttempts(user); err != nil {
		s.logger.Warn("failed to reset login attempts", "error", err, "user_id", user.ID)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.audit(&user.ID, models.AuditActionLogin, user.ID.String(), meta, "", "")
	s.countEvent("login")
	return tokens, nil
}

func (s *AuthService) recordFailedPassword(user *models.User, meta requestMeta) {
	user.RecordFailedLogin(s.now())
	if err := s.userRepo.UpdateFailedLoginAttempts(user); err != nil {
		s.logger.Error("failed to update login attempts", "error", err, "user_id", user.ID)
	}
	if user.IsLocked() {
		s.audit(&user.ID, models.AuditActionAccountLocked, user.ID.String(), meta, "", "")
	}
	s.audit(nil, models.AuditActionFailedLogin, "", meta, "invalid_password", user.Email)
	s.countEvent("login_failed")
}

// RefreshTokens rotates a refresh token: the presented one is revoked and a new pair issued
func (s *AuthService) RefreshTokens(refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	meta := requestMeta{ip: ipAddress, userAgent: userAgent}

	claims, err := s.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.audit(nil, models.AuditActionTokenRefresh, "", meta, "invalid_token", "")
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.OwnerID()
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}

	stored, err := s.refreshTokenRepo.GetByTokenHash(hashToken(refreshToken))
	if err != nil {
		s.audit(&userID, models.AuditActionTokenRefresh, "", meta, "token_not_found", "")
		return nil, ErrInvalidRefreshToken
	}
	if !stored.UsableAt(s.now()) {
		s.audit(&userID, models.AuditActionTokenRefresh, "", meta, "token_expired_or_revoked", "")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.refreshTokenRepo.Revoke(stored.ID); err != nil {
		s.logger.Warn("failed to revoke rotated refresh token", "error", err, "user_id", user.ID, "token_id", stored.ID)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.audit(&user.ID, models.AuditActionTokenRefresh, user.ID.String(), meta, "", "")
	s.countEvent("token_refresh")
	return tokens, nil
}

// Logout blacklists the access token and revokes every refresh token of its owner. Logging
// out with a token that no longer validates is a no-op.
func (s *AuthService) Logout(accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		// expired, forged or malformed tokens are already refused by RequireAuth
		return nil
	}

	userID, err := claims.OwnerID()
	if err != nil {
		return nil
	}

	expiry, err := s.tokenService.GetTokenExpiry(accessToken)
	if err != nil {
		expiry = s.now().Add(24 * time.Hour)
	}
	s.blacklist(claims.ID, userID, expiry)

	if err := s.refreshTokenRepo.RevokeAllForUser(userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", "error", err, "user_id", userID)
	}

	s.audit(&userID, models.AuditActionLogout, userID.String(), requestMeta{ip: ipAddress, userAgent: userAgent}, "", "")
	s.countEvent("logout")
	return nil
}

func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*dto.TokenResponse, error) {
	access, accessExpiry, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, refreshExpiry, err := s.tokenService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.refreshTokenRepo.Create(&models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: refreshExpiry,
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    accessExpiry,
	}, nil
}

func (s *AuthService) blacklist(jti string, userID uuid.UUID, expiresAt time.Time) {
	err := s.blacklistedTokenRepo.Create(&models.BlacklistedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.logger.Error("failed to blacklist token", "error", err, "jti", jti, "user_id", userID)
	}
}

func (s *AuthService) countEvent(eventType string) {
	s.metrics.IncrementCounter(MetricAuthenticationEvent, map[string]string{"event_type": eventType})
}

// audit writes one entry. reason and email end up in metadata when set. Failures are logged only.
func (s *AuthService) audit(userID *uuid.UUID, action, resourceID string, meta requestMeta, reason, email string) {
	if s.auditService == nil {
		return
	}

	resource := models.AuditResourceFor(action)
	if action == models.AuditActionTokenRefresh && resourceID == "" {
		resource = models.AuditResourceToken
	}

	var metadata map[string]interface{}
	if reason != "" || email != "" {
		metadata = map[string]interface{}{}
		if reason != "" {
			metadata["reason"] = reason
		}
		if email != "" {
			metadata["email"] = email
		}
	}

	err := s.auditService.CreateAuditLog(&models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  meta.ip,
		UserAgent:  meta.userAgent,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Error("failed to write audit log", "error", err, "action", action)
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
