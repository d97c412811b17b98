package services

import (
	"crypto/rsa"
	"testing"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type TokenServiceTestSuite struct {
	suite.Suite
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	cfg        *config.JWTConfig
	service    TokenServiceInterface
	user       *models.User
}

func TestTokenServiceSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}

func (s *TokenServiceTestSuite) SetupSuite() {
	var err error
	s.privateKey, s.publicKey, err = config.GenerateRSAKeyPair()
	s.Require().NoError(err)
}

func (s *TokenServiceTestSuite) SetupTest() {
	s.cfg = &config.JWTConfig{
		PrivateKey:           s.privateKey,
		PublicKey:            s.publicKey,
		Issuer:               "finance-tracker-test",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
	}
	s.service = NewTokenService(s.cfg)
	s.user = &models.User{ID: uuid.New(), Email: "member@example.com", Role: models.RoleMember}
}

func (s *TokenServiceTestSuite) TestAccessTokenRoundTrip() {
	token, expiresAt, err := s.service.GenerateAccessToken(s.user)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := s.service.ValidateAccessToken(token)
	s.Require().NoError(err)
	s.Equal(s.user.ID.String(), claims.UserID)
	s.Equal(models.RoleMember, claims.Role)
	s.Equal(models.TokenTypeAccess, claims.TokenType)
	s.NotEmpty(claims.ID)
}

func (s *TokenServiceTestSuite) TestGenerateAccessToken_NilUser() {
	_, _, err := s.service.GenerateAccessToken(nil)
	s.Error(err)
}

func (s *TokenServiceTestSuite) TestRefreshTokenRoundTrip() {
	token, _, err := s.service.GenerateRefreshToken(s.user.ID)
	s.Require().NoError(err)

	claims, err := s.service.ValidateRefreshToken(token)
	s.Require().NoError(err)
	s.Equal(s.user.ID.String(), claims.UserID)

	_, _, err = s.service.GenerateRefreshToken(uuid.Nil)
	s.Error(err)
}

func (s *TokenServiceTestSuite) TestTokenTypeIsEnforced() {
	refresh, _, err := s.service.GenerateRefreshToken(s.user.ID)
	s.Require().NoError(err)

	_, err = s.service.ValidateAccessToken(refresh)
	s.ErrorIs(err, ErrInvalidTokenType)
}

func (s *TokenServiceTestSuite) TestExpiredToken() {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt
	service := newTokenService(s.cfg, func() time.Time { return clock })

	token, _, err := service.GenerateAccessToken(s.user)
	s.Require().NoError(err)

	clock = issuedAt.Add(16 * time.Minute)
	_, err = service.ValidateAccessToken(token)
	s.ErrorIs(err, ErrExpiredToken)
}

func (s *TokenServiceTestSuite) TestWrongIssuer() {
	other := *s.cfg
	other.Issuer = "someone-else"

	token, _, err := NewTokenService(&other).GenerateAccessToken(s.user)
	s.Require().NoError(err)

	_, err = s.service.ValidateAccessToken(token)
	s.ErrorIs(err, ErrInvalidIssuer)
}

func (s *TokenServiceTestSuite) TestDifferentKeys() {
	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	s.Require().NoError(err)
	other := *s.cfg
	other.PrivateKey, other.PublicKey = privateKey, publicKey

	token, _, err := NewTokenService(&other).GenerateAccessToken(s.user)
	s.Require().NoError(err)

	_, err = s.service.ValidateAccessToken(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenServiceTestSuite) TestRejectsHMACTokens() {
	claims := models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: s.cfg.Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           s.user.ID.String(),
		TokenType:        models.TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	s.Require().NoError(err)

	_, err = s.service.ValidateAccessToken(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenServiceTestSuite) TestValidate_EmptyAndMalformed() {
	_, err := s.service.ValidateAccessToken("")
	s.ErrorIs(err, ErrEmptyToken)

	_, err = s.service.ValidateAccessToken("not.a.jwt")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenServiceTestSuite) TestExtractTokenFromHeader() {
	cases := map[string]struct {
		header  string
		want    string
		wantErr bool
	}{
		"bearer":           {header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		"lowercase scheme": {header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		"empty":            {header: "", wantErr: true},
		"basic auth":       {header: "Basic dXNlcjpwYXNz", wantErr: true},
		"scheme only":      {header: "Bearer ", wantErr: true},
	}

	for name, tc := range cases {
		s.Run(name, func() {
			got, err := s.service.ExtractTokenFromHeader(tc.header)
			if tc.wantErr {
				s.ErrorIs(err, ErrInvalidAuthHeader)
				return
			}
			s.NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *TokenServiceTestSuite) TestGetTokenExpiry() {
	token, expiresAt, err := s.service.GenerateAccessToken(s.user)
	s.Require().NoError(err)

	expiry, err := s.service.GetTokenExpiry(token)
	s.Require().NoError(err)
	s.WithinDuration(expiresAt, expiry, time.Second)

	_, err = s.service.GetTokenExpiry("")
	s.ErrorIs(err, ErrEmptyToken)

	_, err = s.service.GetTokenExpiry("garbage")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenServiceTestSuite) TestSubjectIsUserID() {
	token, _, err := s.service.GenerateRefreshToken(s.user.ID)
	s.Require().NoError(err)

	claims, err := s.service.ValidateRefreshToken(token)
	s.Require().NoError(err)
	s.Equal(s.user.ID.String(), claims.Subject)
	owner, err := claims.OwnerID()
	s.Require().NoError(err)
	s.Equal(s.user.ID, owner)
}
