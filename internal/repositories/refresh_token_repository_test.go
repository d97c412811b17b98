package repositories

import (
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestTokenRepositories(t *testing.T) {
	suite.Run(t, new(TokenRepositorySuite))
}

type TokenRepositorySuite struct {
	suite.Suite
	db          *database.DB
	refresh     RefreshTokenRepositoryInterface
	blacklisted BlacklistedTokenRepositoryInterface
	user        *models.User
}

func (s *TokenRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.refresh = NewRefreshTokenRepository(s.db.DB)
	s.blacklisted = NewBlacklistedTokenRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, "tokens@example.com")
}

func (s *TokenRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *TokenRepositorySuite) newRefresh(hash string, expiresIn time.Duration) *models.RefreshToken {
	token := &models.RefreshToken{
		UserID:    s.user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(expiresIn),
	}
	s.Require().NoError(s.refresh.Create(token))
	return token
}

func (s *TokenRepositorySuite) TestRefresh_CreateAndGet() {
	token := s.newRefresh("hash-1", time.Hour)

	found, err := s.refresh.GetByTokenHash("hash-1")
	s.Require().NoError(err)
	s.Equal(token.ID, found.ID)
	s.True(found.UsableAt(time.Now()))

	_, err = s.refresh.GetByTokenHash("missing")
	s.ErrorIs(err, ErrRefreshTokenNotFound)
}

func (s *TokenRepositorySuite) TestRefresh_Revoke() {
	token := s.newRefresh("hash-2", time.Hour)

	s.Require().NoError(s.refresh.Revoke(token.ID))

	found, err := s.refresh.GetByTokenHash("hash-2")
	s.Require().NoError(err)
	s.True(found.Revoked())

	s.ErrorIs(s.refresh.Revoke(token.ID), ErrRefreshTokenNotFound)
}

func (s *TokenRepositorySuite) TestRefresh_RevokeAllForUser() {
	s.newRefresh("hash-a", time.Hour)
	s.newRefresh("hash-b", time.Hour)

	s.Require().NoError(s.refresh.RevokeAllForUser(s.user.ID))

	for _, hash := range []string{"hash-a", "hash-b"} {
		found, err := s.refresh.GetByTokenHash(hash)
		s.Require().NoError(err)
		s.True(found.Revoked(), hash)
	}

	s.NoError(s.refresh.RevokeAllForUser(uuid.New()))
}

func (s *TokenRepositorySuite) TestRefresh_DeleteExpired() {
	s.newRefresh("expired", -time.Minute)
	s.newRefresh("live", time.Hour)

	deleted, err := s.refresh.DeleteExpired()
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, err = s.refresh.GetByTokenHash("live")
	s.NoError(err)
}

func (s *TokenRepositorySuite) TestBlacklist_CreateIsIdempotent() {
	token := &models.BlacklistedToken{JTI: "jti-1", UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	s.Require().NoError(s.blacklisted.Create(token))
	s.NotZero(token.BlacklistedAt)

	again := &models.BlacklistedToken{JTI: "jti-1", UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	s.NoError(s.blacklisted.Create(again))

	found, err := s.blacklisted.GetByJTI("jti-1")
	s.Require().NoError(err)
	s.Equal(token.ID, found.ID)
}

func (s *TokenRepositorySuite) TestBlacklist_GetByJTI_NotFound() {
	_, err := s.blacklisted.GetByJTI("unknown")
	s.ErrorIs(err, ErrTokenNotFound)
}

func (s *TokenRepositorySuite) TestBlacklist_DeleteExpired() {
	s.Require().NoError(s.blacklisted.Create(&models.BlacklistedToken{JTI: "old", UserID: s.user.ID, ExpiresAt: time.Now().Add(-time.Minute)}))
	s.Require().NoError(s.blacklisted.Create(&models.BlacklistedToken{JTI: "new", UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	deleted, err := s.blacklisted.DeleteExpired()
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)
}
