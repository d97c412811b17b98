package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshToken_UsableAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Minute)

	tests := []struct {
		name   string
		token  RefreshToken
		usable bool
	}{
		{name: "fresh", token: RefreshToken{ExpiresAt: now.Add(time.Hour)}, usable: true},
		{name: "expired", token: RefreshToken{ExpiresAt: now.Add(-time.Second)}},
		{name: "expires exactly now", token: RefreshToken{ExpiresAt: now}},
		{name: "revoked", token: RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.usable, tt.token.UsableAt(now))
		})
	}
}

func TestBlacklistedToken_ExpiredAt(t *testing.T) {
	now := time.Now()
	live := BlacklistedToken{ExpiresAt: now.Add(time.Hour)}
	dead := BlacklistedToken{ExpiresAt: now.Add(-time.Hour)}

	assert.False(t, live.ExpiredAt(now))
	assert.True(t, dead.ExpiredAt(now))
	assert.Equal(t, "blacklisted_tokens", dead.TableName())
}

func TestBlacklistedToken_BeforeCreateStampsTime(t *testing.T) {
	token := BlacklistedToken{JTI: "jti"}

	require.NoError(t, token.BeforeCreate(nil))

	assert.NotEqual(t, uuid.Nil, token.ID)
	assert.False(t, token.BlacklistedAt.IsZero())
}

func TestCustomClaims_OwnerID(t *testing.T) {
	id := uuid.New()

	got, err := (&CustomClaims{UserID: id.String()}).OwnerID()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = (&CustomClaims{UserID: "nope"}).OwnerID()
	assert.Error(t, err)
}
