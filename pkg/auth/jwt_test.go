package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "a@b.com", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-2")
	require.NoError(t, err)

	userID, err := m.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)
}

func TestAccessTokenRejectedAsRefresh(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "", "")
	require.NoError(t, err)

	// 两套密钥隔离，access token 不能当 refresh token 用
	_, err = m.ParseRefreshToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	token, err := m.GenerateAccessToken("user-1", "", "")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	m := newTestManager()
	other := NewManager("different-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken("user-1", "", "")
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	assert.Error(t, err)
}
