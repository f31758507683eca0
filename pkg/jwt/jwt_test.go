package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	token, err := manager.GenerateToken(7, 9001, false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.VerifyToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.EqualValues(t, 9001, claims.Code)
	assert.False(t, claims.IsSuperuser)
	assert.Equal(t, "COTEL", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "jti is required for revocation")
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).GenerateToken(1, 9000, true)
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	manager := NewManager("test-secret", -time.Minute)

	token, err := manager.GenerateToken(1, 9000, false)
	require.NoError(t, err)

	_, err = manager.VerifyToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenRotatesID(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	token, err := manager.GenerateToken(7, 9001, true)
	require.NoError(t, err)

	refreshed, err := manager.RefreshToken(token)
	require.NoError(t, err)

	original, err := manager.VerifyToken(token)
	require.NoError(t, err)
	fresh, err := manager.VerifyToken(refreshed)
	require.NoError(t, err)

	assert.Equal(t, original.UserID, fresh.UserID)
	assert.Equal(t, original.IsSuperuser, fresh.IsSuperuser)
	assert.NotEqual(t, original.ID, fresh.ID, "each token carries its own jti")
}
