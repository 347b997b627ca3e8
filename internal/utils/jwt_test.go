package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/models"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("user-1", models.RoleDoctor, "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleDoctor, claims.Role)
}

func TestExpiredTokenIsDistinguished(t *testing.T) {
	token, err := GenerateAccessToken("user-1", models.RolePatient, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := GenerateAccessToken("user-1", models.RolePatient, "secret", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)

	_, err = ValidateToken("not-a-jwt", "secret")
	assert.Error(t, err)
}

func TestRefreshTokenIsRandomHex(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 128)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, "^[0-9a-f]+$", a)
}
