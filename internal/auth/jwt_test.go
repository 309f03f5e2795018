package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("user_abc", "org_def", true, "test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user_abc", claims.UserID)
	assert.Equal(t, "org_def", claims.OrgID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "user_abc", claims.Subject)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken("user_abc", "org_def", false, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := NewAccessToken("user_abc", "org_def", false, "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "test-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
