package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtAuthenticatorRoundTrip(t *testing.T) {
	auth := NewJwtAuthenticator("test-signing-key", time.Hour)

	token, err := auth.GenerateToken("user123", "owner@example.com", "owner")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", user.ID)
	assert.Equal(t, "owner@example.com", user.Email)
	assert.Equal(t, "owner", user.Role)
	assert.False(t, user.IsAdmin())
}

func TestJwtAuthenticatorRejectsBadToken(t *testing.T) {
	auth := NewJwtAuthenticator("test-signing-key", time.Hour)

	_, err := auth.ValidateToken("dummy.jwt.token")
	assert.Error(t, err)
}

func TestJwtAuthenticatorRejectsWrongKey(t *testing.T) {
	issuer := NewJwtAuthenticator("key-one", time.Hour)
	verifier := NewJwtAuthenticator("key-two", time.Hour)

	token, err := issuer.GenerateToken("user123", "a@b.c", "admin")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJwtAuthenticatorRejectsExpired(t *testing.T) {
	auth := NewJwtAuthenticator("test-signing-key", -time.Minute)

	token, err := auth.GenerateToken("user123", "a@b.c", "investor")
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestJwtAuthenticatorWithoutKey(t *testing.T) {
	auth := NewJwtAuthenticator("", time.Hour)

	_, err := auth.GenerateToken("user123", "a@b.c", "owner")
	assert.Error(t, err)

	_, err = auth.ValidateToken("anything")
	assert.Error(t, err)
}
