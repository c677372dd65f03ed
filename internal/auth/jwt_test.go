package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSessionToken_RoundTrip(t *testing.T) {
	token, ttl, err := GenerateSessionToken(7, "admin", testSecret, false)
	require.NoError(t, err)
	assert.Equal(t, int(SessionTokenDuration.Seconds()), ttl)

	userID, role, err := ValidateSessionToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)
	assert.Equal(t, "admin", role)
}

func TestSessionToken_RememberExtendsTTL(t *testing.T) {
	_, ttl, err := GenerateSessionToken(7, "client", testSecret, true)
	require.NoError(t, err)
	assert.Greater(t, ttl, int(SessionTokenDuration.Seconds()))
}

func TestValidateSessionToken_RejectsPendingToken(t *testing.T) {
	// Both token kinds are signed with the same secret, so the scope claim
	// is the only thing keeping a mid-login challenge out of authenticated
	// endpoints.
	pending, err := GeneratePendingToken("ada@example.com", "login", testSecret, false)
	require.NoError(t, err)

	_, _, err = ValidateSessionToken(pending, testSecret)
	assert.Error(t, err)
}

func TestValidatePendingToken_RejectsSessionToken(t *testing.T) {
	session, _, err := GenerateSessionToken(7, "client", testSecret, false)
	require.NoError(t, err)

	_, err = ValidatePendingToken(session, testSecret)
	assert.Error(t, err)
}

func TestValidateSessionToken_WrongSecret(t *testing.T) {
	token, _, err := GenerateSessionToken(7, "client", testSecret, false)
	require.NoError(t, err)

	_, _, err = ValidateSessionToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidatePendingToken_CarriesChallengeState(t *testing.T) {
	token, err := GeneratePendingToken("ada@example.com", "signup", testSecret, true)
	require.NoError(t, err)

	claims, err := ValidatePendingToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "signup", claims.Purpose)
	assert.True(t, claims.Remember)
}
