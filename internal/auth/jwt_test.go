package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-ledger/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	user := &models.User{
		ID:            42,
		WalletAddress: "0x52908400098527886e0f7030069857d2e4169ee7",
		Role:          models.UserRoleAdmin,
	}

	token, err := GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.WalletAddress, claims.WalletAddress)
	assert.Equal(t, models.UserRoleAdmin, claims.Role)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	InitJWT("first-secret")
	token, err := GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)

	InitJWT("second-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	InitJWT("test-secret")
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}
