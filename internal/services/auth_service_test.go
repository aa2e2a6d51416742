package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

func TestProcessWalletLogin_SignupAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(repository.NewRepository(db))
	ctx := context.Background()

	req := &WalletLoginRequest{
		WalletAddress: "0xABCdef1234567890abcdef1234567890abcdef12",
		Signature:     "ignored-here",
		Email:         "New.User@Example.com",
		Name:          "  New User  ",
	}

	created, err := svc.ProcessWalletLogin(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12", created.WalletAddress)
	assert.Equal(t, "new.user@example.com", created.Email)
	assert.Equal(t, "New User", created.Name)
	assert.Equal(t, models.UserRoleUser, created.Role)
	require.NotNil(t, created.LastLogin)

	// Subsequent logins find the same account, email no longer required
	again, err := svc.ProcessWalletLogin(ctx, &WalletLoginRequest{
		WalletAddress: req.WalletAddress,
		Signature:     "ignored-here",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

func TestProcessWalletLogin_SignupRequiresEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(repository.NewRepository(db))

	_, err := svc.ProcessWalletLogin(context.Background(), &WalletLoginRequest{
		WalletAddress: "0x1111111111111111111111111111111111111111",
		Signature:     "sig",
	})
	assert.Error(t, err)
}

func TestProcessWalletLogin_RejectsBannedUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(repository.NewRepository(db))
	ctx := context.Background()

	user := createTestUser(t, db, "0x2222222222222222222222222222222222222222", true)
	require.NoError(t, db.Model(user).Update("status", models.UserStatusBanned).Error)

	_, err := svc.ProcessWalletLogin(ctx, &WalletLoginRequest{
		WalletAddress: user.WalletAddress,
		Signature:     "sig",
	})
	assert.Error(t, err)
}
