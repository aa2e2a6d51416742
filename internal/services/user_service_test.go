package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

func TestUserService_AccountMutations(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewRepository(db))
	ctx := context.Background()

	user := createTestUser(t, db, "0xMutate1", false)

	verified, err := svc.VerifyKYC(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsKYCVerified)

	mailed, err := svc.VerifyEmail(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, mailed.IsEmailVerified)

	banned, err := svc.SetBanned(ctx, user.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusBanned, banned.Status)

	restored, err := svc.SetBanned(ctx, user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, restored.Status)

	promoted, err := svc.PromoteToAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, promoted.Role)

	// Promoting an admin again is an error, not a silent no-op
	_, err = svc.PromoteToAdmin(ctx, user.ID)
	assert.Error(t, err)
}

func TestUserService_GetProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewRepository(db))
	ctx := context.Background()

	user := createTestUser(t, db, "0xProfile1", true)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.User.ID)
	require.NotNil(t, profile.Stats)
	assert.Equal(t, int64(0), profile.Stats.TotalBids)
}
