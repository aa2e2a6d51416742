package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

func newTestAuctionService(t *testing.T) (*gorm.DB, *repository.Repository, *AuctionService) {
	t.Helper()

	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	return db, repo, NewAuctionService(repo, NewAuctionLocks())
}

func createRequest() *models.CreateAuctionRequest {
	return &models.CreateAuctionRequest{
		ContractAddress: "0x" + uuid.NewString()[:12],
		TransactionHash: uuid.NewString(),
		BlockNumber:     1,
		ProductName:     "Signed First Edition",
		Description:     "A signed first edition in good shape",
		Category:        models.CategoryBooks,
		StartingPrice:   decimal.NewFromInt(50),
		StartTime:       time.Now().Add(time.Hour),
		DurationHours:   24,
	}
}

func TestCreateAuction(t *testing.T) {
	db, repo, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker1", true)

	req := createRequest()
	auction, err := svc.CreateAuction(ctx, creator.ID, req)
	require.NoError(t, err)

	assert.Equal(t, models.AuctionStatusPending, auction.Status)
	assert.Equal(t, creator.ID, auction.CreatorID)
	assert.True(t, auction.CurrentHighestBid.IsZero())
	assert.Equal(t, req.StartTime.Add(24*time.Hour), auction.EndTime)

	stats, err := repo.GetUserStats(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AuctionsCreated)
}

func TestCreateAuction_RequiresKYC(t *testing.T) {
	db, _, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker2", false)

	_, err := svc.CreateAuction(ctx, creator.ID, createRequest())
	assert.ErrorIs(t, err, auctionerrors.ErrBidderNotVerified)
}

func TestCreateAuction_RejectsBannedCreator(t *testing.T) {
	db, _, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker3", true)
	require.NoError(t, db.Model(creator).Update("status", models.UserStatusBanned).Error)

	_, err := svc.CreateAuction(ctx, creator.ID, createRequest())
	assert.ErrorIs(t, err, auctionerrors.ErrNotAuthorized)
}

func TestCreateAuction_RejectsUnknownCategory(t *testing.T) {
	db, _, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker4", true)

	req := createRequest()
	req.Category = "Spaceships"
	_, err := svc.CreateAuction(ctx, creator.ID, req)
	assert.Error(t, err)
}

func TestActivate(t *testing.T) {
	db, repo, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker5", true)
	auction := createTestAuction(t, db, creator, testAuctionOpts{
		Status: models.AuctionStatusPending,
	})

	require.NoError(t, svc.Activate(ctx, auction.ID, false))

	reloaded, err := repo.GetAuctionByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusActive, reloaded.Status)

	// A redundant sweep attempt is silently skipped
	require.NoError(t, svc.Activate(ctx, auction.ID, false))

	// An explicit activation of an already-active auction is a real error
	err = svc.Activate(ctx, auction.ID, true)
	assert.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
}

func TestEnd(t *testing.T) {
	db, repo, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker6", true)
	auction := createTestAuction(t, db, creator, testAuctionOpts{})

	require.NoError(t, svc.End(ctx, auction.ID, models.EndedByAutomatic, nil))

	reloaded, err := repo.GetAuctionByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusEnded, reloaded.Status)

	result, err := repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.EndedByAutomatic, result.EndedBy)
	assert.Nil(t, result.SettledAt)

	// A second automatic attempt on an ended auction is a no-op
	require.NoError(t, svc.End(ctx, auction.ID, models.EndedByAutomatic, nil))
}

func TestEnd_ManualAuthorization(t *testing.T) {
	db, _, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker7", true)
	stranger := createTestUser(t, db, "0xStranger7", true)
	auction := createTestAuction(t, db, creator, testAuctionOpts{})

	intruder := models.Actor{UserID: stranger.ID, Role: models.UserRoleUser}
	err := svc.End(ctx, auction.ID, models.EndedByManual, &intruder)
	assert.ErrorIs(t, err, auctionerrors.ErrNotAuthorized)

	owner := models.Actor{UserID: creator.ID, Role: models.UserRoleUser}
	require.NoError(t, svc.End(ctx, auction.ID, models.EndedByManual, &owner))
}

func TestCancel(t *testing.T) {
	db, repo, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker8", true)
	auction := createTestAuction(t, db, creator, testAuctionOpts{
		Status: models.AuctionStatusPending,
	})

	owner := models.Actor{UserID: creator.ID, Role: models.UserRoleUser}
	require.NoError(t, svc.Cancel(ctx, auction.ID, owner))

	reloaded, err := repo.GetAuctionByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusCancelled, reloaded.Status)

	// Cancellation settles trivially: there is nothing to pay out
	result, err := repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.EndedByCancelled, result.EndedBy)
	require.NotNil(t, result.SettledAt)

	// Terminal states stay terminal
	err = svc.Cancel(ctx, auction.ID, owner)
	assert.ErrorIs(t, err, auctionerrors.ErrCancellationNotAllowed)
}

func TestCancel_BlockedByLiveBid(t *testing.T) {
	db, _, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMaker9", true)
	bidder := createTestUser(t, db, "0xBidder9", true)
	auction := createTestAuction(t, db, creator, testAuctionOpts{})

	bids := NewBidService(repository.NewRepository(db), NewBidValidator(decimal.NewFromInt(5)), NewAuctionLocks(), 3)
	_, err := bids.PlaceBid(ctx, auction.ID, bidder.ID, bidRequest(100))
	require.NoError(t, err)

	owner := models.Actor{UserID: creator.ID, Role: models.UserRoleUser}
	err = svc.Cancel(ctx, auction.ID, owner)
	assert.ErrorIs(t, err, auctionerrors.ErrCancellationNotAllowed)

	// No admin override either: a live bid pins the auction
	admin := models.Actor{UserID: 999, Role: models.UserRoleAdmin}
	err = svc.Cancel(ctx, auction.ID, admin)
	assert.ErrorIs(t, err, auctionerrors.ErrCancellationNotAllowed)
}

func TestCancel_Authorization(t *testing.T) {
	db, _, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMakerA", true)
	stranger := createTestUser(t, db, "0xStrangerA", true)
	auction := createTestAuction(t, db, creator, testAuctionOpts{
		Status: models.AuctionStatusPending,
	})

	intruder := models.Actor{UserID: stranger.ID, Role: models.UserRoleUser}
	err := svc.Cancel(ctx, auction.ID, intruder)
	assert.ErrorIs(t, err, auctionerrors.ErrNotAuthorized)

	// Admins may cancel on behalf of anyone
	admin := models.Actor{UserID: stranger.ID, Role: models.UserRoleAdmin}
	require.NoError(t, svc.Cancel(ctx, auction.ID, admin))
}

func TestGetAuction_BumpsViews(t *testing.T) {
	db, repo, svc := newTestAuctionService(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "0xMakerB", true)
	auction := createTestAuction(t, db, creator, testAuctionOpts{})

	resp, err := svc.GetAuction(ctx, auction.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, auction.ID, resp.Auction.ID)
	assert.Nil(t, resp.Result)

	reloaded, err := repo.GetAuctionByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Views)
}
