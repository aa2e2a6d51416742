package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

type settlementFixture struct {
	db         *gorm.DB
	repo       *repository.Repository
	bids       *BidService
	auctions   *AuctionService
	settlement *SettlementService
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	locks := NewAuctionLocks()
	validator := NewBidValidator(decimal.NewFromInt(5))

	return &settlementFixture{
		db:         db,
		repo:       repo,
		bids:       NewBidService(repo, validator, locks, 3),
		auctions:   NewAuctionService(repo, locks),
		settlement: NewSettlementService(repo, locks, decimal.NewFromFloat(0.025)),
	}
}

func (f *settlementFixture) endAuction(t *testing.T, ctx context.Context, auction *models.Auction) {
	t.Helper()
	require.NoError(t, f.auctions.End(ctx, auction.ID, models.EndedByAutomatic, nil))
}

func TestSettle_WinnerAndFeeSplit(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	creator := createTestUser(t, f.db, "0xSeller1", true)
	alice := createTestUser(t, f.db, "0xSAlice", true)
	bob := createTestUser(t, f.db, "0xSBob", true)
	auction := createTestAuction(t, f.db, creator, testAuctionOpts{})

	aliceBid, err := f.bids.PlaceBid(ctx, auction.ID, alice.ID, bidRequest(100))
	require.NoError(t, err)
	bobBid, err := f.bids.PlaceBid(ctx, auction.ID, bob.ID, bidRequest(110))
	require.NoError(t, err)

	f.endAuction(t, ctx, auction)
	require.NoError(t, f.settlement.Settle(ctx, auction.ID))

	result, err := f.repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.SettledAt)
	require.NotNil(t, result.WinnerID)
	assert.Equal(t, bob.ID, *result.WinnerID)
	assert.True(t, result.WinningBid.Equal(decimal.NewFromInt(110)))

	// 2.5% of 110 to the platform, the rest to the seller
	assert.True(t, result.PlatformFee.Equal(decimal.RequireFromString("2.75")),
		"platform fee %s", result.PlatformFee)
	assert.True(t, result.SellerAmount.Equal(decimal.RequireFromString("107.25")),
		"seller amount %s", result.SellerAmount)

	var won, refunded models.Bid
	require.NoError(t, f.db.First(&won, "id = ?", bobBid.ID).Error)
	assert.Equal(t, models.BidStatusWon, won.Status)

	require.NoError(t, f.db.First(&refunded, "id = ?", aliceBid.ID).Error)
	assert.Equal(t, models.BidStatusRefunded, refunded.Status)
	assert.True(t, refunded.RefundProcessed)
	assert.True(t, refunded.RefundAmount.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, refunded.RefundedAt)

	auctionRow, err := f.repo.GetAuctionByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusCompleted, auctionRow.Status)

	winnerStats, err := f.repo.GetUserStats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), winnerStats.AuctionsWon)
	assert.True(t, winnerStats.TotalSpent.Equal(decimal.NewFromInt(110)))

	sellerStats, err := f.repo.GetUserStats(ctx, creator.ID)
	require.NoError(t, err)
	assert.True(t, sellerStats.TotalEarned.Equal(decimal.RequireFromString("107.25")))
}

func TestSettle_Idempotent(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	creator := createTestUser(t, f.db, "0xSeller2", true)
	bidder := createTestUser(t, f.db, "0xSBidder2", true)
	auction := createTestAuction(t, f.db, creator, testAuctionOpts{})

	_, err := f.bids.PlaceBid(ctx, auction.ID, bidder.ID, bidRequest(100))
	require.NoError(t, err)

	f.endAuction(t, ctx, auction)
	require.NoError(t, f.settlement.Settle(ctx, auction.ID))

	firstResult, err := f.repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)

	// A second settle on the completed auction is a no-op
	require.NoError(t, f.settlement.Settle(ctx, auction.ID))

	secondResult, err := f.repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)
	assert.True(t, firstResult.SettledAt.Equal(*secondResult.SettledAt))

	// Counters were not applied twice
	stats, err := f.repo.GetUserStats(ctx, bidder.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AuctionsWon)
	assert.True(t, stats.TotalSpent.Equal(decimal.NewFromInt(100)))
}

func TestSettle_ReserveUnmet(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	creator := createTestUser(t, f.db, "0xSeller3", true)
	alice := createTestUser(t, f.db, "0xSAlice3", true)
	bob := createTestUser(t, f.db, "0xSBob3", true)
	auction := createTestAuction(t, f.db, creator, testAuctionOpts{
		ReservePrice: decimal.NewFromInt(150),
	})

	_, err := f.bids.PlaceBid(ctx, auction.ID, alice.ID, bidRequest(120))
	require.NoError(t, err)
	_, err = f.bids.PlaceBid(ctx, auction.ID, bob.ID, bidRequest(140))
	require.NoError(t, err)

	f.endAuction(t, ctx, auction)
	require.NoError(t, f.settlement.Settle(ctx, auction.ID))

	result, err := f.repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, result.SettledAt)
	assert.Nil(t, result.WinnerID)
	assert.Nil(t, result.WinnerWallet)
	assert.True(t, result.WinningBid.IsZero())
	assert.True(t, result.PlatformFee.IsZero())

	// Every bid goes back to its bidder
	var unrefunded int64
	require.NoError(t, f.db.Model(&models.Bid{}).
		Where("auction_id = ? AND status <> ?", auction.ID, models.BidStatusRefunded).
		Count(&unrefunded).Error)
	assert.Equal(t, int64(0), unrefunded)

	// Nobody won, nobody earned
	stats, err := f.repo.GetUserStats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.AuctionsWon)

	sellerStats, err := f.repo.GetUserStats(ctx, creator.ID)
	require.NoError(t, err)
	assert.True(t, sellerStats.TotalEarned.IsZero())
}

func TestSettle_NoBids(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	creator := createTestUser(t, f.db, "0xSeller4", true)
	auction := createTestAuction(t, f.db, creator, testAuctionOpts{})

	f.endAuction(t, ctx, auction)
	require.NoError(t, f.settlement.Settle(ctx, auction.ID))

	result, err := f.repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, result.SettledAt)
	assert.Nil(t, result.WinnerID)
	assert.True(t, result.WinningBid.IsZero())

	auctionRow, err := f.repo.GetAuctionByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusCompleted, auctionRow.Status)
}

func TestSettle_RequiresEndedAuction(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	creator := createTestUser(t, f.db, "0xSeller5", true)
	auction := createTestAuction(t, f.db, creator, testAuctionOpts{})

	err := f.settlement.Settle(ctx, auction.ID)
	assert.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
}

func TestSettle_ReentrancyGuard(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	creator := createTestUser(t, f.db, "0xSeller6", true)
	auction := createTestAuction(t, f.db, creator, testAuctionOpts{})
	f.endAuction(t, ctx, auction)

	// Simulate another worker holding the settlement
	require.NoError(t, f.settlement.begin(auction.ID))

	err := f.settlement.Settle(ctx, auction.ID)
	assert.ErrorIs(t, err, auctionerrors.ErrSettlementInProgress)

	f.settlement.finish(auction.ID)
	require.NoError(t, f.settlement.Settle(ctx, auction.ID))
}

func TestSettle_TieBreaksOnBlockNumber(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	creator := createTestUser(t, f.db, "0xSeller7", true)
	alice := createTestUser(t, f.db, "0xSAlice7", true)
	bob := createTestUser(t, f.db, "0xSBob7", true)
	auction := createTestAuction(t, f.db, creator, testAuctionOpts{})

	// Equal amounts cannot happen through the increment rule, so seed the
	// ledger directly: same amount, different block numbers.
	earlier := &models.Bid{
		ID:              uuid.New(),
		AuctionID:       auction.ID,
		AuctionContract: auction.ContractAddress,
		BidderID:        alice.ID,
		BidderWallet:    alice.WalletAddress,
		Amount:          decimal.NewFromInt(100),
		TransactionHash: "0xtie-a",
		BlockNumber:     50,
		Status:          models.BidStatusConfirmed,
	}
	later := &models.Bid{
		ID:              uuid.New(),
		AuctionID:       auction.ID,
		AuctionContract: auction.ContractAddress,
		BidderID:        bob.ID,
		BidderWallet:    bob.WalletAddress,
		Amount:          decimal.NewFromInt(100),
		TransactionHash: "0xtie-b",
		BlockNumber:     60,
		Status:          models.BidStatusConfirmed,
	}
	require.NoError(t, f.db.Create(earlier).Error)
	require.NoError(t, f.db.Create(later).Error)

	f.endAuction(t, ctx, auction)
	require.NoError(t, f.settlement.Settle(ctx, auction.ID))

	result, err := f.repo.GetAuctionResult(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, result.WinnerID)
	assert.Equal(t, alice.ID, *result.WinnerID, "lower block number wins the tie")
}
