package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

// BidService is the bid ledger engine: it applies validated bids to the bid
// table and the auction's live snapshot as one atomic unit. Per-auction
// serialization is a process-local mutex plus an optimistic version check on
// the auction row, so two bids racing on the same auction can never both
// commit against the same observed highest bid.
type BidService struct {
	db            *gorm.DB
	repo          *repository.Repository
	validator     *BidValidator
	locks         *AuctionLocks
	commitRetries int
}

func NewBidService(
	repo *repository.Repository,
	validator *BidValidator,
	locks *AuctionLocks,
	commitRetries int,
) *BidService {
	return &BidService{
		db:            repo.DB(),
		repo:          repo,
		validator:     validator,
		locks:         locks,
		commitRetries: commitRetries,
	}
}

// PlaceBid validates and commits a bid on an auction. The transaction hash
// and block number are provenance from the external chain submission.
func (s *BidService) PlaceBid(
	ctx context.Context,
	auctionID uuid.UUID,
	bidderID uint,
	req *models.PlaceBidRequest,
) (*models.Bid, error) {
	bidder, err := s.repo.GetUserByID(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bidder: %w", err)
	}

	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction: %w", err)
	}

	// Fast pre-check outside the lock. The commit re-validates; this only
	// rejects hopeless requests before they contend.
	if _, err := s.validator.Validate(auction, bidder, req.Amount, time.Now()); err != nil {
		return nil, err
	}

	lock := s.locks.Get(auctionID)
	lock.Lock()
	defer lock.Unlock()

	var bid *models.Bid
	for attempt := 0; attempt < s.commitRetries; attempt++ {
		bid, err = s.commitBid(ctx, auctionID, bidder, req)
		if !errors.Is(err, auctionerrors.ErrConcurrentModification) {
			break
		}
		log.Warnf("Bid commit conflict on auction %s (attempt %d), retrying", auctionID, attempt+1)
	}
	if errors.Is(err, auctionerrors.ErrConcurrentModification) {
		return nil, fmt.Errorf("%w: auction %s", auctionerrors.ErrRetryExceeded, auctionID)
	}
	if err != nil {
		return nil, err
	}

	log.Infof("Bid %s placed on auction %s: %s by user %d", bid.ID, auctionID, bid.Amount, bidderID)
	return bid, nil
}

// commitBid runs one atomic attempt: reload, re-validate, insert the bid,
// demote the previous winning bid and refresh the snapshot, all guarded by
// the auction's version column.
func (s *BidService) commitBid(
	ctx context.Context,
	auctionID uuid.UUID,
	bidder *models.User,
	req *models.PlaceBidRequest,
) (*models.Bid, error) {
	var bid *models.Bid

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if err := tx.Where("id = ?", auctionID).First(&auction).Error; err != nil {
			return fmt.Errorf("failed to reload auction: %w", err)
		}

		// Authoritative validation against the state this commit will apply to
		validated, err := s.validator.Validate(&auction, bidder, req.Amount, time.Now())
		if err != nil {
			return err
		}

		now := time.Now()
		bid = &models.Bid{
			ID:                    uuid.New(),
			AuctionID:             auction.ID,
			AuctionContract:       auction.ContractAddress,
			BidderID:              bidder.ID,
			BidderWallet:          bidder.WalletAddress,
			Amount:                req.Amount,
			TransactionHash:       req.TransactionHash,
			BlockNumber:           req.BlockNumber,
			Status:                models.BidStatusWinning,
			PreviousHighestBid:    validated.PreviousHighestBid,
			PreviousHighestWallet: validated.PreviousHighestWallet,
			CreatedAt:             now,
		}

		// Demote whichever bid currently leads; the single-winning invariant
		// holds because both rows change inside this transaction.
		if err := tx.Model(&models.Bid{}).
			Where("auction_id = ? AND status = ?", auction.ID, models.BidStatusWinning).
			Update("status", models.BidStatusOutbid).Error; err != nil {
			return fmt.Errorf("failed to demote previous winning bid: %w", err)
		}

		if err := tx.Create(bid).Error; err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		var uniqueBidders int64
		if err := tx.Model(&models.Bid{}).
			Where("auction_id = ?", auction.ID).
			Distinct("bidder_id").
			Count(&uniqueBidders).Error; err != nil {
			return fmt.Errorf("failed to count unique bidders: %w", err)
		}

		// Snapshot refresh, guarded by the version the validation ran on
		result := tx.Model(&models.Auction{}).
			Where("id = ? AND version = ?", auction.ID, auction.Version).
			Updates(map[string]interface{}{
				"current_highest_bid":   req.Amount,
				"highest_bidder_id":     bidder.ID,
				"highest_bidder_wallet": bidder.WalletAddress,
				"total_bids":            gorm.Expr("total_bids + 1"),
				"unique_bidders":        uniqueBidders,
				"reserve_met":           validated.ReserveMet,
				"version":               auction.Version + 1,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update auction snapshot: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return auctionerrors.ErrConcurrentModification
		}

		return s.repo.IncrementUserStats(ctx, tx, bidder.ID, repository.StatsDelta{TotalBids: 1})
	})

	if err != nil {
		return nil, err
	}
	return bid, nil
}
