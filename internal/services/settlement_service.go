package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

// SettlementService resolves ended auctions: it picks the winner, computes
// the fee split, finalizes every bid's status and updates the aggregate user
// stats, all in one transaction. Settlement is idempotent: a result that
// already carries SettledAt short-circuits to completing the auction, so
// sweep retries can never double-pay.
type SettlementService struct {
	db      *gorm.DB
	repo    *repository.Repository
	locks   *AuctionLocks
	feeRate decimal.Decimal

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewSettlementService(
	repo *repository.Repository,
	locks *AuctionLocks,
	feeRate decimal.Decimal,
) *SettlementService {
	return &SettlementService{
		db:       repo.DB(),
		repo:     repo,
		locks:    locks,
		feeRate:  feeRate,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Settle resolves one ended auction. Safe to call again after a failure or
// after completion.
func (s *SettlementService) Settle(ctx context.Context, auctionID uuid.UUID) error {
	if err := s.begin(auctionID); err != nil {
		return err
	}
	defer s.finish(auctionID)

	lock := s.locks.Get(auctionID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if err := tx.Where("id = ?", auctionID).First(&auction).Error; err != nil {
			return fmt.Errorf("failed to load auction: %w", err)
		}

		if auction.Status == models.AuctionStatusCompleted {
			return nil // already settled
		}
		if err := GuardTransition(auction.Status, models.AuctionStatusCompleted); err != nil {
			return err
		}

		var result models.AuctionResult
		if err := tx.Where("auction_id = ?", auctionID).First(&result).Error; err != nil {
			return fmt.Errorf("failed to load auction result: %w", err)
		}

		if result.SettledAt == nil {
			if err := s.resolve(ctx, tx, &auction, &result); err != nil {
				return err
			}
		}

		return s.complete(tx, &auction)
	})
}

// resolve applies the settlement decision inside the caller's transaction.
func (s *SettlementService) resolve(ctx context.Context, tx *gorm.DB, auction *models.Auction, result *models.AuctionResult) error {
	var bids []*models.Bid
	if err := tx.Where("auction_id = ? AND status IN ?", auction.ID, models.LiveBidStatuses).
		Find(&bids).Error; err != nil {
		return fmt.Errorf("failed to load bids: %w", err)
	}

	winner := topBid(bids)
	reserveUnmet := auction.ReservePrice.IsPositive() &&
		(winner == nil || winner.Amount.LessThan(auction.ReservePrice))

	now := time.Now()

	if winner == nil || reserveUnmet {
		// No sale: everyone gets their stake back
		for _, bid := range bids {
			if err := s.refundBid(tx, bid, now); err != nil {
				return err
			}
		}
		result.WinnerID = nil
		result.WinnerWallet = nil
		result.WinningBid = decimal.Zero
		result.PlatformFee = decimal.Zero
		result.SellerAmount = decimal.Zero
		result.SettledAt = &now
		if err := tx.Save(result).Error; err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}

		log.Infof("Auction %s settled with no winner (reserve unmet: %v, bids: %d)",
			auction.ID, reserveUnmet, len(bids))
		return nil
	}

	platformFee := winner.Amount.Mul(s.feeRate)
	sellerAmount := winner.Amount.Sub(platformFee)

	if err := tx.Model(&models.Bid{}).
		Where("id = ?", winner.ID).
		Update("status", models.BidStatusWon).Error; err != nil {
		return fmt.Errorf("failed to mark winning bid: %w", err)
	}

	for _, bid := range bids {
		if bid.ID == winner.ID {
			continue
		}
		if err := s.refundBid(tx, bid, now); err != nil {
			return err
		}
	}

	result.WinnerID = &winner.BidderID
	result.WinnerWallet = &winner.BidderWallet
	result.WinningBid = winner.Amount
	result.PlatformFee = platformFee
	result.SellerAmount = sellerAmount
	result.SettledAt = &now
	if err := tx.Save(result).Error; err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	if err := s.repo.IncrementUserStats(ctx, tx, winner.BidderID, repository.StatsDelta{
		AuctionsWon: 1,
		TotalSpent:  winner.Amount,
	}); err != nil {
		return fmt.Errorf("failed to update winner stats: %w", err)
	}
	if err := s.repo.IncrementUserStats(ctx, tx, auction.CreatorID, repository.StatsDelta{
		TotalEarned: sellerAmount,
	}); err != nil {
		return fmt.Errorf("failed to update creator stats: %w", err)
	}

	log.Infof("Auction %s settled: winner %d, bid %s, fee %s, payout %s",
		auction.ID, winner.BidderID, winner.Amount, platformFee, sellerAmount)
	return nil
}

// complete transitions the auction to completed under the version guard.
func (s *SettlementService) complete(tx *gorm.DB, auction *models.Auction) error {
	result := tx.Model(&models.Auction{}).
		Where("id = ? AND version = ?", auction.ID, auction.Version).
		Updates(map[string]interface{}{
			"status":  models.AuctionStatusCompleted,
			"version": auction.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete auction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return auctionerrors.ErrConcurrentModification
	}
	return nil
}

func (s *SettlementService) refundBid(tx *gorm.DB, bid *models.Bid, now time.Time) error {
	err := tx.Model(&models.Bid{}).
		Where("id = ?", bid.ID).
		Updates(map[string]interface{}{
			"status":           models.BidStatusRefunded,
			"refund_processed": true,
			"refunded_at":      now,
			"refund_amount":    bid.Amount,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to refund bid %s: %w", bid.ID, err)
	}
	return nil
}

// topBid picks the ranking winner from a set of live bids
func topBid(bids []*models.Bid) *models.Bid {
	var best *models.Bid
	for _, bid := range bids {
		if best == nil || bid.Outranks(best) {
			best = bid
		}
	}
	return best
}

// begin guards settlement re-entrancy per auction.
func (s *SettlementService) begin(auctionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[auctionID]; busy {
		return fmt.Errorf("%w: auction %s", auctionerrors.ErrSettlementInProgress, auctionID)
	}
	s.inFlight[auctionID] = struct{}{}
	return nil
}

func (s *SettlementService) finish(auctionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, auctionID)
}
