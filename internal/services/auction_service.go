package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

// AuctionService owns the auction lifecycle: creation and every explicit or
// time-triggered state transition. Settlement itself lives in
// SettlementService; this service only moves auctions into "ended" and writes
// the result stub settlement later completes.
type AuctionService struct {
	db    *gorm.DB
	repo  *repository.Repository
	locks *AuctionLocks
}

func NewAuctionService(repo *repository.Repository, locks *AuctionLocks) *AuctionService {
	return &AuctionService{
		db:    repo.DB(),
		repo:  repo,
		locks: locks,
	}
}

// CreateAuction lists a new item. The creator must have completed KYC.
func (s *AuctionService) CreateAuction(
	ctx context.Context,
	creatorID uint,
	req *models.CreateAuctionRequest,
) (*models.Auction, error) {
	creator, err := s.repo.GetUserByID(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}

	if creator.Status == models.UserStatusBanned {
		return nil, fmt.Errorf("%w: account is banned", auctionerrors.ErrNotAuthorized)
	}
	if !creator.IsKYCVerified {
		return nil, fmt.Errorf("%w: creator must complete KYC before listing", auctionerrors.ErrBidderNotVerified)
	}

	if !models.ValidCategory(req.Category) {
		return nil, fmt.Errorf("unknown product category %q", req.Category)
	}
	if req.StartingPrice.IsNegative() {
		return nil, fmt.Errorf("starting price must be >= 0, got %s", req.StartingPrice)
	}
	if req.ReservePrice.IsNegative() {
		return nil, fmt.Errorf("reserve price must be >= 0, got %s", req.ReservePrice)
	}

	startTime := req.StartTime
	endTime := startTime.Add(time.Duration(req.DurationHours) * time.Hour)
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("end time must be after start time")
	}

	condition := req.Condition
	if condition == "" {
		condition = models.ConditionNew
	}

	auction := &models.Auction{
		ID:                 uuid.New(),
		ContractAddress:    models.NormalizeWallet(req.ContractAddress),
		TransactionHash:    req.TransactionHash,
		BlockNumber:        req.BlockNumber,
		CreatorID:          creator.ID,
		CreatorWallet:      creator.WalletAddress,
		ProductName:        req.ProductName,
		ProductDescription: req.Description,
		Category:           req.Category,
		Condition:          condition,
		Images:             models.JSONB(req.Images),
		Specifications:     models.JSONB(req.Specifications),
		StartingPrice:      req.StartingPrice,
		ReservePrice:       req.ReservePrice,
		StartTime:          startTime,
		EndTime:            endTime,
		DurationHours:      req.DurationHours,
		CurrentHighestBid:  decimal.Zero,
		Status:             models.AuctionStatusPending,
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	if err := s.repo.IncrementUserStats(ctx, nil, creator.ID, repository.StatsDelta{AuctionsCreated: 1}); err != nil {
		log.Errorf("Failed to update creator stats for auction %s: %v", auction.ID, err)
	}

	log.Infof("Auction %s created by user %d (contract %s)", auction.ID, creator.ID, auction.ContractAddress)
	return auction, nil
}

// Activate moves a pending auction to active. The sweep calls it with
// explicit=false, where an already-active auction is a no-op; an explicit
// admin activation of a non-pending auction is an InvalidTransition.
func (s *AuctionService) Activate(ctx context.Context, auctionID uuid.UUID, explicit bool) error {
	lock := s.locks.Get(auctionID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if err := tx.Where("id = ?", auctionID).First(&auction).Error; err != nil {
			return fmt.Errorf("failed to load auction: %w", err)
		}

		if auction.Status == models.AuctionStatusActive && !explicit {
			return nil // redundant sweep attempt
		}
		if err := GuardTransition(auction.Status, models.AuctionStatusActive); err != nil {
			return err
		}

		return s.transition(tx, &auction, models.AuctionStatusActive)
	})
}

// End moves an active auction to ended and writes the result stub recording
// how it ended. Settlement runs afterwards. Redundant automatic attempts on
// an already-ended auction are no-ops. actor is nil for the sweep's
// time-triggered close and required for a manual one.
func (s *AuctionService) End(ctx context.Context, auctionID uuid.UUID, endedBy models.EndedBy, actor *models.Actor) error {
	lock := s.locks.Get(auctionID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if err := tx.Where("id = ?", auctionID).First(&auction).Error; err != nil {
			return fmt.Errorf("failed to load auction: %w", err)
		}

		alreadyOver := auction.Status == models.AuctionStatusEnded ||
			auction.Status == models.AuctionStatusCompleted
		if alreadyOver && endedBy == models.EndedByAutomatic {
			return nil
		}
		if actor != nil {
			if err := AuthorizeLifecycleAction(*actor, &auction, models.AuctionStatusEnded); err != nil {
				return err
			}
		}
		if err := GuardTransition(auction.Status, models.AuctionStatusEnded); err != nil {
			return err
		}

		result := &models.AuctionResult{
			ID:        uuid.New(),
			AuctionID: auction.ID,
			EndedAt:   time.Now(),
			EndedBy:   endedBy,
		}
		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("failed to create auction result: %w", err)
		}

		if err := s.transition(tx, &auction, models.AuctionStatusEnded); err != nil {
			return err
		}

		log.Infof("Auction %s ended (%s)", auction.ID, endedBy)
		return nil
	})
}

// Cancel withdraws an auction. Only pending or active auctions with zero
// live bids can be cancelled, and the per-auction lock serializes the check
// against in-flight bid commits: a bid that lands first makes this fail.
func (s *AuctionService) Cancel(ctx context.Context, auctionID uuid.UUID, actor models.Actor) error {
	lock := s.locks.Get(auctionID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if err := tx.Where("id = ?", auctionID).First(&auction).Error; err != nil {
			return fmt.Errorf("failed to load auction: %w", err)
		}

		if err := AuthorizeLifecycleAction(actor, &auction, models.AuctionStatusCancelled); err != nil {
			return err
		}

		if !CanTransition(auction.Status, models.AuctionStatusCancelled) {
			return fmt.Errorf("%w: auction is %s", auctionerrors.ErrCancellationNotAllowed, auction.Status)
		}

		var liveBids int64
		if err := tx.Model(&models.Bid{}).
			Where("auction_id = ? AND status IN ?", auction.ID, models.LiveBidStatuses).
			Count(&liveBids).Error; err != nil {
			return fmt.Errorf("failed to count bids: %w", err)
		}
		if liveBids > 0 {
			return fmt.Errorf("%w: auction has %d confirmed bids", auctionerrors.ErrCancellationNotAllowed, liveBids)
		}

		now := time.Now()
		result := &models.AuctionResult{
			ID:        uuid.New(),
			AuctionID: auction.ID,
			EndedAt:   now,
			EndedBy:   models.EndedByCancelled,
			SettledAt: &now, // nothing to settle
		}
		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("failed to create auction result: %w", err)
		}

		// Any bids still awaiting confirmation are returned
		if err := tx.Model(&models.Bid{}).
			Where("auction_id = ? AND status = ?", auction.ID, models.BidStatusPending).
			Updates(map[string]interface{}{
				"status":           models.BidStatusRefunded,
				"refund_processed": true,
				"refunded_at":      now,
			}).Error; err != nil {
			return fmt.Errorf("failed to refund pending bids: %w", err)
		}

		if err := s.transition(tx, &auction, models.AuctionStatusCancelled); err != nil {
			return err
		}

		log.Infof("Auction %s cancelled by user %d", auction.ID, actor.UserID)
		return nil
	})
}

// transition applies the status change under the optimistic version check.
// Callers hold the per-auction lock; the version guard closes the gap against
// other processes.
func (s *AuctionService) transition(tx *gorm.DB, auction *models.Auction, to models.AuctionStatus) error {
	result := tx.Model(&models.Auction{}).
		Where("id = ? AND version = ?", auction.ID, auction.Version).
		Updates(map[string]interface{}{
			"status":  to,
			"version": auction.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to transition auction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return auctionerrors.ErrConcurrentModification
	}
	auction.Status = to
	auction.Version++
	return nil
}

// GetAuction returns an auction with its result (when over) and bid history.
func (s *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID, historyLimit int) (*models.AuctionResponse, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.GetAuctionResult(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID, historyLimit, 0)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementViews(ctx, auctionID); err != nil {
		log.Debugf("Failed to bump views for auction %s: %v", auctionID, err)
	}

	return &models.AuctionResponse{
		Auction: *auction,
		Result:  result,
		Bids:    bids,
	}, nil
}

// ListAuctions proxies filtered listing for the HTTP layer
func (s *AuctionService) ListAuctions(
	ctx context.Context,
	filter repository.AuctionFilter,
	limit, offset int,
) ([]*models.Auction, int64, error) {
	return s.repo.ListAuctions(ctx, filter, limit, offset)
}
