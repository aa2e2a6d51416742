package repository

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"auction-ledger/internal/models"
)

// GetBidsByAuction retrieves the bid history for an auction, newest first
func (r *Repository) GetBidsByAuction(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]*models.Bid, error) {
	var bids []*models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// GetBidsByBidder retrieves all bids placed by a user, newest first
func (r *Repository) GetBidsByBidder(ctx context.Context, bidderID uint, limit, offset int) ([]*models.Bid, error) {
	var bids []*models.Bid
	err := r.db.WithContext(ctx).
		Where("bidder_id = ?", bidderID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// GetLiveBids retrieves every bid that still counts toward the auction
// snapshot (confirmed or better), ranked best first. Ranking happens in Go
// because amount ordering with tie-breaks spans three columns.
func (r *Repository) GetLiveBids(ctx context.Context, auctionID uuid.UUID) ([]*models.Bid, error) {
	var bids []*models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND status IN ?", auctionID, models.LiveBidStatuses).
		Find(&bids).Error
	if err != nil {
		return nil, err
	}

	sort.Slice(bids, func(i, j int) bool {
		return bids[i].Outranks(bids[j])
	})

	return bids, nil
}

// CountLiveBids counts confirmed-or-better bids on an auction
func (r *Repository) CountLiveBids(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bid{}).
		Where("auction_id = ? AND status IN ?", auctionID, models.LiveBidStatuses).
		Count(&count).Error
	return count, err
}

// GetBidByTransactionHash looks a bid up by its on-chain provenance
func (r *Repository) GetBidByTransactionHash(ctx context.Context, txHash string) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).Where("transaction_hash = ?", txHash).First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}
