package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"auction-ledger/internal/models"
)

// CreateAuction creates a new auction listing
func (r *Repository) CreateAuction(ctx context.Context, auction *models.Auction) error {
	return r.db.WithContext(ctx).Create(auction).Error
}

// GetAuctionByID retrieves an auction by ID
func (r *Repository) GetAuctionByID(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Where("id = ?", auctionID).First(&auction).Error
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// GetAuctionByContract retrieves an auction by its on-chain contract address
func (r *Repository) GetAuctionByContract(ctx context.Context, contract string) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).
		Where("contract_address = ?", models.NormalizeWallet(contract)).
		First(&auction).Error
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// AuctionFilter narrows ListAuctions
type AuctionFilter struct {
	Status    models.AuctionStatus
	Category  models.ProductCategory
	CreatorID uint
}

// ListAuctions retrieves auctions matching the filter with total count
func (r *Repository) ListAuctions(
	ctx context.Context,
	filter AuctionFilter,
	limit, offset int,
) ([]*models.Auction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Auction{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.CreatorID != 0 {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var auctions []*models.Auction
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&auctions).Error
	if err != nil {
		return nil, 0, err
	}

	return auctions, total, nil
}

// ListDueForActivation retrieves pending auctions whose start time has passed
func (r *Repository) ListDueForActivation(ctx context.Context, now time.Time, limit int) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", models.AuctionStatusPending, now).
		Order("start_time ASC").
		Limit(limit).
		Find(&auctions).Error
	if err != nil {
		return nil, err
	}
	return auctions, nil
}

// ListDueForEnding retrieves active auctions whose end time has passed
func (r *Repository) ListDueForEnding(ctx context.Context, now time.Time, limit int) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", models.AuctionStatusActive, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&auctions).Error
	if err != nil {
		return nil, err
	}
	return auctions, nil
}

// ListUnsettled retrieves auctions stuck in "ended" without a committed
// settlement, oldest first.
func (r *Repository) ListUnsettled(ctx context.Context, limit int) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AuctionStatusEnded).
		Order("end_time ASC").
		Limit(limit).
		Find(&auctions).Error
	if err != nil {
		return nil, err
	}
	return auctions, nil
}

// ListStaleEnded retrieves ended-but-unsettled auctions older than the cutoff
func (r *Repository) ListStaleEnded(ctx context.Context, cutoff time.Time) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", models.AuctionStatusEnded, cutoff).
		Order("end_time ASC").
		Find(&auctions).Error
	if err != nil {
		return nil, err
	}
	return auctions, nil
}

// GetAuctionResult retrieves the result row for an auction, nil when the
// auction has not ended yet
func (r *Repository) GetAuctionResult(ctx context.Context, auctionID uuid.UUID) (*models.AuctionResult, error) {
	var result models.AuctionResult
	err := r.db.WithContext(ctx).Where("auction_id = ?", auctionID).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// IncrementViews bumps the view counter without touching the version column
func (r *Repository) IncrementViews(ctx context.Context, auctionID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ?", auctionID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}
