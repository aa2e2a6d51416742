package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auction-ledger/internal/models"
)

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.WalletAddress = models.NormalizeWallet(user.WalletAddress)
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByWallet retrieves a user by wallet address
func (r *Repository) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", models.NormalizeWallet(wallet)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser saves user mutations
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ListUsers retrieves users with pagination
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// GetUserStats retrieves aggregate stats for a user, creating the zero row on
// first access
func (r *Repository) GetUserStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error

	if err == gorm.ErrRecordNotFound {
		stats = models.UserStats{
			UserID:      userID,
			TotalSpent:  decimal.Zero,
			TotalEarned: decimal.Zero,
		}
		if err := r.db.WithContext(ctx).Create(&stats).Error; err != nil {
			return nil, err
		}
		return &stats, nil
	}

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// StatsDelta is a set of increments to apply to a user's aggregate counters
type StatsDelta struct {
	AuctionsCreated int64
	AuctionsWon     int64
	TotalBids       int64
	TotalSpent      decimal.Decimal
	TotalEarned     decimal.Decimal
}

// IncrementUserStats applies a delta with an atomic upsert so concurrent
// settlements and bid commits cannot lose counter updates. Callers inside a
// transaction pass their tx handle; others pass nil to use the base handle.
func (r *Repository) IncrementUserStats(ctx context.Context, tx *gorm.DB, userID uint, delta StatsDelta) error {
	if tx == nil {
		tx = r.db
	}

	initial := models.UserStats{
		UserID:          userID,
		AuctionsCreated: delta.AuctionsCreated,
		AuctionsWon:     delta.AuctionsWon,
		TotalBids:       delta.TotalBids,
		TotalSpent:      delta.TotalSpent,
		TotalEarned:     delta.TotalEarned,
		UpdatedAt:       time.Now(),
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"auctions_created": gorm.Expr("user_stats.auctions_created + ?", delta.AuctionsCreated),
			"auctions_won":     gorm.Expr("user_stats.auctions_won + ?", delta.AuctionsWon),
			"total_bids":       gorm.Expr("user_stats.total_bids + ?", delta.TotalBids),
			"total_spent":      gorm.Expr("user_stats.total_spent + ?", delta.TotalSpent),
			"total_earned":     gorm.Expr("user_stats.total_earned + ?", delta.TotalEarned),
			"updated_at":       time.Now(),
		}),
	}).Create(&initial).Error
}
