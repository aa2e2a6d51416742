package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuctionStatus string

const (
	AuctionStatusPending   AuctionStatus = "pending"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusEnded     AuctionStatus = "ended"
	AuctionStatusCancelled AuctionStatus = "cancelled"
	AuctionStatusCompleted AuctionStatus = "completed"
)

type ProductCategory string

const (
	CategoryElectronics  ProductCategory = "Electronics"
	CategoryFashion      ProductCategory = "Fashion"
	CategoryHome         ProductCategory = "Home"
	CategorySports       ProductCategory = "Sports"
	CategoryBooks        ProductCategory = "Books"
	CategoryArt          ProductCategory = "Art"
	CategoryCollectibles ProductCategory = "Collectibles"
	CategoryOther        ProductCategory = "Other"
)

// ValidCategory reports whether c is one of the known product categories.
func ValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryElectronics, CategoryFashion, CategoryHome, CategorySports,
		CategoryBooks, CategoryArt, CategoryCollectibles, CategoryOther:
		return true
	}
	return false
}

type ProductCondition string

const (
	ConditionNew     ProductCondition = "New"
	ConditionLikeNew ProductCondition = "Like New"
	ConditionGood    ProductCondition = "Good"
	ConditionFair    ProductCondition = "Fair"
	ConditionPoor    ProductCondition = "Poor"
)

type EndedBy string

const (
	EndedByAutomatic EndedBy = "automatic"
	EndedByManual    EndedBy = "manual"
	EndedByCancelled EndedBy = "cancelled"
)

// JSONB stores free-form JSON (product images, specifications) as a jsonb
// column on Postgres and a plain blob on sqlite.
type JSONB []map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, j)
}

// Auction is one listed item. The bidding columns are a denormalized snapshot
// of the bid history; every mutation of them goes through the ledger engine
// under the per-auction lock, and Version backs the optimistic commit check.
type Auction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContractAddress string    `gorm:"uniqueIndex;size:64;not null" json:"contract_address"`
	TransactionHash string    `gorm:"size:128;not null" json:"transaction_hash"`
	BlockNumber     int64     `gorm:"not null" json:"block_number"`

	CreatorID     uint   `gorm:"not null;index" json:"creator_id"`
	CreatorWallet string `gorm:"size:64;not null" json:"creator_wallet"`

	ProductName        string           `gorm:"size:255;not null" json:"product_name"`
	ProductDescription string           `gorm:"type:text" json:"product_description"`
	Category           ProductCategory  `gorm:"size:50;not null;index:idx_auctions_category_status" json:"category"`
	Condition          ProductCondition `gorm:"size:50;default:New" json:"condition"`
	Images             JSONB            `gorm:"type:jsonb" json:"images"`
	Specifications     JSONB            `gorm:"type:jsonb" json:"specifications"`

	StartingPrice decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"starting_price"`
	ReservePrice  decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"reserve_price"`
	StartTime     time.Time       `gorm:"not null" json:"start_time"`
	EndTime       time.Time       `gorm:"not null;index:idx_auctions_status_end_time,priority:2" json:"end_time"`
	DurationHours int             `gorm:"not null" json:"duration_hours"`

	CurrentHighestBid   decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"current_highest_bid"`
	HighestBidderID     *uint           `json:"highest_bidder_id"`
	HighestBidderWallet *string         `gorm:"size:64" json:"highest_bidder_wallet"`
	TotalBids           int64           `gorm:"default:0" json:"total_bids"`
	UniqueBidders       int64           `gorm:"default:0" json:"unique_bidders"`
	ReserveMet          bool            `gorm:"default:false" json:"reserve_met"`

	Status  AuctionStatus `gorm:"size:20;not null;default:pending;index:idx_auctions_status_end_time,priority:1;index:idx_auctions_category_status" json:"status"`
	Version int64         `gorm:"not null;default:0" json:"-"`

	Views    int64 `gorm:"default:0" json:"views"`
	Featured bool  `gorm:"default:false" json:"featured"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Auction) TableName() string {
	return "auctions"
}

// IsLive reports whether the auction is accepting bids right now.
func (a *Auction) IsLive(now time.Time) bool {
	return a.Status == AuctionStatusActive && now.Before(a.EndTime)
}

// AuctionResult records the outcome of an auction. A row exists exactly when
// the auction has reached ended, cancelled or completed. SettledAt is only
// set once settlement has committed, which is what makes settlement retries
// idempotent.
type AuctionResult struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AuctionID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"auction_id"`
	WinnerID     *uint           `gorm:"index" json:"winner_id"`
	WinnerWallet *string         `gorm:"size:64" json:"winner_wallet"`
	WinningBid   decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"winning_bid"`
	PlatformFee  decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"platform_fee"`
	SellerAmount decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"seller_amount"`
	EndedAt      time.Time       `gorm:"not null" json:"ended_at"`
	EndedBy      EndedBy         `gorm:"size:20;not null" json:"ended_by"`
	SettledAt    *time.Time      `json:"settled_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (AuctionResult) TableName() string {
	return "auction_results"
}

// CreateAuctionRequest is the payload for listing a new item
type CreateAuctionRequest struct {
	ContractAddress string                   `json:"contract_address" binding:"required"`
	TransactionHash string                   `json:"transaction_hash" binding:"required"`
	BlockNumber     int64                    `json:"block_number" binding:"required"`
	ProductName     string                   `json:"product_name" binding:"required"`
	Description     string                   `json:"description" binding:"required"`
	Category        ProductCategory          `json:"category" binding:"required"`
	Condition       ProductCondition         `json:"condition"`
	Images          []map[string]interface{} `json:"images"`
	Specifications  []map[string]interface{} `json:"specifications"`
	StartingPrice   decimal.Decimal          `json:"starting_price" binding:"required"`
	ReservePrice    decimal.Decimal          `json:"reserve_price"`
	StartTime       time.Time                `json:"start_time" binding:"required"`
	DurationHours   int                      `json:"duration_hours" binding:"required,gt=0"`
}

// AuctionResponse is an auction plus its result (when ended) and bid history
type AuctionResponse struct {
	Auction Auction        `json:"auction"`
	Result  *AuctionResult `json:"result,omitempty"`
	Bids    []*Bid         `json:"bids,omitempty"`
}
