package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusConfirmed BidStatus = "confirmed"
	BidStatusOutbid    BidStatus = "outbid"
	BidStatusWinning   BidStatus = "winning"
	BidStatusWon       BidStatus = "won"
	BidStatusRefunded  BidStatus = "refunded"
)

// LiveBidStatuses holds the statuses that count toward the auction snapshot,
// in query form. Refunded and pending bids do not.
var LiveBidStatuses = []BidStatus{
	BidStatusConfirmed,
	BidStatusOutbid,
	BidStatusWinning,
	BidStatusWon,
}

// Live reports whether the bid still counts toward the auction snapshot.
func (s BidStatus) Live() bool {
	for _, live := range LiveBidStatuses {
		if s == live {
			return true
		}
	}
	return false
}

// Bid is the source of truth for bidding history. The auction's snapshot
// columns must always equal a pure function of the live bids here: at most
// one bid per auction holds status "winning" at any instant.
type Bid struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuctionID       uuid.UUID `gorm:"type:uuid;not null;index:idx_bids_auction_created,priority:1;index:idx_bids_auction_amount,priority:1" json:"auction_id"`
	AuctionContract string    `gorm:"size:64;not null" json:"auction_contract"`

	BidderID     uint   `gorm:"not null;index" json:"bidder_id"`
	BidderWallet string `gorm:"size:64;not null" json:"bidder_wallet"`

	Amount decimal.Decimal `gorm:"type:decimal(24,8);not null;index:idx_bids_auction_amount,priority:2" json:"amount"`

	// On-chain provenance, recorded as given, never re-validated here
	TransactionHash string `gorm:"uniqueIndex;size:128;not null" json:"transaction_hash"`
	BlockNumber     int64  `gorm:"not null" json:"block_number"`

	Status BidStatus `gorm:"size:20;not null;default:pending;index" json:"status"`

	PreviousHighestBid    decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"previous_highest_bid"`
	PreviousHighestWallet *string         `gorm:"size:64" json:"previous_highest_wallet"`

	RefundProcessed bool            `gorm:"default:false" json:"refund_processed"`
	RefundTxHash    *string         `gorm:"size:128" json:"refund_tx_hash"`
	RefundedAt      *time.Time      `json:"refunded_at"`
	RefundAmount    decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"refund_amount"`

	CreatedAt time.Time `gorm:"index:idx_bids_auction_created,priority:2,sort:desc" json:"created_at"`
}

func (Bid) TableName() string {
	return "bids"
}

// Outranks reports whether b should rank above other in the same auction.
// Higher amount wins; ties break to the lower block number, then to the
// earlier placement time.
func (b *Bid) Outranks(other *Bid) bool {
	if c := b.Amount.Cmp(other.Amount); c != 0 {
		return c > 0
	}
	if b.BlockNumber != other.BlockNumber {
		return b.BlockNumber < other.BlockNumber
	}
	return b.CreatedAt.Before(other.CreatedAt)
}

// PlaceBidRequest is the payload for placing a bid. The transaction hash and
// block number come from the external chain submission and are recorded as
// facts.
type PlaceBidRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	TransactionHash string          `json:"transaction_hash" binding:"required"`
	BlockNumber     int64           `json:"block_number" binding:"required"`
}
