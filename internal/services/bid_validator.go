package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
)

// BidValidator applies the bidding rules against an auction snapshot. It has
// no side effects; the ledger engine runs it once as a fast pre-check outside
// the lock and again inside the commit, where its answer is authoritative.
type BidValidator struct {
	minIncrement decimal.Decimal
}

func NewBidValidator(minIncrement decimal.Decimal) *BidValidator {
	return &BidValidator{minIncrement: minIncrement}
}

// ValidatedBid is the accept output: the snapshot of what the new bid
// displaces, computed before the commit mutates anything.
type ValidatedBid struct {
	PreviousHighestBid    decimal.Decimal
	PreviousHighestWallet *string
	// ReserveMet is carried to settlement; a bid below a set reserve is still
	// accepted, the auction just stays unreserved-met.
	ReserveMet bool
}

// MinimumAcceptable returns the smallest amount a new bid may carry: the
// starting price for a fresh auction, the current highest plus the configured
// increment once bidding has started.
func (v *BidValidator) MinimumAcceptable(auction *models.Auction) decimal.Decimal {
	if auction.TotalBids == 0 {
		return auction.StartingPrice
	}
	return auction.CurrentHighestBid.Add(v.minIncrement)
}

// Validate checks a prospective bid, in rule order. The returned error is one
// of the taxonomy errors; callers surface it to the bidder as-is.
func (v *BidValidator) Validate(
	auction *models.Auction,
	bidder *models.User,
	amount decimal.Decimal,
	now time.Time,
) (*ValidatedBid, error) {
	if !auction.IsLive(now) {
		return nil, fmt.Errorf("%w: status is %s", auctionerrors.ErrAuctionNotActive, auction.Status)
	}

	if bidder.ID == auction.CreatorID {
		return nil, auctionerrors.ErrSelfBidForbidden
	}

	if bidder.Status == models.UserStatusBanned {
		return nil, fmt.Errorf("%w: account is banned", auctionerrors.ErrNotAuthorized)
	}

	if !bidder.IsKYCVerified {
		return nil, auctionerrors.ErrBidderNotVerified
	}

	if minimum := v.MinimumAcceptable(auction); amount.LessThan(minimum) {
		return nil, &auctionerrors.BidTooLowError{Amount: amount, Minimum: minimum}
	}

	validated := &ValidatedBid{
		PreviousHighestBid:    auction.CurrentHighestBid,
		PreviousHighestWallet: auction.HighestBidderWallet,
		ReserveMet:            auction.ReserveMet,
	}

	if auction.ReservePrice.IsPositive() && amount.GreaterThanOrEqual(auction.ReservePrice) {
		validated.ReserveMet = true
	}
	if !auction.ReservePrice.IsPositive() {
		validated.ReserveMet = true
	}

	return validated, nil
}
