// Package auctionerrors defines the error taxonomy surfaced by the auction
// core. Handlers map these to HTTP statuses; everything else wraps them with
// context via fmt.Errorf and %w.
package auctionerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"auction-ledger/internal/models"
)

var (
	ErrInvalidTransition      = errors.New("invalid auction state transition")
	ErrAuctionNotActive       = errors.New("auction is not active")
	ErrSelfBidForbidden       = errors.New("creator cannot bid on own auction")
	ErrBidderNotVerified      = errors.New("bidder has not completed KYC verification")
	ErrBidTooLow              = errors.New("bid amount too low")
	ErrCancellationNotAllowed = errors.New("auction cannot be cancelled")
	ErrConcurrentModification = errors.New("auction was modified concurrently")
	ErrRetryExceeded          = errors.New("bid commit retries exhausted")
	ErrSettlementInProgress   = errors.New("settlement already in progress")
	ErrNotAuthorized          = errors.New("not authorized for this action")
)

// InvalidTransitionError names the current and requested state of an illegal
// transition attempt.
type InvalidTransitionError struct {
	From models.AuctionStatus
	To   models.AuctionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid auction state transition: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// BidTooLowError carries the minimum acceptable amount so callers can tell
// the bidder what to bid instead.
type BidTooLowError struct {
	Amount  decimal.Decimal
	Minimum decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount %s too low, minimum acceptable bid is %s", e.Amount, e.Minimum)
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}
