package services

import (
	"fmt"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
)

// legalTransitions is the complete auction lifecycle. Anything not listed
// fails with an InvalidTransitionError naming both states; transitions only
// move forward.
var legalTransitions = map[models.AuctionStatus][]models.AuctionStatus{
	models.AuctionStatusPending: {
		models.AuctionStatusActive,
		models.AuctionStatusCancelled,
	},
	models.AuctionStatusActive: {
		models.AuctionStatusEnded,
		models.AuctionStatusCancelled,
	},
	models.AuctionStatusEnded: {
		models.AuctionStatusCompleted,
	},
	models.AuctionStatusCancelled: {},
	models.AuctionStatusCompleted: {},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to models.AuctionStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GuardTransition returns the typed error for an illegal step, nil otherwise.
func GuardTransition(from, to models.AuctionStatus) error {
	if !CanTransition(from, to) {
		return &auctionerrors.InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// AuthorizeLifecycleAction is the single authorization gate for
// state-changing auction operations. Role checks live here and nowhere else.
func AuthorizeLifecycleAction(actor models.Actor, auction *models.Auction, to models.AuctionStatus) error {
	if actor.IsAdmin() {
		return nil
	}

	switch to {
	case models.AuctionStatusActive:
		// Explicit activation is admin-only; time-based activation goes
		// through the sweep, not through this gate.
		return fmt.Errorf("%w: only admins may activate auctions explicitly", auctionerrors.ErrNotAuthorized)
	case models.AuctionStatusEnded, models.AuctionStatusCancelled:
		if auction.CreatorID == actor.UserID {
			return nil
		}
		return fmt.Errorf("%w: only the creator or an admin may close this auction", auctionerrors.ErrNotAuthorized)
	default:
		return fmt.Errorf("%w: transition to %s is not caller-triggered", auctionerrors.ErrNotAuthorized, to)
	}
}
