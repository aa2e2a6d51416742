package services

import (
	"sync"

	"github.com/google/uuid"
)

// AuctionLocks hands out one mutex per auction so bid commits, cancellations
// and settlement for the same auction are serialized while different auctions
// proceed in parallel.
type AuctionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewAuctionLocks() *AuctionLocks {
	return &AuctionLocks{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Get returns the mutex for an auction, creating it on first use.
func (l *AuctionLocks) Get(auctionID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[auctionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[auctionID] = m
	}
	return m
}
