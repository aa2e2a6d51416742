// Package jobs holds the background sweep, the sole authority for
// time-triggered auction transitions.
package jobs

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
	"auction-ledger/internal/services"
)

const sweepBatchSize = 100

// Sweep periodically promotes pending auctions whose start time has passed,
// ends active auctions whose end time has passed, and retries settlement for
// anything stuck in "ended". Every transition attempt is idempotent, so
// running multiple sweeps concurrently is safe.
type Sweep struct {
	repo       *repository.Repository
	auctions   *services.AuctionService
	settlement *services.SettlementService
	interval   time.Duration
	staleAfter time.Duration
	stopChan   chan struct{}
}

func NewSweep(
	repo *repository.Repository,
	auctions *services.AuctionService,
	settlement *services.SettlementService,
	interval time.Duration,
	staleAfter time.Duration,
) *Sweep {
	return &Sweep{
		repo:       repo,
		auctions:   auctions,
		settlement: settlement,
		interval:   interval,
		staleAfter: staleAfter,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine. Returns
// immediately; the loop runs until Stop is called.
func (s *Sweep) Start() {
	log.Infof("[Sweep] Starting auction sweep (interval: %v)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Run(context.Background())
			case <-s.stopChan:
				log.Info("[Sweep] Stopping auction sweep")
				return
			}
		}
	}()
}

// Stop stops the sweep loop
func (s *Sweep) Stop() {
	close(s.stopChan)
}

// Run executes one sweep pass. Exposed so tests and operators can trigger a
// pass directly.
func (s *Sweep) Run(ctx context.Context) {
	now := time.Now()
	s.activateDue(ctx, now)
	s.endDue(ctx, now)
	s.retrySettlements(ctx)
	s.reportStale(ctx, now)
}

func (s *Sweep) activateDue(ctx context.Context, now time.Time) {
	due, err := s.repo.ListDueForActivation(ctx, now, sweepBatchSize)
	if err != nil {
		log.Errorf("[Sweep] Failed to list auctions due for activation: %v", err)
		return
	}

	for _, auction := range due {
		if err := s.auctions.Activate(ctx, auction.ID, false); err != nil {
			log.Errorf("[Sweep] Failed to activate auction %s: %v", auction.ID, err)
			continue
		}
		log.Infof("[Sweep] Auction %s activated", auction.ID)
	}
}

func (s *Sweep) endDue(ctx context.Context, now time.Time) {
	due, err := s.repo.ListDueForEnding(ctx, now, sweepBatchSize)
	if err != nil {
		log.Errorf("[Sweep] Failed to list auctions due for ending: %v", err)
		return
	}

	for _, auction := range due {
		if err := s.auctions.End(ctx, auction.ID, models.EndedByAutomatic, nil); err != nil {
			log.Errorf("[Sweep] Failed to end auction %s: %v", auction.ID, err)
			continue
		}
		log.Infof("[Sweep] Auction %s ended automatically", auction.ID)
	}
}

func (s *Sweep) retrySettlements(ctx context.Context) {
	unsettled, err := s.repo.ListUnsettled(ctx, sweepBatchSize)
	if err != nil {
		log.Errorf("[Sweep] Failed to list unsettled auctions: %v", err)
		return
	}

	for _, auction := range unsettled {
		err := s.settlement.Settle(ctx, auction.ID)
		if errors.Is(err, auctionerrors.ErrSettlementInProgress) {
			continue // another worker has it
		}
		if err != nil {
			log.Errorf("[Sweep] Settlement failed for auction %s: %v", auction.ID, err)
			continue
		}
		log.Infof("[Sweep] Auction %s settled", auction.ID)
	}
}

// reportStale surfaces auctions stuck in "ended" past the configured
// threshold. These indicate settlement is persistently failing and need an
// operator to look.
func (s *Sweep) reportStale(ctx context.Context, now time.Time) {
	stale, err := s.repo.ListStaleEnded(ctx, now.Add(-s.staleAfter))
	if err != nil {
		log.Errorf("[Sweep] Failed to list stale ended auctions: %v", err)
		return
	}

	if len(stale) > 0 {
		log.Warnf("[Sweep] ALERT: %d auctions stuck in ended without settlement", len(stale))
	}
}
