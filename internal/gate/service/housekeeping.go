package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/store"
)

// HousekeepingService periodically purges consumed nonces once no valid code
// can still carry them. Retention is twice the maximum message age, so the
// purge horizon always trails the validity window with margin.
type HousekeepingService struct {
	store    store.Store
	log      *slog.Logger
	interval time.Duration
	maxAge   time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewHousekeepingService(st store.Store, log *slog.Logger, interval, maxAge time.Duration) *HousekeepingService {
	return &HousekeepingService{
		store:    st,
		log:      log,
		interval: interval,
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
}

// Stop signals the loop to exit and waits for it to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

func (s *HousekeepingService) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	horizon := time.Now().Add(-2 * s.maxAge)

	deleted, err := s.store.Nonces().DeleteExpiredNonces(ctx, horizon)
	if err != nil {
		s.log.Error("nonce purge failed", "error", err)
		return
	}

	if deleted > 0 {
		s.log.Debug("purged expired nonces", "deleted", deleted, "older_than", horizon)
	}
}
