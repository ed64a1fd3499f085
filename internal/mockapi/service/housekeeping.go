package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
)

// HousekeepingService periodically drops dead refresh tokens and signups that
// were never verified.
type HousekeepingService struct {
	Store    *store.Memory
	Logger   *slog.Logger
	Interval time.Duration
	// PendingTTL is how long an unverified signup is kept.
	PendingTTL time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults interval to 1h and pendingTTL to 24h.
func NewHousekeepingService(st *store.Memory, logger *slog.Logger, interval, pendingTTL time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if pendingTTL <= 0 {
		pendingTTL = 24 * time.Hour
	}

	return &HousekeepingService{
		Store:      st,
		Logger:     logger,
		Interval:   interval,
		PendingTTL: pendingTTL,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs the worker in the background until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(time.Now())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs one pass as of now.
func (s *HousekeepingService) Cleanup(now time.Time) {
	ctx := context.Background()

	tokens := s.Store.DeleteExpiredRefreshTokens(ctx, now)
	pending := s.Store.DeleteUnverifiedBefore(ctx, now.Add(-s.PendingTTL))

	s.Logger.Info("housekeeping cleanup completed",
		"refresh_tokens_deleted", tokens,
		"pending_signups_deleted", pending,
	)
}
