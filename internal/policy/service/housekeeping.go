package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
)

// HousekeepingService periodically removes expired consent state: pending
// consents nobody answered and remembered consents past their lifetime.
type HousekeepingService struct {
	Consents        store.Consents
	PendingConsents store.PendingConsents
	Logger          *slog.Logger
	Interval        time.Duration
	Now             func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour.
func NewHousekeepingService(db store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Consents:        db.Consents(),
		PendingConsents: db.PendingConsents(),
		Logger:          logger,
		Interval:        interval,
		Now:             time.Now,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start runs cleanup now and then every Interval until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes expired records. Each deletion is independent; a failure
// in one does not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	var total int64

	if n, err := s.PendingConsents.DeleteExpiredPendingConsents(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired pending consents", "error", err)
	} else {
		total += n
	}

	if n, err := s.Consents.DeleteExpiredConsents(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired consents", "error", err)
	} else {
		total += n
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", total)
}
