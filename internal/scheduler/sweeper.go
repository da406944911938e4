// Package scheduler runs the periodic expiry sweep. The sweeper is an
// explicit task with injected dependencies and a start/stop lifecycle
// rather than a process-wide side effect, so it can be tested without a
// live timer.
package scheduler

import (
	"context"
	"time"

	"github.com/serroba/shortlink-go/internal/shortlink"
	"go.uber.org/zap"
)

// DefaultSweepInterval is the cadence of the expiry sweep.
const DefaultSweepInterval = 24 * time.Hour

// LifecycleService is the slice of the lifecycle service the sweeper uses.
type LifecycleService interface {
	CleanupExpired(ctx context.Context) (int64, error)
	SystemStats(ctx context.Context) (shortlink.Stats, error)
}

// Sweeper triggers the bulk expiry sweep on a fixed cadence and logs
// system stats on a second, optional cadence. A failed run is logged
// and the next tick proceeds normally; overlapping runs would be
// benign anyway since the sweep is idempotent.
type Sweeper struct {
	svc           LifecycleService
	sweepInterval time.Duration
	statsInterval time.Duration
	logger        *zap.Logger
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewSweeper creates a sweeper. A sweepInterval of zero falls back to
// DefaultSweepInterval; a statsInterval of zero disables stats logging.
func NewSweeper(svc LifecycleService, sweepInterval, statsInterval time.Duration, logger *zap.Logger) *Sweeper {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	return &Sweeper{
		svc:           svc,
		sweepInterval: sweepInterval,
		statsInterval: statsInterval,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.run(ctx)

	s.logger.Info("cleanup scheduler started",
		zap.Duration("sweep_interval", s.sweepInterval),
	)

	return nil
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	sweep := time.NewTicker(s.sweepInterval)
	defer sweep.Stop()

	var stats <-chan time.Time

	if s.statsInterval > 0 {
		ticker := time.NewTicker(s.statsInterval)
		defer ticker.Stop()
		stats = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			s.sweep(ctx)
		case <-stats:
			s.logStats(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.svc.CleanupExpired(ctx)
	if err != nil {
		// Retried on the next tick, never immediately.
		s.logger.Error("scheduled cleanup failed", zap.Error(err))

		return
	}

	s.logger.Info("scheduled cleanup completed", zap.Int64("deactivated", count))
}

func (s *Sweeper) logStats(ctx context.Context) {
	stats, err := s.svc.SystemStats(ctx)
	if err != nil {
		s.logger.Error("stats collection failed", zap.Error(err))

		return
	}

	s.logger.Info("system stats",
		zap.Int64("total_links", stats.TotalLinks),
		zap.Int64("active_links", stats.ActiveLinks),
		zap.Int64("total_clicks", stats.TotalClicks),
		zap.Int64("created_today", stats.CreatedToday),
	)
}

// RunNow triggers a sweep on demand, outside the scheduled cadence.
func (s *Sweeper) RunNow(ctx context.Context) (int64, error) {
	count, err := s.svc.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("manual cleanup failed", zap.Error(err))

		return 0, err
	}

	s.logger.Info("manual cleanup completed", zap.Int64("deactivated", count))

	return count, nil
}

// Shutdown stops the sweep loop and waits for it to exit.
func (s *Sweeper) Shutdown() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done

	return nil
}
