// Package scheduler decides which definitions need generation attention and
// enqueues them. It never generates anything itself: the queue decides when
// and how fast to act, which keeps sweep fan-out decoupled from how many
// instances can safely be created at once.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/petaltask/recur/internal/store"
)

// Enqueuer is the queue surface the scheduler drives. Coalescing in the
// queue deduplicates the overlap between the active, overdue, and upcoming
// passes.
type Enqueuer interface {
	Enqueue(definitionID uuid.UUID, forceRegenerate bool)
}

// Config holds scheduler configuration.
type Config struct {
	// LookAheadDays is the upcoming-instance window swept for top-ups.
	LookAheadDays int

	// SweepInterval is the period between automatic sweeps.
	SweepInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		LookAheadDays: 30,
		SweepInterval: 15 * time.Minute,
	}
}

// Scheduler periodically enqueues generation work for active definitions
// and for the owners of overdue and upcoming instances.
type Scheduler struct {
	storage store.TaskStorage
	queue   Enqueuer
	config  Config

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	logger *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates a Scheduler. Invalid config values fall back to defaults.
func New(storage store.TaskStorage, queue Enqueuer, config Config, logger *slog.Logger) *Scheduler {
	if config.LookAheadDays <= 0 {
		config.LookAheadDays = DefaultConfig().LookAheadDays
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultConfig().SweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		storage:    storage,
		queue:      queue,
		config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "scheduler")),
		now:        time.Now,
	}
}

// SetClock overrides the scheduler's notion of now. Intended for tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// RunSweep enqueues work for every active definition, for the owners of
// overdue instances, and for the owners of instances inside the look-ahead
// window. A failing storage query is logged and the remaining passes still
// run; the first error is returned.
func (s *Scheduler) RunSweep(ctx context.Context) error {
	now := s.now()
	var firstErr error

	definitions, err := s.storage.ListActiveDefinitions(ctx)
	if err != nil {
		s.logger.Error("failed to list active definitions", slog.String("error", err.Error()))
		firstErr = err
	} else {
		for _, def := range definitions {
			s.queue.Enqueue(def.ID, false)
		}
		s.logger.Debug("swept active definitions", slog.Int("count", len(definitions)))
	}

	overdue, err := s.storage.ListOverdueInstances(ctx, now)
	if err != nil {
		s.logger.Error("failed to list overdue instances", slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	} else {
		for _, inst := range overdue {
			s.queue.Enqueue(inst.DefinitionID, false)
		}
		s.logger.Debug("swept overdue instances", slog.Int("count", len(overdue)))
	}

	upcoming, err := s.storage.ListUpcomingInstances(ctx, now, s.config.LookAheadDays)
	if err != nil {
		s.logger.Error("failed to list upcoming instances", slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	} else {
		for _, inst := range upcoming {
			s.queue.Enqueue(inst.DefinitionID, false)
		}
		s.logger.Debug("swept upcoming instances",
			slog.Int("count", len(upcoming)),
			slog.Int("window_days", s.config.LookAheadDays))
	}

	return firstErr
}

// StartPeriodic installs a recurring timer that runs a sweep every
// SweepInterval. Stop cancels future sweeps.
func (s *Scheduler) StartPeriodic() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.config.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunSweep(s.ctx); err != nil {
					s.logger.Error("periodic sweep failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Stop cancels future sweeps. It does not cancel generation work already
// handed to the queue.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}
