// Package engine assembles the recurrence components into one explicitly
// constructed object with a start/stop lifecycle. Nothing here is a process
// singleton: tests can run several isolated engines in parallel.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petaltask/recur/internal/config"
	"github.com/petaltask/recur/internal/domain/pattern"
	"github.com/petaltask/recur/internal/generation"
	"github.com/petaltask/recur/internal/health"
	"github.com/petaltask/recur/internal/scheduler"
	"github.com/petaltask/recur/internal/service"
	"github.com/petaltask/recur/internal/store"
	"github.com/petaltask/recur/internal/task"
)

// Engine wires the queue, runner, generator, scheduler, health recorder,
// and facade over an injected TaskStorage.
type Engine struct {
	storage   store.TaskStorage
	instances *store.InstanceStore
	queue     *task.Queue
	runner    *task.Runner
	generator *generation.Generator
	scheduler *scheduler.Scheduler
	recorder  *health.Recorder
	service   *service.RecurrenceService
	logger    *slog.Logger
}

// New constructs an Engine from the engine configuration and the storage
// collaborator.
func New(cfg config.EngineConfig, storage store.TaskStorage, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	limits := pattern.Limits{
		Threshold:  cfg.ComplexityThreshold,
		DefaultCap: cfg.DefaultCap,
		ReducedCap: cfg.ReducedCap,
	}

	instances := store.NewInstanceStore(logger)
	recorder := health.NewRecorder(logger)
	queue := task.NewQueue(logger)

	generator := generation.NewGenerator(storage, instances, generation.Config{
		Limits:       limits,
		HorizonYears: cfg.HorizonYears,
	}, logger)

	runner := task.NewRunner(queue, generator, task.RunnerConfig{
		BatchSize: cfg.BatchSize,
	}, logger)
	runner.SetResultHandler(func(item task.WorkItem, err error) {
		if err != nil {
			recorder.RecordFailure(item.DefinitionID, err)
			return
		}
		recorder.Clear(item.DefinitionID)
	})

	sched := scheduler.New(storage, queue, scheduler.Config{
		LookAheadDays: cfg.LookAheadDays,
		SweepInterval: time.Duration(cfg.SweepIntervalMinutes) * time.Minute,
	}, logger)

	svc, err := service.NewRecurrenceService(
		storage, instances, queue, recorder, limits, cfg.HorizonYears, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		storage:   storage,
		instances: instances,
		queue:     queue,
		runner:    runner,
		generator: generator,
		scheduler: sched,
		recorder:  recorder,
		service:   svc,
		logger:    logger.With(slog.String("component", "engine")),
	}, nil
}

// Service returns the integration facade collaborators should call.
func (e *Engine) Service() *service.RecurrenceService {
	return e.service
}

// Scheduler returns the sweep driver, exposed for one-shot sweeps.
func (e *Engine) Scheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Start hydrates the instance store from storage, launches the queue runner
// and the periodic scheduler, then runs an initial sweep so existing
// definitions get coverage promptly.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.hydrate(ctx); err != nil {
		return err
	}

	e.runner.Start()
	e.scheduler.StartPeriodic()

	if err := e.scheduler.RunSweep(ctx); err != nil {
		e.logger.Warn("initial sweep reported errors", slog.String("error", err.Error()))
	}

	e.logger.Info("engine started")
	return nil
}

// hydrate loads the persisted instance records into the in-memory store so
// completions and occurrence numbering survive a restart.
func (e *Engine) hydrate(ctx context.Context) error {
	records, err := e.storage.ListAllInstances(ctx)
	if err != nil {
		return fmt.Errorf("failed to load instance records: %w", err)
	}

	for _, inst := range records {
		if err := e.instances.Upsert(inst, true); err != nil {
			return fmt.Errorf("failed to hydrate instance %s: %w", inst.ID, err)
		}
	}

	if len(records) > 0 {
		e.logger.Info("hydrated instance store", slog.Int("instances", len(records)))
	}
	return nil
}

// Stop shuts down the scheduler and the runner. An in-flight batch
// finishes; queued items are dropped with the process.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	e.runner.Stop()
	e.logger.Info("engine stopped")
}

// WaitIdle blocks until the queue is empty and the runner has gone idle, or
// the timeout elapses. Used by one-shot commands that need generation to
// finish before exiting.
func (e *Engine) WaitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	settled := 0
	for time.Now().Before(deadline) {
		if e.queue.Len() == 0 && e.runner.State() == task.RunnerStateIdle {
			// Require two consecutive observations so a just-enqueued
			// item the runner has not woken for yet is not mistaken
			// for idleness.
			settled++
			if settled >= 2 {
				return true
			}
		} else {
			settled = 0
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
