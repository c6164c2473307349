package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RunnerState reports whether the drain loop is working through the queue.
type RunnerState string

// Runner states.
const (
	RunnerStateIdle     RunnerState = "idle"
	RunnerStateDraining RunnerState = "draining"
)

// Processor executes a single work item. Implementations must treat every
// failure as local to the item; the runner logs and continues regardless.
type Processor interface {
	Process(ctx context.Context, item WorkItem) error
}

// RunnerConfig holds configuration for the queue runner.
type RunnerConfig struct {
	// BatchSize is the number of items pulled per batch.
	BatchSize int

	// BatchPause is the delay between batches, keeping a long drain from
	// starving other work.
	BatchPause time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		BatchSize:  8,
		BatchPause: 100 * time.Millisecond,
	}
}

// Runner drains the queue with a single background goroutine. Items within
// a batch are processed concurrently; batches run strictly sequentially, so
// at most one generation pass is in flight per process.
type Runner struct {
	queue     *Queue
	processor Processor
	config    RunnerConfig

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	mu    sync.Mutex
	state RunnerState

	logger *slog.Logger

	// resultHandler, if set, observes the outcome of every processed item.
	resultHandler func(item WorkItem, err error)
}

// NewRunner creates a Runner for the queue. Invalid config values fall back
// to defaults.
func NewRunner(queue *Queue, processor Processor, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultRunnerConfig().BatchSize
	}
	if config.BatchPause <= 0 {
		config.BatchPause = DefaultRunnerConfig().BatchPause
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      queue,
		processor:  processor,
		config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
		state:      RunnerStateIdle,
		logger:     logger.With(slog.String("component", "generation_runner")),
	}
}

// SetResultHandler installs a hook observing every item's outcome. Must be
// called before Start.
func (r *Runner) SetResultHandler(handler func(item WorkItem, err error)) {
	r.resultHandler = handler
}

// State returns the current drain state.
func (r *Runner) State() RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start launches the drain loop.
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Stop cancels the drain loop and waits for it to exit. An in-flight batch
// finishes; queued items remain queued.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

func (r *Runner) loop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.queue.Wake():
			r.drain()
		}
	}
}

// drain pulls batches until the queue is empty. Each batch's items execute
// concurrently and independently; a failing item never aborts its batch or
// the drain.
func (r *Runner) drain() {
	r.setState(RunnerStateDraining)
	defer r.setState(RunnerStateIdle)

	for {
		batch := r.queue.DequeueBatch(r.config.BatchSize)
		if len(batch) == 0 {
			return
		}

		r.logger.Debug("processing batch", slog.Int("batch_size", len(batch)))

		var wg sync.WaitGroup
		for _, item := range batch {
			wg.Add(1)
			go func(it WorkItem) {
				defer wg.Done()
				r.processItem(it)
			}(item)
		}
		wg.Wait()

		if r.queue.Len() == 0 {
			return
		}

		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.config.BatchPause):
		}
	}
}

func (r *Runner) processItem(item WorkItem) {
	err := r.processor.Process(r.ctx, item)
	if err != nil {
		r.logger.Error("work item processing failed",
			slog.String("definition_id", item.DefinitionID.String()),
			slog.Bool("force_regenerate", item.ForceRegenerate),
			slog.String("error", err.Error()))
	}

	if r.resultHandler != nil {
		r.resultHandler(item, err)
	}
}

func (r *Runner) setState(state RunnerState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}
