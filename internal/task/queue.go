package task

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// WorkItem is one unit of generation work: refresh the instances of a
// definition, optionally regenerating them all from scratch.
type WorkItem struct {
	DefinitionID    uuid.UUID
	ForceRegenerate bool
}

// Queue is a coalescing FIFO of generation work items. Enqueueing a
// definition that is already queued and not yet started does not add a
// second entry; the new request's force flag is OR-ed into the existing
// item instead.
type Queue struct {
	mu      sync.Mutex
	order   []uuid.UUID
	pending map[uuid.UUID]*WorkItem
	wake    chan struct{}
	logger  *slog.Logger
}

// NewQueue creates an empty Queue.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		pending: make(map[uuid.UUID]*WorkItem),
		wake:    make(chan struct{}, 1),
		logger:  logger.With(slog.String("component", "generation_queue")),
	}
}

// Enqueue appends a work item for the definition. Non-blocking and
// fire-and-forget: the caller never learns the outcome of generation
// through this path.
func (q *Queue) Enqueue(definitionID uuid.UUID, forceRegenerate bool) {
	q.mu.Lock()
	if item, ok := q.pending[definitionID]; ok {
		item.ForceRegenerate = item.ForceRegenerate || forceRegenerate
		q.mu.Unlock()
		q.logger.Debug("coalesced duplicate work item",
			slog.String("definition_id", definitionID.String()),
			slog.Bool("force_regenerate", forceRegenerate))
		return
	}

	q.pending[definitionID] = &WorkItem{
		DefinitionID:    definitionID,
		ForceRegenerate: forceRegenerate,
	}
	q.order = append(q.order, definitionID)
	queued := len(q.order)
	q.mu.Unlock()

	q.logger.Debug("work item enqueued",
		slog.String("definition_id", definitionID.String()),
		slog.Bool("force_regenerate", forceRegenerate),
		slog.Int("queue_len", queued))

	// Nudge the runner; a pending wake already covers us.
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// DequeueBatch removes and returns up to max items in enqueue order. Once an
// item is dequeued it counts as started: a later Enqueue for the same
// definition creates a fresh item rather than coalescing.
func (q *Queue) DequeueBatch(max int) []WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	if max > len(q.order) {
		max = len(q.order)
	}
	if max == 0 {
		return nil
	}

	batch := make([]WorkItem, 0, max)
	for _, id := range q.order[:max] {
		batch = append(batch, *q.pending[id])
		delete(q.pending, id)
	}
	q.order = q.order[max:]

	return batch
}

// Len returns the number of queued (not yet started) work items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Wake returns a channel that receives a signal after items are enqueued.
// The signal is level-style: one pending signal may cover several enqueues.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}
