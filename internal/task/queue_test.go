package task

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestQueueEnqueueDequeue(t *testing.T) {
	q := NewQueue(setupTestLogger())
	idA := uuid.New()
	idB := uuid.New()

	q.Enqueue(idA, false)
	q.Enqueue(idB, true)
	assert.Equal(t, 2, q.Len())

	batch := q.DequeueBatch(10)
	require.Len(t, batch, 2)

	// FIFO in enqueue order.
	assert.Equal(t, idA, batch[0].DefinitionID)
	assert.False(t, batch[0].ForceRegenerate)
	assert.Equal(t, idB, batch[1].DefinitionID)
	assert.True(t, batch[1].ForceRegenerate)

	assert.Equal(t, 0, q.Len())
}

func TestQueueCoalescesDuplicates(t *testing.T) {
	q := NewQueue(setupTestLogger())
	id := uuid.New()

	// Two enqueues for the same definition collapse into one item, and the
	// force flag is OR-ed.
	q.Enqueue(id, false)
	q.Enqueue(id, true)
	q.Enqueue(id, false)

	assert.Equal(t, 1, q.Len())

	batch := q.DequeueBatch(10)
	require.Len(t, batch, 1)
	assert.Equal(t, id, batch[0].DefinitionID)
	assert.True(t, batch[0].ForceRegenerate)
}

func TestQueueForceNeverDowngraded(t *testing.T) {
	q := NewQueue(setupTestLogger())
	id := uuid.New()

	q.Enqueue(id, true)
	q.Enqueue(id, false)

	batch := q.DequeueBatch(1)
	require.Len(t, batch, 1)
	assert.True(t, batch[0].ForceRegenerate)
}

func TestQueueDequeuedItemNoLongerCoalesces(t *testing.T) {
	q := NewQueue(setupTestLogger())
	id := uuid.New()

	q.Enqueue(id, false)
	batch := q.DequeueBatch(1)
	require.Len(t, batch, 1)

	// The item counts as started; a new enqueue creates a fresh entry.
	q.Enqueue(id, true)
	assert.Equal(t, 1, q.Len())

	batch = q.DequeueBatch(1)
	require.Len(t, batch, 1)
	assert.True(t, batch[0].ForceRegenerate)
}

func TestQueueDequeueBatchBound(t *testing.T) {
	q := NewQueue(setupTestLogger())
	for i := 0; i < 5; i++ {
		q.Enqueue(uuid.New(), false)
	}

	batch := q.DequeueBatch(3)
	assert.Len(t, batch, 3)
	assert.Equal(t, 2, q.Len())

	assert.Nil(t, q.DequeueBatch(0))
}

func TestQueueWakeSignal(t *testing.T) {
	q := NewQueue(setupTestLogger())

	q.Enqueue(uuid.New(), false)

	select {
	case <-q.Wake():
	case <-time.After(time.Second):
		t.Fatal("expected a wake signal after enqueue")
	}

	// The signal is level-style: several enqueues may share one pending
	// signal, but at least one must be delivered.
	q.Enqueue(uuid.New(), false)
	q.Enqueue(uuid.New(), false)

	select {
	case <-q.Wake():
	case <-time.After(time.Second):
		t.Fatal("expected a wake signal after enqueue")
	}
}
