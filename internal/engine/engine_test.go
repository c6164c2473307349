package engine

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petaltask/recur/internal/config"
	"github.com/petaltask/recur/internal/domain"
	"github.com/petaltask/recur/internal/store"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		BatchSize:            4,
		DefaultCap:           50,
		ComplexityThreshold:  7,
		ReducedCap:           22,
		LookAheadDays:        30,
		SweepIntervalMinutes: 60,
		HorizonYears:         5,
	}
}

func dailyDefinition(start time.Time) *domain.RecurringDefinition {
	return &domain.RecurringDefinition{
		ID:    uuid.New(),
		Title: "end to end",
		Spec: domain.RecurrenceSpec{
			Pattern:   domain.PatternDaily,
			Interval:  1,
			StartDate: start,
		},
	}
}

func TestEngineGeneratesAfterCreate(t *testing.T) {
	ctx := context.Background()
	eng, err := New(testEngineConfig(), store.NewMemoryStorage(), setupTestLogger())
	require.NoError(t, err)

	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	def := dailyDefinition(domain.DateOnly(time.Now()))
	require.NoError(t, eng.Service().Create(ctx, def))

	require.True(t, eng.WaitIdle(10*time.Second), "generation should drain quickly")

	// Origin plus a full default cap of generated instances.
	instances := eng.Service().ListInstances(def.ID)
	assert.Len(t, instances, 51)
	assert.Equal(t, 0, instances[0].OccurrenceNumber)

	report, err := eng.Service().HealthReport(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.LowCoverage)
}

func TestEngineInitialSweepCoversExistingDefinitions(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()

	// A definition that predates this process, e.g. written by an earlier
	// run, gets coverage from the startup sweep alone.
	def := dailyDefinition(domain.DateOnly(time.Now()))
	def.CreatedAt = time.Now().UTC()
	def.UpdatedAt = def.CreatedAt
	require.NoError(t, storage.SaveDefinition(ctx, def))

	eng, err := New(testEngineConfig(), storage, setupTestLogger())
	require.NoError(t, err)

	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	require.True(t, eng.WaitIdle(10*time.Second))
	assert.Equal(t, 50, len(eng.Service().ListInstances(def.ID)))
}

func TestEnginePausedDefinitionStaysEmpty(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()

	def := dailyDefinition(domain.DateOnly(time.Now()))
	def.IsPaused = true
	require.NoError(t, storage.SaveDefinition(ctx, def))

	eng, err := New(testEngineConfig(), storage, setupTestLogger())
	require.NoError(t, err)

	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	require.True(t, eng.WaitIdle(10*time.Second))
	require.NoError(t, eng.Scheduler().RunSweep(ctx))
	require.True(t, eng.WaitIdle(10*time.Second))

	assert.Empty(t, eng.Service().ListInstances(def.ID))
}

func TestEngineHydratesInstancesAcrossRestart(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()

	first, err := New(testEngineConfig(), storage, setupTestLogger())
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))

	def := dailyDefinition(domain.DateOnly(time.Now()))
	require.NoError(t, first.Service().Create(ctx, def))
	require.True(t, first.WaitIdle(10*time.Second))

	instances := first.Service().ListInstances(def.ID)
	require.Len(t, instances, 51)
	completedID := instances[1].ID
	require.NoError(t, first.Service().CompleteInstance(ctx, completedID))
	first.Stop()

	// A fresh engine over the same storage sees everything the first one
	// persisted, completion status included.
	second, err := New(testEngineConfig(), storage, setupTestLogger())
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))
	defer second.Stop()
	require.True(t, second.WaitIdle(10*time.Second))

	restored := second.Service().ListInstances(def.ID)
	require.Len(t, restored, 51)
	assert.Equal(t, 0, restored[0].OccurrenceNumber)
	assert.False(t, restored[0].IsGenerated)

	var completed *domain.RecurringInstance
	for _, inst := range restored {
		if inst.ID == completedID {
			completed = inst
		}
	}
	require.NotNil(t, completed)
	assert.True(t, completed.IsCompleted())

	// Instances created before the restart can still be completed.
	require.NoError(t, second.Service().CompleteInstance(ctx, restored[2].ID))
}

func TestEngineFailureLandsInHealthReport(t *testing.T) {
	ctx := context.Background()
	eng, err := New(testEngineConfig(), store.NewMemoryStorage(), setupTestLogger())
	require.NoError(t, err)

	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	// Enqueue work for a definition that does not exist; generation fails
	// and the failure must surface in the report.
	ghost := uuid.New()
	eng.Service().RegenerateAll(ghost)

	require.True(t, eng.WaitIdle(10*time.Second))

	report, err := eng.Service().HealthReport(ctx)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, ghost, report.Failures[0].DefinitionID)
	assert.Equal(t, 1, report.Failures[0].Count)
}
