// Package health collects generation failures and surfaces them, together
// with instance-coverage warnings, as a recommendations report. Generation
// errors never reach the caller that enqueued the work; this report is the
// only place they become visible.
package health

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FailureRecord summarizes the generation failures observed for one
// definition.
type FailureRecord struct {
	DefinitionID uuid.UUID `json:"definition_id"`
	Count        int       `json:"count"`
	LastError    string    `json:"last_error"`
	LastFailedAt time.Time `json:"last_failed_at"`
}

// CoverageWarning flags a definition with fewer future instances than
// expected, typically the downstream symptom of repeated generation
// failures.
type CoverageWarning struct {
	DefinitionID    uuid.UUID `json:"definition_id"`
	FutureInstances int       `json:"future_instances"`
	Expected        int       `json:"expected"`
}

// Report is the health/recommendations surface exposed to collaborators.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Failures    []FailureRecord   `json:"failures"`
	LowCoverage []CoverageWarning `json:"low_coverage"`
}

// Recorder accumulates per-definition failure records. A successful
// generation pass clears the definition's record.
type Recorder struct {
	mu       sync.RWMutex
	failures map[uuid.UUID]*FailureRecord
	logger   *slog.Logger
}

// NewRecorder creates an empty Recorder.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		failures: make(map[uuid.UUID]*FailureRecord),
		logger:   logger.With(slog.String("component", "health_recorder")),
	}
}

// RecordFailure counts a generation failure for the definition.
func (r *Recorder) RecordFailure(definitionID uuid.UUID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.failures[definitionID]
	if !ok {
		record = &FailureRecord{DefinitionID: definitionID}
		r.failures[definitionID] = record
	}
	record.Count++
	record.LastError = err.Error()
	record.LastFailedAt = time.Now().UTC()

	r.logger.Debug("recorded generation failure",
		slog.String("definition_id", definitionID.String()),
		slog.Int("failure_count", record.Count))
}

// Clear removes the definition's failure record, typically after a
// successful pass.
func (r *Recorder) Clear(definitionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failures, definitionID)
}

// Snapshot returns a copy of all failure records, ordered by definition ID
// for stable output.
func (r *Recorder) Snapshot() []FailureRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FailureRecord, 0, len(r.failures))
	for _, record := range r.failures {
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DefinitionID.String() < out[j].DefinitionID.String()
	})
	return out
}
