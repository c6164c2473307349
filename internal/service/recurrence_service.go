// Package service provides the integration facade over the recurrence
// engine. It is the only surface external collaborators call: every create,
// update, delete, complete, pause, and resume flow goes through it so a
// definition and its instances stay consistent.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/petaltask/recur/internal/domain"
	"github.com/petaltask/recur/internal/domain/pattern"
	"github.com/petaltask/recur/internal/generation"
	"github.com/petaltask/recur/internal/health"
	"github.com/petaltask/recur/internal/store"
)

// ServiceError wraps an unexpected failure in a facade operation.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recurrence service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("recurrence service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Enqueuer is the generation queue surface the facade drives.
type Enqueuer interface {
	Enqueue(definitionID uuid.UUID, forceRegenerate bool)
}

// DefinitionUpdate carries the mutable fields of an update call. Nil fields
// are left unchanged. A spec update triggers a full regeneration.
type DefinitionUpdate struct {
	Title *string
	Spec  *domain.RecurrenceSpec
}

// Stats summarizes a definition's instances for display.
type Stats struct {
	Total     int        `json:"total"`
	Completed int        `json:"completed"`
	Pending   int        `json:"pending"`
	NextDate  *time.Time `json:"next_date,omitempty"`
}

// RecurrenceService orchestrates the engine's cross-cutting flows.
type RecurrenceService struct {
	storage   store.TaskStorage
	instances *store.InstanceStore
	queue     Enqueuer
	recorder  *health.Recorder

	limits       pattern.Limits
	horizonYears int

	logger *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewRecurrenceService creates the facade. It returns an error if any of
// the required dependencies are nil.
func NewRecurrenceService(
	storage store.TaskStorage,
	instances *store.InstanceStore,
	queue Enqueuer,
	recorder *health.Recorder,
	limits pattern.Limits,
	horizonYears int,
	logger *slog.Logger,
) (*RecurrenceService, error) {
	if storage == nil {
		return nil, domain.NewValidationError("storage", "cannot be nil", domain.ErrValidation)
	}
	if instances == nil {
		return nil, domain.NewValidationError("instances", "cannot be nil", domain.ErrValidation)
	}
	if queue == nil {
		return nil, domain.NewValidationError("queue", "cannot be nil", domain.ErrValidation)
	}
	if horizonYears <= 0 {
		horizonYears = generation.DefaultConfig().HorizonYears
	}
	if limits.DefaultCap <= 0 {
		limits = pattern.DefaultLimits()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RecurrenceService{
		storage:      storage,
		instances:    instances,
		queue:        queue,
		recorder:     recorder,
		limits:       limits,
		horizonYears: horizonYears,
		logger:       logger.With(slog.String("component", "recurrence_service")),
		now:          time.Now,
	}, nil
}

// SetClock overrides the service's notion of now. Intended for tests.
func (s *RecurrenceService) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates the definition, persists it, seeds its origin instance,
// and enqueues initial generation. Validation errors are returned
// synchronously; generation failures never are.
func (s *RecurrenceService) Create(ctx context.Context, def *domain.RecurringDefinition) error {
	if err := def.Validate(s.now()); err != nil {
		return err
	}

	if err := s.storage.SaveDefinition(ctx, def); err != nil {
		return NewServiceError("create", "failed to save definition", err)
	}

	origin := domain.NewOriginInstance(def.ID, def.Spec.StartDate)
	if err := s.instances.Upsert(origin, true); err != nil {
		return NewServiceError("create", "failed to seed origin instance", err)
	}
	if err := s.storage.SaveInstanceRecord(ctx, origin); err != nil {
		return NewServiceError("create", "failed to persist origin instance", err)
	}

	s.queue.Enqueue(def.ID, false)

	s.logger.Info("created recurring definition",
		slog.String("definition_id", def.ID.String()),
		slog.String("pattern", string(def.Spec.Pattern)))
	return nil
}

// Update applies the given changes. A spec change is validated first and
// then triggers a forced regeneration.
func (s *RecurrenceService) Update(ctx context.Context, id uuid.UUID, update DefinitionUpdate) error {
	def, err := s.storage.LoadDefinition(ctx, id)
	if err != nil {
		return err
	}

	if update.Title != nil {
		def.Title = *update.Title
	}

	specChanged := false
	if update.Spec != nil {
		if err := update.Spec.Validate(s.now()); err != nil {
			return err
		}
		def.Spec = *update.Spec
		specChanged = true
	}

	def.UpdatedAt = s.now().UTC()
	if err := s.storage.SaveDefinition(ctx, def); err != nil {
		return NewServiceError("update", "failed to save definition", err)
	}

	if specChanged {
		s.queue.Enqueue(id, true)
	}

	return nil
}

// Delete destroys the definition together with all of its instances.
func (s *RecurrenceService) Delete(ctx context.Context, id uuid.UUID) error {
	removed := s.instances.DeleteAll(id)
	if len(removed) > 0 {
		if err := s.storage.DeleteInstanceRecords(ctx, removed); err != nil {
			return NewServiceError("delete", "failed to delete instance records", err)
		}
	}

	if err := s.storage.DeleteDefinition(ctx, id); err != nil {
		return err
	}

	s.logger.Info("deleted recurring definition",
		slog.String("definition_id", id.String()),
		slog.Int("instances_removed", len(removed)))
	return nil
}

// CompleteInstance marks an instance completed and, when the owning
// definition still has generation budget, enqueues a top-up.
func (s *RecurrenceService) CompleteInstance(ctx context.Context, instanceID uuid.UUID) error {
	inst, err := s.instances.FindByID(instanceID)
	if err != nil {
		return err
	}

	// The stored instance is shared with concurrent readers, so it is never
	// mutated in place: a completed copy replaces it through Upsert, and only
	// after the record has been persisted.
	completed := *inst
	completed.Complete(s.now())
	if err := s.storage.SaveInstanceRecord(ctx, &completed); err != nil {
		return NewServiceError("complete_instance", "failed to persist completion", err)
	}
	if err := s.instances.Upsert(&completed, true); err != nil {
		return NewServiceError("complete_instance", "failed to update instance", err)
	}

	def, err := s.storage.LoadDefinition(ctx, completed.DefinitionID)
	if err != nil {
		return NewServiceError("complete_instance", "failed to load owning definition", err)
	}

	if s.hasRemainingBudget(def) {
		s.queue.Enqueue(def.ID, false)
	}

	return nil
}

// Pause stops new instance generation for the definition.
func (s *RecurrenceService) Pause(ctx context.Context, id uuid.UUID) error {
	def, err := s.storage.LoadDefinition(ctx, id)
	if err != nil {
		return err
	}

	def.Pause()
	if err := s.storage.SaveDefinition(ctx, def); err != nil {
		return NewServiceError("pause", "failed to save definition", err)
	}
	return nil
}

// Resume re-enables generation and enqueues a top-up.
func (s *RecurrenceService) Resume(ctx context.Context, id uuid.UUID) error {
	def, err := s.storage.LoadDefinition(ctx, id)
	if err != nil {
		return err
	}

	def.Resume()
	if err := s.storage.SaveDefinition(ctx, def); err != nil {
		return NewServiceError("resume", "failed to save definition", err)
	}

	s.queue.Enqueue(id, false)
	return nil
}

// RegenerateAll enqueues a forced regeneration of the definition.
func (s *RecurrenceService) RegenerateAll(id uuid.UUID) {
	s.queue.Enqueue(id, true)
}

// ListInstances returns the definition's instances ordered by occurrence
// date.
func (s *RecurrenceService) ListInstances(definitionID uuid.UUID) []*domain.RecurringInstance {
	return s.instances.List(definitionID)
}

// GetStats summarizes the definition's instances.
func (s *RecurrenceService) GetStats(definitionID uuid.UUID) Stats {
	today := domain.DateOnly(s.now())

	var stats Stats
	for _, inst := range s.instances.List(definitionID) {
		stats.Total++
		if inst.IsCompleted() {
			stats.Completed++
			continue
		}
		stats.Pending++
		if stats.NextDate == nil && !inst.OccurrenceDate.Before(today) {
			date := inst.OccurrenceDate
			stats.NextDate = &date
		}
	}
	return stats
}

// PreviewOccurrences computes up to count future dates for a spec without
// touching the queue or any store. Pure and synchronous, intended for
// live-preview UI.
func (s *RecurrenceService) PreviewOccurrences(spec *domain.RecurrenceSpec, count int) ([]time.Time, error) {
	if err := spec.Validate(s.now()); err != nil {
		return nil, err
	}

	limit := pattern.SafeCap(spec, count, s.limits)
	horizon := domain.DateOnly(s.now()).AddDate(s.horizonYears, 0, 0)

	occurrences := pattern.Enumerate(spec, limit, horizon)
	dates := make([]time.Time, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, occ.Date)
	}
	return dates, nil
}

// HealthReport assembles the recommendations surface: recorded generation
// failures plus active definitions whose future instance coverage has
// dropped below the expected floor.
func (s *RecurrenceService) HealthReport(ctx context.Context) (*health.Report, error) {
	report := &health.Report{GeneratedAt: s.now().UTC()}
	if s.recorder != nil {
		report.Failures = s.recorder.Snapshot()
	}

	definitions, err := s.storage.ListActiveDefinitions(ctx)
	if err != nil {
		return nil, NewServiceError("health_report", "failed to list active definitions", err)
	}

	today := domain.DateOnly(s.now())
	for _, def := range definitions {
		// Bounded definitions legitimately run out of future instances.
		if def.Spec.HasEnd() {
			continue
		}

		future := 0
		for _, inst := range s.instances.List(def.ID) {
			if !inst.OccurrenceDate.Before(today) && !inst.IsCompleted() {
				future++
			}
		}
		if future < generation.MinFutureInstances {
			report.LowCoverage = append(report.LowCoverage, health.CoverageWarning{
				DefinitionID:    def.ID,
				FutureInstances: future,
				Expected:        generation.MinFutureInstances,
			})
		}
	}

	return report, nil
}

// hasRemainingBudget reports whether the definition can still generate more
// instances: it is unbounded, or its occurrence count has not yet reached
// the configured maximum.
func (s *RecurrenceService) hasRemainingBudget(def *domain.RecurringDefinition) bool {
	if !def.Spec.HasEnd() {
		return true
	}
	if def.Spec.MaxOccurrences > 0 {
		highest := 0
		for _, inst := range s.instances.List(def.ID) {
			if inst.OccurrenceNumber > highest {
				highest = inst.OccurrenceNumber
			}
		}
		return highest < def.Spec.MaxOccurrences
	}
	// EndDate-bounded: more dates may remain before the end date.
	latest := s.latestDate(def.ID)
	return latest == nil || latest.Before(domain.DateOnly(*def.Spec.EndDate))
}

func (s *RecurrenceService) latestDate(definitionID uuid.UUID) *time.Time {
	instances := s.instances.List(definitionID)
	if len(instances) == 0 {
		return nil
	}
	date := instances[len(instances)-1].OccurrenceDate
	return &date
}
