package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/petaltask/recur/internal/domain"
)

// InstanceStore holds the generated occurrences per recurring definition and
// enforces the uniqueness invariant: at most one instance per (definition,
// occurrence date) pair. All mutations are immediately visible to subsequent
// reads. Only queue-driven generation and facade completion calls may write
// to it, and both go through Upsert/DeleteGenerated.
type InstanceStore struct {
	mu           sync.RWMutex
	byDefinition map[uuid.UUID][]*domain.RecurringInstance
	byID         map[uuid.UUID]*domain.RecurringInstance
	logger       *slog.Logger
}

// NewInstanceStore creates an empty InstanceStore.
func NewInstanceStore(logger *slog.Logger) *InstanceStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstanceStore{
		byDefinition: make(map[uuid.UUID][]*domain.RecurringInstance),
		byID:         make(map[uuid.UUID]*domain.RecurringInstance),
		logger:       logger.With(slog.String("component", "instance_store")),
	}
}

// List returns the definition's instances ordered by occurrence date
// ascending. The returned slice is a copy; the instances are shared.
func (s *InstanceStore) List(definitionID uuid.UUID) []*domain.RecurringInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instances := s.byDefinition[definitionID]
	out := make([]*domain.RecurringInstance, len(instances))
	copy(out, instances)
	return out
}

// FindByDate returns the instance for the given occurrence date, or nil if
// none exists.
func (s *InstanceStore) FindByDate(definitionID uuid.UUID, date time.Time) *domain.RecurringInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	date = domain.DateOnly(date)
	for _, inst := range s.byDefinition[definitionID] {
		if inst.OccurrenceDate.Equal(date) {
			return inst
		}
	}
	return nil
}

// FindByID returns the instance with the given ID.
// Returns ErrInstanceNotFound if it does not exist.
func (s *InstanceStore) FindByID(id uuid.UUID) (*domain.RecurringInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.byID[id]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return inst, nil
}

// Upsert adds an instance, enforcing the uniqueness invariant. If an
// instance already exists for the same (definition, occurrence date) pair
// and overwrite is false, it fails with ErrDuplicateOccurrence. With
// overwrite true the existing instance is replaced.
func (s *InstanceStore) Upsert(inst *domain.RecurringInstance, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	instances := s.byDefinition[inst.DefinitionID]
	for i, existing := range instances {
		if existing.OccurrenceDate.Equal(inst.OccurrenceDate) {
			if !overwrite {
				return fmt.Errorf("%w: definition %s date %s",
					ErrDuplicateOccurrence, inst.DefinitionID, inst.OccurrenceDate.Format("2006-01-02"))
			}
			delete(s.byID, existing.ID)
			instances[i] = inst
			s.byID[inst.ID] = inst
			return nil
		}
	}

	instances = append(instances, inst)
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].OccurrenceDate.Before(instances[j].OccurrenceDate)
	})
	s.byDefinition[inst.DefinitionID] = instances
	s.byID[inst.ID] = inst

	return nil
}

// DeleteGenerated removes every generated instance of the definition,
// leaving the origin instance untouched. It returns the IDs of the removed
// instances so the caller can delete the corresponding storage records.
func (s *InstanceStore) DeleteGenerated(definitionID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []uuid.UUID
	var kept []*domain.RecurringInstance
	for _, inst := range s.byDefinition[definitionID] {
		if inst.IsGenerated {
			removed = append(removed, inst.ID)
			delete(s.byID, inst.ID)
			continue
		}
		kept = append(kept, inst)
	}

	if len(kept) == 0 {
		delete(s.byDefinition, definitionID)
	} else {
		s.byDefinition[definitionID] = kept
	}

	if len(removed) > 0 {
		s.logger.Debug("deleted generated instances",
			slog.String("definition_id", definitionID.String()),
			slog.Int("count", len(removed)))
	}

	return removed
}

// DeleteAll removes every instance of the definition, origin included. Used
// when the definition itself is deleted. Returns the removed instance IDs.
func (s *InstanceStore) DeleteAll(definitionID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	instances := s.byDefinition[definitionID]
	removed := make([]uuid.UUID, 0, len(instances))
	for _, inst := range instances {
		removed = append(removed, inst.ID)
		delete(s.byID, inst.ID)
	}
	delete(s.byDefinition, definitionID)

	return removed
}

// Count returns the number of instances held for the definition.
func (s *InstanceStore) Count(definitionID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDefinition[definitionID])
}
