package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/petaltask/recur/internal/domain"
)

// MemoryStorage is an in-process TaskStorage implementation. It backs tests
// and single-process deployments that do not need durable persistence.
type MemoryStorage struct {
	mu          sync.RWMutex
	definitions map[uuid.UUID]*domain.RecurringDefinition
	instances   map[uuid.UUID]*domain.RecurringInstance
}

// compile-time interface check
var _ TaskStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		definitions: make(map[uuid.UUID]*domain.RecurringDefinition),
		instances:   make(map[uuid.UUID]*domain.RecurringInstance),
	}
}

// LoadDefinition implements TaskStorage.LoadDefinition.
func (s *MemoryStorage) LoadDefinition(ctx context.Context, id uuid.UUID) (*domain.RecurringDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return nil, ErrDefinitionNotFound
	}
	copied := *def
	return &copied, nil
}

// SaveDefinition implements TaskStorage.SaveDefinition.
func (s *MemoryStorage) SaveDefinition(ctx context.Context, def *domain.RecurringDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *def
	s.definitions[def.ID] = &copied
	return nil
}

// DeleteDefinition implements TaskStorage.DeleteDefinition.
func (s *MemoryStorage) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[id]; !ok {
		return ErrDefinitionNotFound
	}
	delete(s.definitions, id)
	return nil
}

// ListActiveDefinitions implements TaskStorage.ListActiveDefinitions.
func (s *MemoryStorage) ListActiveDefinitions(ctx context.Context) ([]*domain.RecurringDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RecurringDefinition
	for _, def := range s.definitions {
		if def.IsPaused {
			continue
		}
		copied := *def
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListOverdueInstances implements TaskStorage.ListOverdueInstances.
func (s *MemoryStorage) ListOverdueInstances(ctx context.Context, now time.Time) ([]*domain.RecurringInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := domain.DateOnly(now)
	var out []*domain.RecurringInstance
	for _, inst := range s.instances {
		if inst.OccurrenceDate.Before(today) && !inst.IsCompleted() {
			copied := *inst
			out = append(out, &copied)
		}
	}
	sortInstances(out)
	return out, nil
}

// ListUpcomingInstances implements TaskStorage.ListUpcomingInstances.
func (s *MemoryStorage) ListUpcomingInstances(ctx context.Context, now time.Time, windowDays int) ([]*domain.RecurringInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := domain.DateOnly(now)
	cutoff := today.AddDate(0, 0, windowDays)

	var out []*domain.RecurringInstance
	for _, inst := range s.instances {
		if !inst.OccurrenceDate.Before(today) && !inst.OccurrenceDate.After(cutoff) {
			copied := *inst
			out = append(out, &copied)
		}
	}
	sortInstances(out)
	return out, nil
}

// ListAllInstances implements TaskStorage.ListAllInstances.
func (s *MemoryStorage) ListAllInstances(ctx context.Context) ([]*domain.RecurringInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.RecurringInstance, 0, len(s.instances))
	for _, inst := range s.instances {
		copied := *inst
		out = append(out, &copied)
	}
	sortInstances(out)
	return out, nil
}

// CreateInstanceRecord implements TaskStorage.CreateInstanceRecord.
func (s *MemoryStorage) CreateInstanceRecord(ctx context.Context, inst *domain.RecurringInstance) error {
	return s.SaveInstanceRecord(ctx, inst)
}

// SaveInstanceRecord implements TaskStorage.SaveInstanceRecord.
func (s *MemoryStorage) SaveInstanceRecord(ctx context.Context, inst *domain.RecurringInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *inst
	s.instances[inst.ID] = &copied
	return nil
}

// DeleteInstanceRecords implements TaskStorage.DeleteInstanceRecords.
func (s *MemoryStorage) DeleteInstanceRecords(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.instances, id)
	}
	return nil
}

func sortInstances(instances []*domain.RecurringInstance) {
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].OccurrenceDate.Equal(instances[j].OccurrenceDate) {
			return instances[i].ID.String() < instances[j].ID.String()
		}
		return instances[i].OccurrenceDate.Before(instances[j].OccurrenceDate)
	})
}
