package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petaltask/recur/internal/domain"
)

// TaskStorage is the call-level contract the engine consumes from external
// task storage. Implementations apply their own timeouts; the engine treats
// any returned error as a per-item generation failure.
type TaskStorage interface {
	// LoadDefinition retrieves a recurring definition by ID.
	// Returns ErrDefinitionNotFound if it does not exist.
	LoadDefinition(ctx context.Context, id uuid.UUID) (*domain.RecurringDefinition, error)

	// SaveDefinition creates or updates a recurring definition.
	SaveDefinition(ctx context.Context, def *domain.RecurringDefinition) error

	// DeleteDefinition removes a recurring definition.
	DeleteDefinition(ctx context.Context, id uuid.UUID) error

	// ListActiveDefinitions returns all definitions that are not paused.
	ListActiveDefinitions(ctx context.Context) ([]*domain.RecurringDefinition, error)

	// ListOverdueInstances returns instances whose occurrence date is
	// before now and that have not been completed.
	ListOverdueInstances(ctx context.Context, now time.Time) ([]*domain.RecurringInstance, error)

	// ListUpcomingInstances returns instances whose occurrence date falls
	// within windowDays of now.
	ListUpcomingInstances(ctx context.Context, now time.Time, windowDays int) ([]*domain.RecurringInstance, error)

	// ListAllInstances returns every stored instance record. Used to
	// hydrate the in-memory instance store at startup.
	ListAllInstances(ctx context.Context) ([]*domain.RecurringInstance, error)

	// CreateInstanceRecord persists a newly generated instance.
	CreateInstanceRecord(ctx context.Context, inst *domain.RecurringInstance) error

	// SaveInstanceRecord creates or updates an instance record, used when
	// an instance's status changes (completion).
	SaveInstanceRecord(ctx context.Context, inst *domain.RecurringInstance) error

	// DeleteInstanceRecords removes the instance records with the given IDs.
	DeleteInstanceRecords(ctx context.Context, ids []uuid.UUID) error
}
