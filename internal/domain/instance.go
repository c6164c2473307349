package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InstanceStatus represents the lifecycle state of a recurring instance.
type InstanceStatus string

// Possible instance status values.
const (
	InstanceStatusActive    InstanceStatus = "active"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusArchived  InstanceStatus = "archived"
)

// IsValid reports whether the status is one of the defined values.
func (s InstanceStatus) IsValid() bool {
	switch s {
	case InstanceStatusActive, InstanceStatusCompleted, InstanceStatusArchived:
		return true
	}
	return false
}

// instanceNamespace seeds deterministic instance IDs. Regenerating a
// definition must produce the same IDs for the same occurrence numbers.
var instanceNamespace = uuid.MustParse("9f2c1b36-5d8a-4e07-b1c4-62d0a3f8e514")

// InstanceID derives the deterministic ID for an occurrence of a definition.
// The same (definitionID, occurrenceNumber) pair always yields the same ID.
func InstanceID(definitionID uuid.UUID, occurrenceNumber int) uuid.UUID {
	return uuid.NewSHA1(instanceNamespace, []byte(fmt.Sprintf("%s:%d", definitionID, occurrenceNumber)))
}

// RecurringInstance is one concrete, dated occurrence of a recurring
// definition. The origin instance (occurrence number 0) represents the
// definition's own start date and is never produced or deleted by generation.
type RecurringInstance struct {
	ID               uuid.UUID      `json:"id"`
	DefinitionID     uuid.UUID      `json:"definition_id"`
	OccurrenceDate   time.Time      `json:"occurrence_date"`
	OccurrenceNumber int            `json:"occurrence_number"`
	IsGenerated      bool           `json:"is_generated"`
	Status           InstanceStatus `json:"status"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

// NewInstance creates a generated instance for the given occurrence.
func NewInstance(definitionID uuid.UUID, occurrenceDate time.Time, occurrenceNumber int) *RecurringInstance {
	return &RecurringInstance{
		ID:               InstanceID(definitionID, occurrenceNumber),
		DefinitionID:     definitionID,
		OccurrenceDate:   DateOnly(occurrenceDate),
		OccurrenceNumber: occurrenceNumber,
		IsGenerated:      true,
		Status:           InstanceStatusActive,
	}
}

// NewOriginInstance creates the origin instance for a definition, anchored
// to its start date.
func NewOriginInstance(definitionID uuid.UUID, startDate time.Time) *RecurringInstance {
	return &RecurringInstance{
		ID:               InstanceID(definitionID, 0),
		DefinitionID:     definitionID,
		OccurrenceDate:   DateOnly(startDate),
		OccurrenceNumber: 0,
		IsGenerated:      false,
		Status:           InstanceStatusActive,
	}
}

// Complete marks the instance as completed at the given time.
func (i *RecurringInstance) Complete(now time.Time) {
	completedAt := now.UTC()
	i.Status = InstanceStatusCompleted
	i.CompletedAt = &completedAt
}

// IsCompleted reports whether the instance has been completed.
func (i *RecurringInstance) IsCompleted() bool {
	return i.Status == InstanceStatusCompleted
}
