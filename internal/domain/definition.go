package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecurringDefinition is the template task a recurrence is attached to.
// Its ID is stable and equal to the origin task's ID; generated instances
// reference it but are owned by it (they are destroyed with it).
type RecurringDefinition struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Spec      RecurrenceSpec `json:"spec"`
	IsPaused  bool           `json:"is_paused"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewRecurringDefinition creates a definition for the given origin task ID
// and validates its spec. Returns an error if validation fails.
func NewRecurringDefinition(id uuid.UUID, title string, spec RecurrenceSpec) (*RecurringDefinition, error) {
	now := time.Now().UTC()

	def := &RecurringDefinition{
		ID:        id,
		Title:     title,
		Spec:      spec,
		IsPaused:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := def.Validate(now); err != nil {
		return nil, err
	}

	return def, nil
}

// Validate checks the definition and its spec. The now argument anchors the
// spec's configuration-time checks.
func (d *RecurringDefinition) Validate(now time.Time) error {
	if d.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	return d.Spec.Validate(now)
}

// Pause marks the definition as paused. Paused definitions are skipped by
// generation until resumed.
func (d *RecurringDefinition) Pause() {
	d.IsPaused = true
	d.UpdatedAt = time.Now().UTC()
}

// Resume clears the paused flag.
func (d *RecurringDefinition) Resume() {
	d.IsPaused = false
	d.UpdatedAt = time.Now().UTC()
}
