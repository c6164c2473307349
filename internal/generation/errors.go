package generation

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerationError wraps a failure while processing one work item. It is
// logged and surfaced through the health report, never raised to whoever
// enqueued the work.
type GenerationError struct {
	DefinitionID uuid.UUID
	Op           string
	Err          error
}

// Error implements the error interface for GenerationError.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s failed for definition %s: %v", e.Op, e.DefinitionID, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// newGenerationError creates a GenerationError for the given operation.
func newGenerationError(definitionID uuid.UUID, op string, err error) *GenerationError {
	return &GenerationError{
		DefinitionID: definitionID,
		Op:           op,
		Err:          err,
	}
}
