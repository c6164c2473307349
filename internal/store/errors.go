// Package store defines the persistence boundary of the engine: the
// in-memory instance store that enforces the occurrence-uniqueness
// invariant, the TaskStorage interface consumed from external task storage,
// and the errors both surfaces return.
package store

import "errors"

// Common store errors. Callers check these with errors.Is().
var (
	// ErrDuplicateOccurrence is returned by Upsert when an instance already
	// exists for the same (definition, occurrence date) pair and the caller
	// did not request an overwrite. Generation treats this as a benign
	// skip: the instance existing is the desired end state.
	ErrDuplicateOccurrence = errors.New("an instance already exists for this occurrence date")

	// ErrDefinitionNotFound is returned when a recurring definition does
	// not exist in storage.
	ErrDefinitionNotFound = errors.New("recurring definition not found")

	// ErrInstanceNotFound is returned when a recurring instance does not
	// exist.
	ErrInstanceNotFound = errors.New("recurring instance not found")
)
