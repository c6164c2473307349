// Package pattern implements the pure recurrence calculations: stepping a
// spec forward to its next occurrence date, enumerating bounded sequences of
// future occurrences, and scoring a spec's structural complexity to derive a
// safe generation cap.
//
// Everything in this package is deterministic and free of I/O. Callers supply
// the clock-dependent inputs (the enumeration horizon) explicitly so the same
// spec always produces the same sequence.
package pattern
