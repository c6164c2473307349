package pattern

import (
	"time"

	"github.com/petaltask/recur/internal/domain"
)

// Occurrence is one enumerated future occurrence of a spec. Numbers are
// 1-based; the origin date (the spec's start date, occurrence 0) is never
// emitted.
type Occurrence struct {
	Date   time.Time
	Number int
}

// Enumerator walks a spec's occurrence sequence lazily. It stops at the
// first of: maxCount emitted, the spec's end date exceeded, the spec's
// max-occurrences count reached, or the horizon exceeded.
//
// An Enumerator is single-use and not safe for concurrent use; create a new
// one to restart the sequence.
type Enumerator struct {
	spec     *domain.RecurrenceSpec
	current  time.Time
	number   int
	emitted  int
	maxCount int
	horizon  time.Time
	done     bool
}

// NewEnumerator creates an enumerator for the spec starting just after its
// start date. maxCount <= 0 means no emission bound (the spec's own end
// condition and the horizon still apply). The horizon is the furthest date
// the enumerator will ever emit, regardless of the spec's configuration.
func NewEnumerator(spec *domain.RecurrenceSpec, maxCount int, horizon time.Time) *Enumerator {
	return &Enumerator{
		spec:     spec,
		current:  domain.DateOnly(spec.StartDate),
		maxCount: maxCount,
		horizon:  domain.DateOnly(horizon),
	}
}

// Next returns the next occurrence in the sequence. The second return value
// is false once the sequence is exhausted; subsequent calls keep returning
// false.
func (e *Enumerator) Next() (Occurrence, bool) {
	if e.done {
		return Occurrence{}, false
	}

	if e.maxCount > 0 && e.emitted >= e.maxCount {
		e.done = true
		return Occurrence{}, false
	}

	if e.spec.MaxOccurrences > 0 && e.number >= e.spec.MaxOccurrences {
		e.done = true
		return Occurrence{}, false
	}

	date, ok := Next(e.current, e.spec)
	if !ok || date.After(e.horizon) {
		e.done = true
		return Occurrence{}, false
	}

	if e.spec.EndDate != nil && date.After(domain.DateOnly(*e.spec.EndDate)) {
		e.done = true
		return Occurrence{}, false
	}

	e.current = date
	e.number++
	e.emitted++

	return Occurrence{Date: date, Number: e.number}, true
}

// Enumerate collects up to maxCount occurrences into a slice. It is a
// convenience wrapper over Enumerator for callers that want the whole
// bounded sequence at once, e.g. preview.
func Enumerate(spec *domain.RecurrenceSpec, maxCount int, horizon time.Time) []Occurrence {
	enum := NewEnumerator(spec, maxCount, horizon)

	var out []Occurrence
	for {
		occ, ok := enum.Next()
		if !ok {
			return out
		}
		out = append(out, occ)
	}
}
