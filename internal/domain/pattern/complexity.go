package pattern

import (
	"github.com/petaltask/recur/internal/domain"
)

// Limits configures the complexity-derived generation caps.
type Limits struct {
	// Threshold is the score at or above which the reduced cap applies.
	Threshold int

	// DefaultCap is the cap used when the caller requests no explicit
	// maximum and the spec scores below the threshold.
	DefaultCap int

	// ReducedCap replaces DefaultCap for specs at or above the threshold.
	ReducedCap int
}

// DefaultLimits returns the standard complexity limits.
func DefaultLimits() Limits {
	return Limits{
		Threshold:  7,
		DefaultCap: 50,
		ReducedCap: 22,
	}
}

// Score rates the structural complexity of a spec. Higher scores mean the
// spec can fan out into more generation work per pass: custom patterns with
// several weekday or month-day entries score higher than single-date
// patterns, the absence of any end condition adds a penalty, and an interval
// of 1 adds a minor penalty for generation frequency.
//
// Score is deterministic and has no side effects.
func Score(spec *domain.RecurrenceSpec) int {
	var score int

	switch spec.Pattern {
	case domain.PatternCustom:
		score = 3
	case domain.PatternMonthly:
		score = 2
	default:
		score = 1
	}

	if n := len(spec.Weekdays); n > 1 {
		score += n - 1
	}
	if n := len(spec.MonthDays); n > 1 {
		score += n - 1
	}
	if spec.HasMonthSelector() {
		score += 2
	}

	// An unconstrained spec can request unbounded generation; weight it
	// heavily so the reduced cap kicks in.
	if !spec.HasEnd() {
		score += 3
	}

	if spec.Interval == 1 {
		score++
	}

	return score
}

// SafeCap derives the upper bound on instances to generate for a spec.
// It returns min(requestedMax or DefaultCap, hard cap for the spec's score),
// where the hard cap steps down to ReducedCap once the score reaches the
// threshold. Increasing a spec's score never increases the returned cap.
func SafeCap(spec *domain.RecurrenceSpec, requestedMax int, limits Limits) int {
	limit := limits.DefaultCap
	if requestedMax > 0 {
		limit = requestedMax
	}

	hard := limits.DefaultCap
	if Score(spec) >= limits.Threshold {
		hard = limits.ReducedCap
	}

	if limit > hard {
		limit = hard
	}
	return limit
}
