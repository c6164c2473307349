package domain

import (
	"time"
)

// Pattern identifies how a recurrence steps through the calendar.
type Pattern string

// Supported recurrence patterns.
const (
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
	PatternYearly  Pattern = "yearly"
	PatternCustom  Pattern = "custom"
)

// IsValid reports whether p is one of the supported patterns.
func (p Pattern) IsValid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly, PatternYearly, PatternCustom:
		return true
	}
	return false
}

// MonthPosition selects which occurrence of a weekday within a month a
// "Nth weekday of month" spec refers to. Zero means the selector is unset.
type MonthPosition int

// Month position values. MonthPositionLast is a sentinel meaning the final
// occurrence of the weekday in the month, whether it is the fourth or fifth.
const (
	MonthPositionUnset  MonthPosition = 0
	MonthPositionFirst  MonthPosition = 1
	MonthPositionSecond MonthPosition = 2
	MonthPositionThird  MonthPosition = 3
	MonthPositionFourth MonthPosition = 4
	MonthPositionLast   MonthPosition = 5
)

// IsValid reports whether the position is one of the defined selector values.
func (p MonthPosition) IsValid() bool {
	return p >= MonthPositionFirst && p <= MonthPositionLast
}

// RecurrenceSpec is the configuration attached to a recurring definition.
// It describes the stepping pattern, the anchor date, and an optional end
// condition. At most one of EndDate and MaxOccurrences may be set.
type RecurrenceSpec struct {
	Pattern   Pattern   `json:"pattern"`
	Interval  int       `json:"interval"`
	StartDate time.Time `json:"start_date"`

	// End condition: nil/zero means the recurrence is unbounded.
	EndDate        *time.Time `json:"end_date,omitempty"`
	MaxOccurrences int        `json:"max_occurrences,omitempty"`

	// Weekdays restricts weekly/custom patterns to a set of weekdays.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`

	// MonthDays restricts monthly/custom patterns to a set of days of the
	// month. Months that lack a listed day are skipped, not normalized.
	MonthDays []int `json:"month_days,omitempty"`

	// MonthPosition + MonthWeekday select the Nth occurrence of a weekday
	// within the month, e.g. "first Monday". Both must be set together.
	MonthPosition MonthPosition `json:"month_position,omitempty"`
	MonthWeekday  time.Weekday  `json:"month_weekday,omitempty"`
}

// HasEnd reports whether the spec carries any bounded end condition.
func (s *RecurrenceSpec) HasEnd() bool {
	return s.EndDate != nil || s.MaxOccurrences > 0
}

// HasMonthSelector reports whether the Nth-weekday-of-month selector is set.
func (s *RecurrenceSpec) HasMonthSelector() bool {
	return s.MonthPosition != MonthPositionUnset
}

// UsesWeekdaySet reports whether the weekday-set stepping applies.
func (s *RecurrenceSpec) UsesWeekdaySet() bool {
	return len(s.Weekdays) > 0 && (s.Pattern == PatternWeekly || s.Pattern == PatternCustom)
}

// UsesMonthDaySet reports whether the month-day-set stepping applies.
func (s *RecurrenceSpec) UsesMonthDaySet() bool {
	return len(s.MonthDays) > 0 && (s.Pattern == PatternMonthly || s.Pattern == PatternCustom)
}

// Validate checks the spec against the configuration-time rules. The now
// argument anchors the "end date must not be in the past" check.
// Returns a *ValidationError describing the first offending field.
func (s *RecurrenceSpec) Validate(now time.Time) error {
	if !s.Pattern.IsValid() {
		if s.Pattern == "" {
			return NewValidationError("pattern", "is required", ErrInvalidPattern)
		}
		return NewValidationError("pattern", "must be one of daily, weekly, monthly, yearly, custom", ErrInvalidPattern)
	}

	if s.Interval < 1 {
		return NewValidationError("interval", "must be at least 1", ErrInvalidInterval)
	}

	if s.StartDate.IsZero() {
		return NewValidationError("start_date", "is required", ErrValidation)
	}

	if s.EndDate != nil && s.MaxOccurrences > 0 {
		return NewValidationError("end_date", "cannot be combined with max_occurrences", ErrValidation)
	}

	if s.EndDate != nil && DateOnly(*s.EndDate).Before(DateOnly(now)) {
		return NewValidationError("end_date", "must not be in the past", ErrValidation)
	}

	if s.MaxOccurrences < 0 {
		return NewValidationError("max_occurrences", "must be at least 1 when set", ErrValidation)
	}

	for _, wd := range s.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return NewValidationError("weekdays", "contains an invalid weekday index", ErrValidation)
		}
	}

	for _, day := range s.MonthDays {
		if day < 1 || day > 31 {
			return NewValidationError("month_days", "days must be between 1 and 31", ErrValidation)
		}
	}

	if s.MonthPosition != MonthPositionUnset {
		if !s.MonthPosition.IsValid() {
			return NewValidationError("month_position", "must be first through fourth, or last", ErrValidation)
		}
		if s.MonthWeekday < time.Sunday || s.MonthWeekday > time.Saturday {
			return NewValidationError("month_weekday", "contains an invalid weekday index", ErrValidation)
		}
	}

	return nil
}
