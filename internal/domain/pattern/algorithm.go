package pattern

import (
	"sort"
	"time"

	"github.com/petaltask/recur/internal/domain"
)

// maxActiveScan bounds the search across interval-stepped months or years
// when a spec is sparse (e.g. a month-day set of {31} with a large interval).
// A spec that matches nothing within this many active steps is treated as
// having no further occurrences.
const maxActiveScan = 600

// Next computes the first occurrence date strictly after current for the
// given spec. It is pure and deterministic. The spec is assumed to have
// passed Validate; Next does not re-check it.
//
// The second return value is false when no further occurrence exists within
// the scan bound, e.g. a custom month-day set that no active month can
// satisfy. Callers enumerate under a horizon, so "none within the bound" and
// "none within the horizon" collapse to the same outcome: the sequence ends.
func Next(current time.Time, spec *domain.RecurrenceSpec) (time.Time, bool) {
	current = domain.DateOnly(current)

	switch {
	case spec.HasMonthSelector():
		return nextByMonthSelector(current, spec)
	case spec.UsesMonthDaySet():
		return nextByMonthDays(current, spec)
	case spec.UsesWeekdaySet():
		return nextByWeekdays(current, spec)
	}

	switch spec.Pattern {
	case domain.PatternDaily:
		return current.AddDate(0, 0, spec.Interval), true
	case domain.PatternWeekly:
		return current.AddDate(0, 0, 7*spec.Interval), true
	case domain.PatternMonthly:
		return nextAnchoredMonthly(current, spec)
	case domain.PatternYearly:
		return nextAnchoredYearly(current, spec)
	case domain.PatternCustom:
		// A custom pattern with no weekday or month-day configuration
		// degenerates to daily stepping.
		return current.AddDate(0, 0, spec.Interval), true
	}

	return time.Time{}, false
}

// nextByWeekdays advances to the next date whose weekday is in the set,
// honoring week-level interval stepping. Weeks are Monday-based and aligned
// to the spec's start date, so "every 2 weeks on Mon/Wed" activates the
// weeks containing the anchor and every second week after it.
func nextByWeekdays(current time.Time, spec *domain.RecurrenceSpec) (time.Time, bool) {
	anchorWeek := startOfWeek(domain.DateOnly(spec.StartDate))

	d := current.AddDate(0, 0, 1)
	// The next active day is at most interval weeks away once the current
	// week's set is exhausted.
	limit := 7*spec.Interval + 14
	for i := 0; i < limit; i++ {
		if weekdayInSet(spec.Weekdays, d.Weekday()) {
			weeks := weeksBetween(anchorWeek, startOfWeek(d))
			if ((weeks%spec.Interval)+spec.Interval)%spec.Interval == 0 {
				return d, true
			}
		}
		d = d.AddDate(0, 0, 1)
	}

	return time.Time{}, false
}

// nextByMonthDays advances to the next matching day-of-month within the
// interval-stepped months, skipping months that lack a listed day (day 31 in
// February is skipped, never normalized into March).
func nextByMonthDays(current time.Time, spec *domain.RecurrenceSpec) (time.Time, bool) {
	days := append([]int(nil), spec.MonthDays...)
	sort.Ints(days)

	for _, idx := range activeMonths(current, spec) {
		year, month := monthFromIndex(idx)
		dim := daysInMonth(year, month)
		for _, day := range days {
			if day > dim {
				continue
			}
			d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if d.After(current) {
				return d, true
			}
		}
	}

	return time.Time{}, false
}

// nextByMonthSelector advances to the Nth occurrence of the configured
// weekday in the next interval-stepped month.
func nextByMonthSelector(current time.Time, spec *domain.RecurrenceSpec) (time.Time, bool) {
	for _, idx := range activeMonths(current, spec) {
		year, month := monthFromIndex(idx)
		d, ok := nthWeekdayOfMonth(year, month, spec.MonthWeekday, spec.MonthPosition)
		if ok && d.After(current) {
			return d, true
		}
	}

	return time.Time{}, false
}

// nextAnchoredMonthly steps whole months while keeping the start date's
// day-of-month. Months that lack the anchor day are skipped, the same rule
// applied to explicit month-day sets.
func nextAnchoredMonthly(current time.Time, spec *domain.RecurrenceSpec) (time.Time, bool) {
	day := domain.DateOnly(spec.StartDate).Day()

	for _, idx := range activeMonths(current, spec) {
		year, month := monthFromIndex(idx)
		if day > daysInMonth(year, month) {
			continue
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if d.After(current) {
			return d, true
		}
	}

	return time.Time{}, false
}

// nextAnchoredYearly steps whole years while keeping the start date's month
// and day. Years lacking the date (Feb 29 outside leap years) are skipped.
func nextAnchoredYearly(current time.Time, spec *domain.RecurrenceSpec) (time.Time, bool) {
	anchor := domain.DateOnly(spec.StartDate)

	year := current.Year()
	if year < anchor.Year() {
		year = anchor.Year()
	}
	// Align to the interval-stepped year grid.
	year = anchor.Year() + ((year-anchor.Year())/spec.Interval)*spec.Interval

	for i := 0; i < maxActiveScan; i++ {
		y := year + i*spec.Interval
		if anchor.Day() > daysInMonth(y, anchor.Month()) {
			continue
		}
		d := time.Date(y, anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(current) {
			return d, true
		}
	}

	return time.Time{}, false
}

// activeMonths returns the month indices eligible under the spec's interval,
// starting at the month containing current (or the anchor month, whichever is
// later) and bounded by maxActiveScan steps.
func activeMonths(current time.Time, spec *domain.RecurrenceSpec) []int {
	anchorIdx := monthIndex(domain.DateOnly(spec.StartDate))

	startIdx := monthIndex(current)
	if startIdx < anchorIdx {
		startIdx = anchorIdx
	}
	// Align down to the interval grid; the After(current) checks in callers
	// discard candidates that fall before current within the first month.
	k := (startIdx - anchorIdx) / spec.Interval

	months := make([]int, 0, maxActiveScan)
	for i := 0; i < maxActiveScan; i++ {
		months = append(months, anchorIdx+(k+i)*spec.Interval)
	}
	return months
}

// nthWeekdayOfMonth computes the date of the Nth given weekday in the month.
// For MonthPositionLast it returns the final occurrence, whether fourth or
// fifth. The second return value is false when the month has no Nth
// occurrence of the weekday.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, pos domain.MonthPosition) (time.Time, bool) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset
	dim := daysInMonth(year, month)

	if pos == domain.MonthPositionLast {
		day += 7 * ((dim - day) / 7)
	} else {
		day += 7 * (int(pos) - 1)
		if day > dim {
			return time.Time{}, false
		}
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func weekdayInSet(set []time.Weekday, wd time.Weekday) bool {
	for _, w := range set {
		if w == wd {
			return true
		}
	}
	return false
}

// startOfWeek returns the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func weeksBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours()) / (24 * 7)
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func monthFromIndex(idx int) (int, time.Month) {
	return idx / 12, time.Month(idx%12 + 1)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
