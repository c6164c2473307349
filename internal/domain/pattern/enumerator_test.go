package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petaltask/recur/internal/domain"
)

func farHorizon() time.Time {
	return date(2040, time.January, 1)
}

func TestEnumerateWeeklyWithMaxOccurrences(t *testing.T) {
	spec := domain.RecurrenceSpec{
		Pattern:        domain.PatternWeekly,
		Interval:       1,
		StartDate:      date(2024, time.January, 1),
		MaxOccurrences: 3,
	}

	occurrences := Enumerate(&spec, 0, farHorizon())

	require.Len(t, occurrences, 3)
	assert.Equal(t, date(2024, time.January, 8), occurrences[0].Date)
	assert.Equal(t, date(2024, time.January, 15), occurrences[1].Date)
	assert.Equal(t, date(2024, time.January, 22), occurrences[2].Date)

	// Occurrence numbers are 1-based; the origin date is never emitted.
	assert.Equal(t, 1, occurrences[0].Number)
	assert.Equal(t, 2, occurrences[1].Number)
	assert.Equal(t, 3, occurrences[2].Number)
}

func TestEnumerateFirstMondayOfMonth(t *testing.T) {
	spec := domain.RecurrenceSpec{
		Pattern:        domain.PatternMonthly,
		Interval:       1,
		StartDate:      date(2024, time.January, 1),
		MaxOccurrences: 2,
		MonthPosition:  domain.MonthPositionFirst,
		MonthWeekday:   time.Monday,
	}

	occurrences := Enumerate(&spec, 0, farHorizon())

	require.Len(t, occurrences, 2)
	assert.Equal(t, date(2024, time.February, 5), occurrences[0].Date)
	assert.Equal(t, date(2024, time.March, 4), occurrences[1].Date)
}

func TestEnumerateStrictlyIncreasing(t *testing.T) {
	spec := domain.RecurrenceSpec{
		Pattern:   domain.PatternCustom,
		Interval:  1,
		StartDate: date(2024, time.January, 1),
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}

	occurrences := Enumerate(&spec, 40, farHorizon())
	require.Len(t, occurrences, 40)

	for i := 1; i < len(occurrences); i++ {
		assert.True(t, occurrences[i].Date.After(occurrences[i-1].Date),
			"occurrence %d must come strictly after occurrence %d", i, i-1)
		assert.Equal(t, occurrences[i-1].Number+1, occurrences[i].Number)
	}
}

func TestEnumerateStopsAtEndDate(t *testing.T) {
	end := date(2024, time.January, 5)
	spec := domain.RecurrenceSpec{
		Pattern:   domain.PatternDaily,
		Interval:  1,
		StartDate: date(2024, time.January, 1),
		EndDate:   &end,
	}

	occurrences := Enumerate(&spec, 0, farHorizon())

	require.Len(t, occurrences, 4)
	assert.Equal(t, date(2024, time.January, 5), occurrences[3].Date)
}

func TestEnumerateStopsAtHorizon(t *testing.T) {
	spec := domain.RecurrenceSpec{
		Pattern:   domain.PatternDaily,
		Interval:  1,
		StartDate: date(2024, time.January, 1),
	}

	occurrences := Enumerate(&spec, 0, date(2024, time.January, 11))

	require.Len(t, occurrences, 10)
	assert.Equal(t, date(2024, time.January, 11), occurrences[9].Date)
}

func TestEnumerateImpossibleSpecIsEmpty(t *testing.T) {
	// Day 31 with an end date before the next month that has one.
	end := date(2024, time.February, 25)
	spec := domain.RecurrenceSpec{
		Pattern:   domain.PatternMonthly,
		Interval:  1,
		StartDate: date(2024, time.January, 31),
		EndDate:   &end,
		MonthDays: []int{31},
	}

	occurrences := Enumerate(&spec, 0, farHorizon())
	assert.Empty(t, occurrences)
}

func TestEnumeratorSingleUse(t *testing.T) {
	spec := domain.RecurrenceSpec{
		Pattern:        domain.PatternDaily,
		Interval:       1,
		StartDate:      date(2024, time.January, 1),
		MaxOccurrences: 2,
	}

	enum := NewEnumerator(&spec, 0, farHorizon())

	_, ok := enum.Next()
	require.True(t, ok)
	_, ok = enum.Next()
	require.True(t, ok)

	// Exhausted: every further call keeps reporting false.
	_, ok = enum.Next()
	assert.False(t, ok)
	_, ok = enum.Next()
	assert.False(t, ok)
}

func TestEnumeratorMaxCountBound(t *testing.T) {
	spec := domain.RecurrenceSpec{
		Pattern:   domain.PatternDaily,
		Interval:  1,
		StartDate: date(2024, time.January, 1),
	}

	occurrences := Enumerate(&spec, 5, farHorizon())
	require.Len(t, occurrences, 5)
	assert.Equal(t, date(2024, time.January, 6), occurrences[4].Date)
}
