package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/petaltask/recur/internal/domain"
)

func TestScore(t *testing.T) {
	end := date(2024, time.December, 31)

	tests := []struct {
		name string
		spec domain.RecurrenceSpec
		want int
	}{
		{
			name: "bounded daily with interval above 1",
			spec: domain.RecurrenceSpec{Pattern: domain.PatternDaily, Interval: 2, EndDate: &end},
			want: 1,
		},
		{
			name: "unbounded daily interval 1",
			spec: domain.RecurrenceSpec{Pattern: domain.PatternDaily, Interval: 1},
			want: 5,
		},
		{
			name: "bounded monthly selector",
			spec: domain.RecurrenceSpec{
				Pattern: domain.PatternMonthly, Interval: 2, EndDate: &end,
				MonthPosition: domain.MonthPositionFirst, MonthWeekday: time.Monday,
			},
			want: 4,
		},
		{
			name: "unbounded custom with three weekdays",
			spec: domain.RecurrenceSpec{
				Pattern: domain.PatternCustom, Interval: 1,
				Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			},
			want: 9,
		},
		{
			name: "bounded monthly with two month days",
			spec: domain.RecurrenceSpec{
				Pattern: domain.PatternMonthly, Interval: 3, MaxOccurrences: 10,
				MonthDays: []int{1, 15},
			},
			want: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(&tc.spec))
		})
	}
}

func TestSafeCap(t *testing.T) {
	limits := DefaultLimits()
	end := date(2024, time.December, 31)

	simple := domain.RecurrenceSpec{Pattern: domain.PatternDaily, Interval: 2, EndDate: &end}
	complex := domain.RecurrenceSpec{
		Pattern: domain.PatternCustom, Interval: 1,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}

	// A simple spec gets the default cap, or the requested maximum when
	// smaller.
	assert.Equal(t, 50, SafeCap(&simple, 0, limits))
	assert.Equal(t, 10, SafeCap(&simple, 10, limits))
	assert.Equal(t, 50, SafeCap(&simple, 200, limits))

	// A spec at or above the threshold steps down to the reduced cap no
	// matter what the caller requested.
	assert.Equal(t, 22, SafeCap(&complex, 0, limits))
	assert.Equal(t, 22, SafeCap(&complex, 200, limits))
	assert.Equal(t, 10, SafeCap(&complex, 10, limits))
}

func TestSafeCapMonotonic(t *testing.T) {
	limits := DefaultLimits()
	end := date(2024, time.December, 31)

	// Increasing complexity never increases the cap.
	specs := []domain.RecurrenceSpec{
		{Pattern: domain.PatternDaily, Interval: 2, EndDate: &end},
		{Pattern: domain.PatternWeekly, Interval: 1, EndDate: &end},
		{Pattern: domain.PatternMonthly, Interval: 1, MonthDays: []int{1, 15}},
		{Pattern: domain.PatternCustom, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Wednesday}},
		{Pattern: domain.PatternCustom, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
	}

	prevScore, prevCap := -1, 0
	for _, spec := range specs {
		score := Score(&spec)
		capForSpec := SafeCap(&spec, 0, limits)
		if prevScore >= 0 && score >= prevScore {
			assert.LessOrEqual(t, capForSpec, prevCap,
				"score %d must not get a larger cap than score %d", score, prevScore)
		}
		prevScore, prevCap = score, capForSpec
	}
}
