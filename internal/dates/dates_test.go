package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsSameDayIgnoresClock(t *testing.T) {
	a := time.Date(2025, 1, 10, 1, 0, 0, 0, time.UTC)
	b := time.Date(2025, 1, 10, 23, 59, 0, 0, time.UTC)
	assert.True(t, IsSameDay(a, b))
	assert.False(t, IsSameDay(a, day(2025, 1, 11)))
	assert.False(t, IsSameDay(a, time.Time{}))
	assert.False(t, IsSameDay(time.Time{}, time.Time{}))
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		name                                 string
		a, b                                 time.Time
		after, before, inclAfter, inclBefore bool
	}{
		{"earlier", day(2025, 1, 9), day(2025, 1, 10), false, true, false, true},
		{"same", day(2025, 1, 10), time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC), false, false, true, true},
		{"later", day(2025, 2, 1), day(2025, 1, 31), true, false, true, false},
		{"zero", time.Time{}, day(2025, 1, 31), false, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.after, IsAfterDay(tc.a, tc.b))
			assert.Equal(t, tc.before, IsBeforeDay(tc.a, tc.b))
			assert.Equal(t, tc.inclAfter, IsInclusivelyAfterDay(tc.a, tc.b))
			assert.Equal(t, tc.inclBefore, IsInclusivelyBeforeDay(tc.a, tc.b))
		})
	}
}

func TestIsNextDay(t *testing.T) {
	assert.True(t, IsNextDay(day(2024, 2, 28), day(2024, 2, 29)))
	assert.True(t, IsNextDay(day(2024, 12, 31), day(2025, 1, 1)))
	assert.False(t, IsNextDay(day(2024, 2, 28), day(2024, 3, 1)))
	assert.False(t, IsNextDay(time.Time{}, day(2025, 1, 1)))
}

func TestIsBetweenIsExclusive(t *testing.T) {
	from, to := day(2025, 1, 10), day(2025, 1, 15)
	assert.False(t, IsBetween(from, from, to))
	assert.True(t, IsBetween(day(2025, 1, 11), from, to))
	assert.True(t, IsBetween(day(2025, 1, 14), from, to))
	assert.False(t, IsBetween(to, from, to))
	assert.False(t, IsBetween(day(2025, 1, 12), time.Time{}, to))
}

func TestDayDiffAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	a := time.Date(2025, 3, 8, 0, 0, 0, 0, loc)
	b := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	assert.Equal(t, 2, DayDiff(a, b))
	assert.Equal(t, -2, DayDiff(b, a))
	assert.Equal(t, 0, DayDiff(a, a.Add(20*time.Hour)))
}

func TestDayDiffLongSpan(t *testing.T) {
	// One Gregorian cycle, longer than a time.Duration can hold.
	a := day(1900, 1, 1)
	b := day(2300, 1, 1)
	assert.Equal(t, 146097, DayDiff(a, b))
	assert.Equal(t, -146097, DayDiff(b, a))
	assert.True(t, IsAfterDay(b, a))
}

func TestMonthBounds(t *testing.T) {
	assert.Equal(t, day(2024, 2, 1), StartOfMonth(day(2024, 2, 17)))
	assert.Equal(t, day(2024, 2, 29), EndOfMonth(day(2024, 2, 17)))
	assert.Equal(t, day(2025, 12, 31), EndOfMonth(day(2025, 12, 1)))
}

func TestFormatting(t *testing.T) {
	d := day(2025, 3, 7)
	assert.Equal(t, "2025-03-07", ISO(d))
	assert.Equal(t, "03/07/2025", Localized(d))
	assert.Equal(t, "", ISO(time.Time{}))
	assert.Equal(t, "", Localized(time.Time{}))
}

func TestParse(t *testing.T) {
	d, err := ParseISO(" 2025-03-07 ", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 3, 7), d)

	_, err = ParseISO("", time.UTC)
	assert.Error(t, err)
	_, err = ParseISO("03/07/2025", time.UTC)
	assert.Error(t, err)

	m, err := ParseMonth("2025-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 2, 1), m)
}
