package visible

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangepick/internal/dates"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysSingleMonth(t *testing.T) {
	w := Window{Month: day(2025, 2, 14), NumberOfMonths: 1}
	days := w.Days()
	require.Len(t, days, 28)
	assert.Equal(t, "2025-02-01", dates.ISO(days[0]))
	assert.Equal(t, "2025-02-28", dates.ISO(days[27]))
}

func TestDaysWithOutsideDays(t *testing.T) {
	w := Window{Month: day(2025, 1, 1), NumberOfMonths: 1, EnableOutsideDays: true, WeekStart: time.Sunday}
	days := w.Days()
	require.Len(t, days, 35)
	assert.Equal(t, "2024-12-29", dates.ISO(days[0]))
	assert.Equal(t, "2025-02-01", dates.ISO(days[34]))

	w.WeekStart = time.Monday
	days = w.Days()
	assert.Equal(t, "2024-12-30", dates.ISO(days[0]))
	assert.Equal(t, "2025-02-02", dates.ISO(days[len(days)-1]))
}

func TestDaysMultipleMonthsDeduplicatesOutsideDays(t *testing.T) {
	w := Window{Month: day(2025, 1, 20), NumberOfMonths: 2, EnableOutsideDays: true, WeekStart: time.Sunday}
	days := w.Days()
	require.Len(t, days, 63)

	seen := map[string]bool{}
	for i, d := range days {
		key := dates.ISO(d)
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
		if i > 0 {
			assert.True(t, dates.IsNextDay(days[i-1], d))
		}
	}
}

func TestLastVisibleDayAndContains(t *testing.T) {
	w := Window{Month: day(2024, 1, 5), NumberOfMonths: 2}
	assert.Equal(t, day(2024, 2, 29), w.LastVisibleDay())
	assert.True(t, w.Contains(day(2024, 2, 29)))
	assert.False(t, w.Contains(day(2024, 3, 1)))
	assert.False(t, w.Contains(time.Time{}))

	w.NumberOfMonths = 0
	assert.Equal(t, day(2024, 1, 31), w.LastVisibleDay())
}

func TestZeroMonthHasNoDays(t *testing.T) {
	assert.Empty(t, Window{}.Days())
}

func TestGridsPadWeeks(t *testing.T) {
	w := Window{Month: day(2025, 1, 20), NumberOfMonths: 2, WeekStart: time.Sunday}
	grids := w.Grids()
	require.Len(t, grids, 2)

	jan := grids[0]
	assert.Equal(t, day(2025, 1, 1), jan.Month)
	require.Len(t, jan.Weeks, 5)
	assert.True(t, jan.Weeks[0][2].IsZero())
	assert.Equal(t, day(2025, 1, 1), jan.Weeks[0][3])
	assert.Equal(t, day(2025, 1, 31), jan.Weeks[4][5])
	assert.True(t, jan.Weeks[4][6].IsZero())

	assert.Equal(t, day(2025, 2, 1), grids[1].Month)
	assert.Equal(t, day(2025, 2, 1), grids[1].Weeks[0][6])
}

func TestGridsWithOutsideDaysAndMondayStart(t *testing.T) {
	w := Window{Month: day(2025, 1, 1), EnableOutsideDays: true, WeekStart: time.Monday}
	assert.Equal(t, time.Monday, w.Weekdays()[0])
	assert.Equal(t, time.Sunday, w.Weekdays()[6])

	grids := w.Grids()
	require.Len(t, grids, 1)
	weeks := grids[0].Weeks
	require.Len(t, weeks, 5)
	assert.Equal(t, day(2024, 12, 30), weeks[0][0])
	assert.Equal(t, day(2025, 2, 2), weeks[4][6])
}
