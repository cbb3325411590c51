// Package visible enumerates the calendar days a month grid renders.
package visible

import (
	"time"

	"rangepick/internal/dates"
)

// Window describes which months are on screen.
type Window struct {
	// Month is any day inside the first visible month.
	Month time.Time
	// NumberOfMonths is how many consecutive months are shown (min 1).
	NumberOfMonths int
	// EnableOutsideDays pads each month to whole weeks with the
	// neighbouring months' days.
	EnableOutsideDays bool
	// WeekStart is the first column of the grid.
	WeekStart time.Weekday
}

func (w Window) months() int {
	if w.NumberOfMonths < 1 {
		return 1
	}
	return w.NumberOfMonths
}

// FirstMonth returns midnight on the first day of the first visible month.
func (w Window) FirstMonth() time.Time {
	return dates.StartOfMonth(w.Month)
}

// LastVisibleDay returns the last day of the last visible month. Outside
// days are not counted.
func (w Window) LastVisibleDay() time.Time {
	return dates.EndOfMonth(w.FirstMonth().AddDate(0, w.months()-1, 0))
}

// Days returns the visible days in display order. A day that appears in
// two adjacent month grids (outside days) is returned once.
func (w Window) Days() []time.Time {
	if w.Month.IsZero() {
		return nil
	}

	first := w.FirstMonth()
	out := make([]time.Time, 0, w.months()*42)
	seen := make(map[string]struct{}, w.months()*42)

	for i := 0; i < w.months(); i++ {
		for _, d := range w.monthDays(first.AddDate(0, i, 0)) {
			key := dates.ISO(d)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// monthDays lists one month's grid.
func (w Window) monthDays(month time.Time) []time.Time {
	start := month
	end := dates.EndOfMonth(month)

	if w.EnableOutsideDays {
		lead := (int(start.Weekday()) - int(w.WeekStart) + 7) % 7
		start = dates.AddDays(start, -lead)
		trail := (int(w.WeekStart) + 6 - int(end.Weekday()) + 7) % 7
		end = dates.AddDays(end, trail)
	}

	days := make([]time.Time, 0, 42)
	for d := start; !dates.IsAfterDay(d, end); d = dates.AddDays(d, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether day is one of the window's visible days.
func (w Window) Contains(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	for _, d := range w.Days() {
		if dates.IsSameDay(d, day) {
			return true
		}
	}
	return false
}

// Weekdays returns the grid's column order.
func (w Window) Weekdays() [7]time.Weekday {
	var out [7]time.Weekday
	for i := range out {
		out[i] = time.Weekday((int(w.WeekStart) + i) % 7)
	}
	return out
}

// MonthGrid is one month laid out in week rows. Cells that belong to a
// neighbouring month hold that day when outside days are enabled and the
// zero time otherwise.
type MonthGrid struct {
	Month time.Time
	Weeks [][7]time.Time
}

// Grids lays out every visible month.
func (w Window) Grids() []MonthGrid {
	if w.Month.IsZero() {
		return nil
	}
	first := w.FirstMonth()
	out := make([]MonthGrid, 0, w.months())
	for i := 0; i < w.months(); i++ {
		out = append(out, w.grid(first.AddDate(0, i, 0)))
	}
	return out
}

func (w Window) grid(month time.Time) MonthGrid {
	end := dates.EndOfMonth(month)
	lead := (int(month.Weekday()) - int(w.WeekStart) + 7) % 7

	g := MonthGrid{Month: month}
	d := dates.AddDays(month, -lead)
	for !dates.IsAfterDay(d, end) {
		var week [7]time.Time
		for i := range week {
			if d.Month() == month.Month() || w.EnableOutsideDays {
				week[i] = d
			}
			d = dates.AddDays(d, 1)
		}
		g.Weeks = append(g.Weeks, week)
	}
	return g
}
