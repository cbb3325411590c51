package modifier

import (
	"time"

	"rangepick/internal/dates"
)

// Focus says which endpoint the next click picks.
type Focus int

const (
	FocusNone Focus = iota
	FocusStart
	FocusEnd
)

func (f Focus) String() string {
	switch f {
	case FocusStart:
		return "startDate"
	case FocusEnd:
		return "endDate"
	default:
		return ""
	}
}

// ParseFocus accepts "startDate", "endDate" and "" (also "start", "end",
// "none").
func ParseFocus(s string) (Focus, bool) {
	switch s {
	case "startDate", "start":
		return FocusStart, true
	case "endDate", "end":
		return FocusEnd, true
	case "", "none":
		return FocusNone, true
	default:
		return FocusNone, false
	}
}

// Range is a start/end pair; either side may be the zero time.
type Range struct {
	Start time.Time
	End   time.Time
}

// Rules are the caller supplied constraints on selectable days.
type Rules struct {
	MinimumNights    int
	IsDayBlocked     func(time.Time) bool
	IsOutsideRange   func(time.Time) bool
	IsDayHighlighted func(time.Time) bool
}

// Normalize clamps MinimumNights to zero.
func (r Rules) Normalize() Rules {
	if r.MinimumNights < 0 {
		r.MinimumNights = 0
	}
	return r
}

func (r Rules) dayBlocked(day time.Time) bool {
	return r.IsDayBlocked != nil && r.IsDayBlocked(day)
}

func (r Rules) outsideRange(day time.Time) bool {
	return r.IsOutsideRange != nil && r.IsOutsideRange(day)
}

func (r Rules) highlighted(day time.Time) bool {
	return r.IsDayHighlighted != nil && r.IsDayHighlighted(day)
}

// Snapshot is everything the predicates read for one render pass.
type Snapshot struct {
	Range
	Focus Focus
	Hover time.Time
	// Today is taken once per pass so every day agrees on it.
	Today time.Time
	Rules Rules
}

// DoesNotMeetMinimumNights reports whether day is too close to the start
// to be an end date. Without a start it asks whether day, moved back by
// the minimum stay, is already outside the allowed range.
func (s Snapshot) DoesNotMeetMinimumNights(day time.Time) bool {
	if s.Focus != FocusEnd || day.IsZero() {
		return false
	}
	minimum := s.Rules.Normalize().MinimumNights
	if !s.Start.IsZero() {
		diff := dates.DayDiff(dates.StartOfDay(s.Start), day)
		return diff >= 0 && diff < minimum
	}
	return s.Rules.outsideRange(dates.AddDays(day, -minimum))
}

func (s Snapshot) IsBlocked(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	return s.Rules.dayBlocked(day) || s.Rules.outsideRange(day) || s.DoesNotMeetMinimumNights(day)
}

// IsUnavailable reports whether the calendar or the allowed range rules
// day out. Unlike IsBlocked it ignores the minimum stay, which the click
// protocol handles by restarting the range.
func (s Snapshot) IsUnavailable(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	return s.Rules.dayBlocked(day) || s.Rules.outsideRange(day)
}

func (s Snapshot) IsToday(day time.Time) bool {
	return dates.IsSameDay(day, s.Today)
}

func (s Snapshot) IsStartDate(day time.Time) bool {
	return dates.IsSameDay(day, s.Start)
}

func (s Snapshot) IsEndDate(day time.Time) bool {
	return dates.IsSameDay(day, s.End)
}

// IsInSelectedSpan covers the interior nights only.
func (s Snapshot) IsInSelectedSpan(day time.Time) bool {
	return dates.IsBetween(day, s.Start, s.End)
}

func (s Snapshot) IsLastInRange(day time.Time) bool {
	return s.IsInSelectedSpan(day) && dates.IsNextDay(day, s.End)
}

func (s Snapshot) IsHovered(day time.Time) bool {
	return dates.IsSameDay(day, s.Hover)
}

// HoverSpan returns the preview span for the current hover, inclusive on
// both ends. ok is false when no preview applies.
func (s Snapshot) HoverSpan() (from, to time.Time, ok bool) {
	if s.Hover.IsZero() || s.IsBlocked(s.Hover) {
		return time.Time{}, time.Time{}, false
	}
	switch {
	case !s.Start.IsZero() && s.End.IsZero() && dates.IsAfterDay(s.Hover, s.Start):
		return dates.AddDays(s.Start, 1), s.Hover, true
	case s.Start.IsZero() && !s.End.IsZero() && dates.IsBeforeDay(s.Hover, s.End):
		return s.Hover, dates.AddDays(s.End, -1), true
	}
	return time.Time{}, time.Time{}, false
}

func (s Snapshot) IsInHoveredSpan(day time.Time) bool {
	from, to, ok := s.HoverSpan()
	if !ok {
		return false
	}
	return dates.IsInclusivelyAfterDay(day, from) && dates.IsInclusivelyBeforeDay(day, to)
}

// AfterHoveredStart returns the day flagged as the first night a stay
// starting at the hovered start cannot end on.
func (s Snapshot) AfterHoveredStart() (time.Time, bool) {
	if s.Start.IsZero() || !s.End.IsZero() || s.Rules.Normalize().MinimumNights <= 0 {
		return time.Time{}, false
	}
	if !dates.IsSameDay(s.Hover, s.Start) {
		return time.Time{}, false
	}
	next := dates.AddDays(s.Hover, 1)
	if s.IsBlocked(next) {
		return time.Time{}, false
	}
	return next, true
}

func (s Snapshot) IsDayAfterHoveredStart(day time.Time) bool {
	next, ok := s.AfterHoveredStart()
	return ok && dates.IsSameDay(day, next)
}

// evaluate computes the masked tags of day.
func (s Snapshot) evaluate(day time.Time, mask Set) Set {
	var out Set
	for t := Tag(0); t < numTags; t++ {
		if mask.Has(t) && s.holds(t, day) {
			out = out.With(t)
		}
	}
	return out
}

func (s Snapshot) holds(t Tag, day time.Time) bool {
	switch t {
	case Today:
		return s.IsToday(day)
	case Blocked:
		return s.IsBlocked(day)
	case BlockedCalendar:
		return s.Rules.dayBlocked(day)
	case BlockedOutOfRange:
		return s.Rules.outsideRange(day)
	case HighlightedCalendar:
		return s.Rules.highlighted(day)
	case Valid:
		return !s.IsBlocked(day)
	case SelectedStart:
		return s.IsStartDate(day)
	case SelectedEnd:
		return s.IsEndDate(day)
	case BlockedMinimumNights:
		return s.DoesNotMeetMinimumNights(day)
	case SelectedSpan:
		return s.IsInSelectedSpan(day)
	case LastInRange:
		return s.IsLastInRange(day)
	case Hovered:
		return s.IsHovered(day)
	case HoveredSpan:
		return s.IsInHoveredSpan(day)
	case AfterHoveredStart:
		return s.IsDayAfterHoveredStart(day)
	default:
		return false
	}
}

// all is the mask of every tag.
const all Set = 1<<numTags - 1

// ForDay evaluates every tag for day.
func (s Snapshot) ForDay(day time.Time) Set {
	return s.evaluate(day, all)
}

// ComputeFullMap evaluates every tag for every day.
func ComputeFullMap(days []time.Time, s Snapshot) Map {
	m := make(Map, len(days))
	for _, d := range days {
		if d.IsZero() {
			continue
		}
		m[dates.ISO(d)] = s.ForDay(d)
	}
	return m
}
