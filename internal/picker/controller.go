// Package picker implements the selection controller of a two-endpoint
// date-range picker.
//
// The controller does not own the selected range or the focus: the caller
// hands them in through ReceiveProps and gets proposals back through
// Callbacks. What the controller does own is the day modifier map and the
// hover cursor, which it keeps in sync with small batched deltas instead
// of recomputing the whole window on every event.
//
// A Controller is not safe for concurrent use.
package picker

import (
	"time"

	"rangepick/internal/dates"
	appLog "rangepick/internal/log"
	"rangepick/internal/modifier"
	"rangepick/internal/visible"
)

// rangeDependent are the tags whose value changes with start, end or
// focus without being tied to a single day.
var rangeDependent = modifier.SetOf(
	modifier.Blocked,
	modifier.Valid,
	modifier.BlockedMinimumNights,
	modifier.HoveredSpan,
	modifier.AfterHoveredStart,
)

// Controller tracks one picker instance.
type Controller struct {
	props Props
	rules modifier.Rules
	opts  Options

	window    visible.Window
	days      []time.Time
	modifiers modifier.Map

	hover time.Time
	today time.Time

	now func() time.Time
	cb  Callbacks
}

// ClickResult describes what a click did.
type ClickResult struct {
	// Handled is false when the day was blocked and the click ignored.
	Handled bool
	// Closed is true when the click completed the range and closed the picker.
	Closed bool
	Range  modifier.Range
	Focus  modifier.Focus
}

// New builds a controller and computes the modifier map of the initial
// window in full.
func New(props Props, rules modifier.Rules, opts Options, options ...Option) *Controller {
	c := &Controller{
		props: props,
		rules: rules.Normalize(),
		opts:  opts.normalize(),
		now:   time.Now,
	}
	for _, o := range options {
		o(c)
	}

	month := c.opts.InitialMonth
	if month.IsZero() {
		month = c.now()
	}
	c.window = c.windowFor(month)
	c.recompute()
	return c
}

func (c *Controller) windowFor(month time.Time) visible.Window {
	return visible.Window{
		Month:             dates.StartOfMonth(month),
		NumberOfMonths:    c.opts.NumberOfMonths,
		EnableOutsideDays: c.opts.EnableOutsideDays,
		WeekStart:         c.opts.WeekStart,
	}
}

// refreshToday takes a new today snapshot in the window's location and
// returns the previous one.
func (c *Controller) refreshToday() time.Time {
	prev := c.today
	c.today = dates.StartOfDay(c.now().In(c.window.Month.Location()))
	return prev
}

func (c *Controller) recompute() {
	c.refreshToday()
	c.days = c.window.Days()
	c.modifiers = modifier.ComputeFullMap(c.days, c.Snapshot())
}

// Snapshot returns the predicate inputs of the current pass.
func (c *Controller) Snapshot() modifier.Snapshot {
	return modifier.Snapshot{
		Range: c.props.Range,
		Focus: c.props.Focus,
		Hover: c.hover,
		Today: c.today,
		Rules: c.rules,
	}
}

func (c *Controller) Props() Props { return c.props }
func (c *Controller) Rules() modifier.Rules { return c.rules }
func (c *Controller) Options() Options { return c.opts }
func (c *Controller) Window() visible.Window { return c.window }
func (c *Controller) HoverDay() time.Time { return c.hover }
func (c *Controller) Today() time.Time { return c.today }
func (c *Controller) IsBlocked(day time.Time) bool { return c.Snapshot().IsBlocked(day) }

// Days returns the visible days in display order.
func (c *Controller) Days() []time.Time {
	out := make([]time.Time, len(c.days))
	copy(out, c.days)
	return out
}

// Modifiers returns a copy of the day modifier map.
func (c *Controller) Modifiers() modifier.Map {
	return c.modifiers.Clone()
}

// ModifiersFor returns the tags of day and whether it is visible.
func (c *Controller) ModifiersFor(day time.Time) (modifier.Set, bool) {
	return c.modifiers.Get(day)
}

func (c *Controller) apply(b *modifier.Batch) {
	if d := b.Delta(); len(d) > 0 {
		c.modifiers.Apply(d)
	}
}

// Click runs the day-click protocol. Blocked days are ignored without any
// callback, except an end click inside the minimum stay after a selected
// start, which restarts the range from that day. Otherwise the proposed
// range goes to OnDatesChange, followed by OnBlur.
func (c *Controller) Click(day time.Time) ClickResult {
	if day.IsZero() || c.clickBlocked(day) {
		appLog.Debug("picker: click ignored", "day", dates.ISO(day))
		return ClickResult{Range: c.props.Range, Focus: c.props.Focus}
	}

	start, end := c.props.Range.Start, c.props.Range.End
	focus := c.props.Focus
	res := ClickResult{Handled: true}

	switch c.props.Focus {
	case modifier.FocusStart:
		focus = modifier.FocusEnd
		c.focusChange(focus)

		start = day
		if dates.IsInclusivelyAfterDay(day, end) {
			end = time.Time{}
		}

	case modifier.FocusEnd:
		switch {
		case start.IsZero():
			end = day
			focus = modifier.FocusStart
			c.focusChange(focus)
		case dates.IsInclusivelyAfterDay(day, dates.AddDays(start, c.rules.MinimumNights)):
			end = day
			if !c.opts.KeepOpenOnSelect {
				focus = modifier.FocusNone
				c.focusChange(focus)
				res.Closed = true
				if c.cb.OnClose != nil {
					c.cb.OnClose(modifier.Range{Start: start, End: end})
				}
			}
		default:
			start = day
			end = time.Time{}
		}
	}

	res.Range = modifier.Range{Start: start, End: end}
	res.Focus = focus
	if c.cb.OnDatesChange != nil {
		c.cb.OnDatesChange(res.Range)
	}
	if c.cb.OnBlur != nil {
		c.cb.OnBlur()
	}
	return res
}

// clickBlocked reports whether a click on day must be ignored.
func (c *Controller) clickBlocked(day time.Time) bool {
	snap := c.Snapshot()
	if !snap.IsBlocked(day) {
		return false
	}
	restart := snap.Focus == modifier.FocusEnd && !snap.Start.IsZero() && !snap.IsUnavailable(day)
	return !restart
}

func (c *Controller) focusChange(f modifier.Focus) {
	if c.cb.OnFocusChange != nil {
		c.cb.OnFocusChange(f)
	}
}

// ReceiveProps takes the caller's new range and focus and patches the
// modifier map for what changed.
func (c *Controller) ReceiveProps(next Props) {
	prev := c.Snapshot()
	prevToday := c.refreshToday()
	c.props = next
	cur := c.Snapshot()

	b := modifier.NewBatch(c.modifiers)

	if !sameDay(prevToday, c.today) {
		b.Remove(prevToday, modifier.Today)
		b.Add(c.today, modifier.Today)
	}

	startChanged := !sameDay(prev.Start, cur.Start)
	endChanged := !sameDay(prev.End, cur.End)

	if startChanged {
		b.Remove(prev.Start, modifier.SelectedStart)
		b.Add(cur.Start, modifier.SelectedStart)
	}
	if endChanged {
		b.Remove(prev.End, modifier.SelectedEnd)
		b.Add(cur.End, modifier.SelectedEnd)
	}

	if startChanged || endChanged {
		if !prev.Start.IsZero() && !prev.End.IsZero() {
			b.RemoveRange(dates.AddDays(prev.Start, 1), dates.AddDays(prev.End, -1), modifier.SelectedSpan)
			b.Remove(dates.AddDays(prev.End, -1), modifier.LastInRange)
		}
		if !cur.Start.IsZero() && !cur.End.IsZero() {
			b.AddRange(dates.AddDays(cur.Start, 1), dates.AddDays(cur.End, -1), modifier.SelectedSpan)
			if last := dates.AddDays(cur.End, -1); cur.IsLastInRange(last) {
				b.Add(last, modifier.LastInRange)
			}
		}
	}

	if startChanged || endChanged || prev.Focus != cur.Focus {
		b.Refresh(c.days, cur, rangeDependent)
	}

	c.apply(b)
}

// Hover runs the pointer-enter protocol. It does nothing on touch surfaces.
func (c *Controller) Hover(day time.Time) {
	if c.opts.Touch || day.IsZero() {
		return
	}

	prev := c.Snapshot()
	next := prev
	next.Hover = day

	b := modifier.NewBatch(c.modifiers)
	clearHover(b, prev)

	b.Add(day, modifier.Hovered)
	if from, to, ok := next.HoverSpan(); ok {
		b.AddRange(from, to, modifier.HoveredSpan)
	}
	if d, ok := next.AfterHoveredStart(); ok {
		b.Add(d, modifier.AfterHoveredStart)
	}

	c.hover = day
	c.apply(b)
}

// Leave runs the pointer-leave protocol.
func (c *Controller) Leave() {
	if c.opts.Touch || c.hover.IsZero() {
		return
	}

	b := modifier.NewBatch(c.modifiers)
	clearHover(b, c.Snapshot())

	c.hover = time.Time{}
	c.apply(b)
}

// clearHover removes every hover-derived tag s implies.
func clearHover(b *modifier.Batch, s modifier.Snapshot) {
	if s.Hover.IsZero() {
		return
	}
	b.Remove(s.Hover, modifier.Hovered)
	if from, to, ok := s.HoverSpan(); ok {
		b.RemoveRange(from, to, modifier.HoveredSpan)
	}
	if d, ok := s.AfterHoveredStart(); ok {
		b.Remove(d, modifier.AfterHoveredStart)
	}
}

// Navigate moves the visible window so it starts at month. Days that stay
// visible keep their entries, new days are computed from scratch and days
// that leave the window are dropped.
func (c *Controller) Navigate(month time.Time) {
	if month.IsZero() {
		return
	}
	prevToday := c.refreshToday()

	c.window = c.windowFor(month)
	c.days = c.window.Days()

	s := c.Snapshot()
	m := make(modifier.Map, len(c.days))
	for _, d := range c.days {
		if set, ok := c.modifiers.Get(d); ok {
			m[dates.ISO(d)] = set
			continue
		}
		m[dates.ISO(d)] = s.ForDay(d)
	}
	c.modifiers = m

	if !sameDay(prevToday, c.today) {
		b := modifier.NewBatch(c.modifiers)
		b.Remove(prevToday, modifier.Today)
		b.Add(c.today, modifier.Today)
		c.apply(b)
	}

	appLog.Debug("picker: window moved", "month", c.window.Month.Format(dates.MonthFormat), "days", len(c.days))
}

// NextMonth shows the following month.
func (c *Controller) NextMonth() {
	c.Navigate(c.window.Month.AddDate(0, 1, 0))
}

// PrevMonth shows the preceding month.
func (c *Controller) PrevMonth() {
	c.Navigate(c.window.Month.AddDate(0, -1, 0))
}

// SetRules swaps the selection rules. Predicates cannot be diffed, so the
// map is recomputed in full.
func (c *Controller) SetRules(rules modifier.Rules) {
	c.rules = rules.Normalize()
	c.recompute()
}

// SetOptions swaps the options and recomputes the map in full. The
// visible month is kept unless opts names another one.
func (c *Controller) SetOptions(opts Options) {
	c.opts = opts.normalize()
	month := c.window.Month
	if !c.opts.InitialMonth.IsZero() {
		month = c.opts.InitialMonth
	}
	c.window = c.windowFor(month)
	c.recompute()
}

// Recompute rebuilds the map in full, e.g. after the day-blocking
// predicates started answering differently.
func (c *Controller) Recompute() {
	c.recompute()
}

// FirstFocusableDay returns the day keyboard focus should land on when
// month becomes the first visible month.
func (c *Controller) FirstFocusableDay(month time.Time) time.Time {
	start, end := c.props.Range.Start, c.props.Range.End

	focused := dates.StartOfMonth(month)
	switch {
	case c.props.Focus == modifier.FocusStart && !start.IsZero():
		focused = start
	case c.props.Focus == modifier.FocusEnd && end.IsZero() && !start.IsZero():
		focused = dates.AddDays(start, c.rules.MinimumNights)
	case c.props.Focus == modifier.FocusEnd && !end.IsZero():
		focused = end
	}

	if !c.IsBlocked(focused) {
		return focused
	}

	last := c.windowFor(month).LastVisibleDay()
	for d := dates.AddDays(focused, 1); dates.IsInclusivelyBeforeDay(d, last); d = dates.AddDays(d, 1) {
		if !c.IsBlocked(d) {
			return d
		}
	}
	return focused
}

// sameDay treats two missing dates as equal.
func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	return dates.IsSameDay(a, b)
}
