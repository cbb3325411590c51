package picker

import (
	"time"

	"rangepick/internal/modifier"
)

// Props are the caller-owned values delivered each cycle.
type Props struct {
	Range modifier.Range
	Focus modifier.Focus
}

// Callbacks receive the controller's proposals. Nil callbacks are skipped.
type Callbacks struct {
	OnDatesChange func(modifier.Range)
	OnFocusChange func(modifier.Focus)
	OnClose       func(modifier.Range)
	OnBlur        func()
}

// Options configure the visible window and click behaviour.
type Options struct {
	KeepOpenOnSelect  bool
	NumberOfMonths    int
	EnableOutsideDays bool
	WeekStart         time.Weekday
	// Touch disables the hover protocol.
	Touch bool
	// InitialMonth is the first visible month. Defaults to the current month.
	InitialMonth time.Time
}

func (o Options) normalize() Options {
	if o.NumberOfMonths < 1 {
		o.NumberOfMonths = 1
	}
	return o
}

// Option tweaks a Controller at construction.
type Option func(*Controller)

// WithClock replaces time.Now for the today snapshot.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCallbacks sets the proposal callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Controller) {
		c.cb = cb
	}
}
