// Package availability answers which days can be picked. Config supplies
// fixed blocked and highlighted days plus the allowed window; ICS feeds add
// busy days and are reloaded by Refresh.
package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"rangepick/internal/config"
	"rangepick/internal/dates"
	"rangepick/internal/ics"
	appLog "rangepick/internal/log"
	"rangepick/internal/modifier"
)

// defaultHorizonDays bounds ICS expansion when no max_days_ahead is set.
const defaultHorizonDays = 366

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type daySet map[string]struct{}

func (s daySet) has(day time.Time) bool {
	_, ok := s[dates.ISO(day)]
	return ok
}

// feedDays is what one feed contributed on its last good load.
type feedDays struct {
	blocked     daySet
	highlighted daySet
}

// Calendar is safe for concurrent use; Refresh swaps feed data under a
// write lock while rule lookups take the read lock.
type Calendar struct {
	loc          *time.Location
	now          func() time.Time
	allowPast    bool
	maxDaysAhead int
	keywords     []string
	sources      []ics.Source
	fetcher      *ics.Fetcher

	blocked     daySet
	highlighted daySet
	weekdays    map[time.Weekday]bool

	mu    sync.RWMutex
	feeds map[string]feedDays
}

// Option customizes a Calendar.
type Option func(*Calendar)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) { c.now = now }
}

// WithFetcher replaces the fetcher built from cfg.CacheDir.
func WithFetcher(f *ics.Fetcher) Option {
	return func(c *Calendar) { c.fetcher = f }
}

// New builds a Calendar from cfg. Feeds stay empty until Refresh.
func New(cfg *config.Config, opts ...Option) (*Calendar, error) {
	if cfg == nil {
		return nil, errors.New("availability: config is nil")
	}
	c := &Calendar{
		loc:          cfg.Location(),
		now:          time.Now,
		allowPast:    cfg.OutsideRange.AllowPast,
		maxDaysAhead: cfg.OutsideRange.MaxDaysAhead,
		blocked:      daySet{},
		highlighted:  daySet{},
		weekdays:     map[time.Weekday]bool{},
		feeds:        map[string]feedDays{},
	}

	for _, s := range cfg.BlockedDates {
		d, err := dates.ParseISO(s, c.loc)
		if err != nil {
			return nil, fmt.Errorf("availability: blocked_dates %q: %w", s, err)
		}
		c.blocked[dates.ISO(d)] = struct{}{}
	}
	for _, s := range cfg.HighlightedDates {
		d, err := dates.ParseISO(s, c.loc)
		if err != nil {
			return nil, fmt.Errorf("availability: highlighted_dates %q: %w", s, err)
		}
		c.highlighted[dates.ISO(d)] = struct{}{}
	}
	for _, s := range cfg.BlockedWeekdays {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
		if !ok {
			return nil, fmt.Errorf("availability: blocked_weekdays: unknown weekday %q", s)
		}
		c.weekdays[wd] = true
	}
	for _, k := range cfg.HighlightKeywords {
		if k = strings.TrimSpace(k); k != "" {
			c.keywords = append(c.keywords, strings.ToLower(k))
		}
	}
	for _, s := range cfg.ICS {
		if s.URL == "" {
			continue
		}
		id := s.ID
		if id == "" {
			id = s.URL
		}
		c.sources = append(c.sources, ics.Source{ID: id, Name: s.Name, URL: s.URL, Highlight: s.Highlight})
	}

	for _, o := range opts {
		o(c)
	}
	if c.fetcher == nil {
		c.fetcher = ics.NewFetcher(cfg.CacheDir)
	}
	return c, nil
}

// Location is the zone calendar days are read in.
func (c *Calendar) Location() *time.Location { return c.loc }

// Today is midnight of the current day in Location.
func (c *Calendar) Today() time.Time {
	return dates.StartOfDay(c.now().In(c.loc))
}

// Now is the calendar's clock, converted to Location.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// IsDayBlocked reports config and feed blocks.
func (c *Calendar) IsDayBlocked(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	if c.weekdays[day.Weekday()] || c.blocked.has(day) {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.feeds {
		if f.blocked.has(day) {
			return true
		}
	}
	return false
}

// IsDayHighlighted reports config and feed highlights.
func (c *Calendar) IsDayHighlighted(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	if c.highlighted.has(day) {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.feeds {
		if f.highlighted.has(day) {
			return true
		}
	}
	return false
}

// IsOutsideRange rules out past days (unless allowed) and days beyond the
// configured horizon.
func (c *Calendar) IsOutsideRange(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	diff := dates.DayDiff(c.Today(), day)
	if !c.allowPast && diff < 0 {
		return true
	}
	return c.maxDaysAhead > 0 && diff > c.maxDaysAhead
}

// Rules wires the calendar into the modifier engine.
func (c *Calendar) Rules(minimumNights int) modifier.Rules {
	return modifier.Rules{
		MinimumNights:    minimumNights,
		IsDayBlocked:     c.IsDayBlocked,
		IsOutsideRange:   c.IsOutsideRange,
		IsDayHighlighted: c.IsDayHighlighted,
	}
}

// Refresh reloads every feed. A feed that fails keeps the days of its last
// good load; the failures are joined into the returned error.
func (c *Calendar) Refresh(ctx context.Context) error {
	if len(c.sources) == 0 {
		return nil
	}

	today := c.Today()
	horizon := c.maxDaysAhead
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}
	expandCfg := ics.ExpandConfig{
		Location:   c.loc,
		RangeStart: dates.AddDays(today, -31),
		RangeEnd:   dates.AddDays(today, horizon+1),
	}

	results, errs := c.fetcher.FetchAll(ctx, c.sources)

	fresh := make(map[string]feedDays, len(results))
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body, c.loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		expanded, err := ics.ExpandOccurrences(events, expandCfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("availability: expand %s: %w", res.Source.ID, err))
			continue
		}
		fresh[res.Source.ID] = c.collect(res.Source, expanded.Occurrences)
	}

	c.mu.Lock()
	for id, f := range fresh {
		c.feeds[id] = f
	}
	c.mu.Unlock()

	appLog.Info("availability refreshed", "feeds", len(c.sources), "loaded", len(fresh), "errors", len(errs))
	return errors.Join(errs...)
}

func (c *Calendar) collect(src ics.Source, occs []ics.Occurrence) feedDays {
	f := feedDays{blocked: daySet{}, highlighted: daySet{}}
	for _, o := range occs {
		target := f.blocked
		if src.Highlight || c.matchesKeyword(o.Summary) {
			target = f.highlighted
		}
		for _, d := range o.Days() {
			target[dates.ISO(d)] = struct{}{}
		}
	}
	return f
}

func (c *Calendar) matchesKeyword(summary string) bool {
	summary = strings.ToLower(summary)
	for _, k := range c.keywords {
		if strings.Contains(summary, k) {
			return true
		}
	}
	return false
}
