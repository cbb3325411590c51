package modifier

import (
	"time"

	"rangepick/internal/dates"
)

// Map holds the tag set of every visible day, keyed by ISO date.
type Map map[string]Set

// Delta holds replacement tag sets for the days that change.
type Delta map[string]Set

// view is anything tag sets can be read from.
type view interface {
	lookup(key string) (Set, bool)
}

func (m Map) lookup(key string) (Set, bool) {
	s, ok := m[key]
	return s, ok
}

// Get returns the tags of day and whether day is visible.
func (m Map) Get(day time.Time) (Set, bool) {
	if day.IsZero() {
		return 0, false
	}
	return m.lookup(dates.ISO(day))
}

// Clone returns an independent copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Apply merges d into m. Days that are not in m are ignored so the map
// keeps exactly one entry per visible day.
func (m Map) Apply(d Delta) {
	for k, v := range d {
		if _, ok := m[k]; ok {
			m[k] = v
		}
	}
}

// Equal reports whether m and o hold the same days with the same tags.
func (m Map) Equal(o Map) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Merge copies o's entries into d, later values winning.
func (d Delta) Merge(o Delta) {
	for k, v := range o {
		d[k] = v
	}
}

// WithTagAdded returns the update that adds tag to day. It is empty when
// day is zero, not visible, or already carries tag.
func WithTagAdded(m Map, day time.Time, tag Tag) Delta {
	return withTag(m, day, tag, true)
}

// WithTagRemoved returns the update that removes tag from day. It is empty
// when day is zero, not visible, or does not carry tag.
func WithTagRemoved(m Map, day time.Time, tag Tag) Delta {
	return withTag(m, day, tag, false)
}

// WithTagAddedOverRange adds tag to every day of [start, end].
func WithTagAddedOverRange(m Map, start, end time.Time, tag Tag) Delta {
	b := NewBatch(m)
	b.AddRange(start, end, tag)
	return b.Delta()
}

// WithTagRemovedOverRange removes tag from every day of [start, end].
func WithTagRemovedOverRange(m Map, start, end time.Time, tag Tag) Delta {
	b := NewBatch(m)
	b.RemoveRange(start, end, tag)
	return b.Delta()
}

func withTag(v view, day time.Time, tag Tag, add bool) Delta {
	key, next, ok := change(v, day, tag, add)
	if !ok {
		return Delta{}
	}
	return Delta{key: next}
}

// change computes the new set of day; ok is false when nothing changes.
func change(v view, day time.Time, tag Tag, add bool) (string, Set, bool) {
	if day.IsZero() || tag >= numTags {
		return "", 0, false
	}
	key := dates.ISO(day)
	cur, visible := v.lookup(key)
	if !visible || cur.Has(tag) == add {
		return "", 0, false
	}
	if add {
		return key, cur.With(tag), true
	}
	return key, cur.Without(tag), true
}

// Batch collects several updates against one base map. Each operation
// sees the effect of the previous ones, and Delta reports only the days
// that end up different from the base.
type Batch struct {
	base    Map
	pending Delta
}

// NewBatch starts a batch over base. base is not modified.
func NewBatch(base Map) *Batch {
	return &Batch{base: base, pending: Delta{}}
}

func (b *Batch) lookup(key string) (Set, bool) {
	if s, ok := b.pending[key]; ok {
		return s, true
	}
	return b.base.lookup(key)
}

// Add tags day.
func (b *Batch) Add(day time.Time, tag Tag) {
	b.set(day, tag, true)
}

// Remove untags day.
func (b *Batch) Remove(day time.Time, tag Tag) {
	b.set(day, tag, false)
}

// AddRange tags every day of [start, end].
func (b *Batch) AddRange(start, end time.Time, tag Tag) {
	b.walk(start, end, func(d time.Time) { b.Add(d, tag) })
}

// RemoveRange untags every day of [start, end].
func (b *Batch) RemoveRange(start, end time.Time, tag Tag) {
	b.walk(start, end, func(d time.Time) { b.Remove(d, tag) })
}

func (b *Batch) walk(start, end time.Time, fn func(time.Time)) {
	if start.IsZero() || end.IsZero() {
		return
	}
	for d := start; dates.IsInclusivelyBeforeDay(d, end); d = dates.AddDays(d, 1) {
		fn(d)
	}
}

func (b *Batch) set(day time.Time, tag Tag, add bool) {
	if key, next, ok := change(b, day, tag, add); ok {
		b.pending[key] = next
	}
}

// Replace sets the masked bits of day's tags to want.
func (b *Batch) Replace(day time.Time, mask, want Set) {
	if day.IsZero() {
		return
	}
	key := dates.ISO(day)
	cur, ok := b.lookup(key)
	if !ok {
		return
	}
	next := cur&^mask | want&mask
	if next != cur {
		b.pending[key] = next
	}
}

// Refresh re-evaluates the masked tags of every day against s.
func (b *Batch) Refresh(days []time.Time, s Snapshot, mask Set) {
	if mask == 0 {
		return
	}
	for _, d := range days {
		b.Replace(d, mask, s.evaluate(d, mask))
	}
}

// Delta returns the days whose tags differ from the base map.
func (b *Batch) Delta() Delta {
	out := make(Delta, len(b.pending))
	for k, v := range b.pending {
		if base, ok := b.base[k]; ok && base == v {
			continue
		}
		out[k] = v
	}
	return out
}

// Empty reports whether the batch changes nothing.
func (b *Batch) Empty() bool {
	return len(b.Delta()) == 0
}
