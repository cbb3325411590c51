// Package modifier derives the per-day presentation tags of a range picker.
//
// Every visible day owns a Set of Tags stored in a Map keyed by its ISO
// date. The map is built once with ComputeFullMap and then patched with
// Deltas; a Delta never mutates the map it was computed from.
package modifier

import (
	"strings"
)

// Tag is a single day modifier.
type Tag uint8

// Tags in evaluation order.
const (
	Today Tag = iota
	Blocked
	BlockedCalendar
	BlockedOutOfRange
	HighlightedCalendar
	Valid
	SelectedStart
	SelectedEnd
	BlockedMinimumNights
	SelectedSpan
	LastInRange
	Hovered
	HoveredSpan
	AfterHoveredStart

	numTags
)

var tagNames = [numTags]string{
	Today:                "today",
	Blocked:              "blocked",
	BlockedCalendar:      "blocked-calendar",
	BlockedOutOfRange:    "blocked-out-of-range",
	HighlightedCalendar:  "highlighted-calendar",
	Valid:                "valid",
	SelectedStart:        "selected-start",
	SelectedEnd:          "selected-end",
	BlockedMinimumNights: "blocked-minimum-nights",
	SelectedSpan:         "selected-span",
	LastInRange:          "last-in-range",
	Hovered:              "hovered",
	HoveredSpan:          "hovered-span",
	AfterHoveredStart:    "after-hovered-start",
}

// AllTags lists every tag in evaluation order.
func AllTags() []Tag {
	out := make([]Tag, 0, numTags)
	for t := Tag(0); t < numTags; t++ {
		out = append(out, t)
	}
	return out
}

func (t Tag) String() string {
	if t >= numTags {
		return "unknown"
	}
	return tagNames[t]
}

// ParseTag maps a tag name back to its Tag.
func ParseTag(s string) (Tag, bool) {
	for t := Tag(0); t < numTags; t++ {
		if tagNames[t] == s {
			return t, true
		}
	}
	return 0, false
}

// Set is a bitmask of Tags.
type Set uint16

// SetOf builds a Set from tags.
func SetOf(tags ...Tag) Set {
	var s Set
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

func (s Set) Has(t Tag) bool {
	return t < numTags && s&(1<<t) != 0
}

func (s Set) With(t Tag) Set {
	if t >= numTags {
		return s
	}
	return s | 1<<t
}

func (s Set) Without(t Tag) Set {
	if t >= numTags {
		return s
	}
	return s &^ (1 << t)
}

// Tags lists the members of s in evaluation order.
func (s Set) Tags() []Tag {
	out := make([]Tag, 0, numTags)
	for t := Tag(0); t < numTags; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Strings lists the tag names of s in evaluation order.
func (s Set) Strings() []string {
	tags := s.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}

func (s Set) String() string {
	return "{" + strings.Join(s.Strings(), " ") + "}"
}
