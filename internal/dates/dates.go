// Package dates holds the day-granularity helpers the picker is built on.
//
// A calendar day is a time.Time whose year/month/day (in its own location)
// is significant; the clock part is ignored. The zero time.Time stands for
// "no date" and every helper treats it permissively: comparisons involving
// a zero value are false and conversions return the empty string.
package dates

import (
	"errors"
	"strings"
	"time"
)

const (
	// ISOFormat is the key format used for day modifier maps.
	ISOFormat = "2006-01-02"
	// DisplayFormat is the localized display format (MM/DD/YYYY).
	DisplayFormat = "01/02/2006"
	// MonthFormat identifies a calendar month.
	MonthFormat = "2006-01"
)

// IsSameDay reports whether a and b fall on the same calendar day.
func IsSameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	// Compare least significant (most likely to differ) first.
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ad == bd && am == bm && ay == by
}

// IsAfterDay reports whether a is on a later calendar day than b.
func IsAfterDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return DayDiff(b, a) > 0
}

// IsBeforeDay reports whether a is on an earlier calendar day than b.
func IsBeforeDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return DayDiff(b, a) < 0
}

// IsInclusivelyAfterDay reports whether a is on or after b.
func IsInclusivelyAfterDay(a, b time.Time) bool {
	return IsAfterDay(a, b) || IsSameDay(a, b)
}

// IsInclusivelyBeforeDay reports whether a is on or before b.
func IsInclusivelyBeforeDay(a, b time.Time) bool {
	return IsBeforeDay(a, b) || IsSameDay(a, b)
}

// IsNextDay reports whether b is the day immediately after a.
func IsNextDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return IsSameDay(AddDays(a, 1), b)
}

// IsBetween reports whether day lies strictly between from and to.
func IsBetween(day, from, to time.Time) bool {
	return IsAfterDay(day, from) && IsBeforeDay(day, to)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns midnight on the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return AddDays(StartOfMonth(t).AddDate(0, 1, 0), -1)
}

// AddDays shifts t by n calendar days, keeping the wall clock.
func AddDays(t time.Time, n int) time.Time {
	if t.IsZero() {
		return t
	}
	return t.AddDate(0, 0, n)
}

// DayDiff returns the number of calendar days from a to b (b - a).
// DST transitions do not affect the result.
func DayDiff(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((ub.Unix() - ua.Unix()) / 86400)
}

// ISO formats t as YYYY-MM-DD, or "" for the zero time.
func ISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ISOFormat)
}

// Localized formats t with DisplayFormat, or "" for the zero time.
func Localized(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayFormat)
}

// ParseISO parses a YYYY-MM-DD day in loc. Surrounding spaces are ignored.
func ParseISO(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("dates: empty date")
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(ISOFormat, s, loc)
}

// ParseMonth parses a YYYY-MM month in loc and returns its first day.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("dates: empty month")
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(MonthFormat, s, loc)
}
