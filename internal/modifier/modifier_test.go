package modifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangepick/internal/dates"
)

func jan(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func january() []time.Time {
	days := make([]time.Time, 0, 31)
	for d := 1; d <= 31; d++ {
		days = append(days, jan(d))
	}
	return days
}

func TestTagNamesRoundTrip(t *testing.T) {
	require.Len(t, AllTags(), 14)
	for _, tag := range AllTags() {
		got, ok := ParseTag(tag.String())
		require.True(t, ok, tag.String())
		assert.Equal(t, tag, got)
	}
	_, ok := ParseTag("nope")
	assert.False(t, ok)
}

func TestSetOps(t *testing.T) {
	s := SetOf(SelectedStart, Valid)
	assert.True(t, s.Has(Valid))
	assert.False(t, s.Has(Blocked))
	assert.Equal(t, []string{"valid", "selected-start"}, s.Strings())
	assert.Equal(t, SetOf(Valid), s.Without(SelectedStart))
	assert.Equal(t, s, s.With(numTags))
}

func TestWithTagAddedIsIdempotent(t *testing.T) {
	m := ComputeFullMap(january(), Snapshot{})

	d := WithTagAdded(m, jan(5), Hovered)
	require.Len(t, d, 1)
	m.Apply(d)
	once := m.Clone()

	assert.Empty(t, WithTagAdded(m, jan(5), Hovered))
	m.Apply(WithTagAdded(m, jan(5), Hovered))
	assert.True(t, once.Equal(m))
}

func TestAddThenRemoveRoundTrips(t *testing.T) {
	m := ComputeFullMap(january(), Snapshot{})
	orig := m.Clone()

	m.Apply(WithTagAdded(m, jan(7), SelectedEnd))
	m.Apply(WithTagRemoved(m, jan(7), SelectedEnd))
	assert.True(t, orig.Equal(m))
}

func TestNoOpsOnMissingDays(t *testing.T) {
	m := ComputeFullMap(january(), Snapshot{})

	assert.Empty(t, WithTagAdded(m, time.Time{}, Hovered))
	assert.Empty(t, WithTagAdded(m, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Hovered))
	assert.Empty(t, WithTagRemoved(m, jan(3), Hovered))
	assert.Empty(t, WithTagAddedOverRange(m, time.Time{}, jan(3), Hovered))
	assert.Empty(t, WithTagAddedOverRange(m, jan(9), jan(3), Hovered))

	m.Apply(Delta{"2025-02-01": SetOf(Hovered)})
	assert.Len(t, m, 31)
}

func TestRangeOpsAreInclusive(t *testing.T) {
	m := ComputeFullMap(january(), Snapshot{})

	d := WithTagAddedOverRange(m, jan(30), time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), HoveredSpan)
	assert.Len(t, d, 2, "only visible days change")

	d = WithTagAddedOverRange(m, jan(3), jan(6), SelectedSpan)
	assert.Len(t, d, 4)
	m.Apply(d)

	d = WithTagRemovedOverRange(m, jan(1), jan(4), SelectedSpan)
	assert.Len(t, d, 2)
}

func TestBatchSeesEarlierOperations(t *testing.T) {
	m := ComputeFullMap(january(), Snapshot{})
	base := m.Clone()

	b := NewBatch(m)
	b.Add(jan(4), Hovered)
	b.Add(jan(4), HoveredSpan)
	b.Remove(jan(4), Hovered)
	b.Add(jan(10), Hovered)
	b.Remove(jan(10), Hovered)

	d := b.Delta()
	require.Len(t, d, 1)
	assert.Equal(t, base["2025-01-04"].With(HoveredSpan), d["2025-01-04"])
	assert.True(t, base.Equal(m), "batch must not touch its base")
}

func TestSelectedSpanIsExclusive(t *testing.T) {
	s := Snapshot{Range: Range{Start: jan(10), End: jan(15)}}

	for d := 11; d <= 14; d++ {
		assert.True(t, s.IsInSelectedSpan(jan(d)), "jan %d", d)
	}
	assert.False(t, s.IsInSelectedSpan(jan(10)))
	assert.False(t, s.IsInSelectedSpan(jan(15)))

	assert.True(t, s.IsLastInRange(jan(14)))
	assert.False(t, s.IsLastInRange(jan(13)))

	m := ComputeFullMap(january(), s)
	assert.True(t, m["2025-01-10"].Has(SelectedStart))
	assert.True(t, m["2025-01-15"].Has(SelectedEnd))
	assert.False(t, m["2025-01-10"].Has(SelectedSpan))
	assert.True(t, m["2025-01-14"].Has(LastInRange))
}

func TestMinimumNightsWithStart(t *testing.T) {
	s := Snapshot{
		Range: Range{Start: time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)},
		Focus: FocusEnd,
		Rules: Rules{MinimumNights: 2},
	}

	assert.False(t, s.DoesNotMeetMinimumNights(jan(9)))
	assert.True(t, s.DoesNotMeetMinimumNights(jan(10)))
	assert.True(t, s.DoesNotMeetMinimumNights(jan(11)))
	assert.False(t, s.DoesNotMeetMinimumNights(jan(12)))
	assert.True(t, s.IsBlocked(jan(11)))

	s.Focus = FocusStart
	assert.False(t, s.DoesNotMeetMinimumNights(jan(11)))
}

func TestMinimumNightsWithoutStartShiftsOutsideRange(t *testing.T) {
	var asked []string
	s := Snapshot{
		Focus: FocusEnd,
		Rules: Rules{
			MinimumNights: 3,
			IsOutsideRange: func(d time.Time) bool {
				asked = append(asked, dates.ISO(d))
				return d.Before(jan(10))
			},
		},
	}

	assert.True(t, s.DoesNotMeetMinimumNights(jan(12)))
	assert.False(t, s.DoesNotMeetMinimumNights(jan(13)))
	assert.Equal(t, []string{"2025-01-09", "2025-01-10"}, asked)
}

func TestNegativeMinimumNightsIsClamped(t *testing.T) {
	s := Snapshot{Range: Range{Start: jan(10)}, Focus: FocusEnd, Rules: Rules{MinimumNights: -4}}
	assert.False(t, s.DoesNotMeetMinimumNights(jan(10)))
	_, ok := s.AfterHoveredStart()
	assert.False(t, ok)
}

func TestBlockedAndValidAreComplementary(t *testing.T) {
	s := Snapshot{
		Today: jan(2),
		Rules: Rules{
			IsDayBlocked:     func(d time.Time) bool { return d.Weekday() == time.Sunday },
			IsOutsideRange:   func(d time.Time) bool { return d.Day() > 28 },
			IsDayHighlighted: func(d time.Time) bool { return d.Day() == 1 },
		},
	}
	m := ComputeFullMap(january(), s)

	for _, d := range january() {
		set := m[dates.ISO(d)]
		assert.NotEqual(t, set.Has(Blocked), set.Has(Valid), dates.ISO(d))
	}
	assert.True(t, m["2025-01-05"].Has(BlockedCalendar))
	assert.True(t, m["2025-01-30"].Has(BlockedOutOfRange))
	assert.True(t, m["2025-01-01"].Has(HighlightedCalendar))
	assert.True(t, m["2025-01-02"].Has(Today))
	assert.False(t, m["2025-01-03"].Has(Today))
}

func TestHoverForwardSpan(t *testing.T) {
	s := Snapshot{Range: Range{Start: jan(10)}, Hover: jan(13)}
	m := ComputeFullMap(january(), s)

	var spanned []string
	for _, d := range january() {
		if m[dates.ISO(d)].Has(HoveredSpan) {
			spanned = append(spanned, dates.ISO(d))
		}
	}
	assert.Equal(t, []string{"2025-01-11", "2025-01-12", "2025-01-13"}, spanned)
	assert.True(t, m["2025-01-13"].Has(Hovered))

	s.Hover = jan(8)
	m = ComputeFullMap(january(), s)
	for _, d := range january() {
		assert.False(t, m[dates.ISO(d)].Has(HoveredSpan))
	}
}

func TestHoverBackwardSpan(t *testing.T) {
	s := Snapshot{Range: Range{End: jan(20)}, Hover: jan(17)}
	from, to, ok := s.HoverSpan()
	require.True(t, ok)
	assert.Equal(t, jan(17), from)
	assert.Equal(t, jan(19), to)
	assert.True(t, s.IsInHoveredSpan(jan(17)))
	assert.False(t, s.IsInHoveredSpan(jan(20)))

	s.Hover = jan(22)
	_, _, ok = s.HoverSpan()
	assert.False(t, ok)
}

func TestHoverSpanSuppressedOnBlockedHover(t *testing.T) {
	s := Snapshot{
		Range: Range{Start: jan(10)},
		Hover: jan(14),
		Rules: Rules{IsDayBlocked: func(d time.Time) bool { return dates.IsSameDay(d, jan(14)) }},
	}
	_, _, ok := s.HoverSpan()
	assert.False(t, ok)
	assert.False(t, s.IsInHoveredSpan(jan(12)))
}

func TestAfterHoveredStart(t *testing.T) {
	s := Snapshot{Range: Range{Start: jan(10)}, Hover: jan(10), Rules: Rules{MinimumNights: 2}}
	assert.True(t, s.IsDayAfterHoveredStart(jan(11)))
	assert.False(t, s.IsDayAfterHoveredStart(jan(12)))

	s.Rules.MinimumNights = 0
	assert.False(t, s.IsDayAfterHoveredStart(jan(11)))

	s.Rules.MinimumNights = 2
	s.End = jan(20)
	assert.False(t, s.IsDayAfterHoveredStart(jan(11)))

	s.End = time.Time{}
	s.Hover = jan(12)
	assert.False(t, s.IsDayAfterHoveredStart(jan(13)))
}

func TestRefreshOnlyTouchesMaskedTags(t *testing.T) {
	days := january()
	s := Snapshot{Range: Range{Start: jan(10)}, Focus: FocusStart, Rules: Rules{MinimumNights: 3}}
	m := ComputeFullMap(days, s)

	s.Focus = FocusEnd
	b := NewBatch(m)
	b.Refresh(days, s, SetOf(Blocked, Valid, BlockedMinimumNights))
	d := b.Delta()
	assert.Len(t, d, 3)

	m.Apply(d)
	assert.True(t, ComputeFullMap(days, s).Equal(m))
}

func TestFocusText(t *testing.T) {
	for _, f := range []Focus{FocusNone, FocusStart, FocusEnd} {
		got, ok := ParseFocus(f.String())
		require.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := ParseFocus("middle")
	assert.False(t, ok)
}
