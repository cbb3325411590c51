package availability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangepick/internal/config"
	"rangepick/internal/ics"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 3, 9, 30, 0, 0, time.UTC)
}

func baseConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	return cfg
}

func feed(events ...string) string {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//rangepick//test//EN"}
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func allDay(uid, summary, start, end string) []string {
	return []string{
		"BEGIN:VEVENT",
		"UID:" + uid,
		"SUMMARY:" + summary,
		"DTSTART;VALUE=DATE:" + start,
		"DTEND;VALUE=DATE:" + end,
		"END:VEVENT",
	}
}

func TestConfiguredDays(t *testing.T) {
	cfg := baseConfig(t)
	cfg.BlockedDates = []string{"2025-01-10"}
	cfg.BlockedWeekdays = []string{"Sunday"}
	cfg.HighlightedDates = []string{"2025-01-14"}

	c, err := New(cfg, WithClock(fixedNow))
	require.NoError(t, err)

	assert.True(t, c.IsDayBlocked(day(1, 10)))
	assert.True(t, c.IsDayBlocked(day(1, 5)), "sunday")
	assert.False(t, c.IsDayBlocked(day(1, 11)))
	assert.True(t, c.IsDayHighlighted(day(1, 14)))
	assert.False(t, c.IsDayHighlighted(day(1, 10)))
	assert.False(t, c.IsDayBlocked(time.Time{}))
}

func TestNewRejectsBadValues(t *testing.T) {
	cfg := baseConfig(t)
	cfg.BlockedDates = []string{"10/01/2025"}
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = baseConfig(t)
	cfg.BlockedWeekdays = []string{"caturday"}
	_, err = New(cfg)
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestOutsideRange(t *testing.T) {
	cfg := baseConfig(t)
	cfg.OutsideRange.MaxDaysAhead = 30

	c, err := New(cfg, WithClock(fixedNow))
	require.NoError(t, err)

	assert.True(t, c.IsOutsideRange(day(1, 2)))
	assert.False(t, c.IsOutsideRange(day(1, 3)), "today is selectable")
	assert.False(t, c.IsOutsideRange(day(2, 2)))
	assert.True(t, c.IsOutsideRange(day(2, 3)))

	cfg.OutsideRange = config.OutsideRangeConfig{AllowPast: true}
	c, err = New(cfg, WithClock(fixedNow))
	require.NoError(t, err)
	assert.False(t, c.IsOutsideRange(day(1, 2)))
	assert.False(t, c.IsOutsideRange(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTodayFollowsTimezone(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Timezone = "Asia/Seoul"
	late := func() time.Time { return time.Date(2025, 1, 3, 20, 0, 0, 0, time.UTC) }

	c, err := New(cfg, WithClock(late))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Today().Day())
	assert.Equal(t, "Asia/Seoul", c.Today().Location().String())
}

func TestRulesUseCalendar(t *testing.T) {
	cfg := baseConfig(t)
	cfg.BlockedDates = []string{"2025-01-10"}

	c, err := New(cfg, WithClock(fixedNow))
	require.NoError(t, err)

	r := c.Rules(2)
	assert.Equal(t, 2, r.MinimumNights)
	assert.True(t, r.IsDayBlocked(day(1, 10)))
	assert.True(t, r.IsOutsideRange(day(1, 1)))
	assert.False(t, r.IsDayHighlighted(day(1, 10)))
}

func TestRefreshLoadsFeeds(t *testing.T) {
	busy := feed(append(
		allDay("stay@test", "Booked", "20250110", "20250113"),
		allDay("fest@test", "Harvest festival", "20250120", "20250121")...,
	)...)
	events := feed(allDay("market@test", "Market", "20250125", "20250126")...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/busy.ics":
			_, _ = w.Write([]byte(busy))
		case "/events.ics":
			_, _ = w.Write([]byte(events))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := baseConfig(t)
	cfg.HighlightKeywords = []string{"festival"}
	cfg.ICS = []config.ICSConfig{
		{ID: "busy", URL: srv.URL + "/busy.ics"},
		{ID: "events", URL: srv.URL + "/events.ics", Highlight: true},
	}
	fetcher := ics.NewFetcher(cfg.CacheDir, ics.WithRetry(1, time.Millisecond))
	c, err := New(cfg, WithClock(fixedNow), WithFetcher(fetcher))
	require.NoError(t, err)

	assert.False(t, c.IsDayBlocked(day(1, 10)))
	require.NoError(t, c.Refresh(context.Background()))

	for d := 10; d <= 12; d++ {
		assert.True(t, c.IsDayBlocked(day(1, d)), "jan %d", d)
	}
	assert.False(t, c.IsDayBlocked(day(1, 13)))
	assert.False(t, c.IsDayBlocked(day(1, 20)))
	assert.True(t, c.IsDayHighlighted(day(1, 20)))
	assert.True(t, c.IsDayHighlighted(day(1, 25)))
	assert.False(t, c.IsDayBlocked(day(1, 25)))
}

func TestRefreshKeepsLastGoodFeed(t *testing.T) {
	var broken atomic.Bool
	body := feed(allDay("stay@test", "Booked", "20250110", "20250111")...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	cfg := baseConfig(t)
	cfg.ICS = []config.ICSConfig{{ID: "busy", URL: srv.URL}}
	// A separate cache dir per fetch keeps the 404 from being served out
	// of the disk cache.
	c, err := New(cfg, WithClock(fixedNow), WithFetcher(ics.NewFetcher(t.TempDir(), ics.WithRetry(1, 0))))
	require.NoError(t, err)
	require.NoError(t, c.Refresh(context.Background()))
	require.True(t, c.IsDayBlocked(day(1, 10)))

	broken.Store(true)
	c.fetcher = ics.NewFetcher(t.TempDir(), ics.WithRetry(1, 0))
	assert.Error(t, c.Refresh(context.Background()))
	assert.True(t, c.IsDayBlocked(day(1, 10)))
}

func TestRefreshWithoutFeedsIsNoop(t *testing.T) {
	c, err := New(baseConfig(t), WithClock(fixedNow))
	require.NoError(t, err)
	assert.NoError(t, c.Refresh(context.Background()))
}
