package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rangepick/internal/availability"
	"rangepick/internal/config"
	appLog "rangepick/internal/log"
	"rangepick/internal/web"
)

// sessionMaxIdle is how long an untouched session survives.
const sessionMaxIdle = 6 * time.Hour

// newScheduler registers the background jobs: feed refresh on the
// configured schedule, a midnight recompute so today and the outside
// range move with the clock, and hourly session expiry.
func newScheduler(ctx context.Context, conf *config.Config, cal *availability.Calendar, srv *web.Server) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(cal.Location()))

	if _, err := c.AddFunc(conf.RefreshCron, func() {
		refreshAvailability(ctx, cal, srv)
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}

	if _, err := c.AddFunc("0 0 * * *", func() {
		appLog.Info("day rolled over", "today", cal.Today().Format("2006-01-02"))
		srv.RecomputeSessions()
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("@hourly", func() {
		srv.ExpireSessions(sessionMaxIdle)
	}); err != nil {
		return nil, err
	}

	return c, nil
}

func refreshAvailability(ctx context.Context, cal *availability.Calendar, srv *web.Server) {
	start := time.Now()
	if err := cal.Refresh(ctx); err != nil {
		appLog.Error("availability refresh had errors", err)
	}
	srv.RecomputeSessions()
	appLog.Debug("availability refreshed", "took", time.Since(start).String(), "sessions", srv.Sessions())
}
