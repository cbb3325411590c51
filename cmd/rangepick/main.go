package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rangepick/internal/availability"
	"rangepick/internal/capture"
	"rangepick/internal/config"
	"rangepick/internal/dates"
	appLog "rangepick/internal/log"
	"rangepick/internal/modifier"
	"rangepick/internal/picker"
	"rangepick/internal/termgrid"
	"rangepick/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	debug      bool

	print       bool
	capturePath string
	chromium    string
	month       string
	start       string
	end         string
	focus       string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	level := appLog.ParseLevel(conf.LogLevel)
	if flags.debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)
	appLog.OpenFile(appLog.FileOptions{
		Path:       conf.LogFile,
		MaxSizeMB:  conf.LogMaxSizeMB,
		MaxBackups: conf.LogMaxBackups,
		Stderr:     true,
	})
	defer appLog.Close()

	appLog.Info("rangepick starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"number_of_months", conf.NumberOfMonths,
		"minimum_nights", conf.MinimumNights,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"blocked_dates", len(conf.BlockedDates),
		"print", flags.print,
		"capture", flags.capturePath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("rangepick failed", err)
		appLog.Close()
		os.Exit(1)
	}
	appLog.Info("rangepick exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/rangepick/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Log at DEBUG level")
	flag.BoolVar(&cfg.print, "print", false, "Print the picker to the terminal and exit")
	flag.StringVar(&cfg.capturePath, "capture", "", "Write a PNG of the picker page to this path and exit")
	flag.StringVar(&cfg.chromium, "chromium", "", "Chromium binary for -capture (searched on PATH if empty)")
	flag.StringVar(&cfg.month, "month", "", "First visible month for -print/-capture (YYYY-MM)")
	flag.StringVar(&cfg.start, "start", "", "Selected start date for -print/-capture (YYYY-MM-DD)")
	flag.StringVar(&cfg.end, "end", "", "Selected end date for -print/-capture (YYYY-MM-DD)")
	flag.StringVar(&cfg.focus, "focus", "startDate", "Focused input for -print/-capture (startDate, endDate, none)")

	flag.Parse()

	return cfg
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	if flags.capturePath != "" {
		// The page is served on loopback only for the capture.
		conf.BasicAuth = nil
	}

	cal, err := availability.New(conf)
	if err != nil {
		return err
	}
	if err := cal.Refresh(ctx); err != nil {
		// Partial availability is still usable.
		appLog.Error("initial availability refresh had errors", err)
	}

	switch {
	case flags.print:
		props, month, err := oneShotProps(cal, flags)
		if err != nil {
			return err
		}
		return printPicker(conf, cal, props, month)
	case flags.capturePath != "":
		props, month, err := oneShotProps(cal, flags)
		if err != nil {
			return err
		}
		return capturePicker(ctx, conf, cal, props, month, flags)
	}

	srv := web.NewServer(conf, cal)
	sched, err := newScheduler(ctx, conf, cal, srv)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	return srv.Serve(ctx)
}

// oneShotProps turns the -start/-end/-focus/-month flags into props.
func oneShotProps(cal *availability.Calendar, flags flagConfig) (picker.Props, time.Time, error) {
	loc := cal.Location()
	var props picker.Props

	f, ok := modifier.ParseFocus(flags.focus)
	if !ok {
		return props, time.Time{}, fmt.Errorf("invalid -focus %q", flags.focus)
	}
	props.Focus = f

	var err error
	if flags.start != "" {
		if props.Range.Start, err = dates.ParseISO(flags.start, loc); err != nil {
			return props, time.Time{}, fmt.Errorf("invalid -start: %w", err)
		}
	}
	if flags.end != "" {
		if props.Range.End, err = dates.ParseISO(flags.end, loc); err != nil {
			return props, time.Time{}, fmt.Errorf("invalid -end: %w", err)
		}
	}

	var month time.Time
	if flags.month != "" {
		if month, err = dates.ParseMonth(flags.month, loc); err != nil {
			return props, time.Time{}, fmt.Errorf("invalid -month: %w", err)
		}
	}
	return props, month, nil
}

func printPicker(conf *config.Config, cal *availability.Calendar, props picker.Props, month time.Time) error {
	if month.IsZero() {
		month = props.Range.Start
	}
	if month.IsZero() {
		month = cal.Now()
	}

	ctrl := picker.New(props, cal.Rules(conf.MinimumNights), picker.Options{
		KeepOpenOnSelect:  conf.KeepOpenOnSelect,
		NumberOfMonths:    conf.NumberOfMonths,
		EnableOutsideDays: conf.EnableOutsideDays,
		WeekStart:         conf.FirstWeekday(),
		InitialMonth:      month,
	}, picker.WithClock(cal.Now))

	prompt := picker.DefaultPhrases.Prompt(props.Focus)
	out := termgrid.Render(ctrl.Window(), ctrl.Modifiers(), prompt, termgrid.DefaultStyles())
	_, err := fmt.Fprintf(os.Stdout, "%s\n\n%s\n", out, termgrid.Legend())
	return err
}

func capturePicker(ctx context.Context, conf *config.Config, cal *availability.Calendar, props picker.Props, month time.Time, flags flagConfig) error {
	srv := web.NewServer(conf, cal)
	id := srv.CreateSession(props, month)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("capture listener: %w", err)
	}
	httpSrv := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("capture server failed", err)
		}
	}()
	defer httpSrv.Close()

	url := "http://" + ln.Addr().String() + "/calendar/" + id
	appLog.Info("capturing picker", "url", url, "output", flags.capturePath)

	err = capture.CapturePickerPNG(ctx, capture.CaptureOptions{
		URL:        url,
		OutputPath: flags.capturePath,
		ExecPath:   flags.chromium,
		NoSandbox:  os.Geteuid() == 0,
	})
	if err != nil {
		return err
	}
	appLog.Info("picker captured", "output", flags.capturePath)
	return nil
}
