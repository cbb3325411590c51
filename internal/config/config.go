package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription whose events block (or
// highlight) calendar days.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Highlight marks the feed's days as highlighted instead of blocked.
	Highlight bool `yaml:"highlight" json:"highlight"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// OutsideRangeConfig bounds the selectable window relative to today.
type OutsideRangeConfig struct {
	// AllowPast lets days before today be picked.
	AllowPast bool `yaml:"allow_past" json:"allow_past"`
	// MaxDaysAhead rules out days further than this from today. 0 = no limit.
	MaxDaysAhead int `yaml:"max_days_ahead" json:"max_days_ahead"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the picker API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone calendar days are interpreted in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is the first grid column: "monday" or "sunday" (default).
	WeekStart string `yaml:"week_start" json:"week_start"`

	NumberOfMonths    int  `yaml:"number_of_months" json:"number_of_months"`
	EnableOutsideDays bool `yaml:"enable_outside_days" json:"enable_outside_days"`
	MinimumNights     int  `yaml:"minimum_nights" json:"minimum_nights"`
	KeepOpenOnSelect  bool `yaml:"keep_open_on_select" json:"keep_open_on_select"`

	// RefreshCron is the cron schedule for reloading ICS feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BlockedDates are YYYY-MM-DD days that can never be picked.
	BlockedDates []string `yaml:"blocked_dates" json:"blocked_dates"`
	// BlockedWeekdays are weekday names ("sunday", ...) that can never be picked.
	BlockedWeekdays []string `yaml:"blocked_weekdays" json:"blocked_weekdays"`
	// HighlightedDates are YYYY-MM-DD days rendered as highlighted.
	HighlightedDates []string `yaml:"highlighted_dates" json:"highlighted_dates"`
	// HighlightKeywords highlight (rather than block) event days whose
	// summary contains one of these words.
	HighlightKeywords []string `yaml:"highlight_keywords" json:"highlight_keywords"`

	OutsideRange OutsideRangeConfig `yaml:"outside_range" json:"outside_range"`

	// ICS is the list of subscribed availability feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	LogLevel      string `yaml:"log_level" json:"log_level"`
	LogFile       string `yaml:"log_file" json:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" json:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups" json:"log_max_backups"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen   = "127.0.0.1:8080"
	defaultTimezone = "UTC"
	defaultRefresh  = "*/15 * * * *"
	defaultCacheDir = "/var/lib/rangepick/ics-cache"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            defaultListen,
		Timezone:          defaultTimezone,
		WeekStart:         "sunday",
		NumberOfMonths:    1,
		EnableOutsideDays: false,
		MinimumNights:     1,
		KeepOpenOnSelect:  false,
		RefreshCron:       defaultRefresh,
		BlockedDates:      []string{},
		BlockedWeekdays:   []string{},
		HighlightedDates:  []string{},
		HighlightKeywords: []string{},
		ICS:               []ICSConfig{},
		CacheDir:          defaultCacheDir,
		LogLevel:          "info",
		LogMaxSizeMB:      10,
		LogMaxBackups:     3,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday":
		c.WeekStart = "monday"
	default:
		// Unknown value; fall back to sunday to avoid surprising layouts.
		c.WeekStart = "sunday"
	}
	if c.NumberOfMonths < 1 {
		c.NumberOfMonths = 1
	}
	// A negative minimum stay is a caller error; clamp it.
	if c.MinimumNights < 0 {
		c.MinimumNights = 0
	}
	if c.OutsideRange.MaxDaysAhead < 0 {
		c.OutsideRange.MaxDaysAhead = 0
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.BlockedDates == nil {
		c.BlockedDates = []string{}
	}
	if c.BlockedWeekdays == nil {
		c.BlockedWeekdays = []string{}
	}
	if c.HighlightedDates == nil {
		c.HighlightedDates = []string{}
	}
	if c.HighlightKeywords == nil {
		c.HighlightKeywords = []string{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = 10
	}
	if c.LogMaxBackups < 0 {
		c.LogMaxBackups = 0
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FirstWeekday returns the configured first grid column.
func (c *Config) FirstWeekday() time.Weekday {
	if strings.EqualFold(c.WeekStart, "monday") {
		return time.Monday
	}
	return time.Sunday
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions,
// creating the parent directory (0700) when needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".rangepick-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
