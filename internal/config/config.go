package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HolidayRule describes one holiday in a region definition.
// Either Month/Day (annual) or Date (one-off, "2006-01-02") is set.
type HolidayRule struct {
	Name  string `yaml:"name" json:"name"`
	Month int    `yaml:"month,omitempty" json:"month,omitempty"`
	Day   int    `yaml:"day,omitempty" json:"day,omitempty"`
	Date  string `yaml:"date,omitempty" json:"date,omitempty"`
	// Working marks a named holiday on which work still happens
	// (it is reported but does not suppress work-time triggers).
	Working bool `yaml:"working,omitempty" json:"working,omitempty"`
}

// HolidayRegion is a named set of holiday rules.
type HolidayRegion struct {
	Name  string        `yaml:"name" json:"name"`
	Rules []HolidayRule `yaml:"rules" json:"rules"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone used for trigger computation (e.g. "Europe/London").
	Timezone string `yaml:"timezone" json:"timezone"`

	// StartOfDay is the wall-clock time ("HH:MM") at which date-only alarms trigger.
	StartOfDay string `yaml:"start_of_day" json:"start_of_day"`

	// WorkDays lists working weekdays, lowercase English names ("monday".."sunday").
	WorkDays []string `yaml:"work_days" json:"work_days"`

	// WorkStart / WorkEnd are the working-hours bounds ("HH:MM").
	WorkStart string `yaml:"work_start" json:"work_start"`
	WorkEnd   string `yaml:"work_end" json:"work_end"`

	// Holidays is the active holiday region definition.
	Holidays HolidayRegion `yaml:"holidays" json:"holidays"`

	// HolidayYearsAhead caps how far forward the holiday cache extends.
	HolidayYearsAhead int `yaml:"holiday_years_ahead" json:"holiday_years_ahead"`

	// MaxLateMinutes is the ceiling on late-cancellation windows, and
	// therefore on how far past its due time an alarm may still be deferred.
	MaxLateMinutes int `yaml:"max_late_minutes" json:"max_late_minutes"`

	// WatchCron is a cron-style schedule string used by the CLI watch mode.
	WatchCron string `yaml:"watch" json:"watch"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:          "Local",
		StartOfDay:        "08:00",
		WorkDays:          []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		WorkStart:         "09:00",
		WorkEnd:           "17:00",
		Holidays:          HolidayRegion{},
		HolidayYearsAhead: 5,
		MaxLateMinutes:    7 * 24 * 60,
		WatchCron:         "* * * * *",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if !validClock(c.StartOfDay) {
		c.StartOfDay = "08:00"
	}
	if len(c.WorkDays) == 0 {
		c.WorkDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	}
	if !validClock(c.WorkStart) {
		c.WorkStart = "09:00"
	}
	if !validClock(c.WorkEnd) {
		c.WorkEnd = "17:00"
	}
	if c.HolidayYearsAhead <= 0 {
		c.HolidayYearsAhead = 5
	}
	if c.MaxLateMinutes <= 0 {
		c.MaxLateMinutes = 7 * 24 * 60
	}
	if c.WatchCron == "" {
		c.WatchCron = "* * * * *"
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// StartOfDayMinutes returns StartOfDay as minutes after midnight.
func (c *Config) StartOfDayMinutes() int {
	m, _ := parseClock(c.StartOfDay)
	return m
}

// WorkDayMask converts WorkDays into a per-weekday bitmap indexed by time.Weekday.
func (c *Config) WorkDayMask() [7]bool {
	var mask [7]bool
	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	for _, name := range c.WorkDays {
		if wd, ok := names[name]; ok {
			mask[wd] = true
		}
	}
	return mask
}

// WorkHours returns the working-hours bounds as minutes after midnight.
func (c *Config) WorkHours() (start, end int) {
	start, _ = parseClock(c.WorkStart)
	end, _ = parseClock(c.WorkEnd)
	return start, end
}

func validClock(s string) bool {
	_, err := parseClock(s)
	return err == nil
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value out of range: %q", s)
	}
	return h*60 + m, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, create the parent directory if needed,
//     write a default config with 0600 perms, and return the default config.
//   - If the file exists, read YAML, unmarshal, and normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

// Save writes the configuration as YAML with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
