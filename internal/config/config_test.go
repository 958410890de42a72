package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	var c Config
	c.Normalize()

	def := DefaultConfig()
	assert.Equal(t, def.Timezone, c.Timezone)
	assert.Equal(t, def.StartOfDay, c.StartOfDay)
	assert.Equal(t, def.WorkDays, c.WorkDays)
	assert.Equal(t, def.WorkStart, c.WorkStart)
	assert.Equal(t, def.WorkEnd, c.WorkEnd)
	assert.Equal(t, def.HolidayYearsAhead, c.HolidayYearsAhead)
	assert.Equal(t, def.MaxLateMinutes, c.MaxLateMinutes)
	assert.Equal(t, def.WatchCron, c.WatchCron)
}

func TestNormalizeKeepsValidValues(t *testing.T) {
	c := Config{
		Timezone:   "Europe/London",
		StartOfDay: "06:30",
		WorkDays:   []string{"saturday", "sunday"},
		WorkStart:  "10:00",
		WorkEnd:    "14:00",
	}
	c.Normalize()
	assert.Equal(t, "Europe/London", c.Timezone)
	assert.Equal(t, "06:30", c.StartOfDay)
	assert.Equal(t, []string{"saturday", "sunday"}, c.WorkDays)
}

func TestNormalizeRejectsBadClocks(t *testing.T) {
	c := Config{StartOfDay: "25:00", WorkStart: "nine", WorkEnd: "17:99"}
	c.Normalize()
	assert.Equal(t, "08:00", c.StartOfDay)
	assert.Equal(t, "09:00", c.WorkStart)
	assert.Equal(t, "17:00", c.WorkEnd)
}

func TestStartOfDayMinutes(t *testing.T) {
	c := Config{StartOfDay: "06:30"}
	assert.Equal(t, 6*60+30, c.StartOfDayMinutes())
}

func TestWorkDayMask(t *testing.T) {
	c := Config{WorkDays: []string{"monday", "friday", "notaday"}}
	mask := c.WorkDayMask()
	assert.True(t, mask[time.Monday])
	assert.True(t, mask[time.Friday])
	assert.False(t, mask[time.Sunday])
	assert.False(t, mask[time.Tuesday])
}

func TestWorkHours(t *testing.T) {
	c := Config{WorkStart: "09:15", WorkEnd: "17:45"}
	start, end := c.WorkHours()
	assert.Equal(t, 9*60+15, start)
	assert.Equal(t, 17*60+45, end)
}

func TestLocation(t *testing.T) {
	c := Config{Timezone: "Local"}
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	c.Timezone = "Europe/London"
	loc, err = c.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())

	c.Timezone = "Nowhere/Lost"
	_, err = c.Location()
	assert.Error(t, err)
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	// Second load reads the file it just wrote.
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Timezone, again.Timezone)
	assert.Equal(t, cfg.StartOfDay, again.StartOfDay)
	assert.Equal(t, cfg.WorkDays, again.WorkDays)
	assert.Equal(t, cfg.WatchCron, again.WatchCron)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: Europe/London\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", cfg.Timezone)
	assert.Equal(t, "08:00", cfg.StartOfDay)
	assert.Equal(t, 7*24*60, cfg.MaxLateMinutes)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_days: {broken\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Holidays = HolidayRegion{
		Name: "home",
		Rules: []HolidayRule{
			{Name: "New Year", Month: 1, Day: 1},
			{Name: "Moving day", Date: "2026-09-01", Working: true},
		},
	}
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
