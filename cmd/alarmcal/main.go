package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"alarmcal/internal/config"
	"alarmcal/internal/event"
	"alarmcal/internal/holiday"
	"alarmcal/internal/ical"
	appLog "alarmcal/internal/log"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath   string
	calendarPath string
	once         bool
	dump         bool
	verbose      bool
}

func main() {
	appLog.Info("alarmcal starting", "version", "0.1.0-dev")

	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone in config", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"work_days", strings.Join(conf.WorkDays, ","),
		"holiday_region", conf.Holidays.Name,
		"watch", conf.WatchCron,
		"calendar", flags.calendarPath,
		"once", flags.once,
	)

	hol := holiday.New(holiday.NewRegionSource(conf.Holidays, loc), loc, conf.HolidayYearsAhead)
	wc := event.WorkConfig{
		Days:              conf.WorkDayMask(),
		StartOfDayMinutes: conf.StartOfDayMinutes(),
	}
	wc.StartMinutes, wc.EndMinutes = conf.WorkHours()

	run := func() {
		if err := report(flags, wc, hol); err != nil {
			appLog.Error("calendar report failed", err, "calendar", flags.calendarPath)
		}
	}

	if flags.once {
		run()
		return
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sched := cron.New()
	if _, err := sched.AddFunc(conf.WatchCron, run); err != nil {
		appLog.Error("invalid watch schedule", err, "watch", conf.WatchCron)
		os.Exit(1)
	}
	run()
	sched.Start()

	<-ctx.Done()
	stopCtx := sched.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(2 * time.Second):
	}
	appLog.Info("alarmcal exiting")
}

// report decodes the calendar file and prints each alarm's next trigger,
// adjusted for working time and holidays.
func report(flags flagConfig, wc event.WorkConfig, hol *holiday.Cache) error {
	f, err := os.Open(flags.calendarPath)
	if err != nil {
		return err
	}
	defer f.Close()

	events, errs, err := ical.Decode(f)
	if err != nil {
		return err
	}
	for _, derr := range errs {
		appLog.Warn("skipped undecodable calendar item", "reason", derr)
	}

	now := time.Now()
	for _, e := range events {
		if e.Category != event.CategoryActive || !e.Enabled {
			continue
		}
		e.SetNextOccurrence(now)
		next, ok := e.NextTrigger(now, wc, hol)
		if !ok {
			fmt.Printf("%s\t(no further occurrences)\n", e.ID)
			continue
		}
		fmt.Printf("%s\t%s\n", e.ID, next.Effective(wc.StartOfDayMinutes).Format(time.RFC3339))
	}

	if flags.dump {
		// Re-encode the decoded events: a quick round-trip check.
		cal := ical.NewCalendar()
		for _, e := range events {
			ical.EncodeEvent(cal, e)
		}
		fmt.Print(cal.Serialize())
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/alarmcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.calendarPath, "calendar", "alarms.ics", "Path to the alarm calendar file")
	flag.BoolVar(&cfg.once, "once", false, "Report next triggers once and exit")
	flag.BoolVar(&cfg.dump, "dump", false, "Dump the re-encoded calendar to stdout")
	flag.BoolVar(&cfg.verbose, "v", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
