package event

import (
	"hash/fnv"
	"time"

	"github.com/teambition/rrule-go"

	appLog "alarmcal/internal/log"
)

// RecurType is the repeating-schedule family applied to the start time.
type RecurType int

const (
	RecurNone RecurType = iota
	RecurMinutely
	RecurDaily
	RecurWeekly
	RecurMonthly
	RecurYearly
)

func (t RecurType) String() string {
	switch t {
	case RecurNone:
		return "none"
	case RecurMinutely:
		return "minutely"
	case RecurDaily:
		return "daily"
	case RecurWeekly:
		return "weekly"
	case RecurMonthly:
		return "monthly"
	case RecurYearly:
		return "yearly"
	}
	return "unknown"
}

// Recurrence wraps a generic recurrence rule. Raw, when non-empty, is the
// verbatim RRULE text the rule was decoded from and is re-emitted unchanged;
// the typed fields are authoritative for rules built programmatically.
type Recurrence struct {
	Type     RecurType
	Interval int // in units of Type (minutes for RecurMinutely)
	Count    int // 0 = unbounded (unless Until set)
	Until    DateTime
	Weekdays []time.Weekday // weekly rules only

	Raw string
}

func (r *Recurrence) clone() Recurrence {
	c := *r
	c.Weekdays = append([]time.Weekday(nil), r.Weekdays...)
	return c
}

// Equal reports semantic equality of two optional recurrences.
func (r *Recurrence) Equal(o *Recurrence) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.RRuleString() == o.RRuleString()
}

// RRuleString renders the rule as RRULE text (without the property name).
func (r *Recurrence) RRuleString() string {
	if r == nil || (r.Type == RecurNone && r.Raw == "") {
		return ""
	}
	if r.Raw != "" {
		return r.Raw
	}
	opt := r.roption()
	return opt.String()
}

func (r *Recurrence) roption() rrule.ROption {
	var opt rrule.ROption
	switch r.Type {
	case RecurMinutely:
		opt.Freq = rrule.MINUTELY
	case RecurDaily:
		opt.Freq = rrule.DAILY
	case RecurWeekly:
		opt.Freq = rrule.WEEKLY
	case RecurMonthly:
		opt.Freq = rrule.MONTHLY
	case RecurYearly:
		opt.Freq = rrule.YEARLY
	}
	if r.Interval > 1 {
		opt.Interval = r.Interval
	}
	if r.Count > 0 {
		opt.Count = r.Count
	}
	if !r.Until.IsZero() {
		opt.Until = r.Until.Effective(0).UTC()
	}
	for _, wd := range r.Weekdays {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(wd))
	}
	return opt
}

// rule instantiates the underlying rrule anchored at start.
func (r *Recurrence) rule(start time.Time) (*rrule.RRule, error) {
	if r.Raw != "" {
		opt, err := rrule.StrToROptionInLocation(r.Raw, start.Location())
		if err != nil {
			return nil, err
		}
		opt.Dtstart = start
		return rrule.NewRRule(*opt)
	}
	opt := r.roption()
	opt.Dtstart = start
	return rrule.NewRRule(opt)
}

// ParseRRule decodes RRULE text into a Recurrence. The verbatim text is kept
// so that re-encoding cannot lose rule parts the typed fields do not model.
func ParseRRule(raw string, loc *time.Location) (*Recurrence, error) {
	if loc == nil {
		loc = time.Local
	}
	opt, err := rrule.StrToROptionInLocation(raw, loc)
	if err != nil {
		return nil, err
	}

	r := &Recurrence{Raw: raw, Interval: opt.Interval, Count: opt.Count}
	switch opt.Freq {
	case rrule.MINUTELY:
		r.Type = RecurMinutely
	case rrule.HOURLY:
		r.Type = RecurMinutely
		r.Interval = max(1, opt.Interval) * 60
	case rrule.DAILY:
		r.Type = RecurDaily
	case rrule.WEEKLY:
		r.Type = RecurWeekly
	case rrule.MONTHLY:
		r.Type = RecurMonthly
	case rrule.YEARLY:
		r.Type = RecurYearly
	default:
		r.Type = RecurNone
	}
	if r.Interval == 0 {
		r.Interval = 1
	}
	if !opt.Until.IsZero() {
		r.Until = At(opt.Until)
	}
	for _, wd := range opt.Byweekday {
		r.Weekdays = append(r.Weekdays, timeWeekday(wd))
	}
	return r, nil
}

func rruleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	}
	return rrule.SU
}

func timeWeekday(wd rrule.Weekday) time.Weekday {
	switch wd.Day() {
	case rrule.MO.Day():
		return time.Monday
	case rrule.TU.Day():
		return time.Tuesday
	case rrule.WE.Day():
		return time.Wednesday
	case rrule.TH.Day():
		return time.Thursday
	case rrule.FR.Day():
		return time.Friday
	case rrule.SA.Day():
		return time.Saturday
	}
	return time.Sunday
}

// OccurType tags the outcome of advancing to the next occurrence.
type OccurType int

const (
	// OccurNone: no occurrence strictly after the reference instant.
	OccurNone OccurType = iota
	// OccurFirstOrOnly: the event does not recur and its start is still due.
	OccurFirstOrOnly
	// OccurRecurrence: a later recurrence was found.
	OccurRecurrence
	// OccurLastRecurrence: the final recurrence of a bounded rule was found.
	OccurLastRecurrence
)

// nextOccurrence computes the first occurrence strictly after the given
// instant, without mutating the event. Date-only events compare by calendar
// date, never by instant.
func (e *AlarmEvent) nextOccurrence(after time.Time) (DateTime, OccurType) {
	recurring := e.Recurrence != nil && (e.Recurrence.Type != RecurNone || e.Recurrence.Raw != "")

	if !recurring {
		if e.StartAt.DateOnly {
			if At(after).Date().Before(e.StartAt.Date()) {
				return e.StartAt, OccurFirstOrOnly
			}
			return DateTime{}, OccurNone
		}
		if e.StartAt.Time.After(after) {
			return e.StartAt, OccurFirstOrOnly
		}
		return DateTime{}, OccurNone
	}

	start := e.StartAt.Time
	rule, err := e.Recurrence.rule(start)
	if err != nil {
		// A malformed rule yields no occurrence rather than an error.
		appLog.Warn("recurrence rule rejected, treating as non-occurring",
			"id", e.ID, "rrule", e.Recurrence.RRuleString(), "reason", err)
		return DateTime{}, OccurNone
	}

	probe := after.In(start.Location())
	if e.StartAt.DateOnly {
		// Occurrences sit at midnight; push the probe to the end of its
		// day so "strictly after" means a strictly later date.
		probe = time.Date(probe.Year(), probe.Month(), probe.Day(), 23, 59, 59, 0, start.Location())
	}

	next := rule.After(probe, false)

	if !e.StartAt.DateOnly {
		// Clock-change disambiguation: when a wall-clock time repeats
		// during a daylight-saving fall-back, the rule yields only the
		// first of the two instants. If the probe lies between them, the
		// second instant (same wall clock, one hour later) is still due.
		if prev := rule.Before(probe, true); !prev.IsZero() {
			if alt := prev.Add(time.Hour); alt.After(probe) && sameWallClock(alt, prev) {
				next = alt
			}
		}
	}

	if next.IsZero() {
		return DateTime{}, OccurNone
	}

	out := DateTime{Time: next, DateOnly: e.StartAt.DateOnly, Floating: e.StartAt.Floating}
	if rule.After(next, false).IsZero() {
		return out, OccurLastRecurrence
	}
	return out, OccurRecurrence
}

func sameWallClock(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}

// SetNextOccurrence advances the cached next recurrence to the first
// occurrence strictly after the given instant, skipping any that are already
// past. The sub-repetition counter resets whenever the recurrence advances.
// The revision is not bumped: advancement is bookkeeping, not an edit.
func (e *AlarmEvent) SetNextOccurrence(after time.Time) OccurType {
	next, typ := e.nextOccurrence(after)
	if typ == OccurNone {
		return OccurNone
	}
	if !next.Equal(e.NextRecur) {
		e.NextRecur = next
		e.RepeatIndex = 0
	}
	e.trig = triggerMemo{}
	return typ
}

// NextRepetition returns how many of the fixed-interval sub-repeats have
// already fired since the current recurrence's trigger, clamped to the
// repetition count. Zero means the main trigger itself is the next one due.
func (e *AlarmEvent) NextRepetition(now time.Time, startOfDayMinutes int) int {
	if e.Repetition.IsZero() {
		return 0
	}
	trigger := e.MainTrigger().Effective(startOfDayMinutes)
	if !now.After(trigger) {
		return 0
	}
	n := int(now.Sub(trigger) / e.Repetition.Interval)
	if n > e.Repetition.Count {
		n = e.Repetition.Count
	}
	return n
}

// DeferralLimit is the latest instant to which the pending trigger may still
// be deferred: the earlier of the following recurrence (minus a minute) and
// the late-cancellation window. maxLateMinutes is the administrator ceiling,
// applied when the event carries no late-cancel interval of its own. ok is
// false when nothing bounds the deferral.
func (e *AlarmEvent) DeferralLimit(maxLateMinutes, startOfDayMinutes int) (limit time.Time, ok bool) {
	trigger := e.MainTrigger().Effective(startOfDayMinutes)

	if next, typ := e.nextOccurrence(trigger); typ == OccurRecurrence || typ == OccurLastRecurrence {
		limit = next.Effective(startOfDayMinutes).Add(-time.Minute)
		ok = true
	}

	window := e.LateCancelMinutes
	if window <= 0 {
		window = maxLateMinutes
	}
	if window > 0 {
		w := trigger.Add(time.Duration(window) * time.Minute)
		if !ok || w.Before(limit) {
			limit = w
			ok = true
		}
	}
	return limit, ok
}

// DeferralAllowed reports whether deferring is still possible at the given
// instant. This is a pure function of the clock, recomputed on demand.
func (e *AlarmEvent) DeferralAllowed(now time.Time, maxLateMinutes, startOfDayMinutes int) bool {
	limit, ok := e.DeferralLimit(maxLateMinutes, startOfDayMinutes)
	return !ok || now.Before(limit)
}

// WorkConfig is the working-time configuration consulted when the
// work-time-only flag is set. It is passed explicitly; the model keeps no
// ambient global state.
type WorkConfig struct {
	Days              [7]bool // indexed by time.Weekday
	StartMinutes      int     // working hours lower bound, minutes after midnight
	EndMinutes        int     // working hours upper bound, exclusive
	StartOfDayMinutes int     // trigger time for date-only events
}

func (w WorkConfig) hash() uint64 {
	h := fnv.New64a()
	for _, d := range w.Days {
		b := byte(0)
		if d {
			b = 1
		}
		h.Write([]byte{b})
	}
	h.Write([]byte{
		byte(w.StartMinutes), byte(w.StartMinutes >> 8),
		byte(w.EndMinutes), byte(w.EndMinutes >> 8),
		byte(w.StartOfDayMinutes), byte(w.StartOfDayMinutes >> 8),
	})
	return h.Sum64()
}

// HolidayChecker is the read-only holiday lookup consulted when the
// exclude-holidays flag is set.
type HolidayChecker interface {
	IsHoliday(date time.Time) bool
	Region() string
}

// triggerMemo caches the work-time/holiday-adjusted trigger, keyed by the
// inputs the computation depends on. Assigning a zero value invalidates it.
type triggerMemo struct {
	valid  bool
	base   DateTime
	region string
	work   uint64
	result DateTime
	ok     bool
}

const maxAdjustIterations = 1000

// AdjustedTrigger is the main trigger skipped forward to the next occurrence
// that falls inside working time and outside holidays, as required by the
// event's flags. It is re-derivable purely from (recurrence state, holiday
// cache, working-time config); the memoized result is invalidated whenever
// any of those change.
func (e *AlarmEvent) AdjustedTrigger(wc WorkConfig, hol HolidayChecker) (DateTime, bool) {
	if !e.Flags.ExcludeHolidays && !e.Flags.WorkTimeOnly {
		return e.MainTrigger(), true
	}

	region := ""
	if hol != nil {
		region = hol.Region()
	}
	if e.trig.valid && e.trig.base.Equal(e.MainTrigger()) &&
		e.trig.region == region && e.trig.work == wc.hash() {
		return e.trig.result, e.trig.ok
	}

	cand := e.MainTrigger()
	result := DateTime{}
	ok := false
	for i := 0; i < maxAdjustIterations; i++ {
		if e.occurrenceQualifies(cand, wc, hol) {
			result, ok = cand, true
			break
		}
		next, typ := e.nextOccurrence(cand.Effective(wc.StartOfDayMinutes))
		if typ == OccurNone {
			break
		}
		cand = next
	}

	e.trig = triggerMemo{
		valid:  true,
		base:   e.MainTrigger(),
		region: region,
		work:   wc.hash(),
		result: result,
		ok:     ok,
	}
	return result, ok
}

func (e *AlarmEvent) occurrenceQualifies(dt DateTime, wc WorkConfig, hol HolidayChecker) bool {
	eff := dt.Effective(wc.StartOfDayMinutes)
	if e.Flags.ExcludeHolidays && hol != nil && hol.IsHoliday(eff) {
		return false
	}
	if e.Flags.WorkTimeOnly {
		if !wc.Days[eff.Weekday()] {
			return false
		}
		if !dt.DateOnly {
			mins := eff.Hour()*60 + eff.Minute()
			if mins < wc.StartMinutes || mins >= wc.EndMinutes {
				return false
			}
		}
	}
	return true
}

// NextTrigger is the next due instant at the given time: a pending deferral
// when one is set and still in the future, otherwise the adjusted main
// trigger.
func (e *AlarmEvent) NextTrigger(now time.Time, wc WorkConfig, hol HolidayChecker) (DateTime, bool) {
	if e.Deferral != nil && e.Deferral.At.Effective(wc.StartOfDayMinutes).After(now) {
		return e.Deferral.At, true
	}
	return e.AdjustedTrigger(wc, hol)
}
