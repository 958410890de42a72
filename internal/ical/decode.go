package ical

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"alarmcal/internal/event"
	appLog "alarmcal/internal/log"
)

// Decode parses calendar text and decodes every event in it. Events that
// fail to decode are skipped and reported in the error slice, so one bad
// item cannot poison a whole calendar; the single error return is reserved
// for calendar-level failures (unparsable text, incompatible version).
func Decode(r io.Reader) ([]*event.AlarmEvent, []error, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, nil, err
	}
	if err := checkVersion(cal); err != nil {
		return nil, nil, err
	}

	var events []*event.AlarmEvent
	var errs []error
	for _, comp := range cal.Components {
		ve, ok := comp.(*ics.VEvent)
		if !ok {
			if _, tz := comp.(*ics.VTimezone); tz {
				continue
			}
			errs = append(errs, fmt.Errorf("%w: %T", ErrNotAnEvent, comp))
			continue
		}
		e, err := DecodeEvent(ve)
		if err != nil {
			// Log and skip this event, but keep decoding others.
			appLog.Error("alarm event decode failed", err)
			errs = append(errs, err)
			continue
		}
		events = append(events, e)
	}
	return events, errs, nil
}

func checkVersion(cal *ics.Calendar) error {
	for _, p := range cal.CalendarProperties {
		if p.IANAToken != propVersion {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(p.Value))
		if err != nil || v < 1 || v > formatVersion {
			return fmt.Errorf("%w: %q", ErrStaleFormat, p.Value)
		}
		return nil
	}
	// No marker: written by a generic calendar tool; decode what we can.
	return nil
}

// DecodeEvent reconstructs an AlarmEvent from a VEVENT. All failures are
// typed; malformed flag tokens are dropped individually rather than failing
// the decode.
func DecodeEvent(ve *ics.VEvent) (*event.AlarmEvent, error) {
	uidProp := ve.GetProperty(ics.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return nil, fmt.Errorf("%w: missing UID", ErrNotAnEvent)
	}
	uid := uidProp.Value

	cat, _, err := decodeCategory(ve)
	if err != nil {
		return nil, err
	}
	if idCat, _ := event.SplitID(uid); idCat != cat {
		return nil, fmt.Errorf("%w: id %q, category %s", ErrIDMismatch, uid, cat)
	}

	alarms := ve.Alarms()
	if len(alarms) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoUsableAlarms, uid)
	}

	e := &event.AlarmEvent{
		ID:                uid,
		Category:          cat,
		TemplateAfterTime: -1,
		Enabled:           true,
	}

	if p := ve.GetProperty(ics.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			e.Revision = n
		}
	}
	if p := ve.GetProperty(ics.ComponentPropertyCreated); p != nil {
		if dt, err := parseDateTimeValue(p.Value); err == nil {
			e.CreatedAt = dt
		}
	}
	if p := ve.GetProperty(ics.ComponentPropertyDtStart); p != nil {
		dt, err := parseDateTimeValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("event %s: malformed DTSTART %q", uid, p.Value)
		}
		e.StartAt = dt
	}

	applyFlagsProperty(e, ve)

	if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil && cat == event.CategoryTemplate {
		e.TemplateName = p.Value
	}

	if p := ve.GetProperty(ics.ComponentPropertyRrule); p != nil && p.Value != "" {
		rec, err := event.ParseRRule(p.Value, e.StartAt.Time.Location())
		if err != nil {
			// Keep the raw rule so a round trip cannot lose it; the
			// recurrence engine treats it as non-occurring.
			appLog.Warn("unparsable RRULE kept verbatim", "id", uid, "rrule", p.Value, "reason", err)
			rec = &event.Recurrence{Raw: p.Value}
		}
		e.Recurrence = rec
	}
	if p := ve.GetProperty(ics.ComponentProperty(propNextRecur)); p != nil {
		if dt, err := parseDateTimeValue(p.Value); err == nil {
			e.NextRecur = dt
		} else {
			appLog.Warn("dropping malformed next-recurrence cache", "id", uid, "value", p.Value)
		}
	}
	if p := ve.GetProperty(ics.ComponentProperty(propRepeat)); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			e.RepeatIndex = n
		}
	}

	// Preserve other applications' X- properties verbatim.
	for _, p := range ve.Properties {
		name := p.IANAToken
		if strings.HasPrefix(name, "X-") && !ownProperty(name) {
			if e.CustomProperties == nil {
				e.CustomProperties = make(map[string]string)
			}
			e.CustomProperties[name] = p.Value
		}
	}

	if err := decodeAlarms(e, alarms); err != nil {
		return nil, err
	}
	return e, nil
}

// decodeCategory reads the event-level category marker, returning the
// category and the raw token list (the displaying variant carries extras).
func decodeCategory(ve *ics.VEvent) (event.Category, []string, error) {
	p := ve.GetProperty(ics.ComponentProperty(propType))
	if p == nil || p.Value == "" {
		return 0, nil, fmt.Errorf("%w: missing category marker", ErrUnknownCategory)
	}
	parts := strings.Split(p.Value, ";")
	switch parts[0] {
	case catActive:
		return event.CategoryActive, parts, nil
	case catArchived:
		return event.CategoryArchived, parts, nil
	case catTemplate:
		return event.CategoryTemplate, parts, nil
	case catDisplaying:
		return event.CategoryDisplaying, parts, nil
	}
	return 0, nil, fmt.Errorf("%w: %q", ErrUnknownCategory, parts[0])
}

func applyFlagsProperty(e *event.AlarmEvent, ve *ics.VEvent) {
	var toks []string
	if p := ve.GetProperty(ics.ComponentProperty(propFlags)); p != nil && p.Value != "" {
		toks = strings.Split(p.Value, ";")
	}
	fv := decodeFlagTokens(toks)

	e.Flags = fv.Flags
	e.Enabled = !fv.Disabled
	e.ReadOnly = fv.ReadOnly
	e.LateCancelMinutes = fv.LateCancelMinutes
	e.DeferDefaultMinutes = fv.DeferMinutes
	e.DeferDefaultDateOnly = fv.DeferDateOnly
	e.TemplateAfterTime = fv.TemplateAfterTime
	e.EmailID = fv.EmailID
	e.UnknownFlags = fv.Unknown

	// The DATE token is authoritative for date-only semantics even when
	// DTSTART carries a time of day.
	if fv.DateOnly {
		e.StartAt.DateOnly = true
	}
	if fv.Floating {
		e.StartAt.Floating = true
	}
	if fv.ReminderMinutes != 0 {
		e.Reminder = &event.Reminder{Minutes: fv.ReminderMinutes, OnceOnly: fv.ReminderOnce}
	}
}

func decodeAlarms(e *event.AlarmEvent, alarms []*ics.VAlarm) error {
	var main *ics.VAlarm
	var mainRoles []string

	for _, al := range alarms {
		roles := alarmRoles(al)
		flags := alarmFlagsOf(al)

		switch {
		case containsRole(roles, roleDeferral), containsRole(roles, roleDateDeferral):
			dur, err := alarmTriggerOffset(al)
			if err != nil {
				appLog.Warn("dropping deferral alarm with malformed trigger", "id", e.ID, "reason", err)
				continue
			}
			e.Deferral = &event.Deferral{At: event.DateTime{
				Time:     e.StartAt.Time.Add(dur),
				DateOnly: containsRole(roles, roleDateDeferral),
				Floating: e.StartAt.Floating,
			}}

		case containsRole(roles, roleReminder):
			if e.Reminder == nil {
				// No flag token: recover the offset from the trigger.
				if dur, err := alarmTriggerOffset(al); err == nil && dur != 0 {
					e.Reminder = &event.Reminder{Minutes: int(-dur / time.Minute)}
				}
			}
			if e.Reminder != nil && flags.Hide {
				e.Reminder.Hidden = true
			}

		case containsRole(roles, rolePre):
			e.PreAction = event.CommandSpec{
				Command:        alarmDescription(al),
				ExecOnDeferral: flags.ExecOnDeferral,
				CancelOnError:  flags.CancelOnError,
				DontShowError:  flags.DontShowError,
			}

		case containsRole(roles, rolePost):
			e.PostAction = alarmDescription(al)

		case containsRole(roles, roleLogin):
			// The LOGIN flag token is authoritative; presence of the
			// alarm alone is tolerated.
			e.Flags.RepeatAtLogin = true

		default:
			main = al
			mainRoles = roles
		}
	}

	if main == nil {
		return fmt.Errorf("%w: %s has no main alarm", ErrNoUsableAlarms, e.ID)
	}
	decodeMainAlarm(e, main, mainRoles)
	return nil
}

func decodeMainAlarm(e *event.AlarmEvent, al *ics.VAlarm, roles []string) {
	action := ""
	if p := al.GetProperty(ics.ComponentProperty("ACTION")); p != nil {
		action = strings.ToUpper(strings.TrimSpace(p.Value))
	}
	desc := alarmDescription(al)

	switch {
	case action == string(actionProcedure):
		a := event.CommandAction{Command: desc}
		if p := al.GetProperty(ics.ComponentProperty(propLog)); p != nil {
			switch p.Value {
			case logModeXterm:
				e.Flags.ExecInTerminal = true
			case logModeDisplay:
				e.Flags.DisplayCommandOutput = true
			default:
				a.LogFile = p.Value
			}
		}
		e.Action = a

	case action == string(ics.ActionEmail):
		a := event.EmailAction{Body: desc}
		if p := al.GetProperty(ics.ComponentPropertySummary); p != nil {
			a.Subject = p.Value
		}
		for _, p := range al.GetProperties(ics.ComponentPropertyAttendee) {
			addr := p.Value
			if len(addr) >= 7 && strings.EqualFold(addr[:7], "MAILTO:") {
				addr = addr[7:]
			}
			a.To = append(a.To, addr)
		}
		for _, p := range al.GetProperties(ics.ComponentProperty("ATTACH")) {
			a.Attachments = append(a.Attachments, p.Value)
		}
		e.Action = a

	case action == string(ics.ActionAudio):
		a := event.AudioAction{Sound: event.SoundSpec{Volume: -1}}
		if s := decodeSound(al); s != nil {
			a.Sound = *s
		}
		e.Action = a

	case containsRole(roles, roleFile):
		a := event.FileAction{Path: desc}
		a.FgColour, a.BgColour, a.Font = decodeFontColour(al)
		a.Sound = decodeSound(al)
		e.Action = a

	default:
		a := event.MessageAction{Text: desc}
		a.FgColour, a.BgColour, a.Font = decodeFontColour(al)
		a.Sound = decodeSound(al)
		e.Action = a
	}

	// Sub-repetition count/interval.
	var count int
	var interval time.Duration
	if p := al.GetProperty(ics.ComponentProperty("REPEAT")); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			count = n
		}
	}
	if p := al.GetProperty(ics.ComponentProperty("DURATION")); p != nil {
		if d, err := parseISODuration(p.Value); err == nil {
			interval = d
		}
	}
	if count > 0 && interval > 0 {
		e.Repetition = event.Repetition{Interval: interval, Count: count}
	}
}

func alarmRoles(al *ics.VAlarm) []string {
	p := al.GetProperty(ics.ComponentProperty(propType))
	if p == nil || p.Value == "" {
		return nil
	}
	return strings.Split(p.Value, ",")
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func alarmFlagsOf(al *ics.VAlarm) alarmFlags {
	p := al.GetProperty(ics.ComponentProperty(propFlags))
	if p == nil || p.Value == "" {
		return alarmFlags{}
	}
	return decodeAlarmFlagTokens(strings.Split(p.Value, ";"))
}

func alarmDescription(al *ics.VAlarm) string {
	if p := al.GetProperty(ics.ComponentPropertyDescription); p != nil {
		return p.Value
	}
	return ""
}

func alarmTriggerOffset(al *ics.VAlarm) (time.Duration, error) {
	p := al.GetProperty(ics.ComponentProperty("TRIGGER"))
	if p == nil {
		return 0, errMissingParam
	}
	return parseISODuration(p.Value)
}

func decodeFontColour(al *ics.VAlarm) (fg, bg, font string) {
	p := al.GetProperty(ics.ComponentProperty(propFontColour))
	if p == nil {
		return "", "", ""
	}
	parts := strings.SplitN(p.Value, ";", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

func decodeSound(al *ics.VAlarm) *event.SoundSpec {
	s := event.SoundSpec{Volume: -1}
	found := false

	if p := al.GetProperty(ics.ComponentProperty("ATTACH")); p != nil && p.Value != "" {
		s.File = p.Value
		found = true
	}
	if p := al.GetProperty(ics.ComponentProperty(propVolume)); p != nil {
		parts := strings.Split(p.Value, ";")
		if len(parts) >= 1 {
			if v, err := strconv.ParseFloat(parts[0], 32); err == nil {
				s.Volume = float32(v)
				found = true
			}
		}
		if len(parts) >= 2 {
			if v, err := strconv.ParseFloat(parts[1], 32); err == nil {
				s.FadeVolume = float32(v)
			}
		}
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				s.FadeSeconds = n
			}
		}
	}
	if f := alarmFlagsOf(al); f.SoundRepeat {
		s.Repeat = true
		s.RepeatPause = f.SoundPause
		found = true
	}

	if !found {
		return nil
	}
	return &s
}
