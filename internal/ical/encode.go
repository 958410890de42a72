package ical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"alarmcal/internal/event"
)

// NewCalendar creates an empty calendar carrying the standard preamble and
// the encoder version marker.
func NewCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetVersion("2.0")
	cal.CalendarProperties = append(cal.CalendarProperties, ics.CalendarProperty{
		BaseProperty: ics.BaseProperty{
			IANAToken: propVersion,
			Value:     strconv.Itoa(formatVersion),
		},
	})
	return cal
}

// Encode serializes a single event into a fresh calendar. Encoding never
// fails: an event in an invalid or partial state still serializes
// deterministically; validity is the caller's concern.
func Encode(e *event.AlarmEvent) *ics.Calendar {
	cal := NewCalendar()
	EncodeEvent(cal, e)
	return cal
}

// EncodeEvent appends the event to cal as a VEVENT with its alarm
// sub-components. The input event is never mutated.
func EncodeEvent(cal *ics.Calendar, e *event.AlarmEvent) *ics.VEvent {
	ve := cal.AddEvent(e.ID)

	created := e.CreatedAt
	if created.IsZero() {
		created = event.At(time.Now())
	}
	ve.SetDtStampTime(created.Time.UTC())
	ve.SetProperty(ics.ComponentPropertyCreated, created.Time.UTC().Format(layoutUTC))
	ve.SetProperty(ics.ComponentPropertySequence, strconv.Itoa(e.Revision))
	ve.SetProperty(ics.ComponentPropertyDtStart, formatDateTimeValue(e.StartAt))

	ve.SetProperty(ics.ComponentProperty(propType), categoryToken(e.Category))

	if e.TemplateName != "" {
		ve.SetProperty(ics.ComponentPropertySummary, e.TemplateName)
	}

	if toks := encodeFlagTokens(flagValuesFromEvent(e)); len(toks) > 0 {
		ve.SetProperty(ics.ComponentProperty(propFlags), strings.Join(toks, ";"))
	}

	if rr := e.Recurrence.RRuleString(); rr != "" {
		ve.SetProperty(ics.ComponentPropertyRrule, rr)
	}
	if !e.NextRecur.IsZero() && !e.NextRecur.Equal(e.StartAt) {
		ve.SetProperty(ics.ComponentProperty(propNextRecur), formatDateTimeValue(e.NextRecur))
	}
	if e.RepeatIndex > 0 {
		ve.SetProperty(ics.ComponentProperty(propRepeat), strconv.Itoa(e.RepeatIndex))
	}

	// Opaque pass-through properties, in stable order.
	keys := make([]string, 0, len(e.CustomProperties))
	for k := range e.CustomProperties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ve.SetProperty(ics.ComponentProperty(k), e.CustomProperties[k])
	}

	encodeMainAlarm(ve, e)
	encodeReminderAlarm(ve, e)
	encodeDeferralAlarm(ve, e)
	encodePrePostAlarms(ve, e)
	encodeLoginAlarm(ve, e)

	return ve
}

func flagValuesFromEvent(e *event.AlarmEvent) flagValues {
	fv := flagValues{
		Flags:             e.Flags,
		DateOnly:          e.StartAt.DateOnly,
		Floating:          e.StartAt.Floating,
		Disabled:          !e.Enabled,
		ReadOnly:          e.ReadOnly,
		LateCancelMinutes: e.LateCancelMinutes,
		DeferMinutes:      e.DeferDefaultMinutes,
		DeferDateOnly:     e.DeferDefaultDateOnly,
		TemplateAfterTime: e.TemplateAfterTime,
		EmailID:           e.EmailID,
		Unknown:           e.UnknownFlags,
	}
	if e.Reminder != nil {
		fv.ReminderMinutes = e.Reminder.Minutes
		fv.ReminderOnce = e.Reminder.OnceOnly
	}
	return fv
}

func encodeMainAlarm(ve *ics.VEvent, e *event.AlarmEvent) {
	al := ve.AddAlarm()
	al.SetTrigger("PT0S")

	switch a := e.Action.(type) {
	case event.FileAction:
		al.SetAction(ics.ActionDisplay)
		setAlarmRole(al, roleFile)
		al.SetProperty(ics.ComponentPropertyDescription, a.Path)
		encodeFontColour(al, a.FgColour, a.BgColour, a.Font)
		encodeSound(al, a.Sound)

	case event.CommandAction:
		al.SetAction(actionProcedure)
		al.SetProperty(ics.ComponentPropertyDescription, a.Command)
		// The log property names one output destination. Terminal and
		// display modes take precedence over a log file path.
		switch {
		case e.Flags.ExecInTerminal:
			al.SetProperty(ics.ComponentProperty(propLog), logModeXterm)
		case e.Flags.DisplayCommandOutput:
			al.SetProperty(ics.ComponentProperty(propLog), logModeDisplay)
		case a.LogFile != "":
			al.SetProperty(ics.ComponentProperty(propLog), a.LogFile)
		}

	case event.EmailAction:
		al.SetAction(ics.ActionEmail)
		al.SetProperty(ics.ComponentPropertySummary, a.Subject)
		al.SetProperty(ics.ComponentPropertyDescription, a.Body)
		for _, to := range a.To {
			al.AddProperty(ics.ComponentPropertyAttendee, "MAILTO:"+to)
		}
		for _, att := range a.Attachments {
			al.AddProperty(ics.ComponentProperty("ATTACH"), att)
		}

	case event.AudioAction:
		al.SetAction(ics.ActionAudio)
		encodeSound(al, &a.Sound)

	case event.MessageAction:
		al.SetAction(ics.ActionDisplay)
		al.SetProperty(ics.ComponentPropertyDescription, a.Text)
		encodeFontColour(al, a.FgColour, a.BgColour, a.Font)
		encodeSound(al, a.Sound)

	default:
		// A partially-built event still encodes deterministically.
		al.SetAction(ics.ActionDisplay)
		al.SetProperty(ics.ComponentPropertyDescription, "")
	}

	// Sub-repetition count/interval live on the main alarm; the current
	// repeat index is an event-level property.
	if !e.Repetition.IsZero() {
		al.SetProperty(ics.ComponentProperty("REPEAT"), strconv.Itoa(e.Repetition.Count))
		al.SetProperty(ics.ComponentProperty("DURATION"), formatISODuration(e.Repetition.Interval))
	}
}

func encodeReminderAlarm(ve *ics.VEvent, e *event.AlarmEvent) {
	if e.Reminder == nil || e.Reminder.Minutes == 0 {
		return
	}
	al := ve.AddAlarm()
	al.SetAction(ics.ActionDisplay)
	setAlarmRole(al, roleReminder)
	// Positive minutes = before the main trigger = negative offset.
	al.SetTrigger(formatISODuration(-time.Duration(e.Reminder.Minutes) * time.Minute))
	al.SetProperty(ics.ComponentPropertyDescription, displayText(e))
	if e.Reminder.Hidden {
		setAlarmFlags(al, alarmFlags{Hide: true})
	}
}

func encodeDeferralAlarm(ve *ics.VEvent, e *event.AlarmEvent) {
	if e.Deferral == nil {
		return
	}
	role := roleDeferral
	if e.Deferral.At.DateOnly {
		role = roleDateDeferral
	}
	al := ve.AddAlarm()
	al.SetAction(ics.ActionDisplay)
	setAlarmRole(al, role)
	al.SetTrigger(formatISODuration(e.Deferral.At.Time.Sub(e.StartAt.Time)))
	al.SetProperty(ics.ComponentPropertyDescription, displayText(e))
}

func encodePrePostAlarms(ve *ics.VEvent, e *event.AlarmEvent) {
	if e.PreAction.Command != "" {
		al := ve.AddAlarm()
		al.SetAction(actionProcedure)
		setAlarmRole(al, rolePre)
		al.SetTrigger("PT0S")
		al.SetProperty(ics.ComponentPropertyDescription, e.PreAction.Command)
		setAlarmFlags(al, alarmFlags{
			ExecOnDeferral: e.PreAction.ExecOnDeferral,
			CancelOnError:  e.PreAction.CancelOnError,
			DontShowError:  e.PreAction.DontShowError,
		})
	}
	if e.PostAction != "" {
		al := ve.AddAlarm()
		al.SetAction(actionProcedure)
		setAlarmRole(al, rolePost)
		al.SetTrigger("PT0S")
		al.SetProperty(ics.ComponentPropertyDescription, e.PostAction)
	}
}

func encodeLoginAlarm(ve *ics.VEvent, e *event.AlarmEvent) {
	if !e.Flags.RepeatAtLogin {
		return
	}
	al := ve.AddAlarm()
	al.SetAction(ics.ActionDisplay)
	setAlarmRole(al, roleLogin)
	al.SetTrigger("PT0S")
	al.SetProperty(ics.ComponentPropertyDescription, displayText(e))
}

func setAlarmRole(al *ics.VAlarm, roles ...string) {
	al.SetProperty(ics.ComponentProperty(propType), strings.Join(roles, ","))
}

func setAlarmFlags(al *ics.VAlarm, f alarmFlags) {
	if toks := encodeAlarmFlagTokens(f); len(toks) > 0 {
		al.SetProperty(ics.ComponentProperty(propFlags), strings.Join(toks, ";"))
	}
}

func encodeFontColour(al *ics.VAlarm, fg, bg, font string) {
	if fg == "" && bg == "" && font == "" {
		return
	}
	al.SetProperty(ics.ComponentProperty(propFontColour),
		fmt.Sprintf("%s;%s;%s", fg, bg, font))
}

func encodeSound(al *ics.VAlarm, s *event.SoundSpec) {
	if s == nil {
		return
	}
	if s.File != "" {
		al.SetProperty(ics.ComponentProperty("ATTACH"), s.File)
	}
	if s.Volume >= 0 {
		al.SetProperty(ics.ComponentProperty(propVolume),
			fmt.Sprintf("%s;%s;%d",
				formatFloat(s.Volume), formatFloat(s.FadeVolume), s.FadeSeconds))
	}
	if s.Repeat {
		setAlarmFlags(al, alarmFlags{SoundRepeat: true, SoundPause: s.RepeatPause})
	}
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// displayText is the text shown for reminder/deferral/login copies of the
// main alarm.
func displayText(e *event.AlarmEvent) string {
	switch a := e.Action.(type) {
	case event.MessageAction:
		return a.Text
	case event.FileAction:
		return a.Path
	}
	return ""
}
