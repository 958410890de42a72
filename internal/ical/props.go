// Package ical converts alarm events to and from iCalendar VEVENT text,
// carrying the model's rich state in a small set of custom properties.
package ical

import (
	"errors"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"alarmcal/internal/event"
)

const prodID = "-//alarmcal//calendar//EN"

// formatVersion is the current encoder version, written as a calendar-level
// marker. Decoding refuses versions outside [1, formatVersion].
const formatVersion = 1

// Custom property names.
const (
	propVersion    = "X-ALARMCAL-VERSION"
	propType       = "X-ALARMCAL-TYPE"
	propFlags      = "X-ALARMCAL-FLAGS"
	propNextRecur  = "X-ALARMCAL-NEXTRECUR"
	propRepeat     = "X-ALARMCAL-REPEAT"
	propFontColour = "X-ALARMCAL-FONTCOLOR"
	propVolume     = "X-ALARMCAL-VOLUME"
	propLog        = "X-ALARMCAL-LOG"
)

// Event-level category tokens.
const (
	catActive     = "ACTIVE"
	catArchived   = "ARCHIVED"
	catTemplate   = "TEMPLATE"
	catDisplaying = "DISPLAYING"
)

// Alarm-level role tokens; the role property value is a comma-joined list.
// An alarm with no role marker is the main alarm.
const (
	roleFile         = "FILE"
	roleReminder     = "REMINDER"
	roleDeferral     = "DEFERRAL"
	roleDateDeferral = "DATE_DEFERRAL"
	rolePre          = "PRE"
	rolePost         = "POST"
	roleLogin        = "LOGIN"
	roleDisplaying   = "DISPLAYING"
)

// Log-property mode markers; any other value is a log file path.
const (
	logModeXterm   = "xterm:"
	logModeDisplay = "display:"
)

// PROCEDURE was dropped from RFC 5545 but remains the conventional action
// for command alarms.
var actionProcedure = ics.Action("PROCEDURE")

func categoryToken(c event.Category) string {
	switch c {
	case event.CategoryArchived:
		return catArchived
	case event.CategoryTemplate:
		return catTemplate
	case event.CategoryDisplaying:
		return catDisplaying
	}
	return catActive
}

// Date/date-time value layouts shared by DTSTART and the next-recurrence
// cache property.
const (
	layoutUTC      = "20060102T150405Z"
	layoutFloating = "20060102T150405"
	layoutDate     = "20060102"
)

func formatDateTimeValue(dt event.DateTime) string {
	switch {
	case dt.DateOnly:
		return dt.Time.Format(layoutDate)
	case dt.Floating:
		return dt.Time.Format(layoutFloating)
	default:
		return dt.Time.UTC().Format(layoutUTC)
	}
}

// parseDateTimeValue parses a basic ICS date or date-time string. A UTC form
// gives a fixed instant, a form without zone designator gives a floating
// local value, and a bare date gives a date-only value.
func parseDateTimeValue(v string) (event.DateTime, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return event.DateTime{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse(layoutUTC, v)
		if err != nil {
			return event.DateTime{}, err
		}
		return event.DateTime{Time: t}, nil
	}

	if strings.Contains(v, "T") {
		t, err := time.ParseInLocation(layoutFloating, v, time.Local)
		if err != nil {
			return event.DateTime{}, err
		}
		return event.DateTime{Time: t, Floating: true}, nil
	}

	t, err := time.ParseInLocation(layoutDate, v, time.Local)
	if err != nil {
		return event.DateTime{}, err
	}
	return event.DateTime{Time: t, DateOnly: true}, nil
}

// ownProperty reports whether an X- property belongs to this codec (as
// opposed to opaque pass-through data owned by another application).
func ownProperty(name string) bool {
	switch name {
	case propVersion, propType, propFlags, propNextRecur, propRepeat,
		propFontColour, propVolume, propLog:
		return true
	}
	return false
}
