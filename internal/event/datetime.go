package event

import "time"

// DateTime is a timestamp with an explicit date-only bit and a floating
// qualifier. A date-only value triggers at the configured start of day; a
// floating value has no fixed zone and is interpreted in the local zone in
// force when it is evaluated.
type DateTime struct {
	Time     time.Time
	DateOnly bool
	Floating bool
}

// At wraps a concrete instant.
func At(t time.Time) DateTime {
	return DateTime{Time: t}
}

// AtDate builds a date-only value for the given calendar date.
func AtDate(year int, month time.Month, day int, loc *time.Location) DateTime {
	if loc == nil {
		loc = time.Local
	}
	return DateTime{
		Time:     time.Date(year, month, day, 0, 0, 0, 0, loc),
		DateOnly: true,
	}
}

func (d DateTime) IsZero() bool {
	return d.Time.IsZero()
}

// Date returns the calendar date at midnight in the value's own location.
func (d DateTime) Date() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, d.Time.Location())
}

// Effective resolves the value to a concrete instant. Date-only values
// resolve to startOfDayMinutes after midnight.
func (d DateTime) Effective(startOfDayMinutes int) time.Time {
	if !d.DateOnly {
		return d.Time
	}
	return d.Date().Add(time.Duration(startOfDayMinutes) * time.Minute)
}

// Equal compares two values. If either side is date-only the comparison is
// by calendar date.
func (d DateTime) Equal(o DateTime) bool {
	if d.DateOnly || o.DateOnly {
		a, b := d.Date(), o.Date()
		return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
			d.DateOnly == o.DateOnly
	}
	return d.Time.Equal(o.Time)
}

// Before compares two values, by calendar date when either side is date-only.
func (d DateTime) Before(o DateTime) bool {
	if d.DateOnly || o.DateOnly {
		return d.Date().Before(o.Date())
	}
	return d.Time.Before(o.Time)
}

// In rebinds the value to loc, preserving the instant (or the calendar date
// for date-only values).
func (d DateTime) In(loc *time.Location) DateTime {
	if loc == nil {
		return d
	}
	if d.DateOnly {
		t := d.Time
		d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		return d
	}
	d.Time = d.Time.In(loc)
	return d
}

func (d DateTime) String() string {
	if d.IsZero() {
		return ""
	}
	if d.DateOnly {
		return d.Time.Format("2006-01-02")
	}
	return d.Time.Format(time.RFC3339)
}
