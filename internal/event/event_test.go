package event

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	start := At(time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC))
	e := New(MessageAction{Text: "x"}, start)

	assert.Equal(t, CategoryActive, e.Category)
	assert.True(t, e.Enabled)
	assert.Equal(t, -1, e.TemplateAfterTime)
	assert.True(t, strings.HasSuffix(e.ID, "@alarmcal"))
	assert.NotEqual(t, e.ID, New(MessageAction{}, start).ID)
}

func TestSplitID(t *testing.T) {
	cases := map[string]struct {
		cat  Category
		base string
	}{
		"abc@alarmcal":      {CategoryActive, "abc@alarmcal"},
		"arch-abc@alarmcal": {CategoryArchived, "abc@alarmcal"},
		"tmpl-abc@alarmcal": {CategoryTemplate, "abc@alarmcal"},
		"disp-abc@alarmcal": {CategoryDisplaying, "abc@alarmcal"},
	}
	for id, want := range cases {
		cat, base := SplitID(id)
		assert.Equal(t, want.cat, cat, id)
		assert.Equal(t, want.base, base, id)
	}
}

func TestSetCategoryRewritesID(t *testing.T) {
	e := New(MessageAction{Text: "x"}, At(time.Now()))
	base := e.ID
	rev := e.Revision

	e.SetCategory(CategoryArchived)
	assert.Equal(t, "arch-"+base, e.ID)
	assert.Equal(t, rev+1, e.Revision)

	e.SetCategory(CategoryTemplate)
	assert.Equal(t, "tmpl-"+base, e.ID)
	assert.Equal(t, base, e.BaseID())

	// A no-op change does not bump the revision.
	rev = e.Revision
	e.SetCategory(CategoryTemplate)
	assert.Equal(t, rev, e.Revision)

	e.SetCategory(CategoryActive)
	assert.Equal(t, base, e.ID)
}

func TestDeferAndCancel(t *testing.T) {
	e := New(MessageAction{Text: "x"}, At(time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)))
	rev := e.Revision

	to := At(time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC))
	e.Defer(to)
	require.NotNil(t, e.Deferral)
	assert.True(t, e.Deferral.At.Equal(to))
	assert.Equal(t, rev+1, e.Revision)

	e.CancelDeferral()
	assert.Nil(t, e.Deferral)
	assert.Equal(t, rev+2, e.Revision)

	// Cancelling again is a no-op.
	e.CancelDeferral()
	assert.Equal(t, rev+2, e.Revision)
}

func TestMainTrigger(t *testing.T) {
	start := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	e := New(MessageAction{Text: "x"}, At(start))
	assert.True(t, e.MainTrigger().Time.Equal(start))

	next := start.AddDate(0, 0, 3)
	e.NextRecur = At(next)
	assert.True(t, e.MainTrigger().Time.Equal(next))
}

func TestReminderActive(t *testing.T) {
	start := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	e := New(MessageAction{Text: "x"}, At(start))
	assert.False(t, e.ReminderActive(start.Add(-time.Hour), 0))

	e.Reminder = &Reminder{Minutes: 30}
	assert.True(t, e.ReminderActive(start.Add(-time.Hour), 0))
	assert.False(t, e.ReminderActive(start.Add(-10*time.Minute), 0))

	// Date-only events count from the configured start of day.
	d := New(MessageAction{Text: "x"}, AtDate(2026, time.May, 1, time.UTC))
	d.Reminder = &Reminder{Minutes: 30}
	dayStart := 8 * 60
	assert.True(t, d.ReminderActive(time.Date(2026, time.May, 1, 7, 0, 0, 0, time.UTC), dayStart))
	assert.False(t, d.ReminderActive(time.Date(2026, time.May, 1, 7, 45, 0, 0, time.UTC), dayStart))
}

func TestCloneIndependence(t *testing.T) {
	e := New(EmailAction{
		To:          []string{"a@example.com"},
		Attachments: []string{"/tmp/a"},
	}, At(time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)))
	e.Recurrence = &Recurrence{Type: RecurWeekly, Weekdays: []time.Weekday{time.Monday}}
	e.Deferral = &Deferral{At: At(time.Date(2026, time.May, 2, 10, 0, 0, 0, time.UTC))}
	e.Reminder = &Reminder{Minutes: 15}
	e.CustomProperties = map[string]string{"X-OTHER": "v"}
	e.UnknownFlags = []string{"NEWTOK"}

	c := e.Clone()
	c.Action.(EmailAction).To[0] = "changed@example.com"
	c.Recurrence.Weekdays[0] = time.Friday
	c.Deferral.At = At(time.Now())
	c.Reminder.Minutes = 99
	c.CustomProperties["X-OTHER"] = "changed"
	c.UnknownFlags[0] = "CHANGED"

	assert.Equal(t, "a@example.com", e.Action.(EmailAction).To[0])
	assert.Equal(t, time.Monday, e.Recurrence.Weekdays[0])
	assert.Equal(t, "2026-05-02T10:00:00Z", e.Deferral.At.String())
	assert.Equal(t, 15, e.Reminder.Minutes)
	assert.Equal(t, "v", e.CustomProperties["X-OTHER"])
	assert.Equal(t, []string{"NEWTOK"}, e.UnknownFlags)
}

func TestCloneMessageSound(t *testing.T) {
	e := New(MessageAction{
		Text:  "x",
		Sound: &SoundSpec{File: "/a.ogg", Volume: 0.5},
	}, At(time.Now()))

	c := e.Clone()
	c.Action.(MessageAction).Sound.File = "/b.ogg"
	assert.Equal(t, "/a.ogg", e.Action.(MessageAction).Sound.File)
}

func TestDateTimeSemantics(t *testing.T) {
	instant := At(time.Date(2026, time.May, 1, 14, 0, 0, 0, time.UTC))
	date := AtDate(2026, time.May, 1, time.UTC)

	assert.True(t, instant.Date().Equal(date.Date()))
	assert.False(t, instant.Equal(date), "date-only bit is part of equality")
	assert.True(t, date.Equal(AtDate(2026, time.May, 1, time.UTC)))

	assert.True(t, date.Before(AtDate(2026, time.May, 2, time.UTC)))
	assert.False(t, date.Before(instant), "same calendar date")

	eff := date.Effective(9 * 60)
	assert.Equal(t, 9, eff.Hour())
	assert.True(t, instant.Effective(9*60).Equal(instant.Time))

	assert.Equal(t, "2026-05-01", date.String())
	assert.Equal(t, "2026-05-01T14:00:00Z", instant.String())
	assert.Equal(t, "", DateTime{}.String())
}
