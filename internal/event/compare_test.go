package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() *AlarmEvent {
	return &AlarmEvent{
		ID:                "cmp@alarmcal",
		Category:          CategoryActive,
		CreatedAt:         At(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)),
		StartAt:           At(time.Date(2026, time.March, 10, 8, 30, 0, 0, time.UTC)),
		TemplateAfterTime: -1,
		Enabled:           true,
		Action:            MessageAction{Text: "hello"},
	}
}

func TestCompareEqual(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()
	assert.Empty(t, Compare(a, b))
	assert.Empty(t, Compare(a, a))
}

func TestCompareReportsChangedFields(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()
	b.Revision = 7
	b.Action = MessageAction{Text: "goodbye"}
	b.Flags.Beep = true
	b.LateCancelMinutes = 10
	b.Recurrence = &Recurrence{Type: RecurDaily}

	diffs := Compare(a, b)
	byLabel := make(map[string]Difference)
	for _, d := range diffs {
		byLabel[d.Label] = d
	}
	require.Len(t, diffs, 5)

	assert.Equal(t, "0", byLabel["Revision"].Left)
	assert.Equal(t, "7", byLabel["Revision"].Right)
	assert.Equal(t, "hello", byLabel["Message text"].Left)
	assert.Equal(t, "goodbye", byLabel["Message text"].Right)
	assert.Equal(t, "false", byLabel["Beep"].Left)
	assert.Equal(t, "10", byLabel["Late cancellation"].Right)
	assert.Contains(t, byLabel["Recurrence"].Right, "FREQ=DAILY")
}

func TestCompareNextOccurrenceResolved(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()

	// An empty cache and a cache equal to the start time resolve to the
	// same trigger and report no difference.
	b.NextRecur = b.StartAt
	assert.Empty(t, Compare(a, b))

	b.NextRecur = At(b.StartAt.Time.AddDate(0, 0, 1))
	diffs := Compare(a, b)
	require.Len(t, diffs, 1)
	assert.Equal(t, "Next occurrence", diffs[0].Label)
	assert.Equal(t, a.StartAt.String(), diffs[0].Left)
	assert.Equal(t, b.NextRecur.String(), diffs[0].Right)
}

func TestCompareSymmetry(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()
	b.Revision = 2
	b.TemplateName = "tpl"
	b.Action = CommandAction{Command: "run", LogFile: "/tmp/log"}
	b.Deferral = &Deferral{At: At(time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC))}
	b.Reminder = &Reminder{Minutes: 45, OnceOnly: true}
	b.CustomProperties = map[string]string{"X-A": "1", "X-B": "2"}

	ab := Compare(a, b)
	ba := Compare(b, a)
	require.Equal(t, len(ab), len(ba), "same fields differ in both directions")

	mirror := make(map[string]Difference)
	for _, d := range ba {
		mirror[d.Label] = d
	}
	for _, d := range ab {
		m, ok := mirror[d.Label]
		require.True(t, ok, "label %q missing in reverse comparison", d.Label)
		assert.Equal(t, d.Left, m.Right, d.Label)
		assert.Equal(t, d.Right, m.Left, d.Label)
	}
}

func TestCompareDifferentActionKinds(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()
	b.Action = CommandAction{Command: "run"}

	diffs := Compare(a, b)
	byLabel := make(map[string]Difference)
	for _, d := range diffs {
		byLabel[d.Label] = d
	}

	assert.Equal(t, "message", byLabel["Action"].Left)
	assert.Equal(t, "command", byLabel["Action"].Right)
	// Payload fields of either kind are reported against the other side's
	// absence.
	assert.Equal(t, "hello", byLabel["Message text"].Left)
	assert.Equal(t, "", byLabel["Message text"].Right)
	assert.Equal(t, "", byLabel["Command"].Left)
	assert.Equal(t, "run", byLabel["Command"].Right)
}

func TestCompareLabeled(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()
	b.Revision = 1

	labels := DefaultLabels
	labels.Revision = "Änderung"
	diffs := CompareLabeled(a, b, labels)
	require.Len(t, diffs, 1)
	assert.Equal(t, "Änderung", diffs[0].Label)
}

func TestCompareExcludesTransientState(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()
	b.CommandError = CmdErrMain
	b.UnknownFlags = []string{"NEWTOK"}
	assert.Empty(t, Compare(a, b))
}
