package event

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Difference is one field-level disagreement between two events.
type Difference struct {
	Label string
	Left  string
	Right string
}

// LabelSet carries the pre-localized field labels attached to differences.
// Replace individual entries to localize the report.
type LabelSet struct {
	Revision          string
	ActionKind        string
	Category          string
	TemplateName      string
	TemplateAfterTime string
	CreatedAt         string
	StartAt           string
	Recurrence        string
	NextRecurrence    string
	Repetition        string
	ExcludeHolidays   string
	WorkTimeOnly      string
	LateCancel        string
	AutoClose         string
	CopyToOrganizer   string
	Enabled           string
	ReadOnly          string
	Archived          string
	ConfirmAck        string
	Beep              string
	Speak             string
	Notify            string
	RepeatAtLogin     string
	DefaultFont       string
	EmailBCC          string
	Script            string
	ExecInTerminal    string
	DisplayOutput     string
	Deferral          string
	DeferralDefault   string
	Reminder          string
	CustomProperties  string
	MessageText       string
	FilePath          string
	Colours           string
	Font              string
	Sound             string
	Command           string
	LogFile           string
	PreAction         string
	PostAction        string
	EmailID           string
	EmailTo           string
	EmailSubject      string
	EmailBody         string
	EmailAttachments  string
}

// DefaultLabels is the canonical English label set.
var DefaultLabels = LabelSet{
	Revision:          "Revision",
	ActionKind:        "Action",
	Category:          "Category",
	TemplateName:      "Template name",
	TemplateAfterTime: "Template default time",
	CreatedAt:         "Creation time",
	StartAt:           "Start time",
	Recurrence:        "Recurrence",
	NextRecurrence:    "Next occurrence",
	Repetition:        "Sub-repetition",
	ExcludeHolidays:   "Exclude holidays",
	WorkTimeOnly:      "Working time only",
	LateCancel:        "Late cancellation",
	AutoClose:         "Auto-close",
	CopyToOrganizer:   "Copy to organizer",
	Enabled:           "Enabled",
	ReadOnly:          "Read-only",
	Archived:          "Archived",
	ConfirmAck:        "Confirm acknowledgement",
	Beep:              "Beep",
	Speak:             "Speak",
	Notify:            "Use notification system",
	RepeatAtLogin:     "Repeat at login",
	DefaultFont:       "Use default font",
	EmailBCC:          "Copy email to self",
	Script:            "Command is a script",
	ExecInTerminal:    "Execute in terminal",
	DisplayOutput:     "Display command output",
	Deferral:          "Deferral",
	DeferralDefault:   "Deferral default",
	Reminder:          "Reminder",
	CustomProperties:  "Custom properties",
	MessageText:       "Message text",
	FilePath:          "File",
	Colours:           "Colours",
	Font:              "Font",
	Sound:             "Sound",
	Command:           "Command",
	LogFile:           "Log file",
	PreAction:         "Pre-alarm action",
	PostAction:        "Post-alarm action",
	EmailID:           "Email sender identity",
	EmailTo:           "Email recipients",
	EmailSubject:      "Email subject",
	EmailBody:         "Email body",
	EmailAttachments:  "Email attachments",
}

// Compare scans two events field by field and reports every portable field
// whose values differ, using the default labels. Transient per-user state
// (the last command error) is excluded. It never mutates either input and
// always produces a list, possibly empty.
func Compare(a, b *AlarmEvent) []Difference {
	return CompareLabeled(a, b, DefaultLabels)
}

// CompareLabeled is Compare with a caller-supplied (localized) label set.
func CompareLabeled(a, b *AlarmEvent, labels LabelSet) []Difference {
	var diffs []Difference
	add := func(label, left, right string) {
		if left != right {
			diffs = append(diffs, Difference{Label: label, Left: left, Right: right})
		}
	}
	addBool := func(label string, left, right bool) {
		add(label, strconv.FormatBool(left), strconv.FormatBool(right))
	}

	add(labels.Revision, strconv.Itoa(a.Revision), strconv.Itoa(b.Revision))
	add(labels.ActionKind, actionKindOf(a.Action).String(), actionKindOf(b.Action).String())
	add(labels.Category, a.Category.String(), b.Category.String())
	add(labels.TemplateName, a.TemplateName, b.TemplateName)
	add(labels.TemplateAfterTime, strconv.Itoa(a.TemplateAfterTime), strconv.Itoa(b.TemplateAfterTime))
	add(labels.CreatedAt, a.CreatedAt.String(), b.CreatedAt.String())
	add(labels.StartAt, a.StartAt.String(), b.StartAt.String())
	add(labels.Recurrence, a.Recurrence.RRuleString(), b.Recurrence.RRuleString())
	// An unset next-occurrence cache and one equal to the start time are the
	// same state; the resolved trigger is what is compared.
	add(labels.NextRecurrence, a.MainTrigger().String(), b.MainTrigger().String())
	add(labels.Repetition, formatRepetition(a), formatRepetition(b))

	addBool(labels.ExcludeHolidays, a.Flags.ExcludeHolidays, b.Flags.ExcludeHolidays)
	addBool(labels.WorkTimeOnly, a.Flags.WorkTimeOnly, b.Flags.WorkTimeOnly)
	add(labels.LateCancel, strconv.Itoa(a.LateCancelMinutes), strconv.Itoa(b.LateCancelMinutes))
	addBool(labels.AutoClose, a.Flags.AutoClose, b.Flags.AutoClose)
	addBool(labels.CopyToOrganizer, a.Flags.CopyToOrganizer, b.Flags.CopyToOrganizer)
	addBool(labels.Enabled, a.Enabled, b.Enabled)
	addBool(labels.ReadOnly, a.ReadOnly, b.ReadOnly)
	addBool(labels.Archived, a.Flags.Archived, b.Flags.Archived)
	addBool(labels.ConfirmAck, a.Flags.ConfirmAck, b.Flags.ConfirmAck)
	addBool(labels.Beep, a.Flags.Beep, b.Flags.Beep)
	addBool(labels.Speak, a.Flags.Speak, b.Flags.Speak)
	addBool(labels.Notify, a.Flags.Notify, b.Flags.Notify)
	addBool(labels.RepeatAtLogin, a.Flags.RepeatAtLogin, b.Flags.RepeatAtLogin)
	addBool(labels.DefaultFont, a.Flags.DefaultFont, b.Flags.DefaultFont)
	addBool(labels.EmailBCC, a.Flags.EmailBCC, b.Flags.EmailBCC)
	addBool(labels.Script, a.Flags.Script, b.Flags.Script)
	addBool(labels.ExecInTerminal, a.Flags.ExecInTerminal, b.Flags.ExecInTerminal)
	addBool(labels.DisplayOutput, a.Flags.DisplayCommandOutput, b.Flags.DisplayCommandOutput)

	add(labels.Deferral, formatDeferral(a.Deferral), formatDeferral(b.Deferral))
	add(labels.DeferralDefault,
		formatDeferralDefault(a.DeferDefaultMinutes, a.DeferDefaultDateOnly),
		formatDeferralDefault(b.DeferDefaultMinutes, b.DeferDefaultDateOnly))
	add(labels.Reminder, formatReminder(a.Reminder), formatReminder(b.Reminder))
	add(labels.CustomProperties, formatCustom(a.CustomProperties), formatCustom(b.CustomProperties))

	add(labels.PreAction, formatPreAction(a.PreAction), formatPreAction(b.PreAction))
	add(labels.PostAction, a.PostAction, b.PostAction)
	add(labels.EmailID, strconv.FormatInt(a.EmailID, 10), strconv.FormatInt(b.EmailID, 10))

	compareActions(a.Action, b.Action, labels, add)

	return diffs
}

func actionKindOf(a Action) ActionKind {
	if a == nil {
		return ActionMessage
	}
	return a.Kind()
}

// compareActions emits the action-specific payload fields. When the kinds
// differ every populated field on either side is reported against the other
// side's absence.
func compareActions(a, b Action, labels LabelSet, add func(label, left, right string)) {
	am, bm := actionFields(a, labels), actionFields(b, labels)
	seen := make(map[string]bool)
	var order []string
	for _, f := range am {
		if !seen[f.label] {
			seen[f.label] = true
			order = append(order, f.label)
		}
	}
	for _, f := range bm {
		if !seen[f.label] {
			seen[f.label] = true
			order = append(order, f.label)
		}
	}
	left := make(map[string]string)
	for _, f := range am {
		left[f.label] = f.value
	}
	right := make(map[string]string)
	for _, f := range bm {
		right[f.label] = f.value
	}
	for _, label := range order {
		add(label, left[label], right[label])
	}
}

type actionField struct {
	label string
	value string
}

func actionFields(a Action, labels LabelSet) []actionField {
	switch v := a.(type) {
	case MessageAction:
		return []actionField{
			{labels.MessageText, v.Text},
			{labels.Colours, v.FgColour + ";" + v.BgColour},
			{labels.Font, v.Font},
			{labels.Sound, formatSound(v.Sound)},
		}
	case FileAction:
		return []actionField{
			{labels.FilePath, v.Path},
			{labels.Colours, v.FgColour + ";" + v.BgColour},
			{labels.Font, v.Font},
			{labels.Sound, formatSound(v.Sound)},
		}
	case CommandAction:
		return []actionField{
			{labels.Command, v.Command},
			{labels.LogFile, v.LogFile},
		}
	case EmailAction:
		return []actionField{
			{labels.EmailTo, strings.Join(v.To, ", ")},
			{labels.EmailSubject, v.Subject},
			{labels.EmailBody, v.Body},
			{labels.EmailAttachments, strings.Join(v.Attachments, ", ")},
		}
	case AudioAction:
		s := v.Sound
		return []actionField{
			{labels.Sound, formatSound(&s)},
		}
	}
	return nil
}

func formatRepetition(e *AlarmEvent) string {
	if e.Repetition.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s x %d (next %d)",
		e.Repetition.Interval, e.Repetition.Count, e.RepeatIndex)
}

func formatDeferral(d *Deferral) string {
	if d == nil {
		return ""
	}
	return d.At.String()
}

func formatDeferralDefault(minutes int, dateOnly bool) string {
	if minutes == 0 {
		return ""
	}
	if dateOnly {
		return strconv.Itoa(minutes) + " (date only)"
	}
	return strconv.Itoa(minutes)
}

func formatReminder(r *Reminder) string {
	if r == nil || r.Minutes == 0 {
		return ""
	}
	s := time.Duration(r.Minutes) * time.Minute
	if r.OnceOnly {
		return s.String() + " (once)"
	}
	return s.String()
}

func formatPreAction(c CommandSpec) string {
	if c.Command == "" {
		return ""
	}
	s := c.Command
	if c.ExecOnDeferral {
		s += " [on deferral]"
	}
	if c.CancelOnError {
		s += " [cancel on error]"
	}
	if c.DontShowError {
		s += " [silent errors]"
	}
	return s
}

func formatSound(s *SoundSpec) string {
	if s == nil {
		return ""
	}
	out := s.File
	if s.Volume >= 0 {
		out += fmt.Sprintf(" vol=%g", s.Volume)
	}
	if s.FadeSeconds > 0 {
		out += fmt.Sprintf(" fade=%g/%ds", s.FadeVolume, s.FadeSeconds)
	}
	if s.Repeat {
		out += " repeat"
	}
	return out
}

func formatCustom(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, " ")
}
