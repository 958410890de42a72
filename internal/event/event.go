// Package event holds the alarm event model: the aggregate entity owning
// category, action payload, timing, recurrence, deferral and reminder state,
// together with the recurrence arithmetic and field-level differencing that
// operate on it.
package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the lifecycle state of an AlarmEvent. Categories are mutually
// exclusive; changing the category rewrites the event ID prefix.
type Category int

const (
	CategoryActive Category = iota
	CategoryArchived
	CategoryTemplate
	CategoryDisplaying
)

func (c Category) String() string {
	switch c {
	case CategoryActive:
		return "active"
	case CategoryArchived:
		return "archived"
	case CategoryTemplate:
		return "template"
	case CategoryDisplaying:
		return "displaying"
	}
	return "unknown"
}

// IDPrefix is prepended to the base UID for non-active categories.
func (c Category) IDPrefix() string {
	switch c {
	case CategoryArchived:
		return "arch-"
	case CategoryTemplate:
		return "tmpl-"
	case CategoryDisplaying:
		return "disp-"
	}
	return ""
}

// SplitID separates an event ID into its category and base UID.
func SplitID(id string) (Category, string) {
	for _, c := range []Category{CategoryArchived, CategoryTemplate, CategoryDisplaying} {
		if rest, ok := strings.CutPrefix(id, c.IDPrefix()); ok {
			return c, rest
		}
	}
	return CategoryActive, id
}

// ActionKind selects which payload variant an alarm carries.
type ActionKind int

const (
	ActionMessage ActionKind = iota
	ActionFile
	ActionCommand
	ActionEmail
	ActionAudio
)

func (k ActionKind) String() string {
	switch k {
	case ActionMessage:
		return "message"
	case ActionFile:
		return "file"
	case ActionCommand:
		return "command"
	case ActionEmail:
		return "email"
	case ActionAudio:
		return "audio"
	}
	return "unknown"
}

// Action is the payload sum type over the five alarm kinds. The serializer,
// formatter and differencer switch exhaustively over the concrete variants.
type Action interface {
	Kind() ActionKind
}

// SoundSpec describes a sound played with an alarm.
type SoundSpec struct {
	File        string
	Volume      float32 // 0..1; negative = system default
	FadeVolume  float32
	FadeSeconds int
	Repeat      bool
	RepeatPause int // seconds between repeats
}

// MessageAction displays a text message.
type MessageAction struct {
	Text     string
	FgColour string
	BgColour string
	Font     string
	Sound    *SoundSpec
}

// FileAction displays the contents of a file.
type FileAction struct {
	Path     string
	FgColour string
	BgColour string
	Font     string
	Sound    *SoundSpec
}

// CommandAction runs a shell command line (or a script when the Script flag
// is set). LogFile receives command output unless the terminal/display
// output flags redirect it.
type CommandAction struct {
	Command string
	LogFile string
}

// EmailAction sends an email.
type EmailAction struct {
	To          []string
	Subject     string
	Body        string
	Attachments []string
}

// AudioAction plays a sound with no visible alarm.
type AudioAction struct {
	Sound SoundSpec
}

func (MessageAction) Kind() ActionKind { return ActionMessage }
func (FileAction) Kind() ActionKind    { return ActionFile }
func (CommandAction) Kind() ActionKind { return ActionCommand }
func (EmailAction) Kind() ActionKind   { return ActionEmail }
func (AudioAction) Kind() ActionKind   { return ActionAudio }

// Flags is the closed set of independent alarm options. The options are
// orthogonal; meaningless combinations (a sound volume without audio, say)
// are tolerated rather than rejected.
type Flags struct {
	Beep                 bool
	Speak                bool
	Notify               bool
	ConfirmAck           bool
	AutoClose            bool
	RepeatAtLogin        bool
	DefaultFont          bool
	EmailBCC             bool
	CopyToOrganizer      bool
	ExcludeHolidays      bool
	WorkTimeOnly         bool
	Script               bool
	ExecInTerminal       bool
	DisplayCommandOutput bool
	Archived             bool // a copy of this event has been archived
}

// CommandError records the last execution failure; informational only and
// not part of the portable payload.
type CommandError int

const (
	CmdErrNone CommandError = iota
	CmdErrMain
	CmdErrPre
	CmdErrPost
	CmdErrPrePost
)

// CommandSpec is a pre- or post-display shell command with its
// error-handling options.
type CommandSpec struct {
	Command        string
	ExecOnDeferral bool // run even before a deferred display
	CancelOnError  bool // cancel the alarm if the command fails
	DontShowError  bool // do not notify the user of a failure
}

// Repetition is a fixed-interval repeat nested within one recurrence
// instance. A zero Count means no sub-repetition.
type Repetition struct {
	Interval time.Duration
	Count    int
}

func (r Repetition) IsZero() bool {
	return r.Count == 0 || r.Interval == 0
}

// Deferral is a one-off postponement of the next trigger.
type Deferral struct {
	At DateTime
}

// Reminder is a notification preceding (positive minutes) or following
// (negative minutes) the main trigger.
type Reminder struct {
	Minutes  int
	OnceOnly bool // only for the first recurrence
	Hidden   bool // acknowledged for the current occurrence
}

// AlarmEvent is the aggregate alarm entity. It is a value type: no
// sub-component is shared with another AlarmEvent, and Clone produces a
// fully independent copy.
type AlarmEvent struct {
	ID       string
	Category Category

	// Revision increments on every semantic change; the storage transport
	// uses it for optimistic-conflict detection.
	Revision int

	CreatedAt DateTime
	StartAt   DateTime

	TemplateName string
	// TemplateAfterTime is the "default time after now" of a template,
	// in minutes; -1 means not set.
	TemplateAfterTime int

	Flags    Flags
	Enabled  bool
	ReadOnly bool

	// LateCancelMinutes cancels the alarm when it cannot trigger within
	// this many minutes of its due time; 0 disables late-cancellation.
	// With Flags.AutoClose set it instead bounds how long the window is
	// displayed.
	LateCancelMinutes int

	Action     Action
	PreAction  CommandSpec // zero Command = none
	PostAction string

	// EmailID identifies the sending identity for email alarms.
	EmailID int64

	Recurrence *Recurrence

	Repetition Repetition
	// RepeatIndex is the index of the sub-repetition most recently due
	// within the current recurrence; reset when the recurrence advances.
	RepeatIndex int

	Deferral             *Deferral
	DeferDefaultMinutes  int
	DeferDefaultDateOnly bool

	Reminder *Reminder

	CommandError CommandError

	// NextRecur caches the resolved next occurrence so recurrence
	// arithmetic need not restart from StartAt on every load.
	NextRecur DateTime

	// CustomProperties is opaque pass-through data owned by other
	// applications, preserved verbatim across round trips.
	CustomProperties map[string]string

	// UnknownFlags holds option tokens written by a newer encoder that
	// this one does not recognize; they are re-emitted verbatim.
	UnknownFlags []string

	trig triggerMemo
}

// New creates an active, enabled event with a fresh UID.
func New(action Action, start DateTime) *AlarmEvent {
	return &AlarmEvent{
		ID:                uuid.NewString() + "@alarmcal",
		Category:          CategoryActive,
		CreatedAt:         At(time.Now()),
		StartAt:           start,
		TemplateAfterTime: -1,
		Enabled:           true,
		Action:            action,
	}
}

// Touch records a semantic change: the revision is bumped and the memoized
// trigger is invalidated.
func (e *AlarmEvent) Touch() {
	e.Revision++
	e.trig = triggerMemo{}
}

// BaseID returns the UID without any category prefix.
func (e *AlarmEvent) BaseID() string {
	_, base := SplitID(e.ID)
	return base
}

// SetCategory moves the event to a different lifecycle category, rewriting
// the ID prefix accordingly.
func (e *AlarmEvent) SetCategory(c Category) {
	if c == e.Category {
		return
	}
	base := e.BaseID()
	e.Category = c
	e.ID = c.IDPrefix() + base
	e.Touch()
}

// Defer postpones the next trigger to the given instant.
func (e *AlarmEvent) Defer(to DateTime) {
	e.Deferral = &Deferral{At: to}
	e.Touch()
}

// CancelDeferral removes a pending deferral.
func (e *AlarmEvent) CancelDeferral() {
	if e.Deferral == nil {
		return
	}
	e.Deferral = nil
	e.Touch()
}

// MainTrigger is the next due instant of the main alarm, ignoring deferral
// and work-time/holiday adjustment: the cached next recurrence when one is
// resolved, the start time otherwise.
func (e *AlarmEvent) MainTrigger() DateTime {
	if !e.NextRecur.IsZero() {
		return e.NextRecur
	}
	return e.StartAt
}

// ReminderActive reports whether a reminder notification is still pending
// at the given instant, relative to the main trigger and the configured
// start of day for date-only events.
func (e *AlarmEvent) ReminderActive(now time.Time, startOfDayMinutes int) bool {
	if e.Reminder == nil || e.Reminder.Minutes == 0 {
		return false
	}
	at := e.MainTrigger().Effective(startOfDayMinutes).
		Add(-time.Duration(e.Reminder.Minutes) * time.Minute)
	return at.After(now)
}

// Clone returns a deep copy sharing no state with the receiver.
func (e *AlarmEvent) Clone() *AlarmEvent {
	c := *e
	if e.Action != nil {
		c.Action = cloneAction(e.Action)
	}
	if e.Recurrence != nil {
		r := e.Recurrence.clone()
		c.Recurrence = &r
	}
	if e.Deferral != nil {
		d := *e.Deferral
		c.Deferral = &d
	}
	if e.Reminder != nil {
		r := *e.Reminder
		c.Reminder = &r
	}
	if e.CustomProperties != nil {
		c.CustomProperties = make(map[string]string, len(e.CustomProperties))
		for k, v := range e.CustomProperties {
			c.CustomProperties[k] = v
		}
	}
	c.UnknownFlags = append([]string(nil), e.UnknownFlags...)
	return &c
}

func cloneAction(a Action) Action {
	switch v := a.(type) {
	case MessageAction:
		if v.Sound != nil {
			s := *v.Sound
			v.Sound = &s
		}
		return v
	case FileAction:
		if v.Sound != nil {
			s := *v.Sound
			v.Sound = &s
		}
		return v
	case CommandAction:
		return v
	case EmailAction:
		v.To = append([]string(nil), v.To...)
		v.Attachments = append([]string(nil), v.Attachments...)
		return v
	case AudioAction:
		return v
	}
	return a
}
