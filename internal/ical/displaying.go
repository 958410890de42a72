package ical

import (
	"fmt"
	"strconv"
	"strings"

	ics "github.com/arran4/golang-ical"

	"alarmcal/internal/event"
)

// Displaying-variant extras on the event-level category marker:
// DISPLAYING[;collectionId][;EDIT][;DEFER]. The collection id is numeric;
// EDIT and DEFER are presence flags in any order after it.
const (
	dispEdit  = "EDIT"
	dispDefer = "DEFER"
)

// EncodeDisplaying serializes the currently-displayed form of an alarm:
// a temporary copy persisted so that an in-flight notification survives a
// crash or restart. collectionID records the resource the event came from;
// showEdit/showDefer record whether the restored window should offer those
// actions. The input event is not mutated.
func EncodeDisplaying(cal *ics.Calendar, e *event.AlarmEvent, collectionID int64, showEdit, showDefer bool) *ics.VEvent {
	d := e.Clone()
	d.Category = event.CategoryDisplaying
	d.ID = event.CategoryDisplaying.IDPrefix() + e.BaseID()

	ve := EncodeEvent(cal, d)

	parts := []string{catDisplaying}
	if collectionID >= 0 {
		parts = append(parts, strconv.FormatInt(collectionID, 10))
	}
	if showEdit {
		parts = append(parts, dispEdit)
	}
	if showDefer {
		parts = append(parts, dispDefer)
	}
	ve.SetProperty(ics.ComponentProperty(propType), strings.Join(parts, ";"))

	// Tag the alarm roles so the decoder can tell the displayed alarm and
	// its pending deferral apart from an ordinary event's.
	for _, al := range ve.Alarms() {
		roles := alarmRoles(al)
		switch {
		case containsRole(roles, roleDeferral), containsRole(roles, roleDateDeferral):
			setAlarmRole(al, append([]string{roleDisplaying}, roles...)...)
		case len(roles) == 0:
			setAlarmRole(al, roleDisplaying)
		case containsRole(roles, roleFile):
			setAlarmRole(al, append([]string{roleDisplaying}, roles...)...)
		}
	}
	return ve
}

// ReinstateFromDisplaying decodes an event stored in the displaying
// sub-format back into its live form: the category always resolves to
// Active, a pending deferral (with its date-only bit) is restored, and the
// stored collection id and edit/defer offers are reported. It is called by
// external collaborators after a crash or restart so that in-flight
// notifications are not lost.
func ReinstateFromDisplaying(ve *ics.VEvent) (e *event.AlarmEvent, collectionID int64, showEdit, showDefer bool, err error) {
	cat, parts, err := decodeCategory(ve)
	if err != nil {
		return nil, 0, false, false, err
	}
	if cat != event.CategoryDisplaying {
		return nil, 0, false, false,
			fmt.Errorf("%w: expected %s marker, got %q", ErrUnknownCategory, catDisplaying, parts[0])
	}

	collectionID = -1
	for _, p := range parts[1:] {
		switch p {
		case dispEdit:
			showEdit = true
		case dispDefer:
			showDefer = true
		default:
			if n, perr := strconv.ParseInt(p, 10, 64); perr == nil {
				collectionID = n
			}
		}
	}

	e, err = DecodeEvent(ve)
	if err != nil {
		return nil, 0, false, false, err
	}

	base := e.BaseID()
	e.Category = event.CategoryActive
	e.ID = base
	return e, collectionID, showEdit, showDefer, nil
}
