package ical

import "errors"

// Decode failure taxonomy. Every decode failure wraps one of these; the
// caller (the storage transport) decides whether to warn, skip or
// quarantine the offending item. Malformed flag tokens are not errors:
// they are recovered by dropping the single token.
var (
	// ErrNotAnEvent: the calendar component is not an event kind.
	ErrNotAnEvent = errors.New("component is not an event")
	// ErrNoUsableAlarms: the event has no alarm sub-components.
	ErrNoUsableAlarms = errors.New("event has no usable alarms")
	// ErrUnknownCategory: the category marker is missing or unrecognized.
	ErrUnknownCategory = errors.New("unknown event category")
	// ErrIDMismatch: the stored identifier disagrees with the category marker.
	ErrIDMismatch = errors.New("event ID does not match its category")
	// ErrStaleFormat: the calendar was produced by an incompatible encoder.
	ErrStaleFormat = errors.New("incompatible calendar format version")
)

// errMissingParam marks a parametrized flag token with no parameter; the
// token is dropped, never the whole decode.
var errMissingParam = errors.New("missing token parameter")
