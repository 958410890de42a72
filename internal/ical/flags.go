package ical

import (
	"strconv"
	"strings"

	"alarmcal/internal/event"
	appLog "alarmcal/internal/log"
)

// Event-level flag tokens. Encode order is fixed so identical input always
// yields an identical token sequence.
const (
	tokDate       = "DATE"
	tokLocal      = "LOCAL"
	tokAckConf    = "ACKCONF"
	tokOrgCopy    = "ORGCOPY"
	tokExHolidays = "EXHOLIDAYS"
	tokWorkTime   = "WORKTIME"
	tokBCC        = "BCC"
	tokBeep       = "BEEP"
	tokSpeak      = "SPEAK"
	tokNotify     = "NOTIFY"
	tokDefFont    = "DEFFONT"
	tokScript     = "SCRIPT"
	tokLogin      = "LOGIN"
	tokArchive    = "ARCHIVE"
	tokDisabled   = "DISABLED"
	tokReadOnly   = "READONLY"
	tokLateCancel = "LATECANCEL"
	tokAutoClose  = "AUTOCLOSE"
	tokDefer      = "DEFER"
	tokReminder   = "REMINDER"
	tokOnce       = "ONCE"
	tokTmplAfter  = "TMPLAFTTIME"
	tokEmailID    = "EMAILID"
)

// Alarm-level flag tokens, scoped to one VALARM sub-component.
const (
	tokHide        = "HIDE"
	tokExecDefer   = "EXECDEFER"
	tokErrCancel   = "ERRCANCEL"
	tokErrNoShow   = "ERRNOSHOW"
	tokSoundRepeat = "SOUNDREPEAT"
)

// flagValues aggregates everything the event-level flags property carries:
// the option bitset plus its ancillary integer parameters. It is the single
// translation boundary between the model's named fields and the token list.
type flagValues struct {
	Flags    event.Flags
	DateOnly bool
	Floating bool
	Disabled bool
	ReadOnly bool

	LateCancelMinutes int // carried by LATECANCEL or AUTOCLOSE

	DeferMinutes  int
	DeferDateOnly bool

	ReminderMinutes int
	ReminderOnce    bool

	TemplateAfterTime int // -1 = unset
	EmailID           int64

	Unknown []string
}

// encodeFlagTokens converts the flag set into its ordered token list.
// Unknown pass-through tokens are re-emitted last, verbatim.
func encodeFlagTokens(v flagValues) []string {
	var toks []string
	on := func(set bool, tok string) {
		if set {
			toks = append(toks, tok)
		}
	}

	on(v.DateOnly, tokDate)
	on(v.Floating, tokLocal)
	on(v.Flags.ConfirmAck, tokAckConf)
	on(v.Flags.CopyToOrganizer, tokOrgCopy)
	on(v.Flags.ExcludeHolidays, tokExHolidays)
	on(v.Flags.WorkTimeOnly, tokWorkTime)
	on(v.Flags.EmailBCC, tokBCC)
	on(v.Flags.Beep, tokBeep)
	on(v.Flags.Speak, tokSpeak)
	on(v.Flags.Notify, tokNotify)
	on(v.Flags.DefaultFont, tokDefFont)
	on(v.Flags.Script, tokScript)
	on(v.Flags.RepeatAtLogin, tokLogin)
	on(v.Flags.Archived, tokArchive)
	on(v.Disabled, tokDisabled)
	on(v.ReadOnly, tokReadOnly)

	if v.LateCancelMinutes > 0 || v.Flags.AutoClose {
		// AUTOCLOSE and LATECANCEL are mutually exclusive alternatives
		// carrying the same minute count. AUTOCLOSE with a zero count
		// still records the flag.
		tok := tokLateCancel
		if v.Flags.AutoClose {
			tok = tokAutoClose
		}
		toks = append(toks, tok, strconv.Itoa(v.LateCancelMinutes))
	}
	if v.DeferMinutes > 0 {
		p := strconv.Itoa(v.DeferMinutes)
		if v.DeferDateOnly {
			p += "D"
		}
		toks = append(toks, tokDefer, p)
	}
	if v.ReminderMinutes != 0 {
		toks = append(toks, tokReminder)
		if v.ReminderOnce {
			toks = append(toks, tokOnce)
		}
		toks = append(toks, formatMinutes(v.ReminderMinutes))
	}
	if v.TemplateAfterTime >= 0 {
		toks = append(toks, tokTmplAfter, strconv.Itoa(v.TemplateAfterTime))
	}
	if v.EmailID != 0 {
		toks = append(toks, tokEmailID, strconv.FormatInt(v.EmailID, 10))
	}

	toks = append(toks, v.Unknown...)
	return toks
}

// decodeFlagTokens is the inverse of encodeFlagTokens. It is tolerant:
// unrecognized tokens are preserved as opaque pass-through, and a token
// whose parameter fails to parse is dropped alone rather than failing the
// whole decode. Except for the LATECANCEL/AUTOCLOSE pair (last one wins),
// decoding does not depend on token order.
func decodeFlagTokens(toks []string) flagValues {
	v := flagValues{TemplateAfterTime: -1}

	i := 0
	next := func() (string, bool) {
		if i >= len(toks) {
			return "", false
		}
		t := toks[i]
		i++
		return t, true
	}
	dropParam := func(tok, param string, err error) {
		appLog.Warn("dropping malformed flag token", "token", tok, "param", param, "reason", err)
	}

	for {
		tok, ok := next()
		if !ok {
			break
		}
		switch tok {
		case tokDate:
			v.DateOnly = true
		case tokLocal:
			v.Floating = true
		case tokAckConf:
			v.Flags.ConfirmAck = true
		case tokOrgCopy:
			v.Flags.CopyToOrganizer = true
		case tokExHolidays:
			v.Flags.ExcludeHolidays = true
		case tokWorkTime:
			v.Flags.WorkTimeOnly = true
		case tokBCC:
			v.Flags.EmailBCC = true
		case tokBeep:
			v.Flags.Beep = true
		case tokSpeak:
			v.Flags.Speak = true
		case tokNotify:
			v.Flags.Notify = true
		case tokDefFont:
			v.Flags.DefaultFont = true
		case tokScript:
			v.Flags.Script = true
		case tokLogin:
			v.Flags.RepeatAtLogin = true
		case tokArchive:
			v.Flags.Archived = true
		case tokDisabled:
			v.Disabled = true
		case tokReadOnly:
			v.ReadOnly = true

		case tokLateCancel, tokAutoClose:
			p, ok := next()
			if !ok {
				dropParam(tok, "", errMissingParam)
				break
			}
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				dropParam(tok, p, err)
				break
			}
			v.LateCancelMinutes = n
			v.Flags.AutoClose = tok == tokAutoClose

		case tokDefer:
			p, ok := next()
			if !ok {
				dropParam(tok, "", errMissingParam)
				break
			}
			dateOnly := false
			if d, found := strings.CutSuffix(p, "D"); found {
				dateOnly = true
				p = d
			}
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				dropParam(tok, p, err)
				break
			}
			v.DeferMinutes = n
			v.DeferDateOnly = dateOnly

		case tokReminder:
			p, ok := next()
			if !ok {
				dropParam(tok, "", errMissingParam)
				break
			}
			once := false
			if p == tokOnce {
				once = true
				if p, ok = next(); !ok {
					dropParam(tok, "", errMissingParam)
					break
				}
			}
			m, err := parseMinutes(p)
			if err != nil {
				dropParam(tok, p, err)
				break
			}
			v.ReminderMinutes = m
			v.ReminderOnce = once

		case tokTmplAfter:
			p, ok := next()
			if !ok {
				dropParam(tok, "", errMissingParam)
				break
			}
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				dropParam(tok, p, err)
				break
			}
			v.TemplateAfterTime = n

		case tokEmailID:
			p, ok := next()
			if !ok {
				dropParam(tok, "", errMissingParam)
				break
			}
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				dropParam(tok, p, err)
				break
			}
			v.EmailID = n

		default:
			// Forward compatibility: a newer encoder's token is carried
			// through untouched.
			v.Unknown = append(v.Unknown, tok)
		}
	}

	return v
}

// alarmFlags is the per-VALARM flag subset.
type alarmFlags struct {
	Hide           bool
	ExecOnDeferral bool
	CancelOnError  bool
	DontShowError  bool
	SoundRepeat    bool
	SoundPause     int
}

func encodeAlarmFlagTokens(f alarmFlags) []string {
	var toks []string
	if f.Hide {
		toks = append(toks, tokHide)
	}
	if f.ExecOnDeferral {
		toks = append(toks, tokExecDefer)
	}
	if f.CancelOnError {
		toks = append(toks, tokErrCancel)
	}
	if f.DontShowError {
		toks = append(toks, tokErrNoShow)
	}
	if f.SoundRepeat {
		toks = append(toks, tokSoundRepeat, strconv.Itoa(f.SoundPause))
	}
	return toks
}

func decodeAlarmFlagTokens(toks []string) alarmFlags {
	var f alarmFlags
	for i := 0; i < len(toks); i++ {
		switch toks[i] {
		case tokHide:
			f.Hide = true
		case tokExecDefer:
			f.ExecOnDeferral = true
		case tokErrCancel:
			f.CancelOnError = true
		case tokErrNoShow:
			f.DontShowError = true
		case tokSoundRepeat:
			f.SoundRepeat = true
			if i+1 < len(toks) {
				if n, err := strconv.Atoi(toks[i+1]); err == nil {
					f.SoundPause = n
					i++
				}
			}
		}
	}
	return f
}
