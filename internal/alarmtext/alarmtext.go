// Package alarmtext parses and builds the plain-text representation embedded
// in a display alarm body when it actually encodes an email or a to-do.
//
// Display text uses the active locale's header prefixes; storage text always
// uses the canonical English headers, so that text stored under one runtime
// locale still detects as an email or to-do under any other.
package alarmtext

import "strings"

// Locale is the set of localized header-line prefixes (without the trailing
// space, including the colon).
type Locale struct {
	From     string
	To       string
	Cc       string
	Date     string
	Subject  string
	Todo     string
	Location string
	Due      string
}

// Canonical is the English header set used for storage text.
var Canonical = Locale{
	From:     "From:",
	To:       "To:",
	Cc:       "Cc:",
	Date:     "Date:",
	Subject:  "Subject:",
	Todo:     "To-do:",
	Location: "Location:",
	Due:      "Due:",
}

// Email is the structured form of an embedded email body.
type Email struct {
	From    string
	To      string
	Cc      string
	Date    string
	Subject string
	Body    string
}

// Todo is the structured form of an embedded to-do body.
type Todo struct {
	Title       string
	Location    string
	Due         string
	Description string
}

// BuildEmail renders an email with the given header locale. The header
// sequence is From/To/[Cc]/Date/Subject, then a blank line and the body.
func BuildEmail(e Email, loc Locale) string {
	var b strings.Builder
	b.WriteString(loc.From + "\t" + e.From + "\n")
	b.WriteString(loc.To + "\t" + e.To + "\n")
	if e.Cc != "" {
		b.WriteString(loc.Cc + "\t" + e.Cc + "\n")
	}
	b.WriteString(loc.Date + "\t" + e.Date + "\n")
	b.WriteString(loc.Subject + "\t" + e.Subject + "\n")
	b.WriteString("\n")
	b.WriteString(e.Body)
	return b.String()
}

// BuildTodo renders a to-do with the given header locale, using the reduced
// header set Todo/[Location]/[Due].
func BuildTodo(t Todo, loc Locale) string {
	var b strings.Builder
	b.WriteString(loc.Todo + "\t" + t.Title + "\n")
	if t.Location != "" {
		b.WriteString(loc.Location + "\t" + t.Location + "\n")
	}
	if t.Due != "" {
		b.WriteString(loc.Due + "\t" + t.Due + "\n")
	}
	b.WriteString("\n")
	b.WriteString(t.Description)
	return b.String()
}

// EmailStorageText renders an email in the canonical storage form.
func EmailStorageText(e Email) string {
	return BuildEmail(e, Canonical)
}

// TodoStorageText renders a to-do in the canonical storage form.
func TodoStorageText(t Todo) string {
	return BuildTodo(t, Canonical)
}

// ParseEmail detects whether text encodes an email and recovers its fields.
// The canonical headers are tried first, then the given locale's.
func ParseEmail(text string, loc Locale) (Email, bool) {
	if e, ok := parseEmailWith(text, Canonical); ok {
		return e, true
	}
	return parseEmailWith(text, loc)
}

// ParseTodo detects whether text encodes a to-do and recovers its fields.
func ParseTodo(text string, loc Locale) (Todo, bool) {
	if t, ok := parseTodoWith(text, Canonical); ok {
		return t, true
	}
	return parseTodoWith(text, loc)
}

// IsEmail reports whether text matches the email header sequence under the
// canonical or the given locale.
func IsEmail(text string, loc Locale) bool {
	_, ok := ParseEmail(text, loc)
	return ok
}

// IsTodo reports whether text matches the to-do header sequence.
func IsTodo(text string, loc Locale) bool {
	_, ok := ParseTodo(text, loc)
	return ok
}

func parseEmailWith(text string, loc Locale) (Email, bool) {
	if loc.From == "" || loc.To == "" || loc.Date == "" || loc.Subject == "" {
		return Email{}, false
	}
	lines := strings.Split(text, "\n")

	var e Email
	i := 0
	take := func(prefix string) (string, bool) {
		if i >= len(lines) {
			return "", false
		}
		v, ok := headerValue(lines[i], prefix)
		if ok {
			i++
		}
		return v, ok
	}

	var ok bool
	if e.From, ok = take(loc.From); !ok {
		return Email{}, false
	}
	if e.To, ok = take(loc.To); !ok {
		return Email{}, false
	}
	e.Cc, _ = take(loc.Cc) // optional
	if e.Date, ok = take(loc.Date); !ok {
		return Email{}, false
	}
	if e.Subject, ok = take(loc.Subject); !ok {
		return Email{}, false
	}
	e.Body = restAfterBlank(lines, i)
	return e, true
}

func parseTodoWith(text string, loc Locale) (Todo, bool) {
	if loc.Todo == "" {
		return Todo{}, false
	}
	lines := strings.Split(text, "\n")

	var t Todo
	i := 0
	v, ok := headerValue(lines[0], loc.Todo)
	if !ok {
		return Todo{}, false
	}
	t.Title = v
	i++
	if i < len(lines) {
		if v, ok := headerValue(lines[i], loc.Location); ok {
			t.Location = v
			i++
		}
	}
	if i < len(lines) {
		if v, ok := headerValue(lines[i], loc.Due); ok {
			t.Due = v
			i++
		}
	}
	t.Description = restAfterBlank(lines, i)
	return t, true
}

// headerValue matches "Prefix<TAB or space>value" at the start of a line.
func headerValue(line, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return "", false
	}
	return strings.TrimLeft(rest, " \t"), true
}

// restAfterBlank joins the body lines following the single blank separator.
func restAfterBlank(lines []string, i int) string {
	if i < len(lines) && lines[i] == "" {
		i++
	}
	if i >= len(lines) {
		return ""
	}
	return strings.Join(lines[i:], "\n")
}
