package alarmtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var german = Locale{
	From:     "Von:",
	To:       "An:",
	Cc:       "Kopie:",
	Date:     "Datum:",
	Subject:  "Betreff:",
	Todo:     "Aufgabe:",
	Location: "Ort:",
	Due:      "Fällig:",
}

func TestEmailRoundTrip(t *testing.T) {
	in := Email{
		From:    "alice@example.com",
		To:      "bob@example.com",
		Cc:      "carol@example.com",
		Date:    "Mon, 2 Mar 2026 09:00:00 +0000",
		Subject: "status",
		Body:    "first line\nsecond line",
	}
	text := EmailStorageText(in)

	out, ok := ParseEmail(text, Canonical)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestEmailStorageLocaleIndependent(t *testing.T) {
	in := Email{
		From:    "alice@example.com",
		To:      "bob@example.com",
		Date:    "Mon, 2 Mar 2026 09:00:00 +0000",
		Subject: "status",
		Body:    "body",
	}
	// Storage text is canonical, so parsing under an unrelated runtime
	// locale still detects it.
	text := EmailStorageText(in)
	out, ok := ParseEmail(text, german)
	require.True(t, ok)
	assert.Equal(t, in, out)
	assert.True(t, IsEmail(text, german))
}

func TestEmailDisplayLocale(t *testing.T) {
	in := Email{From: "a@x", To: "b@x", Date: "d", Subject: "s", Body: "b"}
	text := BuildEmail(in, german)

	// Localized display text parses only with its own locale.
	_, ok := ParseEmail(text, Canonical)
	assert.False(t, ok)
	out, ok := ParseEmail(text, german)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestEmailOptionalCc(t *testing.T) {
	in := Email{From: "a@x", To: "b@x", Date: "d", Subject: "s", Body: "b"}
	out, ok := ParseEmail(EmailStorageText(in), Canonical)
	require.True(t, ok)
	assert.Empty(t, out.Cc)
	assert.Equal(t, in, out)
}

func TestIsEmailRejectsPlainText(t *testing.T) {
	assert.False(t, IsEmail("just a reminder message", Canonical))
	assert.False(t, IsEmail("From:\talice\nmissing the rest", Canonical))
	assert.False(t, IsEmail("", Canonical))
}

func TestTodoRoundTrip(t *testing.T) {
	in := Todo{
		Title:       "water the plants",
		Location:    "balcony",
		Due:         "2026-03-05",
		Description: "the ferns too",
	}
	out, ok := ParseTodo(TodoStorageText(in), Canonical)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestTodoOptionalHeaders(t *testing.T) {
	in := Todo{Title: "call the dentist"}
	text := TodoStorageText(in)
	out, ok := ParseTodo(text, Canonical)
	require.True(t, ok)
	assert.Equal(t, in, out)
	assert.True(t, IsTodo(text, german))
}

func TestTodoLocaleIndependent(t *testing.T) {
	in := Todo{Title: "einkaufen", Location: "markt", Description: "obst"}
	text := BuildTodo(in, german)

	_, ok := ParseTodo(text, Canonical)
	assert.False(t, ok)
	out, ok := ParseTodo(text, german)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestHeaderValueSeparators(t *testing.T) {
	// Tab or spaces after the header prefix are both accepted.
	text := "From: alice\nTo:  bob\nDate: d\nSubject: s\n\nbody"
	out, ok := ParseEmail(text, Canonical)
	require.True(t, ok)
	assert.Equal(t, "alice", out.From)
	assert.Equal(t, "bob", out.To)
}
