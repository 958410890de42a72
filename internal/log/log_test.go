package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	Debug("hidden")
	Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[INFO] shown")

	SetLevel(LevelDebug)
	Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")

	SetLevel(Level("NOISE")) // unknown levels are ignored
	Debug("still visible")
	assert.Contains(t, buf.String(), "still visible")
}

func TestKeyValueFormatting(t *testing.T) {
	buf := capture(t)

	Info("msg", "key", "value", "n", 7)
	assert.Contains(t, buf.String(), "msg key=value n=7")

	buf.Reset()
	Warn("odd", "dangling")
	line := buf.String()
	assert.Contains(t, line, "[WARN] odd")
	assert.NotContains(t, line, "dangling")
}

func TestErrorPrependsErr(t *testing.T) {
	buf := capture(t)
	Error("operation failed", errors.New("boom"), "id", "a1")
	assert.Contains(t, buf.String(), "[ERROR] operation failed err=boom id=a1")
}
