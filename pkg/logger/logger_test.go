package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel("whatever"))
	assert.Equal(t, INFO, ParseLevel(""))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(WARN)
	log.SetOutput(&buf)

	log.Debug("debug message")
	log.Info("info message")
	assert.Empty(t, buf.String())

	log.Warn("warn message")
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "warn message")
}

func TestFormatting(t *testing.T) {
	var buf bytes.Buffer
	log := New(DEBUG)
	log.SetOutput(&buf)

	log.Info("hello %s, code %d", "world", 42)
	assert.Contains(t, buf.String(), "hello world, code 42")
	assert.Contains(t, buf.String(), "[INFO]")
}
