package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 0, "text")

	l.Info("hello", "user", "user-1")
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "user=user-1")
	assert.NotContains(t, out, "hidden")
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, -4, FormatJSON)

	l.Debug("visible", "n", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "visible", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 0, "text").Named("hub")

	l.Warn("slow client")

	assert.Contains(t, buf.String(), "component=hub")
}
