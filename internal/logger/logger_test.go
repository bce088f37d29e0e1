package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{out: &buf, minLevel: WARN}

	l.Info("ENROLL", "hidden")
	l.Warn("ENROLL", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "ENROLL")
}

func TestLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, "test-portal")
	l.out = &bytes.Buffer{}
	l.LogScan("recorded", "card-1", "visitor v1")
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "test-portal-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"category":"SCAN"`))
	assert.True(t, strings.Contains(string(data), "[recorded] card-1 - visitor v1"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel(""))
}
