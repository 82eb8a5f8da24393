package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/dicommake/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()
	l.Info("test message")
}

func TestLogger_ConsoleRouting(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l, err := newLogger("", &stdout, &stderr)
	require.NoError(t, err)

	l.Info("processing %s", "a.dcm")
	l.Success("saved %d", 1)
	l.Warn("careful")
	l.Error("broken")
	l.Debug(false, "hidden")
	l.Debug(true, "shown")

	out := stdout.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "processing a.dcm")
	assert.Contains(t, out, "[SUCCESS]")
	assert.Contains(t, out, "saved 1")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[DEBUG]")
	assert.Contains(t, out, "shown")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "broken")

	assert.Contains(t, stderr.String(), "[ERROR]")
	assert.Contains(t, stderr.String(), "broken")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "dicommake.log")
	var stdout, stderr bytes.Buffer
	l, err := newLogger(path, &stdout, &stderr)
	require.NoError(t, err)

	l.With("container", "a.dcm").Info("to file")
	l.Success("done")
	l.Err(errors.New("boom"), "decode", "pair failed")
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), sc.Text())
		events = append(events, ev)
	}
	require.Len(t, events, 3)

	assert.Equal(t, "info", events[0]["level"])
	assert.Equal(t, "to file", events[0]["message"])
	assert.Equal(t, "a.dcm", events[0]["container"])
	assert.Equal(t, "success", events[1]["level"])
	assert.Equal(t, "error", events[2]["level"])
	assert.Equal(t, "boom", events[2]["error"])
	assert.Equal(t, "decode", events[2]["class"])
	assert.True(t, strings.Contains(stderr.String(), "pair failed"))
}

func TestLogger_ChildCloseKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicommake.log")
	var sink bytes.Buffer
	l, err := newLogger(path, &sink, &sink)
	require.NoError(t, err)

	require.NoError(t, l.With("k", "v").Close())
	l.Info("still open")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "still open")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("x")
	l.Debug(true, "y")
	assert.NoError(t, l.Close())
}
