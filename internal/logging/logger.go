// Package logging provides the leveled console logger used throughout the
// tool. Console lines are human-formatted (optionally colored); when a log
// file is configured the same events are appended to it as JSON lines.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/backmassage/dicommake/internal/config"
	"github.com/backmassage/dicommake/internal/term"
)

// successLevel is written as the level of Success events. Such events are
// emitted without a zerolog level so they are never filtered.
const successLevel = "success"

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	zl    zerolog.Logger
	file  *os.File
	mu    *sync.Mutex
	owner bool
}

// NewLogger configures colors from cfg and optionally opens cfg.LogFile.
// Call Close() when done if LogFile was set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode, os.Stdout)
	return newLogger(cfg.LogFile, os.Stdout, os.Stderr)
}

func newLogger(logFile string, stdout, stderr io.Writer) (*Logger, error) {
	l := &Logger{mu: &sync.Mutex{}, owner: true}

	console := levelSplit{
		out: zerolog.SyncWriter(consoleWriter(stdout)),
		err: zerolog.SyncWriter(consoleWriter(stderr)),
	}
	var w io.Writer = console

	if logFile != "" {
		dir := filepath.Dir(logFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		w = zerolog.MultiLevelWriter(console, zerolog.SyncWriter(f))
	}

	l.zl = zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return l, nil
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), mu: &sync.Mutex{}}
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     true, // level colors come from term
		TimeFormat:  "2006-01-02 15:04:05",
		FormatLevel: formatLevel,
	}
}

// formatLevel renders a level as the colored "[LEVEL]" tag.
func formatLevel(i interface{}) string {
	s, _ := i.(string)
	tag := "[" + strings.ToUpper(s) + "]"
	switch s {
	case zerolog.LevelInfoValue:
		return term.Paint(term.RoleInfo, tag)
	case successLevel:
		return term.Paint(term.RoleSuccess, tag)
	case zerolog.LevelWarnValue:
		return term.Paint(term.RoleWarn, tag)
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue:
		return term.Paint(term.RoleError, tag)
	case zerolog.LevelDebugValue:
		return term.Paint(term.RoleDebug, tag)
	}
	return tag
}

// levelSplit sends error events to err and everything else to out.
type levelSplit struct {
	out, err io.Writer
}

func (s levelSplit) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s levelSplit) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel {
		return s.err.Write(p)
	}
	return s.out.Write(p)
}

// With returns a child logger whose events carry key=value. The child
// shares the parent's sinks; closing it is a no-op.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{
		zl:   l.zl.With().Str(key, value).Logger(),
		file: l.file,
		mu:   l.mu,
	}
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if !l.owner {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Log().Str(zerolog.LevelFieldName, successLevel).Msg(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), also to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Err logs err at ERROR level with its class attached as a field.
func (l *Logger) Err(err error, class string, format string, args ...interface{}) {
	l.zl.Error().Err(err).Str("class", class).Msg(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose; no-op otherwise.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}
