// Package logging builds the run logger: one zerolog.Logger that writes the
// same lines to the run's log file and to the console.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout of every log line, always in UTC.
const TimeFormat = "02-Jan-2006 15:04:05"

// DefaultLevel is used when no level is requested.
const DefaultLevel = zerolog.DebugLevel

var levelNames = map[string]string{
	zerolog.LevelTraceValue: "TRACE",
	zerolog.LevelDebugValue: "DEBUG",
	zerolog.LevelInfoValue:  "INFO",
	zerolog.LevelWarnValue:  "WARNING",
	zerolog.LevelErrorValue: "ERROR",
	zerolog.LevelFatalValue: "CRITICAL",
	zerolog.LevelPanicValue: "PANIC",
}

var levelColors = map[string]int{
	zerolog.LevelTraceValue: 90,
	zerolog.LevelDebugValue: 36,
	zerolog.LevelInfoValue:  32,
	zerolog.LevelWarnValue:  33,
	zerolog.LevelErrorValue: 31,
	zerolog.LevelFatalValue: 35,
	zerolog.LevelPanicValue: 35,
}

// Options configure New.
type Options struct {
	// FilePath is the log file. It is created if missing and appended to.
	FilePath string
	// Console receives the echo of every line. Defaults to os.Stderr.
	Console io.Writer
	Level   zerolog.Level
	// Now stamps each line. Defaults to time.Now.
	Now func() time.Time
}

// Run is an open run logger. Close releases the log file.
type Run struct {
	zerolog.Logger
	file *os.File
}

// New opens the log file and returns a logger writing to it and the console.
func New(opts Options) (*Run, error) {
	if opts.FilePath == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	file, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	logger := NewLogger(opts.Level, opts.Now, NewWriter(file, false), NewWriter(console, colorful(console)))
	return &Run{Logger: logger, file: file}, nil
}

// Path returns the log file path.
func (r *Run) Path() string {
	if r == nil || r.file == nil {
		return ""
	}
	return r.file.Name()
}

// Close flushes and closes the log file.
func (r *Run) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLogger returns a logger at level that stamps lines with now and fans
// them out to every writer. Writes are serialized, so the logger can be shared
// by concurrent workers.
func NewLogger(level zerolog.Level, now func() time.Time, writers ...io.Writer) zerolog.Logger {
	if now == nil {
		now = time.Now
	}
	return zerolog.New(zerolog.SyncWriter(zerolog.MultiLevelWriter(writers...))).
		Level(level).
		Hook(clock(now))
}

// NewWriter formats events as "DD-Mon-YYYY HH:MM:SS | LEVEL   | message".
func NewWriter(out io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:     out,
		NoColor: !color,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
		FormatTimestamp: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
		FormatLevel: func(i interface{}) string {
			return formatLevel(i, color)
		},
	}
}

// ParseLevel accepts zerolog level names plus "warning" and "critical".
// An empty string selects DefaultLevel.
func ParseLevel(s string) (zerolog.Level, error) {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "":
		return DefaultLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "critical":
		return zerolog.FatalLevel, nil
	default:
		level, err := zerolog.ParseLevel(name)
		if err != nil {
			return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
		}
		return level, nil
	}
}

type clock func() time.Time

func (c clock) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str(zerolog.TimestampFieldName, c().UTC().Format(TimeFormat))
}

func formatLevel(i interface{}, color bool) string {
	raw, _ := i.(string)
	name, ok := levelNames[raw]
	if !ok {
		name = strings.ToUpper(raw)
	}
	padded := fmt.Sprintf("%-7s", name)
	if color {
		if code, ok := levelColors[raw]; ok {
			padded = fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, padded)
		}
	}
	return "| " + padded + " |"
}

func colorful(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
