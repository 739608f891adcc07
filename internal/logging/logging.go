// Package logging configures StepBar's charmbracelet/log loggers.
//
// All log output goes to stderr so stdout stays free for progress output and
// JSON snapshots. Components take a prefixed child logger:
//
//	logging.Setup(logging.Options{Verbose: verbose})
//	logger := logging.New("workflow")
//	logger.Info("run started", "steps", 8)
//
// Setup must run before New: charmbracelet/log copies the default logger's
// settings into a child at creation time.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Level aliases for charmbracelet/log levels so callers need not import it.
const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)

// Options controls the global logger.
type Options struct {
	// Verbose lowers the level to Debug.
	Verbose bool
	// Quiet raises the level to Error. Quiet wins over Verbose.
	Quiet bool
	// JSON switches to the NDJSON formatter.
	JSON bool
	// Level, when non-empty, is parsed with ParseLevel and applied before
	// Verbose and Quiet.
	Level string
	// Timestamps adds a time field to every line.
	Timestamps bool
}

// Setup configures the default logger. It returns an error only for an
// unparseable Level, in which case the default level stays Info.
func Setup(opts Options) error {
	level := log.InfoLevel
	var err error
	if opts.Level != "" {
		var parsed log.Level
		parsed, err = ParseLevel(opts.Level)
		if err == nil {
			level = parsed
		}
	}
	if opts.Verbose {
		level = log.DebugLevel
	}
	if opts.Quiet {
		level = log.ErrorLevel
	}

	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(opts.Timestamps)
	log.SetTimeFormat(time.TimeOnly)
	if opts.JSON {
		log.SetFormatter(log.JSONFormatter)
	} else {
		log.SetFormatter(log.TextFormatter)
	}
	return err
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" (any case) to
// a level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("logging: unknown level %q", s)
}

// New returns a child of the default logger with the given component prefix.
// An empty component yields no prefix.
func New(component string) *log.Logger {
	return log.WithPrefix(component)
}

// SetOutput redirects the default logger, typically to a buffer in tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
