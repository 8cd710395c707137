package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Logger defines a standard interface for logging.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// SlogLogger is a wrapper around Go's structured logger.
type SlogLogger struct {
	*slog.Logger
}

// HCLogger is a wrapper around a hashicorp logger, used for human-readable output.
type HCLogger struct {
	hclog.Logger
}

// NewLogger creates a new logger instance writing to stdout. format "text"
// selects the hclog backend; anything else logs JSON through slog.
func NewLogger(level, format string) Logger {
	return New(os.Stdout, level, format)
}

// New creates a logger writing to w.
func New(w io.Writer, level, format string) Logger {
	if strings.ToLower(format) == "text" {
		return &HCLogger{hclog.New(&hclog.LoggerOptions{
			Name:   "mpdreader",
			Level:  hclog.LevelFromString(normalizeLevel(level)),
			Output: w,
		})}
	}

	var lvl slog.Level
	switch normalizeLevel(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})

	return &SlogLogger{slog.New(handler)}
}

func normalizeLevel(level string) string {
	switch l := strings.ToLower(level); l {
	case "debug", "info", "warn", "error":
		return l
	default:
		return "info"
	}
}

// Debugf logs a message at the debug level.
func (l *SlogLogger) Debugf(format string, v ...interface{}) {
	l.Debug(fmt.Sprintf(format, v...))
}

// Infof logs a message at the info level.
func (l *SlogLogger) Infof(format string, v ...interface{}) {
	l.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a message at the warn level.
func (l *SlogLogger) Warnf(format string, v ...interface{}) {
	l.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs a message at the error level.
func (l *SlogLogger) Errorf(format string, v ...interface{}) {
	l.Error(fmt.Sprintf(format, v...))
}

func (l *HCLogger) Debugf(format string, v ...interface{}) {
	l.Debug(fmt.Sprintf(format, v...))
}

func (l *HCLogger) Infof(format string, v ...interface{}) {
	l.Info(fmt.Sprintf(format, v...))
}

func (l *HCLogger) Warnf(format string, v ...interface{}) {
	l.Warn(fmt.Sprintf(format, v...))
}

func (l *HCLogger) Errorf(format string, v ...interface{}) {
	l.Error(fmt.Sprintf(format, v...))
}
