// Package logger is the structured logger shared by every toolchat package.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Logger is the logging interface used by the library. obj carries structured
// fields and is rendered as JSON.
type Logger interface {
	Info(msg string, obj any)
	Warn(msg string, obj any)
	Debug(msg string, obj any)
	Error(msg string, obj any)
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NopLogger discards all log messages.
type NopLogger struct{}

func (NopLogger) Info(string, any)  {}
func (NopLogger) Warn(string, any)  {}
func (NopLogger) Debug(string, any) {}
func (NopLogger) Error(string, any) {}

type writerLogger struct {
	mu  *sync.Mutex
	w   io.Writer
	min Level
	now func() time.Time
}

// NewWriterLogger builds a logger that writes lines at or above min to w.
func NewWriterLogger(w io.Writer, min Level) Logger {
	return writerLogger{mu: &sync.Mutex{}, w: w, min: min, now: time.Now}
}

func (l writerLogger) write(level Level, msg string, obj any) {
	if l.w == nil || level < l.min {
		return
	}

	ts := l.now().Format(time.RFC3339)
	var line string
	if obj == nil {
		line = fmt.Sprintf("%s %-5s %s\n", ts, level, msg)
	} else if b, err := json.Marshal(obj); err != nil {
		line = fmt.Sprintf("%s %-5s %s obj=%q\n", ts, level, msg, fmt.Sprintf("%+v", obj))
	} else {
		line = fmt.Sprintf("%s %-5s %s obj=%s\n", ts, level, msg, string(b))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, line)
}

func (l writerLogger) Info(msg string, obj any)  { l.write(LevelInfo, msg, obj) }
func (l writerLogger) Warn(msg string, obj any)  { l.write(LevelWarn, msg, obj) }
func (l writerLogger) Debug(msg string, obj any) { l.write(LevelDebug, msg, obj) }
func (l writerLogger) Error(msg string, obj any) { l.write(LevelError, msg, obj) }

// Debug writes a debug log when enabled and logger is non-nil.
func Debug(enabled bool, logger Logger, msg string, obj any) {
	if !enabled || logger == nil {
		return
	}
	logger.Debug(msg, obj)
}

// Debugf is a compatibility helper for format-style debug logging.
func Debugf(enabled bool, logger Logger, format string, args ...any) {
	Debug(enabled, logger, fmt.Sprintf(format, args...), nil)
}

// Warn writes a warning log when logger is non-nil.
func Warn(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, obj)
}

// Error writes an error log when logger is non-nil.
func Error(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Error(msg, obj)
}
