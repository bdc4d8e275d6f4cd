// Package logger provides a simple logging interface for the helper components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "TS_HELPERS_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// envLogger implements Logger on top of logrus. Output goes to stderr so it
// never mixes with the forwarded tool's stdout.
type envLogger struct {
	prefix string
	log    *logrus.Logger
}

// NewEnvLogger creates a stderr logger that respects TS_HELPERS_DEBUG.
// Without it only warnings and errors are shown: the helpers sit in front of
// interactive ssh sessions and must stay quiet.
// The prefix is prepended to all log messages (e.g., "[tailnet]").
func NewEnvLogger(prefix string) Logger {
	return NewEnvLoggerTo(os.Stderr, prefix)
}

// NewEnvLoggerTo is NewEnvLogger writing to w.
func NewEnvLoggerTo(w io.Writer, prefix string) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	l.SetLevel(logrus.WarnLevel)
	if os.Getenv(DebugEnv) != "" {
		l.SetLevel(logrus.DebugLevel)
	}
	return &envLogger{prefix: prefix, log: l}
}

func (l *envLogger) msg(format string, args ...interface{}) string {
	m := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		return m
	}
	return l.prefix + " " + m
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	l.log.Debug(l.msg(format, args...))
}

func (l *envLogger) Info(format string, args ...interface{}) {
	l.log.Info(l.msg(format, args...))
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	l.log.Warn(l.msg(format, args...))
}

func (l *envLogger) Error(format string, args ...interface{}) {
	l.log.Error(l.msg(format, args...))
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// Safe for use from the concurrent resolvers in fanout.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = l.Messages[:0]
}
