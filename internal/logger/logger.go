// Package logger provides a simple logging interface for btcdash components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
//
// The default implementation writes structured lines through zerolog. The
// dashboard owns the terminal while it runs, so the CLI points the output at
// a log file with OpenFile before starting it.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DebugEnv enables debug-level output regardless of the configured level.
const DebugEnv = "BTCDASH_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

var (
	outputMu sync.RWMutex
	output   io.Writer = os.Stderr
	level              = zerolog.InfoLevel
)

// SetOutput redirects every logger created by NewEnvLogger.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

// SetLevel sets the minimum level by name: debug, info, warn or error.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	outputMu.Lock()
	defer outputMu.Unlock()
	level = lvl
	return nil
}

// ParseLevel converts a level name to a zerolog level. Empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", name)
	}
}

// OpenFile creates the parent directory, opens path for appending and makes
// it the log output. The caller closes the returned file on shutdown.
func OpenFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	SetOutput(f)
	return f, nil
}

// lockedWriter resolves the package output at write time so loggers created
// before OpenFile still end up in the file.
type lockedWriter struct{}

func (lockedWriter) Write(p []byte) (int, error) {
	outputMu.RLock()
	w := output
	outputMu.RUnlock()
	return w.Write(p)
}

// envLogger implements Logger on top of zerolog.
// Debug messages are printed when BTCDASH_DEBUG is set or the level is debug.
type envLogger struct {
	zl zerolog.Logger
}

// NewEnvLogger creates a logger tagged with a component name (e.g. "scheduler").
func NewEnvLogger(component string) Logger {
	zl := zerolog.New(lockedWriter{}).With().Timestamp().Logger()
	if component != "" {
		zl = zl.With().Str("component", component).Logger()
	}
	return &envLogger{zl: zl}
}

func (l *envLogger) enabled(lvl zerolog.Level) bool {
	if lvl == zerolog.DebugLevel && os.Getenv(DebugEnv) != "" {
		return true
	}
	outputMu.RLock()
	defer outputMu.RUnlock()
	return lvl >= level
}

func (l *envLogger) emit(lvl zerolog.Level, format string, args ...interface{}) {
	if !l.enabled(lvl) {
		return
	}
	l.zl.WithLevel(lvl).Msgf(format, args...)
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	l.emit(zerolog.DebugLevel, format, args...)
}

func (l *envLogger) Info(format string, args ...interface{}) {
	l.emit(zerolog.InfoLevel, format, args...)
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	l.emit(zerolog.WarnLevel, format, args...)
}

func (l *envLogger) Error(format string, args ...interface{}) {
	l.emit(zerolog.ErrorLevel, format, args...)
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
// It is safe for concurrent use since invocations log from their own goroutines.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// Messages returns a copy of everything captured so far.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains reports whether any captured message contains substr.
func (l *BufferLogger) Contains(substr string) bool {
	for _, m := range l.Messages() {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

// defaultLogger is the package-level default logger.
var defaultLogger = NewEnvLogger("")

// Default returns the default logger for the package.
func Default() Logger {
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultLogger = l
}
