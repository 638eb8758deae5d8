// Package utils provides shared helpers such as the leveled logger.
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is the debug log level.
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level.
	LevelInfo
	// LevelWarn is the warning log level.
	LevelWarn
	// LevelError is the error log level.
	LevelError
)

// String returns the string representation of LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// DefaultLogger writes timestamped lines with fields in key order.
type DefaultLogger struct {
	mu     *sync.Mutex
	level  LogLevel
	output io.Writer
	fields map[string]interface{}
}

// NewDefaultLogger creates a new DefaultLogger.
func NewDefaultLogger(level LogLevel, output io.Writer) *DefaultLogger {
	return &DefaultLogger{
		mu:     &sync.Mutex{},
		level:  level,
		output: output,
		fields: make(map[string]interface{}),
	}
}

// NewFileLogger creates a logger that appends to a file.
func NewFileLogger(level LogLevel, logPath string) (*DefaultLogger, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return NewDefaultLogger(level, file), nil
}

// NewLogger builds a logger from a level name and an optional output path.
// An empty path logs to stderr so stdout stays free for command output.
func NewLogger(level, outputPath string) (Logger, error) {
	lvl := ParseLogLevel(level)
	if outputPath == "" || outputPath == "stderr" {
		return NewDefaultLogger(lvl, os.Stderr), nil
	}
	if outputPath == "stdout" {
		return NewDefaultLogger(lvl, os.Stdout), nil
	}
	return NewFileLogger(lvl, outputPath)
}

// SetLevel sets the log level.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// WithField creates a new logger with the given field.
func (l *DefaultLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields creates a new logger with the given fields.
// The child shares the parent's writer lock.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	child := &DefaultLogger{
		mu:     l.mu,
		level:  l.level,
		output: l.output,
		fields: make(map[string]interface{}, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (l *DefaultLogger) log(level LogLevel, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, l.fields[k])
	}

	logLine := fmt.Sprintf("[%s] [%s]%s %s\n", timestamp, level.String(), sb.String(), formattedMsg)
	_, _ = io.WriteString(l.output, logLine)
}

// ParseLogLevel parses a string to LogLevel.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewDefaultLogger(LevelInfo, os.Stderr)
)

// SetGlobalLogger sets the global logger.
func SetGlobalLogger(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NullLogger is a logger that discards all log messages.
type NullLogger struct{}

// Debug does nothing.
func (l *NullLogger) Debug(msg string, args ...interface{}) {}

// Info does nothing.
func (l *NullLogger) Info(msg string, args ...interface{}) {}

// Warn does nothing.
func (l *NullLogger) Warn(msg string, args ...interface{}) {}

// Error does nothing.
func (l *NullLogger) Error(msg string, args ...interface{}) {}

// WithField returns the same NullLogger.
func (l *NullLogger) WithField(key string, value interface{}) Logger {
	return l
}

// WithFields returns the same NullLogger.
func (l *NullLogger) WithFields(fields map[string]interface{}) Logger {
	return l
}
