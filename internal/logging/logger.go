// Package logging provides the leveled key/value logger used across the PFT reader.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Unknown strings fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides structured logging for the pipeline
type Logger struct {
	prefix string
	level  Level
	logger *log.Logger
}

// NewLogger creates a new logger with a prefix writing to stderr.
// Stdout is reserved for the MCP protocol.
func NewLogger(prefix string, level Level) *Logger {
	return NewLoggerTo(os.Stderr, prefix, level)
}

// NewLoggerTo creates a logger writing to w.
func NewLoggerTo(w io.Writer, prefix string, level Level) *Logger {
	return &Logger{
		prefix: prefix,
		level:  level,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Discard returns a logger that drops everything, for tests and library callers.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, "discard", LevelError+1)
}

// With returns a logger sharing the output and level with a longer prefix.
func (l *Logger) With(prefix string) *Logger {
	p := l.prefix + "." + prefix
	return &Logger{
		prefix: p,
		level:  l.level,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s] ", p), l.logger.Flags()),
	}
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, "INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, "WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, "ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, "DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, tag, msg string, keysAndValues ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	var kv strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		}
	}
	l.logger.Printf("[%s] %s%s", tag, msg, kv.String())
}
