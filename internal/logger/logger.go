// Package logger provides the logging interface shared by every idptest package.
// Implementations are backed by logrus; libraries accept the interface and default
// to the no-op logger so that they stay silent unless a caller wires one in.
package logger

import (
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the unified interface for all logging operations in the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})

	Printf(format string, args ...interface{})
	Println(args ...interface{})

	// Structured logging support
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogLevel represents the logging level
type LogLevel int

const (
	// LogLevelDebug enables all log messages
	LogLevelDebug LogLevel = iota
	// LogLevelInfo enables info and error messages
	LogLevelInfo
	// LogLevelError enables only error messages
	LogLevelError
	// LogLevelNone disables all logging
	LogLevelNone
)

// ParseLogLevel converts a string log level to LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "error", "warn", "warning":
		return LogLevelError
	case "none", "off":
		return LogLevelNone
	default:
		return LogLevelInfo
	}
}

// logrusLevel maps a LogLevel onto the logrus level that produces the same filtering.
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelError:
		return logrus.ErrorLevel
	case LogLevelNone:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// StandardLogger implements Logger on top of a logrus entry.
type StandardLogger struct {
	entry *logrus.Entry
	level LogLevel
}

// NewStandardLogger creates a StandardLogger writing text records to out.
// A nil writer discards output.
func NewStandardLogger(level string, out io.Writer) *StandardLogger {
	if out == nil {
		out = io.Discard
	}

	logLevel := ParseLogLevel(level)

	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(logLevel.logrusLevel())
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		DisableSorting:   false,
		QuoteEmptyFields: true,
	})

	return &StandardLogger{
		entry: logrus.NewEntry(base),
		level: logLevel,
	}
}

// Level returns the configured level.
func (l *StandardLogger) Level() LogLevel {
	return l.level
}

// Debug logs a debug message
func (l *StandardLogger) Debug(msg string) {
	l.entry.Debug(msg)
}

// Debugf logs a formatted debug message
func (l *StandardLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs an info message
func (l *StandardLogger) Info(msg string) {
	l.entry.Info(msg)
}

// Infof logs a formatted info message
func (l *StandardLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Error logs an error message
func (l *StandardLogger) Error(msg string) {
	if l.level == LogLevelNone {
		return
	}
	l.entry.Error(msg)
}

// Errorf logs a formatted error message
func (l *StandardLogger) Errorf(format string, args ...interface{}) {
	if l.level == LogLevelNone {
		return
	}
	l.entry.Errorf(format, args...)
}

// Printf logs a formatted message at info level
func (l *StandardLogger) Printf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

// Println logs a message at info level
func (l *StandardLogger) Println(args ...interface{}) {
	l.entry.Infoln(args...)
}

// WithField returns a new logger with an additional field
func (l *StandardLogger) WithField(key string, value interface{}) Logger {
	return &StandardLogger{
		entry: l.entry.WithField(key, value),
		level: l.level,
	}
}

// WithFields returns a new logger with additional fields
func (l *StandardLogger) WithFields(fields map[string]interface{}) Logger {
	return &StandardLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
		level: l.level,
	}
}

// NoOpLogger is a logger that discards all output.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string)                          {}
func (n *NoOpLogger) Debugf(format string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string)                           {}
func (n *NoOpLogger) Infof(format string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string)                          {}
func (n *NoOpLogger) Errorf(format string, args ...interface{}) {}
func (n *NoOpLogger) Printf(format string, args ...interface{}) {}
func (n *NoOpLogger) Println(args ...interface{})               {}

// WithField returns the same NoOpLogger
func (n *NoOpLogger) WithField(key string, value interface{}) Logger {
	return n
}

// WithFields returns the same NoOpLogger
func (n *NoOpLogger) WithFields(fields map[string]interface{}) Logger {
	return n
}

var (
	singletonNoOpLogger *NoOpLogger
	noOpLoggerOnce      sync.Once
)

// GetNoOpLogger returns the singleton no-op logger instance.
func GetNoOpLogger() Logger {
	noOpLoggerOnce.Do(func() {
		singletonNoOpLogger = &NoOpLogger{}
	})
	return singletonNoOpLogger
}
