// Package logging provides the suite's structured logging.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// EnvLevel overrides the configured log level.
const EnvLevel = "OSIM_E2E_LOG_LEVEL"

// LoggerOptions configures the logger.
type LoggerOptions struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer
	// Prefix is the component name prefix
	Prefix string
	// TimeFormat is the time format string (default: RFC3339)
	TimeFormat string
	// ReportCaller adds file:line to log entries
	ReportCaller bool
	// ReportTimestamp adds timestamps to log entries
	ReportTimestamp bool
	// Redact passes output through a Redactor. Nil writes unfiltered.
	Redact *Redactor
}

// DefaultLoggerOptions returns the options used by the CLI.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Level:           "info",
		Output:          os.Stderr,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		Redact:          DefaultRedactor,
	}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// New creates a logger with the given options.
func New(opts LoggerOptions) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Redact != nil {
		out = opts.Redact.Writer(out)
	}
	return log.NewWithOptions(out, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      opts.TimeFormat,
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: opts.ReportTimestamp,
	})
}

// NewDefault creates a logger with default options, respecting OSIM_E2E_LOG_LEVEL.
func NewDefault() *log.Logger {
	opts := DefaultLoggerOptions()
	if level := os.Getenv(EnvLevel); level != "" {
		opts.Level = level
	}
	return New(opts)
}

// NewFile creates a logger appending to path. The returned closer releases
// the file.
func NewFile(path string, opts LoggerOptions) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, err
	}
	opts.Output = f
	return New(opts), f, nil
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

var defaultLogger = NewDefault()

// SetDefault replaces the package logger.
func SetDefault(logger *log.Logger) {
	defaultLogger = logger
}

// Default returns the package logger.
func Default() *log.Logger {
	return defaultLogger
}

// Debug logs a debug message with key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	defaultLogger.Debug(msg, keyvals...)
}

// Info logs an info message with key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	defaultLogger.Info(msg, keyvals...)
}

// Warn logs a warning message with key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	defaultLogger.Warn(msg, keyvals...)
}

// Error logs an error message with key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	defaultLogger.Error(msg, keyvals...)
}

// WithPrefix returns the package logger with a component prefix.
func WithPrefix(prefix string) *log.Logger {
	return defaultLogger.WithPrefix(prefix)
}
