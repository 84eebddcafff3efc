package logging

import (
	"context"
	"sync/atomic"
)

// ANSI color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorBold   = "\033[1m"
)

// Level represents log levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields represents structured logging fields
type Fields map[string]any

// fieldsKey is the context key under which request-scoped Fields are stored.
type fieldsKey struct{}

// ContextWithFields returns a context carrying fields that WithContext
// will merge into a logger.
func ContextWithFields(ctx context.Context, fields Fields) context.Context {
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// FieldsFromContext returns the fields stored by ContextWithFields, if any.
func FieldsFromContext(ctx context.Context) (Fields, bool) {
	if ctx == nil {
		return nil, false
	}
	fields, ok := ctx.Value(fieldsKey{}).(Fields)
	return fields, ok
}

// Logger defines the interface that the library expects for logging.
// Pure numerical packages never log; only the analysis pipeline does.
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)

	// WithFields returns a logger with preset fields
	WithFields(fields Fields) Logger

	// WithContext returns a logger carrying the fields stored in ctx
	WithContext(ctx context.Context) Logger

	// SetLevel sets the minimum log level
	SetLevel(level Level)
}

type loggerHolder struct{ Logger }

var defaultLogger atomic.Value

func init() {
	defaultLogger.Store(loggerHolder{NewDefaultLogger()})
}

// SetDefault replaces the logger returned by Default. A nil logger
// disables logging.
func SetDefault(logger Logger) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	defaultLogger.Store(loggerHolder{logger})
}

// Default returns the logger used when a component is constructed
// without one.
func Default() Logger {
	return defaultLogger.Load().(loggerHolder).Logger
}

// OrDefault returns logger, or Default when logger is nil.
func OrDefault(logger Logger) Logger {
	if logger == nil {
		return Default()
	}
	return logger
}

// Package-level logging functions that use the default logger
func Debug(msg string, fields ...Fields) {
	Default().Debug(msg, fields...)
}

func Info(msg string, fields ...Fields) {
	Default().Info(msg, fields...)
}

func Warn(msg string, fields ...Fields) {
	Default().Warn(msg, fields...)
}

func Error(err error, msg string, fields ...Fields) {
	Default().Error(err, msg, fields...)
}

func WithFields(fields Fields) Logger {
	return Default().WithFields(fields)
}
