// Package logger provides structured logging with consistent fields, backed
// by zerolog and satisfying the cosmossdk.io/log interface the pool engine
// consumes.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger with component metadata.
type Logger struct {
	base zerolog.Logger
}

var _ log.Logger = (*Logger)(nil)

// New creates a logger writing JSON lines to w at the given level.
func New(w io.Writer, component string, level zerolog.Level) *Logger {
	l := zerolog.New(w).With().
		Timestamp().
		Str("component", component).
		Logger().
		Level(level)
	zerolog.DurationFieldUnit = time.Millisecond
	return &Logger{base: l}
}

// NewLogger creates a stdout logger with component metadata at info level.
func NewLogger(component string) *Logger {
	return New(os.Stdout, component, zerolog.InfoLevel)
}

// ParseLevel maps a config string to a zerolog level, defaulting to info for
// unrecognized values.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "none", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs debug messages with optional key/value pairs.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.base.Debug().Fields(kvToMap(keyvals...)).Msg(msg)
}

// Info logs informational messages with optional key/value pairs.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.base.Info().Fields(kvToMap(keyvals...)).Msg(msg)
}

// Warn logs warning messages with optional key/value pairs.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.base.Warn().Fields(kvToMap(keyvals...)).Msg(msg)
}

// Error logs error messages with optional key/value pairs.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.base.Error().Fields(kvToMap(keyvals...)).Msg(msg)
}

// With returns a child logger carrying the given key/value pairs on every
// entry.
func (l *Logger) With(keyvals ...interface{}) log.Logger {
	return &Logger{base: l.base.With().Fields(kvToMap(keyvals...)).Logger()}
}

// Impl exposes the underlying zerolog logger.
func (l *Logger) Impl() interface{} {
	return l.base
}

// kvToMap converts a flat list of key/value pairs into a map for zerolog.
func kvToMap(kv ...interface{}) map[string]interface{} {
	fields := make(map[string]interface{})
	for i := 0; i < len(kv)-1; i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
