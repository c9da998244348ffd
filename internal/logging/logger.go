// Package logging provides component-scoped structured logging for the
// decision engine, backed by zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level   string `json:"level"`   // debug, info, warn, error
	Output  string `json:"output"`  // "stdout", "stderr", or file path
	Console bool   `json:"console"` // human-readable console output instead of JSON
}

// Logger is a structured logger scoped to a component
type Logger struct {
	zl        zerolog.Logger
	component string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// ParseLevel converts a string to a zerolog level, defaulting to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a new logger with the given configuration
func New(cfg *Config) *Logger {
	var output io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		output = os.Stderr
	} else if cfg.Output != "" && cfg.Output != "stdout" {
		if file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			output = file
		}
	}

	if cfg.Console {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()

	return &Logger{zl: zl}
}

// Default returns the default logger instance
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(&Config{Level: "info", Output: "stdout"})
	})
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultLogger = l
}

// WithComponent returns a new logger tagged with the given component
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		zl:        l.zl.With().Str("component", component).Logger(),
		component: component,
	}
}

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		zl:        l.zl.With().Interface(key, value).Logger(),
		component: l.component,
	}
}

// event applies alternating key/value args to a zerolog event and sends it
func event(ev *zerolog.Event, msg string, args []interface{}) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		switch v := args[i+1].(type) {
		case error:
			if v != nil {
				ev = ev.Str(key, v.Error())
			}
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

// Debug logs a debug message with alternating key/value pairs
func (l *Logger) Debug(msg string, args ...interface{}) {
	event(l.zl.Debug(), msg, args)
}

// Info logs an info message with alternating key/value pairs
func (l *Logger) Info(msg string, args ...interface{}) {
	event(l.zl.Info(), msg, args)
}

// Warn logs a warning message with alternating key/value pairs
func (l *Logger) Warn(msg string, args ...interface{}) {
	event(l.zl.Warn(), msg, args)
}

// Error logs an error message with alternating key/value pairs
func (l *Logger) Error(msg string, args ...interface{}) {
	event(l.zl.Error(), msg, args)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, args ...interface{}) {
	event(l.zl.Fatal(), msg, args)
}
