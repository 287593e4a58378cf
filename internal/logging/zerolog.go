package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// zerologLevel converts a string log level to zerolog.Level.
func zerologLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewZerolog builds the logger handed to the infrastructure managers. Records
// are written in console format to console (with colors) and to file (without),
// tagged with component. Either writer may be nil.
func NewZerolog(console, file io.Writer, level, component string) zerolog.Logger {
	var writers []io.Writer
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		})
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
	if len(writers) == 0 {
		return zerolog.Nop()
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerologLevel(level)).
		With().Timestamp().Str("component", component).Logger()
}

// ZerologAdapter adapts zerolog.Logger to the key-value Logger interfaces
// used by the poller and the tracker.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a new ZerologAdapter wrapping a zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Debug logs a debug message with optional key-value pairs.
func (l *ZerologAdapter) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(toFields(keysAndValues)).Msg(msg)
}

// Info logs an info message with optional key-value pairs.
func (l *ZerologAdapter) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(toFields(keysAndValues)).Msg(msg)
}

// Error logs an error message with optional key-value pairs.
func (l *ZerologAdapter) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(toFields(keysAndValues)).Msg(msg)
}

// toFields converts key-value pairs to a map for zerolog.
func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
