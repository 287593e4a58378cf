package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// osStdout is the console sink, swapped out in tests.
var osStdout io.Writer = os.Stdout

// SlogManager manages slog-based logging with optional OTel and Graylog output.
type SlogManager struct {
	name   string
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider

	extra   []slog.Handler
	closers []io.Closer
}

// NewSlogManager creates a new slog-based logging manager. name is the
// instrumentation scope reported to OTel.
func NewSlogManager(name string) *SlogManager {
	return &SlogManager{name: name}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// AddHandler registers an extra handler that Setup includes in the fan-out.
// If the handler owns a connection, closer is released by Close.
func (m *SlogManager) AddHandler(h slog.Handler, closer io.Closer) {
	m.extra = append(m.extra, h)
	if closer != nil {
		m.closers = append(m.closers, closer)
	}
}

// Setup initializes the logging system. Records go to file when one is given
// and to stdout otherwise. If provider is nil, OTel logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	handlerOpts := handlerOptions(level)
	m.logProvider = provider

	var handlers []slog.Handler

	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	if provider != nil {
		otelHandler := otelslog.NewHandler(m.name, otelslog.WithLoggerProvider(provider))
		handlers = append(handlers, otelHandler)
	}

	handlers = append(handlers, m.extra...)

	m.logger = slog.New(NewMultiHandler(handlers...))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close releases writers owned by extra handlers.
func (m *SlogManager) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}
