// Package bootstrap wires configuration, logging and telemetry for the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/skywatch-bcn/planeview/internal/config"
	"github.com/skywatch-bcn/planeview/internal/logging"
	intOtel "github.com/skywatch-bcn/planeview/internal/otel"
)

// Options controls how a Session is set up.
type Options struct {
	Name      string // binary name, used for the log file and the OTel scope
	Version   string
	ConfigDir string
	// Console picks, once configuration is loaded, the writer for zerolog
	// output and for slog output when no log file could be opened. A nil
	// func or writer keeps the console free, e.g. for the terminal surface.
	Console func() io.Writer
}

// Session holds the logging and telemetry state of one process run.
type Session struct {
	Start       time.Time
	SlogManager *logging.SlogManager
	Logger      *slog.Logger
	OTel        *intOtel.Provider
	LogFile     *os.File
	LogFilePath string

	opts    Options
	level   string
	console io.Writer
}

// Start loads configuration and sets up logging. Failures other than an
// invalid OTel setup are logged and leave the session running with less output.
func Start(opts Options) *Session {
	s := &Session{Start: time.Now(), opts: opts}

	s.SlogManager = logging.NewSlogManager(opts.Name)
	s.SlogManager.Setup(nil, "info", nil)
	s.Logger = s.SlogManager.Logger()

	if err := config.Load(opts.ConfigDir); err != nil {
		s.Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		s.Logger.Info("Loaded config", "dir", opts.ConfigDir)
	}

	logCfg := config.GetLoggingConfig()
	s.level = logCfg.Level
	if opts.Console != nil {
		s.console = opts.Console()
	}

	file, err := logging.OpenLogFile(logCfg.Dir, opts.Name, s.Start)
	if err != nil {
		s.Logger.Error("Failed to create/open log file!", "error", err, "dir", logCfg.Dir)
	} else {
		s.LogFile = file
		s.LogFilePath = file.Name()
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var w io.Writer
		if s.LogFile != nil {
			w = s.LogFile
		}
		cfg := intOtel.FromConfig(otelCfg, opts.Version, w)
		s.OTel, err = intOtel.New(cfg)
		if err != nil {
			s.Logger.Error("Failed to initialize OTel provider", "error", err)
			s.OTel = nil
		} else {
			s.Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	if logCfg.GraylogEnabled {
		h, w, err := logging.NewGraylogHandler(logCfg.GraylogAddress, logCfg.Level)
		if err != nil {
			s.Logger.Error("Failed to connect to Graylog", "error", err, "address", logCfg.GraylogAddress)
		} else {
			s.SlogManager.AddHandler(h, w)
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if s.OTel != nil {
		otelLogProvider = s.OTel.LoggerProvider()
	}
	var sink io.Writer
	switch {
	case s.LogFile != nil:
		sink = s.LogFile
	case s.console != nil:
		sink = s.console
	default:
		sink = io.Discard
	}
	s.SlogManager.Setup(sink, s.level, otelLogProvider)
	s.Logger = s.SlogManager.Logger().With("version", opts.Version)
	if s.LogFilePath != "" {
		s.Logger.Info("Logging to file", "path", s.LogFilePath)
	}

	return s
}

// Zerolog returns the infrastructure logger for component.
func (s *Session) Zerolog(component string) zerolog.Logger {
	var file io.Writer
	if s.LogFile != nil {
		file = s.LogFile
	}
	return logging.NewZerolog(s.console, file, s.level, component)
}

// Shutdown closes the session within timeout and joins a close failure onto runErr.
func (s *Session) Shutdown(runErr error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		return errors.Join(runErr, fmt.Errorf("closing session: %w", err))
	}
	return runErr
}

// Close flushes telemetry and releases log outputs.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if err := s.SlogManager.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.OTel != nil {
		if err := s.OTel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.SlogManager.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.LogFile != nil {
		errs = append(errs, s.LogFile.Close())
		s.LogFile = nil
	}
	return errors.Join(errs...)
}
