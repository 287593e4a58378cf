// Command planeview polls the planes endpoint and draws one marker per tracked
// flight, either on the terminal or in browsers connected over WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skywatch-bcn/planeview/internal/api"
	"github.com/skywatch-bcn/planeview/internal/bootstrap"
	"github.com/skywatch-bcn/planeview/internal/config"
	"github.com/skywatch-bcn/planeview/internal/logging"
	"github.com/skywatch-bcn/planeview/internal/poller"
	"github.com/skywatch-bcn/planeview/internal/reconciler"
	"github.com/skywatch-bcn/planeview/internal/render/stream"
	"github.com/skywatch-bcn/planeview/internal/render/text"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const (
	binaryName      = "planeview"
	shutdownTimeout = 10 * time.Second
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	if err := run(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", binaryName, err)
		os.Exit(1)
	}
}

func run(configDir string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := bootstrap.Start(bootstrap.Options{
		Name:      binaryName,
		Version:   Version,
		ConfigDir: configDir,
		Console:   console,
	})
	defer func() { err = session.Shutdown(err, shutdownTimeout) }()

	viewerCfg := config.GetViewerConfig()
	pollerCfg := config.GetPollerConfig()
	logger := session.Logger
	logger.Info("Starting up...", "buildDate", BuildDate, "source", viewerCfg.SourceURL, "surface", viewerCfg.Surface)

	surface, serve, err := newSurface(viewerCfg, logger)
	if err != nil {
		return err
	}

	rec := reconciler.New(surface, viewerCfg.MarkerAsset)
	logger = logging.WithContext(logger, logging.Gauge("markers", rec.Len))

	client := api.New(viewerCfg.SourceURL, viewerCfg.RequestTimeout)
	checkSource(ctx, client, logger)
	opts := []poller.Option{poller.Interval(pollerCfg.Interval)}
	if pollerCfg.SkipOverlap {
		opts = append(opts, poller.SkipOverlap())
	}
	p, err := poller.New(client, rec, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}

	errCh := make(chan error, 1)
	if serve != nil {
		go func() { errCh <- serve(ctx) }()
	}

	pollDone := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(pollDone)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down", "cause", context.Cause(ctx))
	case err = <-errCh:
		stop()
	}
	<-pollDone

	rec.Clear()
	if c, ok := surface.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	return err
}

type healthChecker interface {
	Healthcheck(ctx context.Context) error
}

// checkSource reports once at startup whether the tracker answers. Polling
// starts either way.
func checkSource(ctx context.Context, client healthChecker, logger *slog.Logger) bool {
	if err := client.Healthcheck(ctx); err != nil {
		logger.Warn("Tracker is not reachable, polling anyway", "error", err)
		return false
	}
	logger.Info("Tracker is reachable")
	return true
}

// console keeps logs off stdout while the terminal surface draws there.
func console() io.Writer {
	if config.GetViewerConfig().Surface == "terminal" {
		return nil
	}
	return os.Stdout
}

// newSurface builds the configured surface. For the stream surface it also
// returns a function serving the browser page until ctx is done.
func newSurface(cfg config.ViewerConfig, logger *slog.Logger) (reconciler.Surface, func(context.Context) error, error) {
	switch cfg.Surface {
	case "terminal":
		return text.New(os.Stdout, cfg.TerminalWidth, text.ClearScreen()), nil, nil
	case "stream":
		hub := stream.New(cfg.ContainerWidth, logger.With("component", "stream"))
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           hub.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		serve := func(ctx context.Context) error {
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = hub.Close()
				_ = srv.Shutdown(shutdownCtx)
			}()
			logger.Info("Serving viewer", "listen", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("viewer server: %w", err)
			}
			return nil
		}
		return hub, serve, nil
	default:
		return nil, nil, fmt.Errorf("unknown surface %q", cfg.Surface)
	}
}
