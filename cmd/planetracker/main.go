// Command planetracker reads a dump1090 receiver, answers the planes endpoint
// consumed by planeview and records periodic observations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/skywatch-bcn/planeview/internal/bootstrap"
	"github.com/skywatch-bcn/planeview/internal/config"
	"github.com/skywatch-bcn/planeview/internal/dump1090"
	"github.com/skywatch-bcn/planeview/internal/influx"
	"github.com/skywatch-bcn/planeview/internal/logging"
	"github.com/skywatch-bcn/planeview/internal/observations"
	"github.com/skywatch-bcn/planeview/internal/routes"
	"github.com/skywatch-bcn/planeview/internal/server"
	"github.com/skywatch-bcn/planeview/internal/storage"
	"github.com/skywatch-bcn/planeview/internal/tracker"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const (
	binaryName      = "planetracker"
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
		Console:   func() io.Writer { return os.Stdout },
	})
	defer func() { err = session.Shutdown(err, shutdownTimeout) }()

	logger := session.Logger
	trackerCfg := config.GetTrackerConfig()
	logger.Info("Starting up...", "buildDate", BuildDate, "receiver", trackerCfg.Dump1090URL)

	receiver := dump1090.New(trackerCfg.Dump1090URL, trackerCfg.RequestTimeout)

	resolver, closeCache := newResolver(session)
	defer closeCache()

	t, err := tracker.New(receiver, resolver, logging.NewZerologAdapter(session.Zerolog("tracker")),
		tracker.FirstOnly(trackerCfg.FirstOnly),
		tracker.StaleAfter(trackerCfg.StaleAfter),
		tracker.RemovalRetention(trackerCfg.RemovalRetention),
	)
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}

	recorder, closeRecorder, err := newRecorder(ctx, session, receiver, trackerCfg.Dump1090URL)
	if err != nil {
		return err
	}
	defer closeRecorder()

	srv := &http.Server{
		Addr:              trackerCfg.Listen,
		Handler:           server.New(t),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		recorder.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving planes", "listen", trackerCfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("planes server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down", "cause", context.Cause(ctx))
	case err = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("Server shutdown failed", "error", shutdownErr)
	}
	wg.Wait()
	return err
}

// newResolver builds the departure resolver, caching in Redis when enabled and
// in memory otherwise.
func newResolver(session *bootstrap.Session) (*routes.Resolver, func()) {
	routeCfg := config.GetRouteConfig()
	redisCfg := config.GetRedisConfig()
	log := session.Zerolog("routes")

	var cache routes.Cache = routes.NewMemoryCache(routeCfg.CacheTTL)
	closeCache := func() {}
	if redisCfg.Enabled {
		rc, err := routes.NewRedisCache(redisCfg.URL, routeCfg.CacheTTL)
		if err != nil {
			log.Error().Err(err).Msg("Redis unavailable, caching departures in memory")
		} else {
			log.Info().Msg("Caching departures in Redis")
			cache = rc
			closeCache = func() { _ = rc.Close() }
		}
	}

	finder := routes.New(routeCfg.APIURL, routeCfg.Timeout)
	resolver := routes.NewResolver(finder, cache, routeCfg.MaxAttempts, routeCfg.UnknownLabel,
		logging.NewZerologAdapter(log))
	return resolver, closeCache
}

// newRecorder sets up observation storage and, when enabled, InfluxDB.
func newRecorder(ctx context.Context, session *bootstrap.Session, source observations.ReportSource, receiverURL string) (*observations.Recorder, func(), error) {
	storageCfg := config.GetStorageConfig()
	influxCfg := config.GetInfluxConfig()
	storageLog := session.Zerolog("storage")

	backend, err := storage.NewBackend(storageCfg, storageLog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		storageLog.Error().Err(err).Str("type", storageCfg.Type).Msg("Storage unavailable, observations will not be kept")
		backend = storage.Nop{}
	} else {
		storageLog.Info().Str("type", storageCfg.Type).Msg("Storage initialized")
	}

	opts := []observations.Option{observations.Interval(storageCfg.Interval)}

	var metrics *influx.Manager
	if influxCfg.Enabled {
		metrics = influx.NewManager(session.Zerolog("influx"), influxCfg)
		if err := metrics.Connect(ctx); err != nil {
			session.Logger.Error("Failed to set up InfluxDB", "error", err)
			metrics = nil
		} else {
			opts = append(opts, observations.WithPoints(metrics, receiverName(receiverURL)))
		}
	}

	recorder, err := observations.New(source, backend,
		logging.NewZerologAdapter(session.Zerolog("observations")), opts...)
	if err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("failed to create recorder: %w", err)
	}

	closeAll := func() {
		if err := backend.Close(); err != nil {
			storageLog.Error().Err(err).Msg("Error closing storage")
		}
		if metrics != nil {
			_ = metrics.Close()
		}
	}
	return recorder, closeAll, nil
}

// receiverName tags airspace points with the receiver's host.
func receiverName(receiverURL string) string {
	u, err := url.Parse(receiverURL)
	if err != nil || u.Hostname() == "" {
		return "default"
	}
	return u.Hostname()
}
