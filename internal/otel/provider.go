package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/skywatch-bcn/planeview/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrNoSinks is returned when OTel is enabled without a writer or an endpoint.
var ErrNoSinks = errors.New("otel enabled but no log writer or endpoint configured")

// Config describes where a planeview binary exports its log records.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration
	LogWriter      io.Writer
	Endpoint       string
	Insecure       bool
}

// FromConfig combines the otel section with the binary version and session log file.
func FromConfig(c config.OTelConfig, version string, w io.Writer) Config {
	return Config{
		Enabled:        c.Enabled,
		ServiceName:    c.ServiceName,
		ServiceVersion: version,
		BatchTimeout:   c.BatchTimeout,
		LogWriter:      w,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
	}
}

// Provider owns the log provider fed by the otelslog bridge.
type Provider struct {
	logProvider *sdklog.LoggerProvider
	enabled     bool
}

// New builds the provider. A disabled config yields an inert provider.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	ctx := context.Background()
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var processors []sdklog.Processor
	if cfg.LogWriter != nil {
		proc, err := writerProcessor(cfg)
		if err != nil {
			return nil, err
		}
		processors = append(processors, proc)
	}
	if cfg.Endpoint != "" {
		proc, err := endpointProcessor(ctx, cfg)
		if err != nil {
			return nil, err
		}
		processors = append(processors, proc)
	}
	if len(processors) == 0 {
		return nil, ErrNoSinks
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, proc := range processors {
		opts = append(opts, sdklog.WithProcessor(proc))
	}
	return &Provider{
		logProvider: sdklog.NewLoggerProvider(opts...),
		enabled:     true,
	}, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	host, _ := os.Hostname()
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.HostName(host),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func writerProcessor(cfg Config) (sdklog.Processor, error) {
	exp, err := stdoutlog.New(
		stdoutlog.WithWriter(cfg.LogWriter),
		stdoutlog.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create file log exporter: %w", err)
	}
	return sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout)), nil
}

func endpointProcessor(ctx context.Context, cfg Config) (sdklog.Processor, error) {
	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	exp, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}
	return sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout)), nil
}

// LoggerProvider returns nil when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a meter from the global provider, or a no-op meter when disabled.
func (p *Provider) Meter(name string) metric.Meter {
	if !p.enabled {
		return noop.Meter{}
	}
	return otel.Meter(name)
}

// Flush forces pending records out.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}

// Enabled reports whether log export is active.
func (p *Provider) Enabled() bool {
	return p.enabled
}
