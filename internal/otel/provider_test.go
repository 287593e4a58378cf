package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/skywatch-bcn/planeview/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("planeview"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSinks(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "planeview"})
	assert.ErrorIs(t, err, ErrNoSinks)
}

func TestNew_EnabledWithWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "planeview",
		ServiceVersion: "test",
		LogWriter:      &buf,
	})
	require.NoError(t, err)

	assert.True(t, p.Enabled())
	assert.NotNil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("planeview"))

	ctx := context.Background()
	assert.NoError(t, p.Flush(ctx))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "planetracker",
		BatchTimeout: 5 * time.Second,
		Endpoint:     "localhost:4318",
		Insecure:     true,
	}, "v1.2.0", &buf)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "planetracker", cfg.ServiceName)
	assert.Equal(t, "v1.2.0", cfg.ServiceVersion)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Same(t, &buf, cfg.LogWriter)
}
