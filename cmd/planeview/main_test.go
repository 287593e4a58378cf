package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch-bcn/planeview/internal/api"
	"github.com/skywatch-bcn/planeview/internal/config"
	"github.com/skywatch-bcn/planeview/internal/render/stream"
	"github.com/skywatch-bcn/planeview/internal/render/text"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSurface_Terminal(t *testing.T) {
	s, serve, err := newSurface(config.ViewerConfig{Surface: "terminal", TerminalWidth: 40}, discard())
	require.NoError(t, err)
	assert.IsType(t, &text.Surface{}, s)
	assert.Nil(t, serve)
	assert.Equal(t, 40.0, s.Width())
}

func TestNewSurface_Stream(t *testing.T) {
	s, serve, err := newSurface(config.ViewerConfig{Surface: "stream", ContainerWidth: 1000, Listen: "127.0.0.1:0"}, discard())
	require.NoError(t, err)
	assert.IsType(t, &stream.Hub{}, s)
	assert.Equal(t, 1000.0, s.Width())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, serve(ctx))
}

func TestNewSurface_Unknown(t *testing.T) {
	_, _, err := newSurface(config.ViewerConfig{Surface: "canvas"}, discard())
	assert.EqualError(t, err, `unknown surface "canvas"`)
}

func TestConsole(t *testing.T) {
	t.Cleanup(viper.Reset)
	config.SetDefaults()
	assert.Nil(t, console())

	viper.Set("viewer.surface", "stream")
	assert.NotNil(t, console())
}

func TestCheckSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.True(t, checkSource(context.Background(), api.New(srv.URL+"/api/planes", time.Second), logger))
	assert.Contains(t, buf.String(), "Tracker is reachable")
}

func TestCheckSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.False(t, checkSource(context.Background(), api.New(url+"/api/planes", time.Second), logger))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "Tracker is not reachable")
}
