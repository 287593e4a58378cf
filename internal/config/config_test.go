package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"viewer": { "sourceUrl": "http://10.0.0.1:5000/api/planes", "surface": "stream" },
		"poller": { "interval": "250ms", "skipOverlap": true }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "http://10.0.0.1:5000/api/planes", viper.GetString("viewer.sourceUrl"))
	assert.Equal(t, "stream", viper.GetString("viewer.surface"))

	pc := GetPollerConfig()
	assert.Equal(t, 250*time.Millisecond, pc.Interval)
	assert.True(t, pc.SkipOverlap)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, "http://localhost:5000/api/planes", viper.GetString("viewer.sourceUrl"))
	assert.Equal(t, "terminal", viper.GetString("viewer.surface"))
	assert.Equal(t, "/static/images/plane.svg", viper.GetString("viewer.markerAsset"))
	assert.Equal(t, "1s", viper.GetString("poller.interval"))
	assert.Equal(t, false, viper.GetBool("poller.skipOverlap"))
	assert.Equal(t, ":5000", viper.GetString("tracker.listen"))
	assert.Equal(t, true, viper.GetBool("tracker.firstOnly"))
	assert.Equal(t, time.Minute, GetTrackerConfig().RemovalRetention)
	assert.Equal(t, 5, viper.GetInt("route.maxAttempts"))
	assert.Equal(t, false, viper.GetBool("redis.enabled"))
	assert.Equal(t, "file", viper.GetString("storage.type"))
	assert.Equal(t, "Europe/Madrid", viper.GetString("storage.timezone"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "planeview", viper.GetString("otel.serviceName"))
	assert.Equal(t, "5s", viper.GetString("otel.batchTimeout"))
	assert.Equal(t, true, viper.GetBool("otel.insecure"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	// defaults are still registered
	assert.Equal(t, time.Second, GetPollerConfig().Interval)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.True(t, GetBool("testBool"))
}

func TestGetViewerConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("viewer.containerWidth", 640)
	viper.Set("viewer.requestTimeout", "2s")

	vc := GetViewerConfig()
	assert.Equal(t, 640.0, vc.ContainerWidth)
	assert.Equal(t, 2*time.Second, vc.RequestTimeout)
	assert.Equal(t, 80, vc.TerminalWidth)
	assert.Equal(t, ":8080", vc.Listen)
}

func TestGetTrackerConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()

	tc := GetTrackerConfig()
	assert.Equal(t, "http://localhost:8080/data/aircraft.json", tc.Dump1090URL)
	assert.Equal(t, 5*time.Minute, tc.StaleAfter)
	assert.True(t, tc.FirstOnly)
}

func TestGetRouteConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("route.unknownLabel", "Desconegut")

	rc := GetRouteConfig()
	assert.Equal(t, "Desconegut", rc.UnknownLabel)
	assert.Equal(t, 5, rc.MaxAttempts)
	assert.Equal(t, 12*time.Hour, rc.CacheTTL)
}

func TestGetStorageConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("storage.type", "sqlite")
	viper.Set("storage.sqlite.path", "/tmp/obs.db")

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/obs.db", sc.SQLite.Path)
	assert.Equal(t, time.Minute, sc.SQLite.DumpInterval)
	assert.Equal(t, "./observations.tsv", sc.File.Path)
	assert.Equal(t, 10*time.Second, sc.Interval)
}

func TestGetInfluxConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("influx.host", "influx.local")
	viper.Set("influx.protocol", "https")

	ic := GetInfluxConfig()
	assert.Equal(t, "https://influx.local:8086", ic.URL)
	assert.Equal(t, "airspace", ic.Bucket)
}

func TestGetOTelConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("otel.enabled", true)
	viper.Set("otel.endpoint", "localhost:4318")

	oc := GetOTelConfig()
	assert.True(t, oc.Enabled)
	assert.Equal(t, "planeview", oc.ServiceName)
	assert.Equal(t, 5*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
}

func TestPostgresDSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("db.host", "db.local")

	dsn := PostgresDSN()
	assert.Contains(t, dsn, "host=db.local")
	assert.Contains(t, dsn, "dbname=planeview")
	assert.Contains(t, dsn, "sslmode=disable")
}
