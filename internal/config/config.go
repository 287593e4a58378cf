package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "planeview.cfg.json"

// ViewerConfig holds settings for the marker viewer.
type ViewerConfig struct {
	SourceURL      string        `json:"sourceUrl" mapstructure:"sourceUrl"`
	RequestTimeout time.Duration `json:"requestTimeout" mapstructure:"requestTimeout"`
	Surface        string        `json:"surface" mapstructure:"surface"` // "terminal" or "stream"
	MarkerAsset    string        `json:"markerAsset" mapstructure:"markerAsset"`
	ContainerWidth float64       `json:"containerWidth" mapstructure:"containerWidth"`
	TerminalWidth  int           `json:"terminalWidth" mapstructure:"terminalWidth"`
	Listen         string        `json:"listen" mapstructure:"listen"`
}

// PollerConfig holds the fetch cadence settings.
type PollerConfig struct {
	Interval    time.Duration
	SkipOverlap bool
}

// TrackerConfig holds settings for the planes backend.
type TrackerConfig struct {
	Listen         string
	Dump1090URL    string
	RequestTimeout time.Duration
	FirstOnly      bool
	StaleAfter     time.Duration

	// RemovalRetention is how long a departed plane keeps being reported as removed.
	RemovalRetention time.Duration
}

// RouteConfig holds departure lookup settings.
type RouteConfig struct {
	APIURL       string
	Timeout      time.Duration
	MaxAttempts  int
	UnknownLabel string
	CacheTTL     time.Duration
}

// RedisConfig holds the optional departure cache connection.
type RedisConfig struct {
	Enabled bool
	URL     string
}

// FileConfig holds settings for the tab-separated observations file.
type FileConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// SQLiteConfig holds settings for the SQLite observations backend.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig holds observation recorder settings.
type StorageConfig struct {
	Type          string // "file", "sqlite", "postgres" or "none"
	Interval      time.Duration
	FlushInterval time.Duration
	Timezone      string
	File          FileConfig
	SQLite        SQLiteConfig
}

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level          string
	Dir            string
	GraylogEnabled bool
	GraylogAddress string
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("viewer.sourceUrl", "http://localhost:5000/api/planes")
	viper.SetDefault("viewer.requestTimeout", "5s")
	viper.SetDefault("viewer.surface", "terminal")
	viper.SetDefault("viewer.markerAsset", "/static/images/plane.svg")
	viper.SetDefault("viewer.containerWidth", 1000)
	viper.SetDefault("viewer.terminalWidth", 80)
	viper.SetDefault("viewer.listen", ":8080")

	viper.SetDefault("poller.interval", "1s")
	viper.SetDefault("poller.skipOverlap", false)

	viper.SetDefault("tracker.listen", ":5000")
	viper.SetDefault("tracker.dump1090Url", "http://localhost:8080/data/aircraft.json")
	viper.SetDefault("tracker.requestTimeout", "5s")
	viper.SetDefault("tracker.firstOnly", true)
	viper.SetDefault("tracker.staleAfter", "5m")
	viper.SetDefault("tracker.removalRetention", "1m")

	viper.SetDefault("route.apiUrl", "https://adsb.im/api/0/routeset")
	viper.SetDefault("route.timeout", "5s")
	viper.SetDefault("route.maxAttempts", 5)
	viper.SetDefault("route.unknownLabel", "Unknown")
	viper.SetDefault("route.cacheTTL", "12h")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	viper.SetDefault("storage.type", "file")
	viper.SetDefault("storage.interval", "10s")
	viper.SetDefault("storage.flushInterval", "30s")
	viper.SetDefault("storage.timezone", "Europe/Madrid")
	viper.SetDefault("storage.file.path", "./observations.tsv")
	viper.SetDefault("storage.sqlite.path", "./observations.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "planeview")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "planeview")
	viper.SetDefault("influx.bucket", "airspace")
	viper.SetDefault("influx.backupPath", "./influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "planeview")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Defaults stay in effect
// when an error is returned.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetViewerConfig returns the viewer section.
func GetViewerConfig() ViewerConfig {
	return ViewerConfig{
		SourceURL:      viper.GetString("viewer.sourceUrl"),
		RequestTimeout: viper.GetDuration("viewer.requestTimeout"),
		Surface:        viper.GetString("viewer.surface"),
		MarkerAsset:    viper.GetString("viewer.markerAsset"),
		ContainerWidth: viper.GetFloat64("viewer.containerWidth"),
		TerminalWidth:  viper.GetInt("viewer.terminalWidth"),
		Listen:         viper.GetString("viewer.listen"),
	}
}

// GetPollerConfig returns the poller section.
func GetPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    viper.GetDuration("poller.interval"),
		SkipOverlap: viper.GetBool("poller.skipOverlap"),
	}
}

// GetTrackerConfig returns the tracker section.
func GetTrackerConfig() TrackerConfig {
	return TrackerConfig{
		Listen:         viper.GetString("tracker.listen"),
		Dump1090URL:    viper.GetString("tracker.dump1090Url"),
		RequestTimeout: viper.GetDuration("tracker.requestTimeout"),
		FirstOnly:      viper.GetBool("tracker.firstOnly"),
		StaleAfter:     viper.GetDuration("tracker.staleAfter"),

		RemovalRetention: viper.GetDuration("tracker.removalRetention"),
	}
}

// GetRouteConfig returns the departure lookup section.
func GetRouteConfig() RouteConfig {
	return RouteConfig{
		APIURL:       viper.GetString("route.apiUrl"),
		Timeout:      viper.GetDuration("route.timeout"),
		MaxAttempts:  viper.GetInt("route.maxAttempts"),
		UnknownLabel: viper.GetString("route.unknownLabel"),
		CacheTTL:     viper.GetDuration("route.cacheTTL"),
	}
}

// GetRedisConfig returns the redis section.
func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled: viper.GetBool("redis.enabled"),
		URL:     viper.GetString("redis.url"),
	}
}

// GetStorageConfig returns the observation storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		Interval:      viper.GetDuration("storage.interval"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		Timezone:      viper.GetString("storage.timezone"),
		File: FileConfig{
			Path: viper.GetString("storage.file.path"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetInfluxConfig returns the influx section.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL: fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetLoggingConfig returns log output settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// PostgresDSN builds the connection string from the db section.
func PostgresDSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)
}
