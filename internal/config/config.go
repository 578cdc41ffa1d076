// Package config loads casework settings from CASEWORK_* environment variables,
// optionally overlaid on a YAML file named by CASEWORK_CONFIG.
//
// Precedence, lowest first: built-in defaults, the YAML file, the environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Sink kinds.
const (
	SinkOutbox = "outbox"
	SinkKafka  = "kafka"
)

var (
	ErrUnknownSink     = errors.New("config: notification sink must be outbox or kafka")
	ErrKafkaBrokers    = errors.New("config: kafka sink requires at least one broker")
	ErrInvalidCSRFKey  = errors.New("config: csrf key must be 32 bytes hex encoded")
	ErrUnknownLogLevel = errors.New("config: log level must be debug, info, warn or error")
)

// Config is the full process configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	Env      string `yaml:"env"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
	// Timezone names the IANA zone whose calendar decides "today" for return dates.
	Timezone string `yaml:"timezone"`

	SlowQuery   time.Duration `yaml:"slow_query"`
	SlowRequest time.Duration `yaml:"slow_request"`
	CSRFKey     string        `yaml:"csrf_key"`

	Email     EmailConfig     `yaml:"email"`
	Notify    NotifyConfig    `yaml:"notify"`
	Media     MediaConfig     `yaml:"media"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EmailConfig configures the Resend sender. An empty ResendKey selects the noop sender.
type EmailConfig struct {
	ResendKey string `yaml:"resend_key"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
}

// NotifyConfig selects where intake and transition notifications go.
type NotifyConfig struct {
	Sink    string   `yaml:"sink"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MediaConfig configures the S3 media store. An empty Bucket disables media uploads.
type MediaConfig struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

// OutboxConfig configures the background delivery worker.
type OutboxConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        ":8080",
		Env:         "development",
		DBPath:      "casework.db",
		LogLevel:    "info",
		Timezone:    "UTC",
		SlowQuery:   50 * time.Millisecond,
		SlowRequest: 200 * time.Millisecond,
		Email: EmailConfig{
			From:    "Casework <noreply@casework.local>",
			ReplyTo: "safety@casework.local",
		},
		Notify: NotifyConfig{
			Sink:  SinkOutbox,
			Topic: "casework.notifications",
		},
		Media: MediaConfig{
			Prefix: "incidents/",
		},
		Outbox: OutboxConfig{
			Interval: time.Minute,
		},
		Telemetry: TelemetryConfig{
			MetricInterval: 30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the environment.
// PRE: none
// POST: Returns a validated Config or the first problem found
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path, ok := lookup("CASEWORK_CONFIG"); ok && path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.overlayEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = d
	}

	str("CASEWORK_ADDR", &c.Addr)
	str("CASEWORK_ENV", &c.Env)
	str("CASEWORK_DB", &c.DBPath)
	str("CASEWORK_LOG_LEVEL", &c.LogLevel)
	str("CASEWORK_TIMEZONE", &c.Timezone)
	dur("CASEWORK_SLOW_QUERY", &c.SlowQuery)
	dur("CASEWORK_SLOW_REQUEST", &c.SlowRequest)
	str("CASEWORK_CSRF_KEY", &c.CSRFKey)

	str("CASEWORK_RESEND_KEY", &c.Email.ResendKey)
	str("CASEWORK_EMAIL_FROM", &c.Email.From)
	str("CASEWORK_REPLY_TO", &c.Email.ReplyTo)

	str("CASEWORK_NOTIFY_SINK", &c.Notify.Sink)
	if v, ok := lookup("CASEWORK_KAFKA_BROKERS"); ok && v != "" {
		c.Notify.Brokers = splitList(v)
	}
	str("CASEWORK_KAFKA_TOPIC", &c.Notify.Topic)

	str("CASEWORK_S3_BUCKET", &c.Media.Bucket)
	str("CASEWORK_S3_REGION", &c.Media.Region)
	str("CASEWORK_S3_ENDPOINT", &c.Media.Endpoint)
	str("CASEWORK_S3_PREFIX", &c.Media.Prefix)

	dur("CASEWORK_OUTBOX_INTERVAL", &c.Outbox.Interval)

	if v, ok := lookup("CASEWORK_TELEMETRY"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: CASEWORK_TELEMETRY: %w", err))
		} else {
			c.Telemetry.Enabled = enabled
		}
	}
	dur("CASEWORK_METRIC_INTERVAL", &c.Telemetry.MetricInterval)
	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("250ms") and bare integers as milliseconds.
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks cross-field constraints.
// PRE: none
// POST: Returns nil when the configuration can start a process
func (c Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Notify.Sink {
	case SinkOutbox:
	case SinkKafka:
		if len(c.Notify.Brokers) == 0 {
			return ErrKafkaBrokers
		}
	default:
		return ErrUnknownSink
	}
	if c.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether the process runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, ErrUnknownLogLevel
}

// Location loads the configured business timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CSRFKeyBytes decodes the CSRF key. An empty key yields nil.
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidCSRFKey
	}
	return key, nil
}

// DSN returns the SQLite connection string with WAL, busy timeout and foreign keys enabled.
func (c Config) DSN() string {
	return c.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
}
