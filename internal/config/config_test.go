package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// TestLoad_Defaults tests that an empty environment yields the defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Notify.Sink != SinkOutbox || cfg.Outbox.Interval != time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	loc, _ := cfg.Location()
	if loc != time.UTC {
		t.Errorf("Location = %v, want UTC", loc)
	}
}

// TestLoad_FileThenEnv tests that the environment overrides the YAML overlay.
func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casework.yaml")
	yamlDoc := `
addr: ":9090"
log_level: debug
timezone: Pacific/Auckland
notify:
  sink: kafka
  brokers: ["kafka-1:9092"]
  topic: injuries
media:
  bucket: photos
  region: ap-southeast-2
outbox:
  interval: 30s
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := load(envMap(map[string]string{
		"CASEWORK_CONFIG":        path,
		"CASEWORK_ADDR":          ":7070",
		"CASEWORK_KAFKA_BROKERS": "k1:9092, k2:9092,",
		"CASEWORK_SLOW_QUERY":    "75",
		"CASEWORK_TELEMETRY":     "true",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want env override", cfg.Addr)
	}
	if cfg.Notify.Topic != "injuries" || len(cfg.Notify.Brokers) != 2 || cfg.Notify.Brokers[1] != "k2:9092" {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
	if cfg.Media.Bucket != "photos" || cfg.Media.Prefix != "incidents/" {
		t.Errorf("Media = %+v", cfg.Media)
	}
	if cfg.Outbox.Interval != 30*time.Second || cfg.SlowQuery != 75*time.Millisecond || !cfg.Telemetry.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if lvl, _ := cfg.SlogLevel(); lvl != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", lvl)
	}
}

// TestLoad_Invalid tests validation failures.
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"unknown sink", map[string]string{"CASEWORK_NOTIFY_SINK": "sqs"}, ErrUnknownSink},
		{"kafka without brokers", map[string]string{"CASEWORK_NOTIFY_SINK": "kafka"}, ErrKafkaBrokers},
		{"short csrf key", map[string]string{"CASEWORK_CSRF_KEY": "abcd"}, ErrInvalidCSRFKey},
		{"log level", map[string]string{"CASEWORK_LOG_LEVEL": "loud"}, ErrUnknownLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(envMap(tt.env)); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := load(envMap(map[string]string{"CASEWORK_OUTBOX_INTERVAL": "soon"})); err == nil {
		t.Error("expected bad duration to fail")
	}
	if _, err := load(envMap(map[string]string{"CASEWORK_CONFIG": filepath.Join(t.TempDir(), "missing.yaml")})); err == nil {
		t.Error("expected missing file to fail")
	}
}

// TestCSRFKeyBytes tests hex decoding of a valid key.
func TestCSRFKeyBytes(t *testing.T) {
	cfg := Default()
	cfg.CSRFKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	key, err := cfg.CSRFKeyBytes()
	if err != nil || len(key) != 32 {
		t.Errorf("key = %x, %v", key, err)
	}
}
