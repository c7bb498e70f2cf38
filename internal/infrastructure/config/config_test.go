package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a temp YAML file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  id: test-site\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("site.id: got %q", cfg.Site.ID)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default mqtt port: got %d", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("default qos: got %d", cfg.MQTT.QoS)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default logging: got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if !cfg.Database.WALMode {
		t.Error("WAL mode must default on")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  id: house-7
mqtt:
  broker:
    port: 8883
    tls: true
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MQTT.Broker.Port != 8883 || !cfg.MQTT.Broker.TLS {
		t.Errorf("broker settings not applied: port=%d tls=%v", cfg.MQTT.Broker.Port, cfg.MQTT.Broker.TLS)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level: got %q", cfg.Logging.Level)
	}
}

func TestLoadDeviceOverrides(t *testing.T) {
	path := writeConfig(t, `
site:
  id: house-7
devices:
  "1000abcdef":
    devicekey: secret-key
    name: Hall Switch
    room: hallway
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	override, ok := cfg.Devices["1000abcdef"]
	if !ok {
		t.Fatal("device override missing")
	}
	if override["devicekey"] != "secret-key" || override["name"] != "Hall Switch" {
		t.Errorf("override attributes not loaded: %v", override)
	}
	if override["room"] != "hallway" {
		t.Error("unrecognised attributes must be carried through")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOMELINK_DATABASE_PATH", "/var/lib/homelink/override.db")
	t.Setenv("HOMELINK_MQTT_HOST", "broker.example")

	path := writeConfig(t, "site:\n  id: test-site\ndatabase:\n  path: /tmp/ignored.db\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Path != "/var/lib/homelink/override.db" {
		t.Errorf("env must override file: got %q", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.example" {
		t.Errorf("env must override default: got %q", cfg.MQTT.Broker.Host)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file must fail")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "site: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML must fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "missing site id",
			mutate:  func(cfg *Config) { cfg.Site.ID = "" },
			wantErr: "site.id",
		},
		{
			name:    "qos out of range",
			mutate:  func(cfg *Config) { cfg.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name: "mqtt enabled without host",
			mutate: func(cfg *Config) {
				cfg.MQTT.Enabled = true
				cfg.MQTT.Broker.Host = ""
			},
			wantErr: "mqtt.broker.host",
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(cfg *Config) { cfg.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name: "devicekey not a string",
			mutate: func(cfg *Config) {
				cfg.Devices = map[string]map[string]any{
					"d1": {"devicekey": 42},
				}
			},
			wantErr: "devicekey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}
