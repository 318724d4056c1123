package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalConfig = `
api_keys:
  - "secret"
backends:
  - label: primary
    url: "https://rpc-primary.example.com"
    weight: 3
  - label: fallback
    url: "https://rpc-fallback.example.com"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want default %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Proxy.UpstreamTimeout != DefaultUpstreamTimeout {
		t.Errorf("UpstreamTimeout = %v, want default %v", cfg.Proxy.UpstreamTimeout, DefaultUpstreamTimeout)
	}
	if cfg.Proxy.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("MaxBodyBytes = %d, want default %d", cfg.Proxy.MaxBodyBytes, DefaultMaxBodyBytes)
	}
	if cfg.Telemetry.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Telemetry.Logging.Level)
	}

	// Missing weight defaults to 1, configured weight stays.
	if cfg.Backends[0].Weight != 3 {
		t.Errorf("Backends[0].Weight = %d, want 3", cfg.Backends[0].Weight)
	}
	if cfg.Backends[1].Weight != 1 {
		t.Errorf("Backends[1].Weight = %d, want 1", cfg.Backends[1].Weight)
	}
}

func TestLoadConfigParsesFullFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: 10s
api_keys:
  - "k1"
  - "k2"
backends:
  - label: a
    url: "http://a.example.com"
    weight: 2
method_routes:
  getProgramAccounts: "http://heavy.example.com"
proxy:
  upstream_timeout: 15s
health_check:
  enabled: true
  interval: 10s
audit:
  enabled: true
  backend: memory
watch: true
`))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	if len(cfg.APIKeys) != 2 {
		t.Errorf("len(APIKeys) = %d, want 2", len(cfg.APIKeys))
	}
	if cfg.MethodRoutes["getProgramAccounts"] != "http://heavy.example.com" {
		t.Errorf("MethodRoutes = %v", cfg.MethodRoutes)
	}
	if cfg.Proxy.UpstreamTimeout != 15*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 15s", cfg.Proxy.UpstreamTimeout)
	}
	if !cfg.HealthCheck.Enabled {
		t.Error("HealthCheck.Enabled = false, want true")
	}
	if cfg.HealthCheck.Interval != 10*time.Second {
		t.Errorf("HealthCheck.Interval = %v, want 10s", cfg.HealthCheck.Interval)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("Audit.Backend = %q, want memory", cfg.Audit.Backend)
	}
	if !cfg.Watch {
		t.Error("Watch = false, want true")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() error = nil for missing file")
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "api_keys: [unclosed")); err == nil {
		t.Error("LoadConfig() error = nil for malformed YAML")
	}
}

func TestLoadConfigInvalidConfig(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
api_keys: []
backends: []
`))
	if err == nil {
		t.Error("LoadConfig() error = nil for invalid config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CALLISTO_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("CALLISTO_API_KEYS", "env-key-1, env-key-2")
	t.Setenv("CALLISTO_PROXY_UPSTREAM_TIMEOUT", "42s")
	t.Setenv("CALLISTO_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("ListenAddress = %q, want env override", cfg.Server.ListenAddress)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "env-key-1" || cfg.APIKeys[1] != "env-key-2" {
		t.Errorf("APIKeys = %v, want trimmed env keys", cfg.APIKeys)
	}
	if cfg.Proxy.UpstreamTimeout != 42*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 42s", cfg.Proxy.UpstreamTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestEnvOverridesRevalidate(t *testing.T) {
	t.Setenv("CALLISTO_TELEMETRY_LOGGING_LEVEL", "loud")

	if _, err := LoadConfigWithEnvOverrides(writeConfig(t, minimalConfig)); err == nil {
		t.Error("LoadConfigWithEnvOverrides() error = nil for invalid env override")
	}
}
