package config

import "time"

// Config is the root configuration structure for Callisto.
// It contains all configuration sections for the HTTP server, the weighted
// backend pool, method routing overrides, health monitoring, telemetry,
// and audit recording.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and header limits.
	Server ServerConfig `yaml:"server"`

	// APIKeys is the set of shared-secret keys accepted on inbound requests.
	// A request must present one of these keys in its api-key query parameter.
	// At least one key is required.
	APIKeys []string `yaml:"api_keys"`

	// Backends is the weighted pool of JSON-RPC backends. At least one
	// backend is required, and every weight must be >= 1.
	Backends []BackendConfig `yaml:"backends"`

	// MethodRoutes maps exact JSON-RPC method names to a target URL.
	// Matching is case-sensitive with no normalization. A target URL does
	// not have to appear in Backends; an override may point at a dedicated
	// endpoint that is never part of weighted selection.
	MethodRoutes map[string]string `yaml:"method_routes"`

	// Proxy contains configuration for the outbound forwarding path.
	Proxy ProxyConfig `yaml:"proxy"`

	// HealthCheck contains configuration for background backend probing.
	HealthCheck HealthCheckConfig `yaml:"health_check"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Audit contains configuration for the request audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Watch enables hot reload of this configuration file. On a successful
	// reload a new routing table and key set are built and swapped in
	// atomically; in-flight requests keep the table they started with.
	// Default: false
	Watch bool `yaml:"watch"`
}

// ServerConfig contains configuration for the inbound HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 120s (must cover the upstream timeout plus relay time)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// BackendConfig describes one member of the weighted backend pool.
type BackendConfig struct {
	// Label is the identifier used in logs, metrics, health reports, and
	// audit records. Must be non-empty and unique within the pool.
	Label string `yaml:"label"`

	// URL is the backend endpoint. It may carry its own query string
	// (for example a provider-specific api key); the router never
	// overwrites query parameters already embedded here.
	URL string `yaml:"url"`

	// Weight controls the share of weighted-random traffic this backend
	// receives: weight / sum of all weights. Must be >= 1.
	Weight int `yaml:"weight"`
}

// ProxyConfig contains configuration for outbound request forwarding.
type ProxyConfig struct {
	// UpstreamTimeout bounds a single forwarded request, connection
	// establishment included. A request that exceeds it is answered with
	// 504 and is never retried.
	// Default: 30s
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// MaxBodyBytes caps the inbound request body size.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// HealthCheckConfig contains configuration for background backend probing.
type HealthCheckConfig struct {
	// Enabled turns the background health monitor on. When disabled every
	// backend is treated as healthy.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Interval is the delay between probe rounds.
	// Default: 30s
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds a single probe request.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	// Method is the JSON-RPC method used as the probe call.
	// Default: "getSlot"
	Method string `yaml:"method"`

	// FailureThreshold is the number of consecutive probe failures before
	// a backend is marked unhealthy.
	// Default: 3
	FailureThreshold int `yaml:"failure_threshold"`

	// SuccessThreshold is the number of consecutive probe successes before
	// an unhealthy backend is marked healthy again.
	// Default: 2
	SuccessThreshold int `yaml:"success_threshold"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is exposed.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus metric namespace.
	// Default: "callisto"
	Namespace string `yaml:"namespace"`
}

// AuditConfig contains configuration for the request audit trail.
type AuditConfig struct {
	// Enabled turns audit recording on. When disabled no records are
	// written and the storage backend is never opened.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend ("sqlite", "memory").
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// AsyncBuffer is the size of the async write channel buffer. Records
	// are dropped (and counted) when the buffer is full so recording never
	// blocks request handling.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// RetentionDays is how long records are kept before pruning.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for automatic pruning.
	// Empty disables scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}
