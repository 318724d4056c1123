package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "backends[0].weight").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
// A ValidationError at startup is fatal; the router refuses to serve with an
// invalid routing table or key set.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAPIKeys(cfg.APIKeys)...)
	errs = append(errs, validateBackends(cfg.Backends)...)
	errs = append(errs, validateMethodRoutes(cfg.MethodRoutes)...)
	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateHealthCheck(&cfg.HealthCheck)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateAPIKeys(keys []string) []FieldError {
	var errs []FieldError

	if len(keys) == 0 {
		errs = append(errs, FieldError{
			Field:   "api_keys",
			Message: "at least one API key must be configured",
		})
	}
	for i, key := range keys {
		if key == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("api_keys[%d]", i),
				Message: "API key must not be empty",
			})
		}
	}

	return errs
}

func validateBackends(backends []BackendConfig) []FieldError {
	var errs []FieldError

	if len(backends) == 0 {
		errs = append(errs, FieldError{
			Field:   "backends",
			Message: "at least one backend must be configured",
		})
		return errs
	}

	seen := make(map[string]bool, len(backends))
	for i, b := range backends {
		if b.Label == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("backends[%d].label", i),
				Message: fmt.Sprintf("backend with URL %q has empty label", b.URL),
			})
		} else if seen[b.Label] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("backends[%d].label", i),
				Message: fmt.Sprintf("duplicate backend label %q", b.Label),
			})
		}
		seen[b.Label] = true

		if err := validateURL(b.URL); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("backends[%d].url", i),
				Message: err.Error(),
			})
		}

		if b.Weight <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("backends[%d].weight", i),
				Message: fmt.Sprintf("backend %q has invalid weight %d, must be >= 1", b.Label, b.Weight),
			})
		}
	}

	return errs
}

func validateMethodRoutes(routes map[string]string) []FieldError {
	var errs []FieldError

	for method, target := range routes {
		if method == "" {
			errs = append(errs, FieldError{
				Field:   "method_routes",
				Message: "method name must not be empty",
			})
		}
		if err := validateURL(target); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("method_routes[%s]", method),
				Message: err.Error(),
			})
		}
	}

	return errs
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.UpstreamTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.upstream_timeout",
			Message: "must be greater than zero",
		})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_body_bytes",
			Message: "must be greater than zero",
		})
	}

	return errs
}

func validateHealthCheck(cfg *HealthCheckConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	if cfg.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "health_check.interval",
			Message: "must be greater than zero",
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "health_check.timeout",
			Message: "must be greater than zero",
		})
	}
	if cfg.Method == "" {
		errs = append(errs, FieldError{
			Field:   "health_check.method",
			Message: "probe method is required",
		})
	}
	if cfg.FailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "health_check.failure_threshold",
			Message: "must be at least 1",
		})
	}
	if cfg.SuccessThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "health_check.success_threshold",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q (valid: json, text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}

	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite_path",
				Message: "database path is required for the sqlite backend",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unsupported backend %q (valid: sqlite, memory)", cfg.Backend),
		})
	}

	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.async_buffer",
			Message: "must be at least 1",
		})
	}
	if cfg.RetentionDays < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.retention_days",
			Message: "must be at least 1",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.PruneSchedule, err),
			})
		}
	}

	return errs
}

// validateURL checks that a backend or override target is an absolute
// http(s) URL.
func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}
