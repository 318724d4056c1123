package health

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Target is one backend probed by the monitor.
type Target struct {
	// Label identifies the backend in status reports and logs.
	Label string

	// URL is the backend endpoint the probe is sent to.
	URL string
}

// Status is the current health state of one backend.
type Status struct {
	// Healthy reports whether the backend is currently in rotation.
	Healthy bool `json:"healthy"`

	// ConsecutiveFailures counts probe failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// ConsecutiveSuccesses counts probe successes since the last failure.
	ConsecutiveSuccesses int `json:"consecutive_successes"`

	// LastCheck is when the backend was last probed. Zero until the first
	// probe completes.
	LastCheck time.Time `json:"last_check,omitempty"`

	// LastError is the most recent probe error, empty while healthy.
	LastError string `json:"last_error,omitempty"`
}

// Config contains configuration for the monitor.
type Config struct {
	// Interval is the delay between probe rounds.
	Interval time.Duration

	// Timeout bounds a single probe request.
	Timeout time.Duration

	// Method is the JSON-RPC method used as the probe call.
	Method string

	// FailureThreshold is the number of consecutive failures before a
	// backend is marked unhealthy.
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes before an
	// unhealthy backend returns to rotation.
	SuccessThreshold int
}

// Monitor probes the weighted backend pool in the background and tracks a
// per-backend health status with consecutive failure/success thresholds, so
// a single slow probe never flaps a backend out of rotation.
//
// Backends start healthy: the monitor only removes a backend after
// FailureThreshold consecutive probe failures, and readmits it after
// SuccessThreshold consecutive successes.
type Monitor struct {
	targets []Target
	cfg     Config
	client  *http.Client
	logger  *slog.Logger

	// probeBody is the JSON-RPC probe request, marshaled once.
	probeBody []byte

	mu       sync.RWMutex
	statuses map[string]*Status
}

// NewMonitor creates a monitor for the given targets.
func NewMonitor(targets []Target, cfg Config) *Monitor {
	body, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  cfg.Method,
	})

	statuses := make(map[string]*Status, len(targets))
	for _, t := range targets {
		statuses[t.Label] = &Status{Healthy: true}
	}

	return &Monitor{
		targets:   targets,
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    slog.Default().With("component", "health.monitor"),
		probeBody: body,
		statuses:  statuses,
	}
}

// Run probes all targets immediately, then at every interval, until the
// context is cancelled. It is meant to run in its own goroutine.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("starting health check loop",
		"interval", m.cfg.Interval.String(),
		"timeout", m.cfg.Timeout.String(),
		"method", m.cfg.Method,
		"backends", len(m.targets),
	)

	m.probeAll(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("health check loop stopped")
			return
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

// IsHealthy reports whether the backend with the given label is in
// rotation. Labels the monitor does not track default to healthy, so
// ad-hoc override targets are never filtered by health state.
func (m *Monitor) IsHealthy(label string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[label]
	if !ok {
		return true
	}
	return status.Healthy
}

// HealthyCount returns the number of tracked backends currently healthy.
func (m *Monitor) HealthyCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, status := range m.statuses {
		if status.Healthy {
			count++
		}
	}
	return count
}

// Statuses returns a snapshot of all tracked backend statuses keyed by label.
func (m *Monitor) Statuses() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]Status, len(m.statuses))
	for label, status := range m.statuses {
		snapshot[label] = *status
	}
	return snapshot
}

// probeAll probes every target concurrently and applies the results.
func (m *Monitor) probeAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, target := range m.targets {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			err := m.probe(ctx, target)
			m.apply(target.Label, err)
		}(target)
	}
	wg.Wait()
}

// probe sends one JSON-RPC health call to the target. Any transport
// failure, non-2xx status, or unparseable body counts as a failed probe.
func (m *Monitor) probe(ctx context.Context, target Target) error {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodPost, target.URL, bytes.NewReader(m.probeBody))
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading probe response: %w", err)
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("probe response is not JSON: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("probe returned JSON-RPC error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	return nil
}

// apply updates a backend's status with one probe outcome and flips the
// healthy flag when a threshold is crossed.
func (m *Monitor) apply(label string, probeErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[label]
	if !ok {
		return
	}
	status.LastCheck = time.Now()

	if probeErr == nil {
		status.ConsecutiveSuccesses++
		status.ConsecutiveFailures = 0
		status.LastError = ""

		if !status.Healthy && status.ConsecutiveSuccesses >= m.cfg.SuccessThreshold {
			status.Healthy = true
			m.logger.Info("backend recovered",
				"backend", label,
				"consecutive_successes", status.ConsecutiveSuccesses,
			)
		}
		return
	}

	status.ConsecutiveFailures++
	status.ConsecutiveSuccesses = 0
	status.LastError = probeErr.Error()

	if status.Healthy && status.ConsecutiveFailures >= m.cfg.FailureThreshold {
		status.Healthy = false
		m.logger.Warn("backend marked unhealthy",
			"backend", label,
			"consecutive_failures", status.ConsecutiveFailures,
			"error", probeErr,
		)
	}
}
