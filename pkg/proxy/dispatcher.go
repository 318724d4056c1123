package proxy

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/audit"
	"mercator-hq/callisto/pkg/proxy/middleware"
	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// Terminal dispatch outcomes, used as the status label on logs, metrics,
// and audit records.
const (
	StatusSuccess      = "success"
	StatusUnauthorized = "unauthorized"
	StatusBadGateway   = "bad_gateway"
	StatusTimeout      = "timeout"
	StatusUnavailable  = "unavailable"
)

// noBackend is the backend label recorded for requests rejected before
// selection, and unknownMethod the rpc_method label when no method could be
// extracted from the body.
const (
	noBackend     = "none"
	unknownMethod = "unknown"
)

// HealthChecker reports whether a pool backend is currently in rotation.
// Labels it does not track are healthy.
type HealthChecker interface {
	IsHealthy(label string) bool
}

// snapshot bundles the immutable routing state a single request dispatches
// against. Reload replaces the whole snapshot atomically; in-flight
// requests keep the snapshot they started with.
type snapshot struct {
	table    *routing.Table
	selector *routing.Selector
	keys     *auth.KeySet
}

// Dispatcher is the proxy core: it authenticates the request, selects a
// backend, forwards the request, and relays the upstream response. It
// implements http.Handler and is safe for concurrent use.
type Dispatcher struct {
	snap      atomic.Pointer[snapshot]
	forwarder *Forwarder
	health    HealthChecker
	collector *metrics.Collector
	recorder  *audit.Recorder
	source    routing.Source

	maxBodyBytes int64
	logger       *slog.Logger
}

// Options configures the optional collaborators of a dispatcher. Any field
// may be nil, in which case the corresponding concern is disabled.
type Options struct {
	// Health filters the weighted pool. Nil means every backend is eligible.
	Health HealthChecker

	// Collector receives per-request metrics.
	Collector *metrics.Collector

	// Recorder receives per-request audit records.
	Recorder *audit.Recorder

	// Source overrides the selector's randomness. Nil selects the default.
	Source routing.Source
}

// NewDispatcher creates a dispatcher over the given routing table and key
// set, forwarding with the given upstream timeout and inbound body cap.
func NewDispatcher(table *routing.Table, keys *auth.KeySet, timeout time.Duration, maxBodyBytes int64, opts Options) *Dispatcher {
	d := &Dispatcher{
		forwarder:    NewForwarder(timeout),
		health:       opts.Health,
		collector:    opts.Collector,
		recorder:     opts.Recorder,
		source:       opts.Source,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "proxy.dispatcher"),
	}
	d.snap.Store(&snapshot{
		table:    table,
		selector: routing.NewSelector(table, opts.Source),
		keys:     keys,
	})
	return d
}

// Swap atomically replaces the routing table and key set. In-flight
// requests finish against the snapshot they loaded at dispatch start.
func (d *Dispatcher) Swap(table *routing.Table, keys *auth.KeySet) {
	d.snap.Store(&snapshot{
		table:    table,
		selector: routing.NewSelector(table, d.source),
		keys:     keys,
	})
}

// ServeHTTP dispatches one request end to end.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := d.snap.Load()

	if !snap.keys.Authenticate(r.URL.Query().Get(apiKeyParam)) {
		start := time.Now()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		d.finish(r, start, noBackend, unknownMethod, StatusUnauthorized, http.StatusUnauthorized)
		return
	}

	// A body that cannot be fully read, or one exceeding the cap, degrades
	// to forwarding an empty body rather than rejecting the request. The
	// extra byte past the cap distinguishes at-cap from over-cap: a
	// truncated prefix must never reach the upstream.
	body, err := io.ReadAll(io.LimitReader(r.Body, d.maxBodyBytes+1))
	switch {
	case err != nil:
		d.logger.Warn("failed to read request body, forwarding empty body",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		body = nil
	case int64(len(body)) > d.maxBodyBytes:
		d.logger.Warn("request body exceeds cap, forwarding empty body",
			"request_id", middleware.GetRequestID(r.Context()),
			"cap_bytes", d.maxBodyBytes,
		)
		body = nil
	}

	rpcMethod := unknownMethod
	method, hasMethod := ExtractMethod(body)
	if hasMethod {
		rpcMethod = method
	}

	// The measured dispatch span starts once the method is resolved; auth
	// and the inbound body read sit outside it.
	start := time.Now()

	backend, ok := d.selectBackend(snap, method, hasMethod)
	if !ok {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		d.finish(r, start, noBackend, rpcMethod, StatusUnavailable, http.StatusServiceUnavailable)
		return
	}

	resp, err := d.forwarder.Forward(r.Context(), backend.Label, backend.URL, r, body)
	if err != nil {
		d.writeForwardError(w, err)

		status := StatusBadGateway
		reason := "transport"
		httpStatus := http.StatusBadGateway
		var terr *TransportError
		if errors.As(err, &terr) && terr.Timeout {
			status = StatusTimeout
			reason = "timeout"
			httpStatus = http.StatusGatewayTimeout
		}
		if d.collector != nil {
			d.collector.RecordUpstreamFailure(backend.Label, reason)
		}
		d.finish(r, start, backend.Label, rpcMethod, status, httpStatus)
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		d.logger.Warn("failed to relay upstream response body",
			"request_id", middleware.GetRequestID(r.Context()),
			"backend", backend.Label,
			"error", err,
		)
	}

	d.finish(r, start, backend.Label, rpcMethod, StatusSuccess, resp.StatusCode)
}

// selectBackend resolves the backend for one request: a method override
// when the method maps to one and its target is in rotation, otherwise a
// weighted draw over the healthy pool. The second return is false only when
// every pool backend is out of rotation.
func (d *Dispatcher) selectBackend(snap *snapshot, method string, hasMethod bool) (routing.Backend, bool) {
	if hasMethod {
		if backend, found := snap.table.Route(method); found {
			// An override whose target is tracked and unhealthy falls
			// back to the weighted pool instead of hitting a known-bad
			// backend.
			if d.health == nil || d.health.IsHealthy(backend.Label) {
				return backend, true
			}
		}
	}

	var healthy func(string) bool
	if d.health != nil {
		healthy = d.health.IsHealthy
	}

	backend, err := snap.selector.PickHealthy(healthy)
	if err != nil {
		return routing.Backend{}, false
	}
	return backend, true
}

// writeForwardError maps a forwarding failure to its gateway response.
func (d *Dispatcher) writeForwardError(w http.ResponseWriter, err error) {
	var terr *TransportError
	if errors.As(err, &terr) {
		http.Error(w, http.StatusText(terr.GatewayStatus()), terr.GatewayStatus())
		return
	}
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}

// finish emits the per-request log line, metrics, and audit record.
func (d *Dispatcher) finish(r *http.Request, start time.Time, backend, rpcMethod, status string, httpStatus int) {
	duration := time.Since(start)
	requestID := middleware.GetRequestID(r.Context())

	level := slog.LevelInfo
	if status != StatusSuccess {
		level = slog.LevelWarn
	}
	// URL.Path only; the raw query carries the api-key credential.
	d.logger.Log(r.Context(), level, "request dispatched",
		"request_id", requestID,
		"rpc_method", rpcMethod,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"backend", backend,
		"status", status,
		"http_status", httpStatus,
		"duration_ms", duration.Milliseconds(),
	)

	if d.collector != nil {
		d.collector.RecordRequest(backend, rpcMethod, status, duration)
	}
	if d.recorder != nil {
		d.recorder.Record(audit.Record{
			RequestID:  requestID,
			RPCMethod:  rpcMethod,
			Path:       r.URL.Path,
			RemoteAddr: r.RemoteAddr,
			Backend:    backend,
			Status:     status,
			StatusCode: httpStatus,
			Duration:   duration,
		})
	}
}
