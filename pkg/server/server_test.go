package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/callisto/pkg/config"
)

func markingHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", name)
		w.WriteHeader(http.StatusOK)
	})
}

func TestServerRouting(t *testing.T) {
	srv := NewServer(config.ServerConfig{ListenAddress: "127.0.0.1:0"},
		markingHandler("dispatcher"),
		Options{
			Health:  markingHandler("health"),
			Metrics: markingHandler("metrics"),
		},
	)
	handler := srv.Handler()

	tests := []struct {
		name        string
		method      string
		path        string
		wantHandler string
	}{
		{"proxy root", http.MethodPost, "/", "dispatcher"},
		{"proxy subpath", http.MethodPost, "/some/path", "dispatcher"},
		{"health endpoint", http.MethodGet, "/health", "health"},
		{"metrics endpoint", http.MethodGet, "/metrics", "metrics"},
		{"post to health is proxy traffic", http.MethodPost, "/health", "dispatcher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("X-Handler"); got != tt.wantHandler {
				t.Errorf("%s %s routed to %q, want %q", tt.method, tt.path, got, tt.wantHandler)
			}
		})
	}
}

func TestServerAddsRequestID(t *testing.T) {
	srv := NewServer(config.ServerConfig{}, markingHandler("dispatcher"), Options{})
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}

func TestServerMetricsDisabledWhenNil(t *testing.T) {
	srv := NewServer(config.ServerConfig{}, markingHandler("dispatcher"), Options{})
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// Without a metrics handler the path falls through to the dispatcher.
	if got := w.Header().Get("X-Handler"); got != "dispatcher" {
		t.Errorf("GET /metrics routed to %q, want dispatcher", got)
	}
}
