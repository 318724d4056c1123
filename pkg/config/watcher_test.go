package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, nil)
	go func() {
		_ = w.Watch(ctx, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()
	defer w.Stop()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)

	updated := minimalConfig + `
method_routes:
  getSlot: "http://dedicated.example.com"
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("failed to update config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.MethodRoutes["getSlot"] != "http://dedicated.example.com" {
			t.Errorf("reloaded MethodRoutes = %v", cfg.MethodRoutes)
		}
	case <-ctx.Done():
		t.Fatal("watcher did not reload within timeout")
	}
}

func TestWatcherDiscardsInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, nil)
	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()
	defer w.Stop()

	time.Sleep(200 * time.Millisecond)

	// Break the file: the callback must not fire.
	if err := os.WriteFile(path, []byte("api_keys: []\nbackends: []\n"), 0o644); err != nil {
		t.Fatalf("failed to update config: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("watcher applied an invalid configuration")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, nil)
	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()
	defer w.Stop()

	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("failed to write sibling file: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("watcher reloaded on an unrelated file change")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherRejectsDoubleStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path, nil)
	go func() { _ = w.Watch(ctx, func(*Config) {}) }()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	if err := w.Watch(ctx, func(*Config) {}); err == nil {
		t.Error("second Watch() error = nil, want already-running error")
	}
}
