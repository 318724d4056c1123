package main

import (
	"testing"

	"mercator-hq/callisto/pkg/config"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"run":        false,
		"validate":   false,
		"version":    false,
		"audit":      false,
		"completion": false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestBuildRoutingState(t *testing.T) {
	cfg := &config.Config{
		APIKeys: []string{"secret"},
		Backends: []config.BackendConfig{
			{Label: "primary", URL: "http://primary.example.com", Weight: 3},
			{Label: "fallback", URL: "http://fallback.example.com", Weight: 1},
		},
		MethodRoutes: map[string]string{
			"getHealth": "http://dedicated.example.com",
		},
	}

	table, keys, err := buildRoutingState(cfg)
	if err != nil {
		t.Fatalf("buildRoutingState() error = %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("table.Len() = %d, want 2", table.Len())
	}
	if table.TotalWeight() != 4 {
		t.Errorf("table.TotalWeight() = %d, want 4", table.TotalWeight())
	}
	if table.RouteCount() != 1 {
		t.Errorf("table.RouteCount() = %d, want 1", table.RouteCount())
	}
	if !keys.Authenticate("secret") {
		t.Error("configured key rejected")
	}
}

func TestBuildRoutingStateRejectsBadWeights(t *testing.T) {
	cfg := &config.Config{
		APIKeys: []string{"secret"},
		Backends: []config.BackendConfig{
			{Label: "bad", URL: "http://bad.example.com", Weight: 0},
		},
	}

	if _, _, err := buildRoutingState(cfg); err == nil {
		t.Error("buildRoutingState() error = nil for zero weight")
	}
}

func TestOpenAuditStorage(t *testing.T) {
	storage, err := openAuditStorage(config.AuditConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("openAuditStorage(memory) error = %v", err)
	}
	storage.Close()

	if _, err := openAuditStorage(config.AuditConfig{Backend: "etcd"}); err == nil {
		t.Error("openAuditStorage() error = nil for unsupported backend")
	}
}

func TestSetupLoggingDoesNotPanic(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		setupLogging(config.LoggingConfig{Level: level, Format: "json"})
	}
	setupLogging(config.LoggingConfig{Level: "info", Format: "text"})
}

func TestRunFlagDefaults(t *testing.T) {
	if runCmd.Flags().Lookup("dry-run") == nil {
		t.Error("run command missing --dry-run flag")
	}
	if runCmd.Flags().Lookup("watch") == nil {
		t.Error("run command missing --watch flag")
	}

	flag := runCmd.Flags().Lookup("listen")
	if flag == nil {
		t.Fatal("run command missing --listen flag")
	}
	if flag.DefValue != "" {
		t.Errorf("--listen default = %q, want empty", flag.DefValue)
	}
}
