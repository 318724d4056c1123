package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/audit"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/proxy"
	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto router",
	Long: `Start the Callisto router with the specified configuration.

The server listens on the configured address and proxies JSON-RPC requests
to the weighted backend pool, honoring per-method routing overrides.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:8080

  # Validate config without starting server
  callisto run --dry-run

  # Reload routing on config file changes
  callisto run --watch`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "hot reload routing on config file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.watch {
		cfg.Watch = true
	}

	setupLogging(cfg.Telemetry.Logging)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Callisto v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	table, keys, err := buildRoutingState(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Printf("✓ Routing table built (%d backends, %d method routes)\n",
		table.Len(), table.RouteCount())

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	// Health monitoring
	var monitor *health.Monitor
	healthHandler := health.DisabledHandler()
	if cfg.HealthCheck.Enabled {
		targets := make([]health.Target, 0, table.Len())
		for _, b := range table.Backends() {
			targets = append(targets, health.Target{Label: b.Label, URL: b.URL})
		}
		monitor = health.NewMonitor(targets, health.Config{
			Interval:         cfg.HealthCheck.Interval,
			Timeout:          cfg.HealthCheck.Timeout,
			Method:           cfg.HealthCheck.Method,
			FailureThreshold: cfg.HealthCheck.FailureThreshold,
			SuccessThreshold: cfg.HealthCheck.SuccessThreshold,
		})
		go monitor.Run(ctx)
		healthHandler = monitor.Handler()
		fmt.Printf("✓ Health monitor started (interval %s)\n", cfg.HealthCheck.Interval)
	}

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace)
		poolSize := table.Len()
		collector.RegisterHealthyBackends(func() float64 {
			if monitor != nil {
				return float64(monitor.HealthyCount())
			}
			return float64(poolSize)
		})
		fmt.Println("✓ Metrics collector registered")
	}

	// Audit trail
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		storage, err := openAuditStorage(cfg.Audit)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer storage.Close()

		recorder = audit.NewRecorder(storage, cfg.Audit.AsyncBuffer)
		defer recorder.Close()

		pruner := audit.NewPruner(storage, cfg.Audit.RetentionDays, cfg.Audit.PruneSchedule)
		if err := pruner.Start(); err != nil {
			slog.Warn("failed to start audit retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
		}
		fmt.Printf("✓ Audit trail enabled (%s backend)\n", cfg.Audit.Backend)
	}

	opts := proxy.Options{
		Collector: collector,
		Recorder:  recorder,
	}
	if monitor != nil {
		opts.Health = monitor
	}
	dispatcher := proxy.NewDispatcher(table, keys, cfg.Proxy.UpstreamTimeout, cfg.Proxy.MaxBodyBytes, opts)

	// Hot reload
	if cfg.Watch {
		watcher := config.NewWatcher(cfgFile, slog.Default())
		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				newTable, newKeys, err := buildRoutingState(newCfg)
				if err != nil {
					slog.Error("reload produced unusable routing state, keeping current", "error", err)
					return
				}
				dispatcher.Swap(newTable, newKeys)
				slog.Info("routing state reloaded",
					"backends", newTable.Len(),
					"method_routes", newTable.RouteCount(),
				)
			})
			if err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Println("✓ Config watcher started")
	}

	srv := server.NewServer(cfg.Server, dispatcher, server.Options{
		Health:      healthHandler,
		Metrics:     metricsHandler(collector),
		MetricsPath: cfg.Telemetry.Metrics.Path,
	})

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// buildRoutingState converts configuration into the immutable routing table
// and key set a dispatcher serves from.
func buildRoutingState(cfg *config.Config) (*routing.Table, *auth.KeySet, error) {
	backends := make([]routing.Backend, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		backends = append(backends, routing.Backend{
			Label:  b.Label,
			URL:    b.URL,
			Weight: b.Weight,
		})
	}

	table, err := routing.NewTable(backends, cfg.MethodRoutes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build routing table: %w", err)
	}
	return table, auth.NewKeySet(cfg.APIKeys), nil
}

// openAuditStorage opens the configured audit storage backend.
func openAuditStorage(cfg config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		return audit.NewSQLiteStorage(cfg.SQLitePath)
	case "memory":
		return audit.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Backend)
	}
}

// setupLogging installs the default slog logger per configuration.
func setupLogging(cfg config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// metricsHandler returns the exposition handler, or nil when metrics are
// disabled so the endpoint stays unregistered.
func metricsHandler(collector *metrics.Collector) http.Handler {
	if collector == nil {
		return nil
	}
	return collector.Handler()
}
