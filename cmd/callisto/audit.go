package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/audit"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
)

var auditFlags struct {
	backend string
	limit   int
	format  string
	days    int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the request audit trail",
	Long: `Query and prune the audit trail recorded by the router.

Every dispatched request produces one audit record: the JSON-RPC method,
the chosen backend, the terminal outcome, and timing. Records are stored
in the configured audit backend (SQLite by default).

Subcommands:
  list  - List recent audit records
  prune - Delete records older than the retention window

Examples:
  # Show the 20 most recent records
  callisto audit list

  # Export as JSON
  callisto audit list --limit 100 --format json

  # Delete records older than 7 days
  callisto audit prune --days 7`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit records",
	Long:  `List audit records, newest first.`,
	RunE:  listAuditRecords,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old audit records",
	Long:  `Delete audit records older than the given number of days.`,
	RunE:  pruneAuditRecords,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditPruneCmd)

	auditCmd.PersistentFlags().StringVar(&auditFlags.backend, "backend", "", "storage backend: sqlite, memory (uses config if not specified)")
	auditListCmd.Flags().IntVar(&auditFlags.limit, "limit", 20, "maximum records to return")
	auditListCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", 0, "delete records older than this many days (uses config if 0)")
}

// openAuditStorageFromConfig loads configuration and opens the audit
// storage it names, honoring the --backend override.
func openAuditStorageFromConfig() (audit.Storage, *config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	auditCfg := cfg.Audit
	if auditFlags.backend != "" {
		auditCfg.Backend = auditFlags.backend
	}

	storage, err := openAuditStorage(auditCfg)
	if err != nil {
		return nil, nil, err
	}
	return storage, cfg, nil
}

func listAuditRecords(cmd *cobra.Command, args []string) error {
	storage, _, err := openAuditStorageFromConfig()
	if err != nil {
		return err
	}
	defer storage.Close()

	ctx := context.Background()
	records, err := storage.List(ctx, auditFlags.limit)
	if err != nil {
		return cli.NewCommandError("audit list", err)
	}

	if len(records) == 0 {
		fmt.Println("No audit records found.")
		return nil
	}

	switch cli.OutputFormat(auditFlags.format) {
	case cli.FormatJSON:
		formatter := &cli.JSONFormatter{Indent: true}
		return formatter.FormatTo(os.Stdout, records)

	case cli.FormatCSV:
		formatter := &cli.CSVFormatter{
			Headers: []string{"time", "request_id", "rpc_method", "backend", "status", "http_status", "duration_ms"},
		}
		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			rows = append(rows, []string{
				rec.Time.Format(time.RFC3339),
				rec.RequestID,
				rec.RPCMethod,
				rec.Backend,
				rec.Status,
				strconv.Itoa(rec.StatusCode),
				strconv.FormatInt(rec.Duration.Milliseconds(), 10),
			})
		}
		return formatter.FormatTo(os.Stdout, rows)

	default:
		total, err := storage.Count(ctx)
		if err != nil {
			return cli.NewCommandError("audit list", err)
		}
		fmt.Printf("Showing %d of %d audit records:\n\n", len(records), total)
		for _, rec := range records {
			fmt.Printf("%s  %-20s %-12s %-14s %3d  %dms\n",
				rec.Time.Format(time.RFC3339),
				rec.RPCMethod,
				rec.Backend,
				rec.Status,
				rec.StatusCode,
				rec.Duration.Milliseconds(),
			)
		}
		return nil
	}
}

func pruneAuditRecords(cmd *cobra.Command, args []string) error {
	storage, cfg, err := openAuditStorageFromConfig()
	if err != nil {
		return err
	}
	defer storage.Close()

	days := auditFlags.days
	if days <= 0 {
		days = cfg.Audit.RetentionDays
	}

	pruner := audit.NewPruner(storage, days, "")
	deleted, err := pruner.PruneNow(context.Background())
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}

	fmt.Printf("✓ Deleted %d records older than %d days\n", deleted, days)
	return nil
}
