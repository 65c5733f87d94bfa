package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pageaudit/internal/adapters/filestore"
	"pageaudit/internal/adapters/sqlite"
	"pageaudit/internal/audit"
	"pageaudit/internal/ports"
	"pageaudit/internal/report"
)

const defaultHistoryFile = "history.db"

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var (
		history bool
		noSave  bool
	)

	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Audit one page and print the report",
		Example: `  pageaudit audit example.com
  pageaudit audit https://example.com/pricing --format markdown
  pageaudit audit example.com --measurement none --history`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()

			stores := []ports.ReportStore{}
			if !noSave {
				files, err := filestore.New(cfg.Output.Dir)
				if err != nil {
					return err
				}
				stores = append(stores, files)
			}
			if history {
				path := cfg.Storage.SQLitePath
				if path == "" {
					path = filepath.Join(cfg.Output.Dir, defaultHistoryFile)
				}
				db, err := sqlite.Open(cmd.Context(), path)
				if err != nil {
					return err
				}
				defer db.Close()
				stores = append(stores, db)
			}

			orchestrator := newOrchestrator(cfg, cfg.Browser.DebugPort, logger)
			progress := newProgressPrinter(cmd.ErrOrStderr())
			res, err := orchestrator.Run(cmd.Context(), audit.Config{
				URL:               args[0],
				NavigationTimeout: cfg.Browser.NavigationTimeout,
				OnProgress:        progress.Update,
			})
			progress.Done()
			if err != nil {
				return err
			}

			for _, store := range stores {
				if err := saveReport(cmd.Context(), store, res); err != nil {
					return err
				}
			}
			if !noSave {
				logger.Info("report saved", "dir", filepath.Join(cfg.Output.Dir, res.ID))
			}
			return renderReport(cmd.OutOrStdout(), res, cfg.Output.Format, isTerminal(cmd.OutOrStdout()))
		},
	}

	flags := cmd.Flags()
	flags.StringP("format", "f", "console", "Output format (console|json|markdown)")
	flags.StringP("output-dir", "o", "audits", "Directory reports and screenshots are written to")
	flags.String("measurement", "lighthouse", "Measurement provider (lighthouse|pagespeed|none)")
	flags.String("strategy", "mobile", "Measurement form factor (mobile|desktop)")
	flags.Duration("timeout", 0, "Navigation timeout per attempt (default 30s)")
	flags.Int("debug-port", 9222, "Chrome remote debugging port, 0 picks a free one")
	flags.String("history-db", "", "SQLite history file (default <output-dir>/history.db)")
	flags.BoolVar(&history, "history", false, "Also record the audit in the SQLite history")
	flags.BoolVar(&noSave, "no-save", false, "Print the report without writing it to the output directory")

	ctx.bindFlag(cmd, "output.format", "format")
	ctx.bindFlag(cmd, "output.dir", "output-dir")
	ctx.bindFlag(cmd, "measurement.provider", "measurement")
	ctx.bindFlag(cmd, "measurement.strategy", "strategy")
	ctx.bindFlag(cmd, "browser.navigationTimeout", "timeout")
	ctx.bindFlag(cmd, "browser.debugPort", "debug-port")
	ctx.bindFlag(cmd, "storage.sqlitePath", "history-db")
	return cmd
}

// saveReport writes the report before its screenshots; stores with foreign
// keys need the report row first.
func saveReport(ctx context.Context, store ports.ReportStore, res *report.Result) error {
	if err := store.SaveReport(ctx, res); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	for _, shot := range res.Screenshots {
		if err := store.SaveScreenshot(ctx, res.ID, shot); err != nil {
			return fmt.Errorf("save screenshot %s: %w", shot.Name, err)
		}
	}
	return nil
}
