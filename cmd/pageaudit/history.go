package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"pageaudit/internal/adapters/sqlite"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "List audits recorded in the local SQLite history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Storage.SQLitePath
			if path == "" {
				path = filepath.Join(cfg.Output.Dir, defaultHistoryFile)
			}
			db, err := sqlite.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer db.Close()

			site := ""
			if len(args) == 1 {
				site = args[0]
			}
			entries, err := db.List(cmd.Context(), site, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No audits recorded yet. Run `pageaudit audit <url> --history`.")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of audits to list")
	cmd.Flags().String("history-db", "", "SQLite history file (default <output.dir>/history.db)")
	ctx.bindFlag(cmd, "storage.sqlitePath", "history-db")
	return cmd
}

func renderHistory(entries []sqlite.Entry, now time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"When", "Domain", "URL", "Overall", "Grade", "Perf", "Vis", "Sec", "A11y", "Trust", "Failed", "Took"})
	for _, e := range entries {
		when := "-"
		if !e.CompletedAt.IsZero() {
			when = humanize.RelTime(e.CompletedAt, now, "ago", "from now")
		}
		tw.AppendRow(table.Row{
			when, e.Domain, e.URL, e.Overall, e.Grade,
			e.Performance, e.Visibility, e.Security, e.Accessibility, e.Trust,
			e.Failed, e.Duration().Round(time.Second),
		})
	}
	configs := []table.ColumnConfig{}
	for col := 4; col <= 12; col++ {
		if col == 5 {
			continue
		}
		configs = append(configs, table.ColumnConfig{Number: col, Align: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
