package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	pg "pageaudit/internal/adapters/postgres"
	"pageaudit/internal/adapters/sqlite"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var useSQLite bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply the embedded goose migrations to Postgres, or with --sqlite to the
local history database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if useSQLite {
				path := cfg.Storage.SQLitePath
				if path == "" {
					path = filepath.Join(cfg.Output.Dir, defaultHistoryFile)
				}
				// Open migrates; a second pass reports nothing pending.
				db, err := sqlite.Open(cmd.Context(), path)
				if err != nil {
					return err
				}
				defer db.Close()
				fmt.Fprintf(out, "sqlite history %s is up to date\n", db.Path())
				return nil
			}

			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			db, err := pg.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			applied, err := db.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "postgres: no pending migrations")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(out, "postgres: applied %05d\n", v)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&useSQLite, "sqlite", false, "Migrate the SQLite history instead of Postgres")
	flags.String("database-url", "", "Postgres DSN (default $PAGEAUDIT_DATABASE_URL or $DATABASE_URL)")
	flags.String("history-db", "", "SQLite history file (default <output.dir>/history.db)")
	ctx.bindFlag(cmd, "databaseURL", "database-url")
	ctx.bindFlag(cmd, "storage.sqlitePath", "history-db")
	return cmd
}
