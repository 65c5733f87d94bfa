package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	httpadapter "pageaudit/internal/adapters/http"
	pg "pageaudit/internal/adapters/postgres"
	"pageaudit/internal/audit"
	auditsvc "pageaudit/internal/services/audits"
	profsvc "pageaudit/internal/services/profiles"
	"pageaudit/internal/workers/auditrunner"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background audit workers against Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			logger := ctx.log()

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			db, err := pg.Connect(runCtx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if migrate {
				applied, err := db.Migrate(runCtx)
				if err != nil {
					return err
				}
				logger.Info("migrations applied", "versions", applied)
			}

			// Concurrent audits cannot share one debugging port.
			port := cfg.Browser.DebugPort
			if cfg.AuditWorkers > 1 {
				port = 0
			}
			processor := &auditrunner.AuditProcessor{
				Auditor: newOrchestrator(cfg, port, logger),
				Jobs:    db,
				Reports: db,
				Scores:  db,
				Template: audit.Config{
					NavigationTimeout: cfg.Browser.NavigationTimeout,
				},
				Logger: logger,
			}

			audits := auditsvc.New(db, db, db)
			profiles := profsvc.New(db)
			srv := httpadapter.New(audits, profiles, db, processor, logger)
			r := chi.NewRouter()
			r.Mount("/", srv.Routes())

			if cfg.AuditWorkers > 0 {
				auditrunner.Run(runCtx, db, processor, cfg.AuditWorkers, cfg.PollInterval, logger)
				logger.Info("audit workers started", "workers", cfg.AuditWorkers, "poll", cfg.PollInterval)
			}

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- server.ListenAndServe() }()
			logger.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

			select {
			case <-runCtx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			cancel()
			shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
			defer stop()
			return server.Shutdown(shutdownCtx)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", ":8080", "HTTP listen address")
	flags.Int("workers", 0, "Background audit workers (0 disables the worker pool)")
	flags.Duration("poll", 500*time.Millisecond, "Job poll interval")
	flags.String("database-url", "", "Postgres DSN (default $PAGEAUDIT_DATABASE_URL or $DATABASE_URL)")
	flags.BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")

	ctx.bindFlag(cmd, "listenAddr", "listen")
	ctx.bindFlag(cmd, "auditWorkers", "workers")
	ctx.bindFlag(cmd, "pollInterval", "poll")
	ctx.bindFlag(cmd, "databaseURL", "database-url")
	return cmd
}
