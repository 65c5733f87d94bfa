// Package postgres stores domains, audits, jobs, reports, screenshots and
// scores in Postgres through a pgx pool.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"pageaudit/internal/ports"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned when an audit, report or screenshot does not exist.
var ErrNotFound = ports.ErrNotFound

var (
	_ ports.DomainRepository = (*DB)(nil)
	_ ports.AuditRepository  = (*DB)(nil)
	_ ports.ScoreRepository  = (*DB)(nil)
	_ ports.JobRepository    = (*DB)(nil)
	_ ports.ReportStore      = (*DB)(nil)
	_ ports.ReportReader     = (*DB)(nil)
)

type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() { db.Pool.Close() }

// Migrate applies every pending embedded migration and returns the versions
// applied.
func (db *DB) Migrate(ctx context.Context) ([]int64, error) {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}
