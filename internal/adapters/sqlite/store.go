// Package sqlite keeps a local audit history in a single SQLite file. It backs
// the CLI's --history flag and the history command.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"pageaudit/internal/domain"
	"pageaudit/internal/ports"
	"pageaudit/internal/report"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned when an audit or screenshot is not in the history.
var ErrNotFound = ports.ErrNotFound

var (
	_ ports.ReportStore  = (*Store)(nil)
	_ ports.ReportReader = (*Store)(nil)
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages audit history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one row of the history listing.
type Entry struct {
	ID            string
	Domain        string
	URL           string
	ResolvedURL   string
	Performance   int
	Visibility    int
	Security      int
	Accessibility int
	Trust         int
	Overall       int
	Grade         string
	Failed        int
	StartedAt     time.Time
	CompletedAt   time.Time
}

// Duration is the wall time of the audit.
func (e Entry) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.CompletedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// Open initializes or connects to the history database and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite history: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}

	store := &Store{db: db, path: path}
	if _, err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Migrate applies pending embedded migrations and returns the versions applied.
func (s *Store) Migrate(ctx context.Context) ([]int64, error) {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations)
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

// Path is the database file.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveReport records r. Saving the same audit twice replaces the row.
func (s *Store) SaveReport(ctx context.Context, r *report.Result) error {
	var body strings.Builder
	if err := report.WriteJSON(&body, r); err != nil {
		return err
	}
	site, err := domain.RegistrableDomain(r.URL)
	if err != nil {
		return fmt.Errorf("report %s: %w", r.ID, err)
	}
	sc := r.NewScores
	return s.execWithRetry(ctx, `
		INSERT INTO audits (id, domain, url, resolved_url, performance, visibility, security, accessibility, trust,
		                    overall, grade, failed, started_at, completed_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			resolved_url = excluded.resolved_url,
			performance = excluded.performance,
			visibility = excluded.visibility,
			security = excluded.security,
			accessibility = excluded.accessibility,
			trust = excluded.trust,
			overall = excluded.overall,
			grade = excluded.grade,
			failed = excluded.failed,
			completed_at = excluded.completed_at,
			body = excluded.body
	`, r.ID, site, r.URL, r.ResolvedURL, sc.Performance, sc.Visibility, sc.Security, sc.Accessibility, sc.Trust,
		sc.Overall, r.Grade, len(r.FailedAnalyzers), formatTime(r.StartedAt), formatTime(r.CompletedAt), body.String())
}

// SaveScreenshot stores shot for an audit already saved with SaveReport.
// Metadata-only screenshots are skipped.
func (s *Store) SaveScreenshot(ctx context.Context, auditID string, shot domain.Screenshot) error {
	if !shot.HasImage() {
		return nil
	}
	return s.execWithRetry(ctx, `
		INSERT INTO screenshots (audit_id, name, width, height, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (audit_id, name) DO UPDATE SET width = excluded.width, height = excluded.height, data = excluded.data
	`, auditID, shot.Name, shot.Width, shot.Height, shot.Data)
}

// GetReport returns the stored report body.
func (s *Store) GetReport(ctx context.Context, auditID string) (*report.Result, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM audits WHERE id = ?`, auditID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", auditID, err)
	}
	return report.Decode([]byte(body))
}

func (s *Store) GetScreenshot(ctx context.Context, auditID, name string) (domain.Screenshot, error) {
	shot := domain.Screenshot{Name: name}
	err := s.db.QueryRowContext(ctx, `
		SELECT width, height, data FROM screenshots WHERE audit_id = ? AND name = ?
	`, auditID, name).Scan(&shot.Width, &shot.Height, &shot.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Screenshot{}, ErrNotFound
	}
	if err != nil {
		return domain.Screenshot{}, fmt.Errorf("get screenshot %s/%s: %w", auditID, name, err)
	}
	shot.Size = len(shot.Data)
	return shot, nil
}

// List returns the most recent audits, newest first. An empty site lists
// every domain; limit <= 0 means 50.
func (s *Store) List(ctx context.Context, site string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, domain, url, resolved_url, performance, visibility, security, accessibility, trust,
		       overall, grade, failed, started_at, completed_at
		FROM audits`
	args := []any{}
	if site = strings.TrimSpace(site); site != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain.RegistrableHost(site))
	}
	query += ` ORDER BY completed_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                  Entry
			started, completed string
		)
		if err := rows.Scan(&e.ID, &e.Domain, &e.URL, &e.ResolvedURL, &e.Performance, &e.Visibility, &e.Security,
			&e.Accessibility, &e.Trust, &e.Overall, &e.Grade, &e.Failed, &started, &completed); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.StartedAt = parseTime(started)
		e.CompletedAt = parseTime(completed)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// GetLatestByDomain returns the newest scores recorded for a registrable domain.
func (s *Store) GetLatestByDomain(ctx context.Context, registrable string) (domain.Score, bool, error) {
	entries, err := s.List(ctx, registrable, 1)
	if err != nil {
		return domain.Score{}, false, err
	}
	if len(entries) == 0 {
		return domain.Score{}, false, nil
	}
	e := entries[0]
	return domain.Score{
		DomainRef:     e.Domain,
		AuditRef:      e.ID,
		Performance:   e.Performance,
		Visibility:    e.Visibility,
		Security:      e.Security,
		Accessibility: e.Accessibility,
		Trust:         e.Trust,
		Overall:       e.Overall,
		ComputedAt:    e.CompletedAt,
	}, true, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return fmt.Errorf("sqlite exec: %w", lastErr)
}
