package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pageaudit/internal/domain"
	"pageaudit/internal/report"
)

// DomainRepository
func (db *DB) GetOrCreate(ctx context.Context, registrable string) (string, error) {
	registrable = strings.ToLower(registrable)
	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO domains (registrable_domain)
		VALUES ($1)
		ON CONFLICT (registrable_domain) DO UPDATE SET registrable_domain = EXCLUDED.registrable_domain
		RETURNING id
	`, registrable).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert domain %s: %w", registrable, err)
	}
	return id, nil
}

// AuditRepository

// Create inserts a queued audit and its job row in one transaction.
func (db *DB) Create(ctx context.Context, domainID string, url string) (string, error) {
	var auditID string
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO audits (domain_id, url, status, progress)
			VALUES ($1, $2, 'queued', 0)
			RETURNING id
		`, domainID, url).Scan(&auditID); err != nil {
			return fmt.Errorf("insert audit: %w", err)
		}
		// create job row
		if _, err := tx.Exec(ctx, `INSERT INTO audit_jobs (audit_id) VALUES ($1)`, auditID); err != nil {
			return fmt.Errorf("insert audit job: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return auditID, nil
}

func (db *DB) Get(ctx context.Context, auditID string) (domain.Audit, error) {
	var (
		a        domain.Audit
		resolved *string
		reason   *string
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT a.id, d.registrable_domain, a.url, a.resolved_url, a.status, a.progress, a.error, a.started_at, a.finished_at
		FROM audits a
		JOIN domains d ON d.id = a.domain_id
		WHERE a.id = $1
	`, auditID).Scan(&a.ID, &a.DomainRef, &a.URL, &resolved, &a.Status, &a.Progress, &reason, &a.StartedAt, &a.FinishedAt)
	if notFound(err) {
		return domain.Audit{}, ErrNotFound
	}
	if err != nil {
		return domain.Audit{}, fmt.Errorf("get audit %s: %w", auditID, err)
	}
	if resolved != nil {
		a.ResolvedURL = *resolved
	}
	if reason != nil {
		a.Error = *reason
	}
	return a, nil
}

// ScoreRepository

// SaveScore stores one score row. DomainRef is the registrable domain.
func (db *DB) SaveScore(ctx context.Context, s domain.Score) error {
	badges := s.Badges
	if badges == nil {
		badges = []string{}
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO scores (domain_id, audit_id, performance, visibility, security, accessibility, trust, overall, badges, computed_at)
		SELECT d.id, $2, $3, $4, $5, $6, $7, $8, $9, $10
		FROM domains d WHERE d.registrable_domain = $1
		ON CONFLICT (audit_id) DO UPDATE SET
			performance = EXCLUDED.performance,
			visibility = EXCLUDED.visibility,
			security = EXCLUDED.security,
			accessibility = EXCLUDED.accessibility,
			trust = EXCLUDED.trust,
			overall = EXCLUDED.overall,
			badges = EXCLUDED.badges,
			computed_at = EXCLUDED.computed_at
	`, strings.ToLower(s.DomainRef), s.AuditRef, s.Performance, s.Visibility, s.Security, s.Accessibility, s.Trust, s.Overall, badges, s.ComputedAt)
	if err != nil {
		return fmt.Errorf("save score for audit %s: %w", s.AuditRef, err)
	}
	return nil
}

func (db *DB) GetLatestByDomain(ctx context.Context, registrable string) (domain.Score, bool, error) {
	registrable = strings.ToLower(registrable)
	out := domain.Score{DomainRef: registrable}
	err := db.Pool.QueryRow(ctx, `
		SELECT s.id, s.audit_id, s.performance, s.visibility, s.security, s.accessibility, s.trust, s.overall,
		       COALESCE(s.badges, '[]'::jsonb), s.computed_at
		FROM scores s
		JOIN domains d ON d.id = s.domain_id
		WHERE d.registrable_domain = $1
		ORDER BY s.computed_at DESC
		LIMIT 1
	`, registrable).Scan(&out.ID, &out.AuditRef, &out.Performance, &out.Visibility, &out.Security,
		&out.Accessibility, &out.Trust, &out.Overall, &out.Badges, &out.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Score{}, false, nil
	}
	if err != nil {
		return domain.Score{}, false, fmt.Errorf("latest score for %s: %w", registrable, err)
	}
	return out, true, nil
}

// ReportStore

func (db *DB) SaveReport(ctx context.Context, r *report.Result) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO reports (audit_id, body, overall, grade)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (audit_id) DO UPDATE SET body = EXCLUDED.body, overall = EXCLUDED.overall, grade = EXCLUDED.grade, created_at = now()
	`, r.ID, body, r.NewScores.Overall, r.Grade)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}
	return nil
}

func (db *DB) SaveScreenshot(ctx context.Context, auditID string, shot domain.Screenshot) error {
	if !shot.HasImage() {
		return nil
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO screenshots (audit_id, name, width, height, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (audit_id, name) DO UPDATE SET width = EXCLUDED.width, height = EXCLUDED.height, data = EXCLUDED.data
	`, auditID, shot.Name, shot.Width, shot.Height, shot.Data)
	if err != nil {
		return fmt.Errorf("save screenshot %s/%s: %w", auditID, shot.Name, err)
	}
	return nil
}

// ReportReader

func (db *DB) GetReport(ctx context.Context, auditID string) (*report.Result, error) {
	var body []byte
	err := db.Pool.QueryRow(ctx, `SELECT body FROM reports WHERE audit_id = $1`, auditID).Scan(&body)
	if notFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", auditID, err)
	}
	return report.Decode(body)
}

func (db *DB) GetScreenshot(ctx context.Context, auditID, name string) (domain.Screenshot, error) {
	shot := domain.Screenshot{Name: name}
	err := db.Pool.QueryRow(ctx, `
		SELECT width, height, data FROM screenshots WHERE audit_id = $1 AND name = $2
	`, auditID, name).Scan(&shot.Width, &shot.Height, &shot.Data)
	if notFound(err) {
		return domain.Screenshot{}, ErrNotFound
	}
	if err != nil {
		return domain.Screenshot{}, fmt.Errorf("get screenshot %s/%s: %w", auditID, name, err)
	}
	shot.Size = len(shot.Data)
	return shot, nil
}

// notFound treats a malformed uuid like a missing row.
func notFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
