package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pageaudit/internal/ports"
)

// withTx runs fn in a transaction, committing when it returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	return fn(tx)
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AuditJob, found bool, err error) {
	err = db.withTx(ctx, func(tx pgx.Tx) error {
		// Lock the next queued job
		err := tx.QueryRow(ctx, `
			SELECT j.id, j.audit_id, a.url
			FROM audit_jobs j
			JOIN audits a ON a.id = j.audit_id
			WHERE j.status = 'queued'
			ORDER BY j.queued_at
			FOR UPDATE OF j SKIP LOCKED
			LIMIT 1
		`).Scan(&job.ID, &job.AuditID, &job.URL)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return markRunning(ctx, tx, job)
	})
	if err != nil {
		return ports.AuditJob{}, false, fmt.Errorf("claim next job: %w", err)
	}
	return job, found, nil
}

// markRunning flips a locked job and its audit to running.
func markRunning(ctx context.Context, tx pgx.Tx, job ports.AuditJob) error {
	if _, err := tx.Exec(ctx, `
		UPDATE audit_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
	`, job.ID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE audits SET status='running', started_at=COALESCE(started_at, now()) WHERE id=$1
	`, job.AuditID)
	return err
}

// UpdateAuditProgress stores progress on the 0-100 scale.
func (db *DB) UpdateAuditProgress(ctx context.Context, auditID string, progress float64) error {
	progress = min(max(progress, 0), 100)
	if _, err := db.Pool.Exec(ctx, `UPDATE audits SET progress=$2 WHERE id=$1`, auditID, progress); err != nil {
		return fmt.Errorf("update progress %s: %w", auditID, err)
	}
	return nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string, resolvedURL string) error {
	// complete job and audit atomically
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var auditID string
		if err := tx.QueryRow(ctx, `SELECT audit_id FROM audit_jobs WHERE id=$1`, jobID).Scan(&auditID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE audit_jobs SET status='completed', finished_at=now() WHERE id=$1`, jobID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE audits SET status='completed', progress=100, resolved_url=NULLIF($2, ''), error=NULL, finished_at=now()
			WHERE id=$1
		`, auditID, resolvedURL)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark job %s completed: %w", jobID, err)
	}
	return nil
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var auditID string
		if err := tx.QueryRow(ctx, `SELECT audit_id FROM audit_jobs WHERE id=$1`, jobID).Scan(&auditID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE audit_jobs SET status='failed', last_error=$2, finished_at=now() WHERE id=$1`, jobID, reason); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE audits SET status='failed', error=$2, finished_at=now() WHERE id=$1`, auditID, reason)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark job %s failed: %w", jobID, err)
	}
	return nil
}

// StartJobForAudit claims the queued job of one audit so it can run inline.
// It returns ErrNotFound when a worker already took it.
func (db *DB) StartJobForAudit(ctx context.Context, auditID string) (job ports.AuditJob, err error) {
	err = db.withTx(ctx, func(tx pgx.Tx) error {
		// lock specific job row if queued
		err := tx.QueryRow(ctx, `
			SELECT j.id, j.audit_id, a.url
			FROM audit_jobs j
			JOIN audits a ON a.id = j.audit_id
			WHERE j.audit_id = $1 AND j.status = 'queued'
			FOR UPDATE OF j SKIP LOCKED
		`, auditID).Scan(&job.ID, &job.AuditID, &job.URL)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return markRunning(ctx, tx, job)
	})
	if err != nil {
		return ports.AuditJob{}, fmt.Errorf("start job for audit %s: %w", auditID, err)
	}
	return job, nil
}
