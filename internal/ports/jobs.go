package ports

import "context"

type AuditJob struct {
	ID      string
	AuditID string
	URL     string
}

// JobRepository supports claiming and updating audit jobs.
type JobRepository interface {
	ClaimNext(ctx context.Context) (job AuditJob, found bool, err error)
	UpdateAuditProgress(ctx context.Context, auditID string, progress float64) error
	MarkCompleted(ctx context.Context, jobID string, resolvedURL string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	StartJobForAudit(ctx context.Context, auditID string) (job AuditJob, err error)
}
