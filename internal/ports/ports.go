package ports

import (
	"context"

	"pageaudit/internal/domain"
	"pageaudit/internal/report"
)

// Auditor enqueues and tracks audits.
type Auditor interface {
	Enqueue(ctx context.Context, url string) (auditID string, err error)
	Status(ctx context.Context, auditID string) (domain.Audit, error)
	Report(ctx context.Context, auditID string) (*report.Result, error)
	Screenshot(ctx context.Context, auditID, name string) (domain.Screenshot, error)
}

// Profiles provides the latest scores for domains.
type Profiles interface {
	GetLatest(ctx context.Context, domain string) (domain.Score, error)
}
