package ports

import (
	"context"
	"errors"

	"pageaudit/internal/domain"
	"pageaudit/internal/report"
)

// ErrNotFound is returned by stores when the requested row or file does not exist.
var ErrNotFound = errors.New("not found")

// DomainRepository stores and fetches domains by registrable domain (eTLD+1).
type DomainRepository interface {
	GetOrCreate(ctx context.Context, registrable string) (domainID string, err error)
}

// AuditRepository manages audit records and job tracking.
type AuditRepository interface {
	Create(ctx context.Context, domainID string, url string) (auditID string, err error)
	Get(ctx context.Context, auditID string) (domain.Audit, error)
}

// ScoreRepository stores composite scores and returns the latest per domain.
type ScoreRepository interface {
	SaveScore(ctx context.Context, score domain.Score) error
	GetLatestByDomain(ctx context.Context, registrable string) (score domain.Score, exists bool, err error)
}

// ReportStore persists finished reports. Screenshot bytes are stored apart
// from the JSON body.
type ReportStore interface {
	SaveReport(ctx context.Context, r *report.Result) error
	SaveScreenshot(ctx context.Context, auditID string, shot domain.Screenshot) error
}

// ReportReader reads back what a ReportStore saved.
type ReportReader interface {
	GetReport(ctx context.Context, auditID string) (*report.Result, error)
	GetScreenshot(ctx context.Context, auditID, name string) (domain.Screenshot, error)
}
