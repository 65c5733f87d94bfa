// Package audits queues page audits and serves their status, reports and
// screenshots.
package audits

import (
	"context"
	"errors"
	"fmt"

	"pageaudit/internal/audit"
	"pageaudit/internal/domain"
	"pageaudit/internal/ports"
	"pageaudit/internal/report"
)

// ErrNotFound is returned for unknown audits, reports and screenshots.
var ErrNotFound = ports.ErrNotFound

// ErrNotCompleted is returned by Report for audits still queued, running or failed.
var ErrNotCompleted = errors.New("audit not completed")

var _ ports.Auditor = (*Service)(nil)

type Service struct {
	domains ports.DomainRepository
	audits  ports.AuditRepository
	reports ports.ReportReader
}

func New(domains ports.DomainRepository, audits ports.AuditRepository, reports ports.ReportReader) *Service {
	return &Service{domains: domains, audits: audits, reports: reports}
}

// Enqueue validates rawurl, records its registrable domain and queues an
// audit. Invalid input wraps audit.ErrInvalidURL.
func (s *Service) Enqueue(ctx context.Context, rawurl string) (string, error) {
	target, err := audit.Normalize(rawurl)
	if err != nil {
		return "", err
	}
	registrable, err := domain.RegistrableDomain(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", audit.ErrInvalidURL, err)
	}
	domainID, err := s.domains.GetOrCreate(ctx, registrable)
	if err != nil {
		return "", fmt.Errorf("record domain %s: %w", registrable, err)
	}
	auditID, err := s.audits.Create(ctx, domainID, target)
	if err != nil {
		return "", fmt.Errorf("create audit: %w", err)
	}
	return auditID, nil
}

func (s *Service) Status(ctx context.Context, auditID string) (domain.Audit, error) {
	return s.audits.Get(ctx, auditID)
}

// Report returns the stored report of a completed audit.
func (s *Service) Report(ctx context.Context, auditID string) (*report.Result, error) {
	a, err := s.audits.Get(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: audit %s is %s", ErrNotCompleted, auditID, a.Status)
	}
	return s.reports.GetReport(ctx, auditID)
}

func (s *Service) Screenshot(ctx context.Context, auditID, name string) (domain.Screenshot, error) {
	return s.reports.GetScreenshot(ctx, auditID, name)
}
