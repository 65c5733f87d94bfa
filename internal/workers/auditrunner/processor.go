// Package auditrunner claims queued audit jobs and runs them through the audit
// orchestrator.
package auditrunner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pageaudit/internal/audit"
	"pageaudit/internal/domain"
	"pageaudit/internal/ports"
	"pageaudit/internal/report"
)

// Auditor runs one audit. *audit.Orchestrator satisfies it.
type Auditor interface {
	Run(ctx context.Context, cfg audit.Config) (*report.Result, error)
}

// AuditProcessor runs the orchestrator for a job and persists what it produced.
type AuditProcessor struct {
	Auditor  Auditor
	Jobs     ports.JobRepository
	Reports  ports.ReportStore
	Scores   ports.ScoreRepository
	Template audit.Config
	Logger   *slog.Logger
}

var _ Processor = (*AuditProcessor)(nil)

// Process audits job.URL. The report is saved before its screenshots, then
// the composite score row. A failed screenshot write is logged and skipped.
func (p *AuditProcessor) Process(ctx context.Context, job ports.AuditJob) (string, error) {
	log := p.logger().With("audit", job.AuditID)

	cfg := p.Template
	cfg.ID = job.AuditID
	cfg.URL = job.URL
	cfg.OnProgress = p.progress(ctx, job.AuditID, log)

	res, err := p.Auditor.Run(ctx, cfg)
	if err != nil {
		return "", err
	}

	if err := p.Reports.SaveReport(ctx, res); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	for _, shot := range res.Screenshots {
		if err := p.Reports.SaveScreenshot(ctx, res.ID, shot); err != nil {
			log.Warn("save screenshot failed", "screenshot", shot.Name, "error", err)
		}
	}

	registrable, err := domain.RegistrableDomain(res.URL)
	if err != nil {
		return "", fmt.Errorf("score domain: %w", err)
	}
	if p.Scores != nil {
		if err := p.Scores.SaveScore(ctx, res.Score(registrable)); err != nil {
			return "", fmt.Errorf("save score: %w", err)
		}
	}
	return res.ResolvedURL, nil
}

// progress forwards orchestrator milestones to the audit row. Messages that
// repeat the current milestone only go to the debug log.
func (p *AuditProcessor) progress(ctx context.Context, auditID string, log *slog.Logger) func(float64, string) {
	var (
		mu   sync.Mutex
		last float64
	)
	return func(percent float64, message string) {
		mu.Lock()
		defer mu.Unlock()
		if percent <= last {
			log.Debug("audit progress", "progress", percent, "message", message)
			return
		}
		last = percent
		if err := p.Jobs.UpdateAuditProgress(ctx, auditID, percent); err != nil {
			log.Warn("update progress failed", "progress", percent, "error", err)
		}
	}
}

func (p *AuditProcessor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
