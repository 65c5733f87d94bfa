package auditrunner

import (
	"context"
	"log/slog"
	"time"

	"pageaudit/internal/ports"
)

// Processor performs the audit work for a claimed job and returns the
// resolved URL of the page.
type Processor interface {
	Process(ctx context.Context, job ports.AuditJob) (resolvedURL string, err error)
}

// Run starts worker goroutines that claim jobs and process them. It returns
// immediately; workers stop when ctx is done.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, logger *slog.Logger) {
	if concurrency < 1 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	jobsCh := make(chan ports.AuditJob, concurrency)

	// dispatcher loop
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		defer close(jobsCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						if ctx.Err() == nil {
							logger.Error("job claim failed", "error", err)
						}
						break
					}
					if !found {
						break
					}
					select {
					case jobsCh <- job:
					case <-ctx.Done():
						// Claimed but never started: leave a reason behind.
						_ = repo.MarkFailed(context.WithoutCancel(ctx), job.ID, "worker shutting down")
						return
					}
				}
			}
		}
	}()

	// workers
	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			log := logger.With("worker", idx)
			for job := range jobsCh {
				finish(ctx, repo, processor, job, log)
			}
		}(i)
	}
}

// ProcessInline starts and processes a specific audit synchronously using the
// same processor as the background workers.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor Processor, auditID string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	job, err := repo.StartJobForAudit(ctx, auditID)
	if err != nil {
		return err
	}
	return finish(ctx, repo, processor, job, logger.With("inline", true))
}

func finish(ctx context.Context, repo ports.JobRepository, processor Processor, job ports.AuditJob, log *slog.Logger) error {
	start := time.Now()
	resolved, err := processor.Process(ctx, job)
	// Bookkeeping must land even when ctx was cancelled mid-audit.
	bg := context.WithoutCancel(ctx)
	if err != nil {
		if markErr := repo.MarkFailed(bg, job.ID, err.Error()); markErr != nil {
			log.Error("mark failed", "job", job.ID, "error", markErr)
		}
		log.Warn("audit failed", "job", job.ID, "audit", job.AuditID, "url", job.URL, "error", err)
		return err
	}
	if err := repo.MarkCompleted(bg, job.ID, resolved); err != nil {
		log.Error("mark completed", "job", job.ID, "error", err)
		return err
	}
	log.Info("audit completed", "job", job.ID, "audit", job.AuditID, "url", job.URL, "duration", time.Since(start))
	return nil
}
