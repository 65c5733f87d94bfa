package auditrunner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/audit"
	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/logging"
	"pageaudit/internal/ports"
	"pageaudit/internal/report"
)

type fakeJobs struct {
	mu        sync.Mutex
	queue     []ports.AuditJob
	progress  map[string][]float64
	completed map[string]string
	failed    map[string]string
}

func newFakeJobs(jobs ...ports.AuditJob) *fakeJobs {
	return &fakeJobs{
		queue:     jobs,
		progress:  map[string][]float64{},
		completed: map[string]string{},
		failed:    map[string]string{},
	}
}

func (f *fakeJobs) ClaimNext(context.Context) (ports.AuditJob, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return ports.AuditJob{}, false, nil
	}
	job := f.queue[0]
	f.queue = f.queue[1:]
	return job, true, nil
}

func (f *fakeJobs) UpdateAuditProgress(_ context.Context, auditID string, p float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress[auditID] = append(f.progress[auditID], p)
	return nil
}

func (f *fakeJobs) MarkCompleted(_ context.Context, jobID, resolved string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[jobID] = resolved
	return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, jobID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[jobID] = reason
	return nil
}

func (f *fakeJobs) StartJobForAudit(_ context.Context, auditID string) (ports.AuditJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, job := range f.queue {
		if job.AuditID == auditID {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return job, nil
		}
	}
	return ports.AuditJob{}, ports.ErrNotFound
}

func (f *fakeJobs) snapshot() (completed, failed map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	completed, failed = map[string]string{}, map[string]string{}
	for k, v := range f.completed {
		completed[k] = v
	}
	for k, v := range f.failed {
		failed[k] = v
	}
	return completed, failed
}

type funcProcessor func(ctx context.Context, job ports.AuditJob) (string, error)

func (f funcProcessor) Process(ctx context.Context, job ports.AuditJob) (string, error) {
	return f(ctx, job)
}

func TestRunProcessesQueuedJobs(t *testing.T) {
	jobs := newFakeJobs(
		ports.AuditJob{ID: "j1", AuditID: "a1", URL: "https://ok.test/"},
		ports.AuditJob{ID: "j2", AuditID: "a2", URL: "https://broken.test/"},
		ports.AuditJob{ID: "j3", AuditID: "a3", URL: "https://ok.test/x"},
	)
	proc := funcProcessor(func(_ context.Context, job ports.AuditJob) (string, error) {
		if job.AuditID == "a2" {
			return "", errors.New("page unreachable")
		}
		return job.URL + "#resolved", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	Run(ctx, jobs, proc, 2, 5*time.Millisecond, logging.Discard())

	require.Eventually(t, func() bool {
		completed, failed := jobs.snapshot()
		return len(completed) == 2 && len(failed) == 1
	}, 2*time.Second, 5*time.Millisecond)

	completed, failed := jobs.snapshot()
	assert.Equal(t, "https://ok.test/#resolved", completed["j1"])
	assert.Equal(t, "page unreachable", failed["j2"])
}

func TestRunWithoutWorkersIsNoop(t *testing.T) {
	jobs := newFakeJobs(ports.AuditJob{ID: "j1", AuditID: "a1"})
	Run(context.Background(), jobs, nil, 0, time.Millisecond, nil)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, jobs.queue, 1)
}

func TestProcessInline(t *testing.T) {
	jobs := newFakeJobs(
		ports.AuditJob{ID: "j1", AuditID: "a1", URL: "https://ok.test/"},
		ports.AuditJob{ID: "j2", AuditID: "a2", URL: "https://bad.test/"},
	)
	proc := funcProcessor(func(_ context.Context, job ports.AuditJob) (string, error) {
		if job.ID == "j2" {
			return "", audit.ErrTimeout
		}
		return job.URL, nil
	})
	ctx := context.Background()

	require.NoError(t, ProcessInline(ctx, jobs, proc, "a1", logging.Discard()))
	assert.ErrorIs(t, ProcessInline(ctx, jobs, proc, "a2", logging.Discard()), audit.ErrTimeout)
	assert.ErrorIs(t, ProcessInline(ctx, jobs, proc, "a1", logging.Discard()), ports.ErrNotFound)

	completed, failed := jobs.snapshot()
	assert.Equal(t, map[string]string{"j1": "https://ok.test/"}, completed)
	assert.Contains(t, failed["j2"], "timed out")
}

type fakeAuditor struct {
	res *report.Result
	err error
}

func (f fakeAuditor) Run(_ context.Context, cfg audit.Config) (*report.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	cfg.OnProgress(5, "Launching browser")
	cfg.OnProgress(5, "Checking links")
	cfg.OnProgress(5, "again")
	cfg.OnProgress(100, "Done")
	res := *f.res
	res.ID = cfg.ID
	res.URL = cfg.URL
	return &res, nil
}

type memoryStore struct {
	calls  []string
	scores []domain.Score
}

func (m *memoryStore) SaveReport(_ context.Context, r *report.Result) error {
	m.calls = append(m.calls, "report:"+r.ID)
	return nil
}

func (m *memoryStore) SaveScreenshot(_ context.Context, id string, shot domain.Screenshot) error {
	m.calls = append(m.calls, "shot:"+id+"/"+shot.Name)
	return nil
}

func (m *memoryStore) SaveScore(_ context.Context, s domain.Score) error {
	m.scores = append(m.scores, s)
	return nil
}

func (m *memoryStore) GetLatestByDomain(context.Context, string) (domain.Score, bool, error) {
	return domain.Score{}, false, nil
}

func TestAuditProcessorPersistsInOrder(t *testing.T) {
	res := report.Assemble(report.Input{
		URL:         "https://www.acme.co.uk/",
		ResolvedURL: "https://www.acme.co.uk/home",
		Results:     findings.Empty(),
		Screenshots: []domain.Screenshot{{Name: "desktop"}, {Name: "mobile"}},
	})
	jobs := newFakeJobs()
	store := &memoryStore{}
	p := &AuditProcessor{
		Auditor: fakeAuditor{res: res},
		Jobs:    jobs,
		Reports: store,
		Scores:  store,
		Logger:  logging.Discard(),
	}

	resolved, err := p.Process(context.Background(), ports.AuditJob{ID: "j1", AuditID: "a1", URL: "https://www.acme.co.uk/"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.acme.co.uk/home", resolved)
	assert.Equal(t, []string{"report:a1", "shot:a1/desktop", "shot:a1/mobile"}, store.calls)
	require.Len(t, store.scores, 1)
	assert.Equal(t, "acme.co.uk", store.scores[0].DomainRef)
	assert.Equal(t, "a1", store.scores[0].AuditRef)
	assert.Equal(t, []float64{5, 100}, jobs.progress["a1"])
}

func TestAuditProcessorReturnsAuditError(t *testing.T) {
	store := &memoryStore{}
	p := &AuditProcessor{Auditor: fakeAuditor{err: audit.ErrUnreachable}, Jobs: newFakeJobs(), Reports: store, Scores: store}

	_, err := p.Process(context.Background(), ports.AuditJob{ID: "j1", AuditID: "a1", URL: "https://gone.test/"})
	assert.ErrorIs(t, err, audit.ErrUnreachable)
	assert.Empty(t, store.calls)
}
