// Package filestore writes audit reports and screenshots to a directory tree:
//
//	<dir>/index.json
//	<dir>/<id>/report.json
//	<dir>/<id>/screenshots/<name>.png
//
// index.json is guarded by a file lock so concurrent CLI runs can share a
// directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"pageaudit/internal/domain"
	"pageaudit/internal/ports"
	"pageaudit/internal/report"
)

// ErrNotFound is returned when a report or screenshot file does not exist.
var ErrNotFound = ports.ErrNotFound

var (
	_ ports.ReportStore  = (*Store)(nil)
	_ ports.ReportReader = (*Store)(nil)
)

const (
	indexFile  = "index.json"
	lockFile   = ".index.lock"
	reportFile = "report.json"
	shotsDir   = "screenshots"
)

// IndexEntry summarizes one saved report.
type IndexEntry struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ResolvedURL string    `json:"resolvedUrl"`
	Overall     int       `json:"overall"`
	Grade       string    `json:"grade"`
	CompletedAt time.Time `json:"completedAt"`
	Path        string    `json:"path"`
}

// Store is a report directory.
type Store struct {
	dir  string
	lock *flock.Flock
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("filestore: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{dir: dir, lock: flock.New(filepath.Join(dir, lockFile))}, nil
}

// Dir is the root directory.
func (s *Store) Dir() string { return s.dir }

// AuditDir is where files of one audit live.
func (s *Store) AuditDir(auditID string) string { return filepath.Join(s.dir, auditID) }

// SaveReport writes report.json and records the audit in index.json.
func (s *Store) SaveReport(ctx context.Context, r *report.Result) error {
	if err := validID(r.ID); err != nil {
		return err
	}
	var body strings.Builder
	if err := report.WriteJSON(&body, r); err != nil {
		return err
	}
	path := filepath.Join(s.AuditDir(r.ID), reportFile)
	if err := writeAtomic(path, []byte(body.String())); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return s.updateIndex(ctx, func(entries []IndexEntry) []IndexEntry {
		entry := IndexEntry{
			ID:          r.ID,
			URL:         r.URL,
			ResolvedURL: r.ResolvedURL,
			Overall:     r.NewScores.Overall,
			Grade:       r.Grade,
			CompletedAt: r.CompletedAt,
			Path:        filepath.Join(r.ID, reportFile),
		}
		for i := range entries {
			if entries[i].ID == r.ID {
				entries[i] = entry
				return entries
			}
		}
		return append(entries, entry)
	})
}

// SaveScreenshot writes screenshots/<name>.png.
func (s *Store) SaveScreenshot(_ context.Context, auditID string, shot domain.Screenshot) error {
	if err := validID(auditID); err != nil {
		return err
	}
	if err := validID(shot.Name); err != nil {
		return fmt.Errorf("screenshot name: %w", err)
	}
	if !shot.HasImage() {
		return nil
	}
	if err := writeAtomic(s.ScreenshotPath(auditID, shot.Name), shot.Data); err != nil {
		return fmt.Errorf("write screenshot %s: %w", shot.Name, err)
	}
	return nil
}

// ScreenshotPath is the file a screenshot is written to.
func (s *Store) ScreenshotPath(auditID, name string) string {
	return filepath.Join(s.AuditDir(auditID), shotsDir, name+".png")
}

func (s *Store) GetReport(_ context.Context, auditID string) (*report.Result, error) {
	if err := validID(auditID); err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.AuditDir(auditID), reportFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", auditID, err)
	}
	return report.Decode(data)
}

// GetScreenshot reads the PNG back. Dimensions come from the saved report.
func (s *Store) GetScreenshot(ctx context.Context, auditID, name string) (domain.Screenshot, error) {
	if validID(auditID) != nil || validID(name) != nil {
		return domain.Screenshot{}, ErrNotFound
	}
	data, err := os.ReadFile(s.ScreenshotPath(auditID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Screenshot{}, ErrNotFound
	}
	if err != nil {
		return domain.Screenshot{}, fmt.Errorf("read screenshot %s/%s: %w", auditID, name, err)
	}
	shot := domain.Screenshot{Name: name, Size: len(data), Data: data}
	if r, err := s.GetReport(ctx, auditID); err == nil {
		for _, meta := range r.Screenshots {
			if meta.Name == name {
				shot.Width, shot.Height = meta.Width, meta.Height
			}
		}
	}
	return shot, nil
}

// List returns the index, newest first.
func (s *Store) List(ctx context.Context) ([]IndexEntry, error) {
	if err := s.lockContext(ctx, false); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()
	entries, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

func (s *Store) updateIndex(ctx context.Context, fn func([]IndexEntry) []IndexEntry) error {
	if err := s.lockContext(ctx, true); err != nil {
		return err
	}
	defer s.lock.Unlock()

	entries, err := s.readIndex()
	if err != nil {
		return err
	}
	entries = fn(entries)
	sortEntries(entries)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, indexFile), append(data, '\n')); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func (s *Store) lockContext(ctx context.Context, exclusive bool) error {
	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLockContext(ctx, 50*time.Millisecond)
	} else {
		ok, err = s.lock.TryRLockContext(ctx, 50*time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("acquire index lock: %w", err)
	}
	if !ok {
		return errors.New("acquire index lock: not acquired")
	}
	return nil
}

func (s *Store) readIndex() ([]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []IndexEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return entries, nil
}

func sortEntries(entries []IndexEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})
}

// writeAtomic writes through a temp file and rename so readers never see a
// partial file.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// validID rejects names that would escape the store directory.
func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("filestore: invalid id %q", id)
	}
	return nil
}
