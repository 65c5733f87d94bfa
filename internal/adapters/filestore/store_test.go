package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/report"
)

func sampleReport(id string, completed time.Time) *report.Result {
	return report.Assemble(report.Input{
		ID:          id,
		URL:         "https://acme.test/",
		StartedAt:   completed.Add(-time.Minute),
		CompletedAt: completed,
		Results:     findings.Empty(),
		Screenshots: []domain.Screenshot{{Name: "desktop", Width: 1920, Height: 1080, Size: 4, Data: []byte("\x89PNG")}},
	})
}

func TestSaveAndRead(t *testing.T) {
	ctx := context.Background()
	store, err := New(filepath.Join(t.TempDir(), "audits"))
	require.NoError(t, err)

	res := sampleReport("a1", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.SaveReport(ctx, res))
	require.NoError(t, store.SaveScreenshot(ctx, "a1", res.Screenshots[0]))

	assert.FileExists(t, filepath.Join(store.Dir(), "a1", "report.json"))
	assert.FileExists(t, filepath.Join(store.Dir(), "a1", "screenshots", "desktop.png"))
	assert.FileExists(t, filepath.Join(store.Dir(), "index.json"))

	back, err := store.GetReport(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, res.NewScores, back.NewScores)

	shot, err := store.GetScreenshot(ctx, "a1", "desktop")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), shot.Data)
	assert.Equal(t, 1920, shot.Width)
	assert.Equal(t, 1080, shot.Height)

	_, err = store.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetScreenshot(ctx, "a1", "mobile")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetReport(ctx, "../etc")
	assert.ErrorIs(t, err, ErrNotFound)

	matches, err := filepath.Glob(filepath.Join(store.Dir(), "a1", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSaveScreenshotWithoutImage(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.SaveScreenshot(context.Background(), "a1", domain.Screenshot{Name: "desktop", Width: 1920}))
	assert.NoFileExists(t, s.ScreenshotPath("a1", "desktop"))
}

func TestIndexOrderingAndReplace(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveReport(ctx, sampleReport("first", base)))
	require.NoError(t, store.SaveReport(ctx, sampleReport("second", base.Add(time.Hour))))
	again := sampleReport("first", base)
	again.Grade = "A"
	require.NoError(t, store.SaveReport(ctx, again))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].ID)
	assert.Equal(t, "first", entries[1].ID)
	assert.Equal(t, "A", entries[1].Grade)
	assert.Equal(t, filepath.Join("first", "report.json"), entries[1].Path)
}

func TestConcurrentSavesKeepEveryEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate Store values share only the lock file, like separate processes.
			store, err := New(dir)
			if err != nil {
				errs <- err
				return
			}
			errs <- store.SaveReport(ctx, sampleReport(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	store, err := New(dir)
	require.NoError(t, err)
	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestInvalidIDs(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, store.SaveReport(ctx, sampleReport("", time.Now())))
	assert.Error(t, store.SaveReport(ctx, sampleReport("a/b", time.Now())))
	assert.Error(t, store.SaveScreenshot(ctx, "a1", domain.Screenshot{Name: "..", Data: []byte("x")}))

	_, err = New(" ")
	assert.Error(t, err)
}

func TestCorruptIndex(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "index.json"), []byte("{"), 0o644))

	_, err = store.List(context.Background())
	assert.Error(t, err)
}
