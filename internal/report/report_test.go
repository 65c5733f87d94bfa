package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
	"pageaudit/internal/scoring"
)

func sampleInput() Input {
	r := findings.Empty()
	r.SEO = findings.EmptySEO()
	r.SEO.Available = true
	r.SEO.Title = "Acme Plumbing | Emergency plumbers in Springfield"
	r.Security = findings.SecurityResult{Available: true, HTTPS: true, PresentHeaders: []string{"X-Frame-Options"}}
	r.Failed = []string{findings.NameSocial}
	r.Issues = []domain.AuditIssue{issues.ScannerFailure(findings.NameSocial, assert.AnError)}

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return Input{
		ID:          "a1",
		URL:         "https://acme.example",
		ResolvedURL: "http://acme.example/",
		StartedAt:   start,
		CompletedAt: start.Add(42 * time.Second),
		Results:     r,
		Screenshots: []domain.Screenshot{{Name: "desktop", Width: 1920, Height: 1080, Data: []byte{1, 2, 3}}},
	}
}

func TestAssemble(t *testing.T) {
	res := Assemble(sampleInput())

	assert.Equal(t, "http://acme.example/", res.ResolvedURL)
	assert.Equal(t, "http://acme.example/", res.Facts.URL)
	assert.Equal(t, 42*time.Second, res.Duration())
	assert.Equal(t, 54, res.NewScores.Security)
	assert.Equal(t, res.NewScores.Security, res.ScoreBreakdowns.Details[scoring.CategorySecurity].Score)
	assert.Equal(t, []string{findings.NameSocial}, res.FailedAnalyzers)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, issues.CategoryScannerFailure, res.Issues[0].Category)
	assert.Equal(t, res.Issues, res.Legacy.Issues)
	assert.False(t, res.Legacy.Overall == 0)
	_, hasSocial := res.Legacy.Scores[scoring.CategorySocial]
	assert.False(t, hasSocial)
	assert.Positive(t, res.Suggestions.Len())

	row := res.Score("d1")
	assert.Equal(t, "a1", row.AuditRef)
	assert.Equal(t, res.NewScores.Overall, row.Overall)
}

func TestAssembleDefaultsResolvedURL(t *testing.T) {
	in := sampleInput()
	in.ResolvedURL = ""
	res := Assemble(in)
	assert.Equal(t, in.URL, res.ResolvedURL)
}

func TestJSONRoundTripOmitsScreenshotBytes(t *testing.T) {
	res := Assemble(sampleInput())

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))
	assert.Contains(t, buf.String(), "\n  \"newScores\"")
	assert.NotContains(t, buf.String(), "AQID")

	back, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, res.NewScores, back.NewScores)
	require.Len(t, back.Screenshots, 1)
	assert.Nil(t, back.Screenshots[0].Data)
	assert.Equal(t, 1920, back.Screenshots[0].Width)
}

func TestWriteMarkdown(t *testing.T) {
	res := Assemble(sampleInput())

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, res))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Audit: http://acme.example/"))
	assert.Contains(t, out, "**Requested:** https://acme.example")
	assert.Contains(t, out, "| security | 54 |")
	assert.Contains(t, out, "## Incomplete")
	assert.Contains(t, out, "- desktop (1920x1080)")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{"))
	assert.Error(t, err)
}
