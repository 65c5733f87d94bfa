package domain

import "time"

// Core domain models used internally. API types live in internal/api; keep these
// decoupled from the wire shape.

type Domain struct {
	ID                string
	RegistrableDomain string
	FirstSeenAt       time.Time
}

// Audit is one requested audit of a single page.
type Audit struct {
	ID          string
	DomainRef   string
	URL         string
	ResolvedURL string
	Status      string // queued|running|completed|failed
	Progress    float64
	Error       string
	StartedAt   *time.Time
	FinishedAt  *time.Time
}

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Score is the composite score row stored per audit.
type Score struct {
	ID            string
	DomainRef     string
	AuditRef      string
	Performance   int
	Visibility    int
	Security      int
	Accessibility int
	Trust         int
	Overall       int
	Badges        []string
	ComputedAt    time.Time
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// AuditIssue is a templated problem report produced by an analyzer.
// Duplicates across analyzers are expected and kept.
type AuditIssue struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Recommendation string   `json:"recommendation,omitempty"`
	Impact         string   `json:"impact,omitempty"`
	Effort         Level    `json:"effort,omitempty"`
}

type ScoreImprovement struct {
	Category string `json:"category"`
	Points   int    `json:"points"`
}

// Suggestion is a remediation hint derived from facts and scores.
type Suggestion struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Category         string             `json:"category"`
	Impact           Level              `json:"impact"`
	Effort           Level              `json:"effort"`
	ScoreImprovement []ScoreImprovement `json:"scoreImprovement,omitempty"`
	RelatedFact      string             `json:"relatedFact,omitempty"`
	HowToFix         string             `json:"howToFix,omitempty"`
}

// Viewport describes one screenshot configuration. Emulate switches between
// device emulation (mobile UA, touch, DPR) and a plain window resize.
type Viewport struct {
	Name              string
	Width             int
	Height            int
	DeviceScaleFactor float64
	Mobile            bool
	Emulate           bool
}

// Screenshot is a captured image; Data is stored apart from the JSON report.
type Screenshot struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int    `json:"size"`
	Data   []byte `json:"-"`
}

// HasImage reports whether the image bytes are present. Screenshots decoded
// from a JSON report carry metadata only.
func (s Screenshot) HasImage() bool { return len(s.Data) > 0 }

// DefaultViewports are captured when the caller does not provide any.
func DefaultViewports() []Viewport {
	return []Viewport{
		{Name: "desktop", Width: 1920, Height: 1080, DeviceScaleFactor: 1},
		{Name: "tablet", Width: 768, Height: 1024, DeviceScaleFactor: 2, Mobile: true, Emulate: true},
		{Name: "mobile", Width: 375, Height: 812, DeviceScaleFactor: 3, Mobile: true, Emulate: true},
	}
}
