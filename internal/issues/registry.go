// Package issues holds the catalog of issue templates analyzers use to report
// problems. Templates are embedded YAML keyed by issue id.
package issues

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"pageaudit/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CategoryScannerFailure is the category of synthetic analyzer-failure issues.
const CategoryScannerFailure = "scanner failure"

// Template is the static part of an issue.
type Template struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	Severity       string `yaml:"severity"`
	Category       string `yaml:"category"`
	Recommendation string `yaml:"recommendation"`
	Impact         string `yaml:"impact"`
	Effort         string `yaml:"effort"`
}

// Registry maps issue ids to templates.
type Registry struct {
	templates map[string]Template
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry built from the embedded catalog.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("issues: embedded catalog: %v", err))
		}
		defaultReg = reg
	})
	return defaultReg
}

// Load parses a YAML catalog and validates every template.
func Load(data []byte) (*Registry, error) {
	var templates map[string]Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for id, t := range templates {
		if strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("issue %s: missing title", id)
		}
		switch domain.Severity(t.Severity) {
		case domain.SeverityCritical, domain.SeverityWarning, domain.SeverityInfo, domain.SeveritySuccess:
		default:
			return nil, fmt.Errorf("issue %s: invalid severity %q", id, t.Severity)
		}
		switch domain.Level(t.Effort) {
		case "", domain.LevelLow, domain.LevelMedium, domain.LevelHigh:
		default:
			return nil, fmt.Errorf("issue %s: invalid effort %q", id, t.Effort)
		}
	}
	return &Registry{templates: templates}, nil
}

// Has reports whether id is in the catalog.
func (r *Registry) Has(id string) bool {
	_, ok := r.templates[id]
	return ok
}

// IDs returns all template ids sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Issue materializes the template for id. A non-empty detail replaces the
// template description. Unknown ids produce an info issue in category "general".
func (r *Registry) Issue(id, detail string) domain.AuditIssue {
	t, ok := r.templates[id]
	if !ok {
		desc := detail
		if desc == "" {
			desc = id
		}
		return domain.AuditIssue{
			ID:          id,
			Title:       id,
			Description: desc,
			Severity:    domain.SeverityInfo,
			Category:    "general",
		}
	}
	desc := t.Description
	if detail != "" {
		desc = detail
	}
	return domain.AuditIssue{
		ID:             id,
		Title:          t.Title,
		Description:    desc,
		Severity:       domain.Severity(t.Severity),
		Category:       t.Category,
		Recommendation: t.Recommendation,
		Impact:         t.Impact,
		Effort:         domain.Level(t.Effort),
	}
}

// Issuef is Issue with a formatted detail.
func (r *Registry) Issuef(id, format string, args ...any) domain.AuditIssue {
	return r.Issue(id, fmt.Sprintf(format, args...))
}

// ScannerFailure builds the synthetic issue recorded when an analyzer fails.
// It does not touch the catalog, so recording a failure cannot fail itself.
func ScannerFailure(analyzer string, err error) domain.AuditIssue {
	return domain.AuditIssue{
		ID:             "scanner.failure." + analyzer,
		Title:          fmt.Sprintf("%s scanner failed", analyzer),
		Description:    fmt.Sprintf("The %s scanner failed: %v", analyzer, err),
		Severity:       domain.SeverityInfo,
		Category:       CategoryScannerFailure,
		Recommendation: "Re-run the audit. If the failure persists the page may block automated checks.",
		Effort:         domain.LevelLow,
	}
}
