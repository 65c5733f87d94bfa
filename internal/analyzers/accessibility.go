package analyzers

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
)

// unlabeledInputTypes never need a label.
var unlabeledInputTypes = map[string]bool{
	"hidden": true, "submit": true, "button": true, "reset": true, "image": true,
}

// Accessibility runs static markup checks and folds in the measured
// accessibility score when the measurement service produced one.
type Accessibility struct {
	Registry *issues.Registry
}

func (a *Accessibility) Name() string { return findings.NameAccessibility }

func (a *Accessibility) Run(_ context.Context, pc PageContext) (Output[findings.AccessibilityResult], error) {
	var out Output[findings.AccessibilityResult]
	doc, err := parse(pc)
	if err != nil {
		return out, fmt.Errorf("parse html: %w", err)
	}

	res := findings.EmptyAccessibility()
	res.Available = true
	if h := first(doc, atom.Html); h != nil {
		res.HasLang = strings.TrimSpace(attrOr(h, "lang")) != ""
	}
	for _, img := range elements(doc, atom.Img) {
		if _, ok := attr(img, "alt"); !ok && !strings.EqualFold(attrOr(img, "role"), "presentation") {
			res.ImagesMissingAlt++
		}
	}

	labelled := map[string]bool{}
	for _, l := range elements(doc, atom.Label) {
		if id := attrOr(l, "for"); id != "" {
			labelled[id] = true
		}
	}
	for _, in := range elements(doc, atom.Input, atom.Select, atom.Textarea) {
		if in.DataAtom == atom.Input && unlabeledInputTypes[strings.ToLower(attrOr(in, "type"))] {
			continue
		}
		if hasAriaName(in) || labelled[attrOr(in, "id")] || insideLabel(in) {
			continue
		}
		res.InputsWithoutLabel++
	}

	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch {
		case n.DataAtom == atom.A:
			if _, ok := attr(n, "href"); ok && accessibleName(n) == "" {
				res.EmptyLinks++
			}
			if isSkipLink(n) {
				res.HasSkipLink = true
			}
		case n.DataAtom == atom.Button, strings.EqualFold(attrOr(n, "role"), "button"):
			if accessibleName(n) == "" {
				res.EmptyButtons++
			}
		}
		if n.DataAtom == atom.Main || strings.EqualFold(attrOr(n, "role"), "main") {
			res.HasMainLandmark = true
		}
		return true
	})

	prev := 0
	for _, h := range elements(doc, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6) {
		level := headingLevel(h)
		if prev > 0 && level > prev+1 {
			res.HeadingSkips++
		}
		prev = level
	}

	if s, ok := pc.Measured[findings.NameAccessibility]; ok {
		res.MeasuredScore = &s
	}

	out.Result = res
	out.Issues = a.issues(res)
	return out, nil
}

func headingLevel(n *html.Node) int {
	if len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6' {
		return int(n.Data[1] - '0')
	}
	return 0
}

func hasAriaName(n *html.Node) bool {
	return strings.TrimSpace(attrOr(n, "aria-label")) != "" ||
		attrOr(n, "aria-labelledby") != "" ||
		strings.TrimSpace(attrOr(n, "title")) != ""
}

func insideLabel(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Label {
			return true
		}
	}
	return false
}

// accessibleName approximates the computed name: aria attributes, visible
// text, then alt text of contained images.
func accessibleName(n *html.Node) string {
	if hasAriaName(n) {
		return "name"
	}
	if t := strings.TrimSpace(text(n)); t != "" {
		return t
	}
	for _, img := range elements(n, atom.Img) {
		if alt := strings.TrimSpace(attrOr(img, "alt")); alt != "" {
			return alt
		}
	}
	return ""
}

func isSkipLink(n *html.Node) bool {
	if !strings.HasPrefix(attrOr(n, "href"), "#") || attrOr(n, "href") == "#" {
		return false
	}
	return strings.Contains(strings.ToLower(text(n)), "skip") ||
		strings.Contains(strings.ToLower(attrOr(n, "class")), "skip")
}

func (a *Accessibility) issues(res findings.AccessibilityResult) []domain.AuditIssue {
	reg := registry(a.Registry)
	var out []domain.AuditIssue
	if !res.HasLang {
		out = append(out, reg.Issue("accessibility.missing-lang", ""))
	}
	if res.ImagesMissingAlt > 0 {
		out = append(out, reg.Issuef("accessibility.missing-alt", "%d images have no alt attribute.", res.ImagesMissingAlt))
	}
	if res.InputsWithoutLabel > 0 {
		out = append(out, reg.Issuef("accessibility.unlabeled-inputs", "%d form fields have no label.", res.InputsWithoutLabel))
	}
	if res.EmptyLinks > 0 {
		out = append(out, reg.Issuef("accessibility.empty-links", "%d links have no accessible name.", res.EmptyLinks))
	}
	if res.EmptyButtons > 0 {
		out = append(out, reg.Issuef("accessibility.empty-buttons", "%d buttons have no accessible name.", res.EmptyButtons))
	}
	if !res.HasMainLandmark {
		out = append(out, reg.Issue("accessibility.missing-main", ""))
	}
	if res.HeadingSkips > 0 {
		out = append(out, reg.Issuef("accessibility.heading-skips", "%d heading levels are skipped.", res.HeadingSkips))
	}
	return out
}

var _ Analyzer[findings.AccessibilityResult] = (*Accessibility)(nil)
