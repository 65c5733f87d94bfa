package scoring

import (
	"fmt"

	"pageaudit/internal/findings"
)

// Accessibility is deduction-based on HTML checks, plus a penalty when the
// measured accessibility score is below 90.
func Accessibility(r findings.Results) ScoreBreakdown {
	bl := deductionBased(CategoryAccessibility)
	a := r.Accessibility
	if !a.Available {
		return bl.unavailable("Accessibility")
	}

	if !a.HasLang {
		bl.deduct(10, "No document language",
			"Screen readers need the lang attribute to pick the right pronunciation.",
			`Add lang to <html>, e.g. <html lang="en">.`, "content.lang")
	}
	bl.deductEach(a.ImagesMissingAlt, 3, 15,
		fmt.Sprintf("%d images without alt text", a.ImagesMissingAlt),
		"Blind visitors cannot tell what these images show.",
		"Add alt text, or alt=\"\" for decorative images.", "content.imagesMissingAlt")
	bl.deductEach(a.InputsWithoutLabel, 5, 20,
		fmt.Sprintf("%d form fields without labels", a.InputsWithoutLabel),
		"Unlabeled fields cannot be filled in with assistive technology.",
		"Associate each field with a <label for> or aria-label.", "")
	bl.deductEach(a.EmptyLinks, 2, 10,
		fmt.Sprintf("%d links without text", a.EmptyLinks),
		"Screen readers announce these links as just \"link\".",
		"Give icon links an aria-label.", "")
	bl.deductEach(a.EmptyButtons, 3, 10,
		fmt.Sprintf("%d buttons without text", a.EmptyButtons),
		"Screen readers cannot say what these buttons do.",
		"Give icon buttons an aria-label.", "")
	if !a.HasMainLandmark {
		bl.deduct(5, "No main landmark",
			"Keyboard and screen reader users cannot jump to the main content.",
			"Wrap the primary content in <main>.", "")
	}
	bl.deductEach(a.HeadingSkips, 2, 6,
		fmt.Sprintf("%d skipped heading levels", a.HeadingSkips),
		"Skipped levels break the outline screen reader users navigate by.",
		"Use heading levels in order.", "content.headings")
	if a.MeasuredScore != nil && *a.MeasuredScore < 90 {
		bl.deduct(Round((90-*a.MeasuredScore)/2),
			fmt.Sprintf("Automated accessibility audit scored %.0f", *a.MeasuredScore),
			"The browser accessibility audit found contrast, ARIA or naming failures.",
			"Review the failing checks in the accessibility audit.", "")
	}

	if !a.HasSkipLink {
		bl.tip("Add a \"skip to content\" link for keyboard users.")
	}
	return bl.finish()
}
