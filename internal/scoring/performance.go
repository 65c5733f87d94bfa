package scoring

import (
	"fmt"

	"pageaudit/internal/findings"
)

// Performance scores the measured web-vitals. Each weighted metric costs its
// share of the points it misses out of 100.
func Performance(r findings.Results) ScoreBreakdown {
	bl := deductionBased(CategoryPerformance)
	p := r.Performance
	if !p.Available {
		return bl.unavailable("Performance")
	}

	scored := ScoreMetrics(p.Metrics)
	var totalWeight float64
	for _, key := range sortedMetricKeys() {
		if _, ok := scored[key]; ok {
			totalWeight += Metrics[key].Weight
		}
	}

	if totalWeight == 0 {
		measured, ok := p.Categories[CategoryPerformance]
		if !ok {
			return bl.unavailable("Performance")
		}
		bl.deduct(100-Clamp(Round(measured)),
			"Measured performance score",
			fmt.Sprintf("The measurement service rated performance %.0f/100.", measured),
			"Reduce page weight and render-blocking resources.",
			"speed")
		return bl.finish()
	}

	for _, key := range sortedMetricKeys() {
		md, ok := scored[key]
		if !ok {
			continue
		}
		spec := Metrics[key]
		share := spec.Weight / totalWeight
		points := Round(share * float64(100-md.Score))
		bl.deduct(points,
			fmt.Sprintf("%s is %s (%s)", spec.Label, md.Status, md.DisplayValue),
			fmt.Sprintf("%s scored %d/100 and carries %.0f%% of the performance score.", spec.Label, md.Score, share*100),
			metricFix(key),
			"speed."+key)
	}

	if md, ok := scored["lcp"]; ok && md.Status != StatusGood {
		bl.tip("Preload the hero image and serve it in a modern format to speed up LCP.")
	}
	if md, ok := scored["tbt"]; ok && md.Status != StatusGood {
		bl.tip("Defer non-critical JavaScript and split long tasks.")
	}
	if md, ok := scored["cls"]; ok && md.Status != StatusGood {
		bl.tip("Reserve space for images, embeds and ads with explicit width and height.")
	}
	return bl.finish()
}

func metricFix(key string) string {
	switch key {
	case "lcp":
		return "Optimize the largest image or text block: compress, preload and serve it from a CDN."
	case "fcp":
		return "Inline critical CSS and remove render-blocking scripts."
	case "si":
		return "Reduce the work done before first render and lazy-load below-the-fold content."
	case "tbt":
		return "Break up long JavaScript tasks and remove unused scripts."
	case "cls":
		return "Set explicit dimensions on media and avoid inserting content above existing content."
	default:
		return ""
	}
}
