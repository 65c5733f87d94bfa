package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Metric status labels.
const (
	StatusGood             = "good"
	StatusNeedsImprovement = "needs-improvement"
	StatusPoor             = "poor"
)

// Threshold is the good/poor pair for one metric.
type Threshold struct {
	Good float64 `json:"good"`
	Poor float64 `json:"poor"`
}

// MetricSpec describes how one measured value is scored.
type MetricSpec struct {
	Key       string
	Label     string
	Threshold Threshold
	Weight    float64
	Unitless  bool
}

// Metrics are the known web-vitals; weights sum to 1 over the weighted ones.
var Metrics = map[string]MetricSpec{
	"fcp":  {Key: "fcp", Label: "First Contentful Paint", Threshold: Threshold{1800, 3000}, Weight: 0.10},
	"si":   {Key: "si", Label: "Speed Index", Threshold: Threshold{3400, 5800}, Weight: 0.10},
	"lcp":  {Key: "lcp", Label: "Largest Contentful Paint", Threshold: Threshold{2500, 4000}, Weight: 0.25},
	"tbt":  {Key: "tbt", Label: "Total Blocking Time", Threshold: Threshold{200, 600}, Weight: 0.30},
	"cls":  {Key: "cls", Label: "Cumulative Layout Shift", Threshold: Threshold{0.1, 0.25}, Weight: 0.25, Unitless: true},
	"ttfb": {Key: "ttfb", Label: "Time to First Byte", Threshold: Threshold{800, 1800}},
	"tti":  {Key: "tti", Label: "Time to Interactive", Threshold: Threshold{3800, 7300}},
	"inp":  {Key: "inp", Label: "Interaction to Next Paint", Threshold: Threshold{200, 500}},
}

// MetricData is a scored metric value.
type MetricData struct {
	Value         float64   `json:"value"`
	Score         int       `json:"score"`
	Weight        float64   `json:"weight"`
	WeightedScore float64   `json:"weightedScore"`
	Status        string    `json:"status"`
	Threshold     Threshold `json:"threshold"`
	DisplayValue  string    `json:"displayValue"`
}

// ScoreMetric scores value against the threshold of key. The boolean is false
// for unknown keys.
func ScoreMetric(key string, value float64) (MetricData, bool) {
	spec, ok := Metrics[key]
	if !ok {
		return MetricData{}, false
	}
	score := metricScore(value, spec.Threshold)
	return MetricData{
		Value:         value,
		Score:         score,
		Weight:        spec.Weight,
		WeightedScore: float64(score) * spec.Weight,
		Status:        metricStatus(value, spec.Threshold),
		Threshold:     spec.Threshold,
		DisplayValue:  displayValue(value, spec.Unitless),
	}, true
}

// metricScore is piecewise: 90-100 at or under good, 90 down to 50 between the
// thresholds, 49 down to 0 at or past poor.
func metricScore(value float64, t Threshold) int {
	if value < 0 {
		value = 0
	}
	var s float64
	switch {
	case value <= t.Good:
		if t.Good <= 0 {
			s = 100
		} else {
			s = 90 + (1-value/t.Good)*10
		}
	case value >= t.Poor:
		overage := (value - t.Poor) / t.Poor
		s = math.Max(0, 49-overage*49)
	default:
		s = 90 - (value-t.Good)/(t.Poor-t.Good)*40
	}
	return Clamp(Round(s))
}

func metricStatus(value float64, t Threshold) string {
	switch {
	case value <= t.Good:
		return StatusGood
	case value >= t.Poor:
		return StatusPoor
	default:
		return StatusNeedsImprovement
	}
}

func displayValue(value float64, unitless bool) string {
	if unitless {
		return fmt.Sprintf("%.3g", value)
	}
	if value >= 1000 {
		return fmt.Sprintf("%.1f s", value/1000)
	}
	return fmt.Sprintf("%.0f ms", value)
}

// ScoreMetrics scores every known metric in values.
func ScoreMetrics(values map[string]float64) map[string]MetricData {
	out := make(map[string]MetricData, len(values))
	for key, v := range values {
		if md, ok := ScoreMetric(key, v); ok {
			out[key] = md
		}
	}
	return out
}

// sortedMetricKeys returns weighted metric keys, heaviest first.
func sortedMetricKeys() []string {
	keys := make([]string, 0, len(Metrics))
	for k, spec := range Metrics {
		if spec.Weight > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		wi, wj := Metrics[keys[i]].Weight, Metrics[keys[j]].Weight
		if wi != wj {
			return wi > wj
		}
		return keys[i] < keys[j]
	})
	return keys
}
