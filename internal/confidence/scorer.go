// Package confidence aggregates named sub-scores into a single [0,1] confidence value.
package confidence

// DefaultReviewThreshold is the confidence below which a finding should be reviewed
const DefaultReviewThreshold = 0.75

// Category boundaries
const (
	highThreshold   = 0.75
	mediumThreshold = 0.5
)

// Clamp limits v to the [0,1] range
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Score returns the weighted mean of the clamped criteria.
// A key missing from weights has weight 1.0. Empty criteria or a zero
// total weight yield 0.
func Score(criteria map[string]float64, weights map[string]float64) float64 {
	if len(criteria) == 0 {
		return 0.0
	}

	totalWeight := 0.0
	weighted := 0.0
	for name, value := range criteria {
		weight := 1.0
		if w, ok := weights[name]; ok {
			weight = w
		}
		if weight < 0 {
			weight = 0
		}
		weighted += weight * Clamp(value)
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}
	return Clamp(weighted / totalWeight)
}

// FlagForReview reports whether a confidence is below the review threshold
func FlagForReview(c, threshold float64) bool {
	return c < threshold
}

// Category buckets a confidence into "high", "medium" or "low"
func Category(c float64) string {
	switch {
	case c >= highThreshold:
		return "high"
	case c >= mediumThreshold:
		return "medium"
	default:
		return "low"
	}
}

// Ratio returns min(1, n/d) for d > 0, the saturating count used by analyzers
func Ratio(n int, d float64) float64 {
	if d <= 0 {
		return 0
	}
	return Clamp(float64(n) / d)
}
