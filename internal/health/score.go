// Package health turns current readings into a single 0-100 score.
// Scoring is a pure function of its inputs: identical readings,
// thresholds, and weights always produce identical output, which keeps
// re-scoring on replay idempotent.
package health

import (
	"github.com/zenzone/guardian/internal/config"
	"github.com/zenzone/guardian/internal/types"
)

// EqualWeights assigns every metric the same influence.
func EqualWeights() map[types.Metric]float64 {
	w := make(map[types.Metric]float64, len(types.AllMetrics()))
	for _, m := range types.AllMetrics() {
		w[m] = 1
	}
	return w
}

// Score converts the latest readings into a HealthScore. Each metric is
// normalized to a penalty in [0,100]: zero below the warn threshold, a
// linear ramp from warn to critical, and 100 at or past critical. The
// weighted average of the penalties is subtracted from 100 and clamped.
func Score(latest map[types.Metric]float64, thresholds map[types.Metric]config.Thresholds, weights map[types.Metric]float64) types.HealthScore {
	if weights == nil {
		weights = EqualWeights()
	}

	factors := make(map[types.Metric]float64, len(types.AllMetrics()))
	var weighted, totalWeight float64
	for _, m := range types.AllMetrics() {
		th, ok := thresholds[m]
		if !ok {
			th = config.Thresholds{Warn: 70, Crit: 90}
		}
		p := penalty(latest[m], th)
		factors[m] = p

		w := weights[m]
		if w < 0 {
			w = 0
		}
		weighted += p * w
		totalWeight += w
	}

	value := 100.0
	if totalWeight > 0 {
		value = 100 - weighted/totalWeight
	}
	return types.HealthScore{Value: clamp(value), Factors: factors}
}

func penalty(v float64, th config.Thresholds) float64 {
	switch {
	case v <= th.Warn:
		return 0
	case v >= th.Crit || th.Crit <= th.Warn:
		return 100
	default:
		return (v - th.Warn) / (th.Crit - th.Warn) * 100
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
