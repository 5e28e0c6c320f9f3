// Package stats maintains rolling statistical baselines per metric and
// derives anomalies and trends from them.
package stats

import (
	"math"
	"time"

	"github.com/zenzone/guardian/internal/types"
)

// EngineConfig holds the statistics engine settings.
type EngineConfig struct {
	// WindowSize is the per-metric rolling window capacity. Default: 50.
	WindowSize int

	// MinSamples is the minimum window length before anomalies or trends
	// are computed. Default: 5.
	MinSamples int

	// ZScoreThreshold is the standardized deviation magnitude at which
	// the latest reading counts as an anomaly. Default: 2.0.
	ZScoreThreshold float64
}

// DefaultEngineConfig returns the default engine settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{WindowSize: 50, MinSamples: 5, ZScoreThreshold: 2.0}
}

// Engine holds one rolling window per metric. It is not safe for
// concurrent use; the scheduler is its only mutator.
type Engine struct {
	cfg     EngineConfig
	windows map[types.Metric]*Window
	latest  types.Sample
	has     bool
}

// NewEngine creates a statistics engine.
func NewEngine(cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.ZScoreThreshold <= 0 {
		cfg.ZScoreThreshold = def.ZScoreThreshold
	}

	windows := make(map[types.Metric]*Window, len(types.AllMetrics()))
	for _, m := range types.AllMetrics() {
		windows[m] = NewWindow(cfg.WindowSize)
	}
	return &Engine{cfg: cfg, windows: windows}
}

// Ingest appends a sample to every metric's window.
func (e *Engine) Ingest(s types.Sample) {
	for _, m := range types.AllMetrics() {
		e.windows[m].Push(s.Timestamp, s.Value(m))
	}
	e.latest = s
	e.has = true
}

// Latest returns the most recently ingested sample.
func (e *Engine) Latest() (types.Sample, bool) {
	return e.latest, e.has
}

// DetectAnomalies compares the latest reading of each metric against its
// window baseline. A window with zero spread cannot produce an anomaly;
// that is a valid state, not a fault. Sparse windows are skipped.
func (e *Engine) DetectAnomalies() []types.AnomalyRecord {
	if !e.has {
		return nil
	}

	var records []types.AnomalyRecord
	for _, m := range types.AllMetrics() {
		w := e.windows[m]
		if w.Len() < e.cfg.MinSamples {
			continue
		}
		stddev := w.StdDev()
		if stddev == 0 {
			continue
		}
		value := e.latest.Value(m)
		z := (value - w.Mean()) / stddev
		if math.Abs(z) >= e.cfg.ZScoreThreshold {
			records = append(records, types.AnomalyRecord{
				Metric:    m,
				Value:     value,
				ZScore:    z,
				Mean:      w.Mean(),
				StdDev:    stddev,
				Timestamp: e.latest.Timestamp,
			})
		}
	}
	return records
}

// Trend estimates the linear slope of a metric over its window and
// forecasts the value at the given horizon. Too few samples yields an
// insufficient_data estimate rather than an error.
func (e *Engine) Trend(m types.Metric, horizon time.Duration) types.TrendEstimate {
	w := e.windows[m]
	if w.Len() < e.cfg.MinSamples {
		return types.TrendEstimate{Metric: m, ForecastHorizon: horizon, Status: types.TrendInsufficientData}
	}

	slope := w.Slope()
	_, latest, _ := w.Latest()
	return types.TrendEstimate{
		Metric:          m,
		Slope:           slope,
		ForecastHorizon: horizon,
		ForecastValue:   latest + slope*horizon.Seconds(),
		Status:          types.TrendOK,
	}
}

// Trends returns estimates for all metrics in canonical order.
func (e *Engine) Trends(horizon time.Duration) []types.TrendEstimate {
	out := make([]types.TrendEstimate, 0, len(types.AllMetrics()))
	for _, m := range types.AllMetrics() {
		out = append(out, e.Trend(m, horizon))
	}
	return out
}

// Mean exposes a metric's baseline mean (used by the optimize phase).
func (e *Engine) Mean(m types.Metric) float64 { return e.windows[m].Mean() }

// StdDev exposes a metric's baseline standard deviation.
func (e *Engine) StdDev(m types.Metric) float64 { return e.windows[m].StdDev() }

// SampleCount returns the current window length for a metric.
func (e *Engine) SampleCount(m types.Metric) int { return e.windows[m].Len() }
