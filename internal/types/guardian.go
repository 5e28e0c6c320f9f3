package types

import (
	"time"
)

// Metric identifies one of the monitored resource dimensions.
type Metric string

const (
	MetricCPU    Metric = "cpu"
	MetricMemory Metric = "memory"
	MetricDisk   Metric = "disk"
)

// AllMetrics returns the monitored metrics in canonical order.
func AllMetrics() []Metric {
	return []Metric{MetricCPU, MetricMemory, MetricDisk}
}

// Sample is one timestamped set of proxy readings. Percentages are in [0,100].
type Sample struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskPercent   float64   `json:"disk_percent"`
}

// Value returns the reading for the given metric.
func (s Sample) Value(m Metric) float64 {
	switch m {
	case MetricCPU:
		return s.CPUPercent
	case MetricMemory:
		return s.MemoryPercent
	case MetricDisk:
		return s.DiskPercent
	}
	return 0
}

// AnomalyRecord is produced when the latest reading of a metric deviates
// from the rolling baseline by more than the configured number of
// standard deviations.
type AnomalyRecord struct {
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	ZScore    float64   `json:"zscore"`
	Mean      float64   `json:"baseline_mean"`
	StdDev    float64   `json:"baseline_stddev"`
	Timestamp time.Time `json:"timestamp"`
}

// TrendStatus indicates whether a trend estimate is backed by enough data.
type TrendStatus string

const (
	TrendOK               TrendStatus = "ok"
	TrendInsufficientData TrendStatus = "insufficient_data"
)

// TrendEstimate is a least-squares slope over the rolling window plus a
// forecast at the configured horizon. Slope is in percent per second.
type TrendEstimate struct {
	Metric          Metric        `json:"metric"`
	Slope           float64       `json:"slope"`
	ForecastHorizon time.Duration `json:"forecast_horizon"`
	ForecastValue   float64       `json:"forecast_value"`
	Status          TrendStatus   `json:"status"`
}

// HealthScore is a single 0-100 figure summarizing current resource
// pressure, along with the per-metric penalties that produced it.
type HealthScore struct {
	Value   float64            `json:"value"`
	Factors map[Metric]float64 `json:"contributing_factors"`
}

// FileCategory classifies a cleanup candidate by what kind of file it
// appears to be.
type FileCategory string

const (
	CategoryTemp    FileCategory = "temp"
	CategoryCache   FileCategory = "cache"
	CategoryLog     FileCategory = "log"
	CategoryBackup  FileCategory = "backup"
	CategoryUnknown FileCategory = "unknown"
)

// CleanupCandidate is a discovered file eligible for reclamation.
// Candidates that fail the safety filter chain are retained for visibility
// with Safe=false and are never auto-deleted.
type CleanupCandidate struct {
	Path          string       `json:"path"`
	SizeBytes     int64        `json:"size_bytes"`
	AgeSeconds    int64        `json:"age_seconds"`
	Category      FileCategory `json:"category"`
	LocationRisk  float64      `json:"location_risk"`
	PriorityScore float64      `json:"priority_score"`
	Safe          bool         `json:"safe"`
	RejectReason  string       `json:"reject_reason,omitempty"`
}

// CleanupPlan is a bounded, ordered set of candidates. Candidates are
// sorted by priority descending with lexical path order breaking ties.
type CleanupPlan struct {
	Candidates            []CleanupCandidate `json:"candidates"`
	TotalReclaimableBytes int64              `json:"total_reclaimable_bytes"`
	Truncated             bool               `json:"truncated"`
	ScannedEntries        int                `json:"scanned_entries"`
	GeneratedAt           time.Time          `json:"generated_at"`
}

// SafeCount returns how many candidates survived the safety chain.
func (p *CleanupPlan) SafeCount() int {
	n := 0
	for _, c := range p.Candidates {
		if c.Safe {
			n++
		}
	}
	return n
}

// AlertLevel is the severity of an alert log entry.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Alert is one operator-visible event. Details carries structured
// diagnostics (baseline deviation, affected paths, etc.).
type Alert struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Level     AlertLevel        `json:"level"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Snapshot is the serializable aggregate the reporter and HTTP surface
// consume. The scheduler is its only producer.
type Snapshot struct {
	GeneratedAt       time.Time       `json:"generated_at"`
	Cycle             int             `json:"cycle"`
	Latest            *Sample         `json:"latest_sample,omitempty"`
	Health            HealthScore     `json:"health"`
	Anomalies         []AnomalyRecord `json:"anomalies"`
	Trends            []TrendEstimate `json:"trends"`
	Plan              *CleanupPlan    `json:"cleanup_plan,omitempty"`
	Alerts            []Alert         `json:"recent_alerts"`
	OptimizationScore float64         `json:"optimization_score"`
	Optimizations     []string        `json:"optimizations,omitempty"`
}
