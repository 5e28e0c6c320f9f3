package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenzone/guardian/internal/types"
)

func sampleSnapshot() types.Snapshot {
	ts := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	return types.Snapshot{
		GeneratedAt: ts,
		Cycle:       17,
		Latest:      &types.Sample{Timestamp: ts, CPUPercent: 42.5, MemoryPercent: 61.0, DiskPercent: 83.2},
		Health: types.HealthScore{
			Value:   88.9,
			Factors: map[types.Metric]float64{types.MetricDisk: 21.3},
		},
		Anomalies: []types.AnomalyRecord{
			{Metric: types.MetricCPU, Value: 95, ZScore: 3.1, Mean: 40, StdDev: 17.7, Timestamp: ts},
		},
		Trends: []types.TrendEstimate{
			{Metric: types.MetricDisk, Slope: 0.001, ForecastHorizon: 5 * time.Minute, ForecastValue: 83.5, Status: types.TrendOK},
			{Metric: types.MetricMemory, Status: types.TrendInsufficientData},
		},
		Plan: &types.CleanupPlan{
			Candidates: []types.CleanupCandidate{
				{Path: "/tmp/build.tmp", SizeBytes: 2048, Category: types.CategoryTemp, PriorityScore: 0.72, Safe: true},
				{Path: "/tmp/core.so", SizeBytes: 512, Category: types.CategoryUnknown, PriorityScore: 0.31, Safe: false, RejectReason: "protected extension .so"},
			},
			TotalReclaimableBytes: 2048,
		},
		Alerts: []types.Alert{
			{Timestamp: ts, Level: types.AlertWarning, Message: "disk usage above 80%"},
		},
		OptimizationScore: 74.0,
		Optimizations:     []string{"run cleanup to reclaim 2.0 KB"},
	}
}

func TestRenderContainsSections(t *testing.T) {
	out := Render(sampleSnapshot())

	assert.Contains(t, out, "GUARDIAN SYSTEM REPORT")
	assert.Contains(t, out, "Health Score: 88.9/100")
	assert.Contains(t, out, "cycle 17")
	assert.Contains(t, out, "Anomalies: 1")
	assert.Contains(t, out, "deviates 3.10 stddevs")
	assert.Contains(t, out, "memory: insufficient data")
	assert.Contains(t, out, "/tmp/build.tmp")
	assert.Contains(t, out, "UNSAFE: protected extension .so")
	assert.Contains(t, out, "Optimization Score: 74.0/100")
	assert.Contains(t, out, "[WARNING]")
}

func TestRenderEmptySnapshot(t *testing.T) {
	out := Render(types.Snapshot{})
	assert.Contains(t, out, "Cleanup Plan: none yet")
	assert.Contains(t, out, "Anomalies: 0")
}

func TestWriteCreatesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	fixed := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	w.SetClock(func() time.Time { return fixed })

	path, err := w.Write(sampleSnapshot())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "guardian_report_1787668200.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GUARDIAN SYSTEM REPORT")
}

func TestWriteSameSecondDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	fixed := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	w.SetClock(func() time.Time { return fixed })

	first, err := w.Write(sampleSnapshot())
	require.NoError(t, err)
	second, err := w.Write(sampleSnapshot())
	require.NoError(t, err)
	third, err := w.Write(sampleSnapshot())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(dir, "guardian_report_1787668200_1.txt"), second)
	assert.Equal(t, filepath.Join(dir, "guardian_report_1787668200_2.txt"), third)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
	assert.FileExists(t, third)
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	w := NewWriter(dir)
	path, err := w.Write(types.Snapshot{})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "2.0 KB", HumanBytes(2048))
	assert.Equal(t, "1.5 MB", HumanBytes(3*512*1024))
	assert.Equal(t, "1.0 GB", HumanBytes(1<<30))
}
