package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenzone/guardian/internal/types"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, warnings := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NotNil(t, cfg)
	assert.Empty(t, warnings)
	assert.Equal(t, Default().WindowSize, cfg.WindowSize)
	assert.Equal(t, Default().AnomalyThreshold, cfg.AnomalyThreshold)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	body := `
monitor_interval_seconds: 5
window_size: 20
auto_cleanup: true
cpu_thresholds:
  warn: 60
  crit: 85
scan_roots:
  - /var/tmp
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, warnings := Load(path)
	assert.Empty(t, warnings)
	assert.Equal(t, 5.0, cfg.MonitorIntervalSeconds)
	assert.Equal(t, 20, cfg.WindowSize)
	assert.True(t, cfg.AutoCleanup)
	assert.Equal(t, Thresholds{Warn: 60, Crit: 85}, cfg.CPUThresholds)
	assert.Equal(t, []string{"/var/tmp"}, cfg.ScanRoots)
	// Untouched fields keep defaults.
	assert.Equal(t, Default().MaxFileAgeDays, cfg.MaxFileAgeDays)
}

func TestLoadMalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0644))

	cfg, warnings := Load(path)
	require.NotNil(t, cfg)
	assert.NotEmpty(t, warnings)
	assert.Equal(t, Default().WindowSize, cfg.WindowSize)
}

func TestInvalidValuesFallBackWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	body := `
window_size: -3
anomaly_threshold: 0
cpu_thresholds:
  warn: 95
  crit: 80
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, warnings := Load(path)
	assert.Len(t, warnings, 3)
	assert.Equal(t, Default().WindowSize, cfg.WindowSize)
	assert.Equal(t, Default().AnomalyThreshold, cfg.AnomalyThreshold)
	assert.Equal(t, Default().CPUThresholds, cfg.CPUThresholds)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GUARDIAN_MONITOR_INTERVAL", "0.5")
	t.Setenv("GUARDIAN_AUTO_CLEANUP", "true")
	t.Setenv("GUARDIAN_WINDOW_SIZE", "12")

	cfg, warnings := Load("")
	assert.Empty(t, warnings)
	assert.Equal(t, 0.5, cfg.MonitorIntervalSeconds)
	assert.True(t, cfg.AutoCleanup)
	assert.Equal(t, 12, cfg.WindowSize)
}

func TestEnvBadValueWarns(t *testing.T) {
	t.Setenv("GUARDIAN_WINDOW_SIZE", "banana")

	cfg, warnings := Load("")
	assert.Len(t, warnings, 1)
	assert.Equal(t, Default().WindowSize, cfg.WindowSize)
}

func TestDemoModeSwitch(t *testing.T) {
	t.Setenv("GUARDIAN_DEMO", "1")

	cfg, _ := Load("")
	assert.Equal(t, 0.25, cfg.MonitorIntervalSeconds)
	assert.False(t, cfg.AutoCleanup)
	assert.Equal(t, 30, cfg.DemoCycleLimit)
}

func TestMetricThresholds(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.CPUThresholds, cfg.MetricThresholds(types.MetricCPU))
	assert.Equal(t, cfg.DiskThresholds, cfg.MetricThresholds(types.MetricDisk))
}
