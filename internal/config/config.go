package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zenzone/guardian/internal/types"
)

// Thresholds holds the warn/critical percentages for one metric.
type Thresholds struct {
	Warn float64 `yaml:"warn" json:"warn"`
	Crit float64 `yaml:"crit" json:"crit"`
}

// CleanupWeights are the multi-factor priority scoring weights.
// Higher weight means the factor contributes more to reclamation priority;
// Risk is subtracted.
type CleanupWeights struct {
	Age      float64 `yaml:"age" json:"age"`
	Size     float64 `yaml:"size" json:"size"`
	Category float64 `yaml:"category" json:"category"`
	Risk     float64 `yaml:"risk" json:"risk"`
}

// Config is the full effective configuration. Every field has a safe
// default; unknown or invalid values fall back to the default with a
// warning rather than failing startup.
type Config struct {
	// Phase intervals, in seconds. Zero means "always due", which is only
	// sensible in demo/testing mode.
	MonitorIntervalSeconds  float64 `yaml:"monitor_interval_seconds" json:"monitor_interval_seconds"`
	AnalyzeIntervalSeconds  float64 `yaml:"analyze_interval_seconds" json:"analyze_interval_seconds"`
	AlertIntervalSeconds    float64 `yaml:"alert_interval_seconds" json:"alert_interval_seconds"`
	CleanupIntervalSeconds  float64 `yaml:"cleanup_interval_seconds" json:"cleanup_interval_seconds"`
	OptimizeIntervalSeconds float64 `yaml:"optimize_interval_seconds" json:"optimize_interval_seconds"`
	ReportIntervalSeconds   float64 `yaml:"report_interval_seconds" json:"report_interval_seconds"`

	// Statistics engine settings.
	WindowSize           int     `yaml:"window_size" json:"window_size"`
	MinSamples           int     `yaml:"min_samples" json:"min_samples"`
	AnomalyThreshold     float64 `yaml:"anomaly_threshold" json:"anomaly_threshold"`
	TrendHorizonSeconds  float64 `yaml:"trend_horizon_seconds" json:"trend_horizon_seconds"`
	TrendAlertSlopePerHr float64 `yaml:"trend_alert_slope_per_hour" json:"trend_alert_slope_per_hour"`

	// Health thresholds per metric.
	CPUThresholds    Thresholds `yaml:"cpu_thresholds" json:"cpu_thresholds"`
	MemoryThresholds Thresholds `yaml:"memory_thresholds" json:"memory_thresholds"`
	DiskThresholds   Thresholds `yaml:"disk_thresholds" json:"disk_thresholds"`

	// Cleanup planner settings.
	ScanRoots             []string       `yaml:"scan_roots" json:"scan_roots"`
	MaxFileAgeDays        int            `yaml:"max_file_age_days" json:"max_file_age_days"`
	ProtectedPathPrefixes []string       `yaml:"protected_path_prefixes" json:"protected_path_prefixes"`
	ProtectedExtensions   []string       `yaml:"protected_extensions" json:"protected_extensions"`
	MaxSingleFileBytes    int64          `yaml:"max_single_file_bytes" json:"max_single_file_bytes"`
	MaxPlanItems          int            `yaml:"max_plan_items" json:"max_plan_items"`
	MaxPlanBytes          int64          `yaml:"max_plan_bytes" json:"max_plan_bytes"`
	ScanQuotaPerTick      int            `yaml:"scan_quota_per_tick" json:"scan_quota_per_tick"`
	DeletesPerSecond      float64        `yaml:"deletes_per_second" json:"deletes_per_second"`
	Weights               CleanupWeights `yaml:"cleanup_weights" json:"cleanup_weights"`
	AutoCleanup           bool           `yaml:"auto_cleanup" json:"auto_cleanup"`

	// Demo mode: the loop stops by itself after this many ticks.
	// Zero disables the cap.
	DemoCycleLimit int `yaml:"demo_cycle_limit" json:"demo_cycle_limit"`

	// Ambient settings.
	DatabasePath string `yaml:"database_path" json:"database_path"`
	ReportDir    string `yaml:"report_dir" json:"report_dir"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		MonitorIntervalSeconds:  1,
		AnalyzeIntervalSeconds:  2,
		AlertIntervalSeconds:    2,
		CleanupIntervalSeconds:  30,
		OptimizeIntervalSeconds: 60,
		ReportIntervalSeconds:   1800,

		WindowSize:           50,
		MinSamples:           5,
		AnomalyThreshold:     2.0,
		TrendHorizonSeconds:  300,
		TrendAlertSlopePerHr: 10,

		CPUThresholds:    Thresholds{Warn: 70, Crit: 90},
		MemoryThresholds: Thresholds{Warn: 70, Crit: 90},
		DiskThresholds:   Thresholds{Warn: 80, Crit: 95},

		ScanRoots:             []string{os.TempDir()},
		MaxFileAgeDays:        30,
		ProtectedPathPrefixes: []string{"/etc", "/usr", "/bin", "/boot", "/lib"},
		ProtectedExtensions:   []string{".exe", ".dll", ".sys", ".so", ".dylib"},
		MaxSingleFileBytes:    100 * 1024 * 1024,
		MaxPlanItems:          200,
		MaxPlanBytes:          1024 * 1024 * 1024,
		ScanQuotaPerTick:      500,
		DeletesPerSecond:      20,
		Weights:               CleanupWeights{Age: 0.4, Size: 0.3, Category: 0.2, Risk: 0.1},
		AutoCleanup:           false,

		DemoCycleLimit: 0,

		DatabasePath: ".guardian/guardian.db",
		ReportDir:    ".",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if any), then GUARDIAN_* environment overrides. It never fails;
// problems are reported as warnings and the offending values fall back to
// defaults.
func Load(path string) (*Config, []string) {
	cfg := Default()
	var warnings []string

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				warnings = append(warnings, fmt.Sprintf("config file %s unreadable: %v (using defaults)", path, err))
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			warnings = append(warnings, fmt.Sprintf("config file %s invalid: %v (using defaults)", path, err))
			cfg = Default()
		}
	}

	warnings = append(warnings, cfg.applyEnv()...)
	warnings = append(warnings, cfg.sanitize()...)
	return cfg, warnings
}

// applyEnv overlays GUARDIAN_* environment variables onto the config.
func (c *Config) applyEnv() []string {
	var warnings []string

	setFloat := func(key string, dst *float64) {
		val := os.Getenv(key)
		if val == "" {
			return
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s=%q is not a number, ignored", key, val))
			return
		}
		*dst = f
	}
	setInt := func(key string, dst *int) {
		val := os.Getenv(key)
		if val == "" {
			return
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s=%q is not an integer, ignored", key, val))
			return
		}
		*dst = n
	}

	setFloat("GUARDIAN_MONITOR_INTERVAL", &c.MonitorIntervalSeconds)
	setFloat("GUARDIAN_CLEANUP_INTERVAL", &c.CleanupIntervalSeconds)
	setFloat("GUARDIAN_REPORT_INTERVAL", &c.ReportIntervalSeconds)
	setFloat("GUARDIAN_ANOMALY_THRESHOLD", &c.AnomalyThreshold)
	setInt("GUARDIAN_WINDOW_SIZE", &c.WindowSize)
	setInt("GUARDIAN_MAX_FILE_AGE_DAYS", &c.MaxFileAgeDays)
	setInt("GUARDIAN_DEMO_CYCLE_LIMIT", &c.DemoCycleLimit)

	if val := os.Getenv("GUARDIAN_AUTO_CLEANUP"); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			c.AutoCleanup = true
		case "false", "0", "no", "off":
			c.AutoCleanup = false
		default:
			warnings = append(warnings, fmt.Sprintf("GUARDIAN_AUTO_CLEANUP=%q is not a boolean, ignored", val))
		}
	}
	if val := os.Getenv("GUARDIAN_SCAN_ROOTS"); val != "" {
		c.ScanRoots = strings.Split(val, string(os.PathListSeparator))
	}
	if val := os.Getenv("GUARDIAN_DB_PATH"); val != "" {
		c.DatabasePath = val
	}

	// DEMO mirrors the classic demo switch: fast cycles, no deletion,
	// automatic stop.
	if os.Getenv("GUARDIAN_DEMO") != "" {
		c.MonitorIntervalSeconds = 0.25
		c.AutoCleanup = false
		if c.DemoCycleLimit == 0 {
			c.DemoCycleLimit = 30
		}
	}

	return warnings
}

// sanitize clamps invalid values back to defaults, returning a warning
// per field it had to fix.
func (c *Config) sanitize() []string {
	def := Default()
	var warnings []string

	fix := func(name string, bad bool, apply func()) {
		if bad {
			warnings = append(warnings, fmt.Sprintf("%s invalid, using default", name))
			apply()
		}
	}

	fix("monitor_interval_seconds", c.MonitorIntervalSeconds < 0, func() { c.MonitorIntervalSeconds = def.MonitorIntervalSeconds })
	fix("cleanup_interval_seconds", c.CleanupIntervalSeconds < 0, func() { c.CleanupIntervalSeconds = def.CleanupIntervalSeconds })
	fix("report_interval_seconds", c.ReportIntervalSeconds < 0, func() { c.ReportIntervalSeconds = def.ReportIntervalSeconds })
	fix("window_size", c.WindowSize <= 0 || c.WindowSize > 10000, func() { c.WindowSize = def.WindowSize })
	fix("min_samples", c.MinSamples < 2 || c.MinSamples > c.WindowSize, func() { c.MinSamples = def.MinSamples })
	fix("anomaly_threshold", c.AnomalyThreshold <= 0, func() { c.AnomalyThreshold = def.AnomalyThreshold })
	fix("trend_horizon_seconds", c.TrendHorizonSeconds <= 0, func() { c.TrendHorizonSeconds = def.TrendHorizonSeconds })
	fix("max_file_age_days", c.MaxFileAgeDays < 0, func() { c.MaxFileAgeDays = def.MaxFileAgeDays })
	fix("max_single_file_bytes", c.MaxSingleFileBytes <= 0, func() { c.MaxSingleFileBytes = def.MaxSingleFileBytes })
	fix("max_plan_items", c.MaxPlanItems <= 0, func() { c.MaxPlanItems = def.MaxPlanItems })
	fix("max_plan_bytes", c.MaxPlanBytes <= 0, func() { c.MaxPlanBytes = def.MaxPlanBytes })
	fix("scan_quota_per_tick", c.ScanQuotaPerTick <= 0, func() { c.ScanQuotaPerTick = def.ScanQuotaPerTick })
	fix("deletes_per_second", c.DeletesPerSecond <= 0, func() { c.DeletesPerSecond = def.DeletesPerSecond })
	fix("demo_cycle_limit", c.DemoCycleLimit < 0, func() { c.DemoCycleLimit = 0 })

	for _, t := range []struct {
		name string
		th   *Thresholds
		def  Thresholds
	}{
		{"cpu_thresholds", &c.CPUThresholds, def.CPUThresholds},
		{"memory_thresholds", &c.MemoryThresholds, def.MemoryThresholds},
		{"disk_thresholds", &c.DiskThresholds, def.DiskThresholds},
	} {
		bad := t.th.Warn <= 0 || t.th.Warn > 100 || t.th.Crit <= t.th.Warn || t.th.Crit > 100
		fix(t.name, bad, func() { *t.th = t.def })
	}

	wsum := c.Weights.Age + c.Weights.Size + c.Weights.Category + c.Weights.Risk
	fix("cleanup_weights", wsum <= 0 || c.Weights.Age < 0 || c.Weights.Size < 0 || c.Weights.Category < 0 || c.Weights.Risk < 0,
		func() { c.Weights = def.Weights })

	return warnings
}

// MetricThresholds returns the warn/crit pair for a metric.
func (c *Config) MetricThresholds(m types.Metric) Thresholds {
	switch m {
	case types.MetricCPU:
		return c.CPUThresholds
	case types.MetricMemory:
		return c.MemoryThresholds
	case types.MetricDisk:
		return c.DiskThresholds
	}
	return Thresholds{Warn: 70, Crit: 90}
}

// Interval helpers.

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

func (c *Config) MonitorInterval() time.Duration  { return seconds(c.MonitorIntervalSeconds) }
func (c *Config) AnalyzeInterval() time.Duration  { return seconds(c.AnalyzeIntervalSeconds) }
func (c *Config) AlertInterval() time.Duration    { return seconds(c.AlertIntervalSeconds) }
func (c *Config) CleanupInterval() time.Duration  { return seconds(c.CleanupIntervalSeconds) }
func (c *Config) OptimizeInterval() time.Duration { return seconds(c.OptimizeIntervalSeconds) }
func (c *Config) ReportInterval() time.Duration   { return seconds(c.ReportIntervalSeconds) }
func (c *Config) TrendHorizon() time.Duration     { return seconds(c.TrendHorizonSeconds) }
func (c *Config) MaxFileAge() time.Duration {
	return time.Duration(c.MaxFileAgeDays) * 24 * time.Hour
}
