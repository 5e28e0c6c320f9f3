package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/zenzone/guardian/internal/cleanup"
	"github.com/zenzone/guardian/internal/health"
	"github.com/zenzone/guardian/internal/report"
	"github.com/zenzone/guardian/internal/storage"
	"github.com/zenzone/guardian/internal/types"
)

// runMonitor takes one sample, feeds the rolling windows, and rescores
// health. Callers hold the lock.
func (s *Scheduler) runMonitor(ctx context.Context, now time.Time) error {
	sample, err := s.source.Sample(ctx)
	if err != nil {
		return fmt.Errorf("sample failed: %w", err)
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = now
	}
	s.engine.Ingest(sample)

	latest := map[types.Metric]float64{
		types.MetricCPU:    sample.CPUPercent,
		types.MetricMemory: sample.MemoryPercent,
		types.MetricDisk:   sample.DiskPercent,
	}
	s.health = health.Score(latest, s.thresholdMap(), nil)
	return nil
}

// runAnalyze refreshes anomaly and trend state from the windows.
func (s *Scheduler) runAnalyze() {
	s.anomalies = s.engine.DetectAnomalies()
	s.trends = s.engine.Trends(s.cfg.TrendHorizon())
}

// runAlert turns the current analysis into alert log entries: threshold
// breaches, statistical anomalies, and trends forecast to cross the
// critical line.
func (s *Scheduler) runAlert(ctx context.Context) {
	latest, ok := s.engine.Latest()
	if !ok {
		return
	}

	for _, m := range types.AllMetrics() {
		value := latest.Value(m)
		th := s.cfg.MetricThresholds(m)
		details := map[string]string{
			"metric": string(m),
			"value":  fmt.Sprintf("%.1f", value),
		}
		switch {
		case value >= th.Crit:
			s.persist(ctx, s.alertLog.Raise(types.AlertCritical,
				fmt.Sprintf("%s usage critical: %.1f%% (threshold %.0f%%)", m, value, th.Crit), details))
		case value >= th.Warn:
			s.persist(ctx, s.alertLog.Raise(types.AlertWarning,
				fmt.Sprintf("%s usage elevated: %.1f%% (threshold %.0f%%)", m, value, th.Warn), details))
		}
	}

	for _, a := range s.anomalies {
		s.persist(ctx, s.alertLog.Raise(types.AlertWarning,
			fmt.Sprintf("%s anomaly: %.1f%% deviates %.1f stddevs from baseline %.1f%%", a.Metric, a.Value, a.ZScore, a.Mean),
			map[string]string{
				"metric": string(a.Metric),
				"zscore": fmt.Sprintf("%.2f", a.ZScore),
				"mean":   fmt.Sprintf("%.2f", a.Mean),
				"stddev": fmt.Sprintf("%.2f", a.StdDev),
			}))
	}

	for _, t := range s.trends {
		if t.Status != types.TrendOK {
			continue
		}
		slopePerHr := t.Slope * 3600
		crit := s.cfg.MetricThresholds(t.Metric).Crit
		if slopePerHr >= s.cfg.TrendAlertSlopePerHr && t.ForecastValue >= crit {
			s.persist(ctx, s.alertLog.Raise(types.AlertWarning,
				fmt.Sprintf("%s rising %.1f%%/hr, forecast %.1f%% within %s", t.Metric, slopePerHr, t.ForecastValue, t.ForecastHorizon),
				map[string]string{
					"metric":   string(t.Metric),
					"slope_hr": fmt.Sprintf("%.2f", slopePerHr),
					"forecast": fmt.Sprintf("%.1f", t.ForecastValue),
				}))
		}
	}
}

func (s *Scheduler) persist(ctx context.Context, alert types.Alert) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveAlert(ctx, alert); err != nil {
		// The in-memory log still has the alert; losing the DB row is
		// worth a warning, not a loop failure.
		s.alertLog.Warnf("alert persistence failed: %v", err)
	}
}

// runCleanup advances the scan one quota slice. When the traversal
// completes, the plan is published and, under auto-cleanup, queued for
// deletion. Deletions drain across later ticks so one tick never holds
// the loop for the whole plan.
func (s *Scheduler) runCleanup(ctx context.Context) error {
	if len(s.pendingDeletes) > 0 {
		return s.advanceAutoCleanup(ctx)
	}

	if s.scan == nil {
		s.scan = s.planner.NewScan()
	}

	if err := s.scan.Step(ctx, s.cfg.ScanQuotaPerTick); err != nil {
		s.scan = nil
		return err
	}
	if !s.scan.Done() {
		return nil
	}

	plan := s.scan.Plan()
	s.scan = nil
	s.plan = plan
	s.alertLog.Infof("cleanup scan: %d entries, %d candidates (%d safe), %s reclaimable",
		plan.ScannedEntries, len(plan.Candidates), plan.SafeCount(), report.HumanBytes(plan.TotalReclaimableBytes))

	if s.cfg.AutoCleanup && len(plan.Candidates) > 0 {
		s.pendingDeletes = append([]types.CleanupCandidate(nil), plan.Candidates...)
		s.autoResult = cleanup.ExecResult{ByCategory: make(map[types.FileCategory]int)}
	}
	return nil
}

// advanceAutoCleanup drains one bounded slice of the delete queue. The
// per-tick bound mirrors the scan quota, the rate limiter is consulted
// without blocking, and the quit signal is polled between deletions.
func (s *Scheduler) advanceAutoCleanup(ctx context.Context) error {
	quota := s.cfg.ScanQuotaPerTick
	if quota <= 0 {
		quota = 1
	}

	for n := 0; n < quota && len(s.pendingDeletes) > 0; n++ {
		if s.quitRequested() {
			s.pendingDeletes = nil
			return nil
		}
		if err := ctx.Err(); err != nil {
			s.pendingDeletes = nil
			return err
		}

		c := s.pendingDeletes[0]
		if !c.Safe {
			s.pendingDeletes = s.pendingDeletes[1:]
			s.autoResult.SafetySkipped++
			s.audit(ctx, c, storage.OutcomeSkipped, c.RejectReason)
			continue
		}
		if !s.planner.TryThrottle() {
			// Rate budget exhausted; resume next tick.
			return nil
		}
		s.pendingDeletes = s.pendingDeletes[1:]

		bytes, err := s.planner.Delete(c, false)
		if err != nil {
			s.autoResult.Failures++
			s.audit(ctx, c, storage.OutcomeFailed, err.Error())
			continue
		}
		s.autoResult.Deleted++
		s.autoResult.BytesReclaimed += bytes
		s.autoResult.ByCategory[c.Category]++
		s.audit(ctx, c, storage.OutcomeDeleted, "")
	}

	if len(s.pendingDeletes) == 0 {
		s.alertLog.Infof("auto-cleanup: deleted %d files, reclaimed %s (%d skipped, %d failed)",
			s.autoResult.Deleted, report.HumanBytes(s.autoResult.BytesReclaimed),
			s.autoResult.SafetySkipped, s.autoResult.Failures)
	}
	return nil
}

// runOptimize scores how much headroom guardian could win back and
// collects concrete suggestions.
func (s *Scheduler) runOptimize() {
	score := s.health.Value
	var suggestions []string

	// Sustained pressure shows in the baseline mean even when the latest
	// sample looks quiet.
	if s.engine.SampleCount(types.MetricMemory) >= s.cfg.MinSamples {
		if mean := s.engine.Mean(types.MetricMemory); mean >= s.cfg.MemoryThresholds.Warn {
			score -= 10
			suggestions = append(suggestions,
				fmt.Sprintf("memory baseline at %.1f%%: memory cleanup recommended", mean))
		}
	}
	if s.engine.SampleCount(types.MetricCPU) >= s.cfg.MinSamples {
		if mean := s.engine.Mean(types.MetricCPU); mean >= s.cfg.CPUThresholds.Warn {
			score -= 10
			suggestions = append(suggestions,
				fmt.Sprintf("cpu baseline at %.1f%%: process optimization needed", mean))
		}
	}

	if n := len(s.anomalies); n > 0 {
		penalty := float64(5 * n)
		if penalty > 20 {
			penalty = 20
		}
		score -= penalty
		suggestions = append(suggestions, fmt.Sprintf("investigate %d metric anomalies", n))
	}

	if s.plan != nil && s.plan.TotalReclaimableBytes > 0 {
		if s.plan.TotalReclaimableBytes >= 100*1024*1024 {
			score -= 10
		} else {
			score -= 5
		}
		suggestions = append(suggestions,
			fmt.Sprintf("run cleanup to reclaim %s", report.HumanBytes(s.plan.TotalReclaimableBytes)))
	}

	// Cache files in the current plan are the cheapest wins.
	if s.plan != nil {
		var cacheCount int
		var cacheBytes int64
		for _, c := range s.plan.Candidates {
			if c.Safe && c.Category == types.CategoryCache {
				cacheCount++
				cacheBytes += c.SizeBytes
			}
		}
		if cacheCount > 0 {
			suggestions = append(suggestions,
				fmt.Sprintf("sweep %d cache files for %s", cacheCount, report.HumanBytes(cacheBytes)))
		}
	}

	for _, t := range s.trends {
		if t.Status != types.TrendOK {
			continue
		}
		if t.Metric == types.MetricDisk && t.Slope > 0 && t.ForecastValue >= s.cfg.MetricThresholds(t.Metric).Warn {
			score -= 10
			suggestions = append(suggestions, "disk trending toward its warning threshold")
			break
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	if mem.HeapSys > 0 {
		if occupancy := float64(mem.HeapAlloc) / float64(mem.HeapSys); occupancy >= 0.9 {
			suggestions = append(suggestions,
				fmt.Sprintf("guardian heap %.0f%% occupied (%s of %s), %d GC cycles",
					occupancy*100, report.HumanBytes(int64(mem.HeapAlloc)), report.HumanBytes(int64(mem.HeapSys)), mem.NumGC))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	s.optimizationScore = score
	s.optimizations = suggestions
}

// runReport renders the current snapshot to a report file and persists
// its summary.
func (s *Scheduler) runReport(ctx context.Context, now time.Time) error {
	snap := s.snapshotLocked()

	var path string
	if s.reports != nil {
		var err error
		path, err = s.reports.Write(snap)
		if err != nil {
			return err
		}
		s.alertLog.Infof("report written to %s", path)
	}

	if s.store != nil {
		summary := storage.ReportSummary{
			GeneratedAt:  now,
			Cycle:        snap.Cycle,
			HealthScore:  snap.Health.Value,
			AnomalyCount: len(snap.Anomalies),
			ReportPath:   path,
		}
		if snap.Plan != nil {
			summary.ReclaimableBytes = snap.Plan.TotalReclaimableBytes
		}
		if err := s.store.SaveReport(ctx, summary); err != nil {
			return err
		}
	}
	return nil
}
