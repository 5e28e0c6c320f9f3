// Package scheduler drives guardian's cooperative phase loop. One
// goroutine owns all monitoring state; each tick selects at most one
// due phase and runs it to completion, so phases never overlap and
// never need locks between themselves.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zenzone/guardian/internal/alerts"
	"github.com/zenzone/guardian/internal/cleanup"
	"github.com/zenzone/guardian/internal/config"
	"github.com/zenzone/guardian/internal/metrics"
	"github.com/zenzone/guardian/internal/report"
	"github.com/zenzone/guardian/internal/stats"
	"github.com/zenzone/guardian/internal/storage"
	"github.com/zenzone/guardian/internal/types"
)

// Phase names one unit of scheduler work.
type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseMonitor  Phase = "MONITOR"
	PhaseAnalyze  Phase = "ANALYZE"
	PhaseAlert    Phase = "ALERT"
	PhaseCleanup  Phase = "CLEANUP"
	PhaseOptimize Phase = "OPTIMIZE"
	PhaseReport   Phase = "REPORT"
)

// phasePriority is the selection order when several phases are due.
// Fresh data beats everything downstream of it.
var phasePriority = []Phase{PhaseMonitor, PhaseAnalyze, PhaseAlert, PhaseCleanup, PhaseOptimize, PhaseReport}

// Deps are the scheduler's collaborators. Store and Reports are
// optional; a nil Store disables persistence and a nil Reports disables
// report files.
type Deps struct {
	Config  *config.Config
	Source  metrics.Source
	Alerts  *alerts.Log
	Store   *storage.Store
	Reports *report.Writer
}

// Scheduler owns the engine, planner, and derived state. All mutation
// happens inside Tick; Snapshot takes the lock only to copy.
type Scheduler struct {
	mu sync.Mutex

	cfg      *config.Config
	source   metrics.Source
	engine   *stats.Engine
	planner  *cleanup.Planner
	alertLog *alerts.Log
	store    *storage.Store
	reports  *report.Writer
	now      func() time.Time

	// scan is the in-progress cleanup traversal, advanced one quota
	// slice per cleanup tick. Nil when no scan is running.
	scan *cleanup.Scan

	// pendingDeletes is the auto-cleanup queue, drained a bounded slice
	// per cleanup tick. autoResult accumulates across those ticks.
	pendingDeletes []types.CleanupCandidate
	autoResult     cleanup.ExecResult

	lastRun   map[Phase]time.Time
	cycle     int
	health    types.HealthScore
	anomalies []types.AnomalyRecord
	trends    []types.TrendEstimate
	plan      *types.CleanupPlan

	optimizationScore float64
	optimizations     []string

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a scheduler from its dependencies.
func New(deps Deps) *Scheduler {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := deps.Alerts
	if log == nil {
		log = alerts.New(alerts.DefaultCapacity)
	}

	return &Scheduler{
		cfg:    cfg,
		source: deps.Source,
		engine: stats.NewEngine(stats.EngineConfig{
			WindowSize:      cfg.WindowSize,
			MinSamples:      cfg.MinSamples,
			ZScoreThreshold: cfg.AnomalyThreshold,
		}),
		planner:  cleanup.New(cleanup.OptionsFromConfig(cfg)),
		alertLog: log,
		store:    deps.Store,
		reports:  deps.Reports,
		now:      time.Now,
		lastRun:  make(map[Phase]time.Time),
		health:   types.HealthScore{Value: 100},
		quit:     make(chan struct{}),
	}
}

// SetClock overrides the scheduler's clock (tests).
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Quit asks the run loop to stop after its current tick. Safe to call
// more than once and from any goroutine.
func (s *Scheduler) Quit() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// quitRequested is a non-blocking check of the quit signal. Long phases
// poll it between units of work.
func (s *Scheduler) quitRequested() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

// Cycle returns how many ticks have run.
func (s *Scheduler) Cycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle
}

// Tick advances the loop by one step: the highest-priority due phase
// runs, or the tick is idle. The returned phase names what ran.
func (s *Scheduler) Tick(ctx context.Context) (Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycle++
	now := s.now()

	phase := s.duePhase(now)
	if phase == PhaseIdle {
		return PhaseIdle, nil
	}
	s.lastRun[phase] = now

	var err error
	switch phase {
	case PhaseMonitor:
		err = s.runMonitor(ctx, now)
	case PhaseAnalyze:
		s.runAnalyze()
	case PhaseAlert:
		s.runAlert(ctx)
	case PhaseCleanup:
		err = s.runCleanup(ctx)
	case PhaseOptimize:
		s.runOptimize()
	case PhaseReport:
		err = s.runReport(ctx, now)
	}
	return phase, err
}

// duePhase picks the highest-priority phase whose interval has elapsed.
// An in-progress cleanup scan or a non-empty delete queue keeps the
// cleanup phase due so the work finishes one slice at a time.
func (s *Scheduler) duePhase(now time.Time) Phase {
	intervals := map[Phase]time.Duration{
		PhaseMonitor:  s.cfg.MonitorInterval(),
		PhaseAnalyze:  s.cfg.AnalyzeInterval(),
		PhaseAlert:    s.cfg.AlertInterval(),
		PhaseCleanup:  s.cfg.CleanupInterval(),
		PhaseOptimize: s.cfg.OptimizeInterval(),
		PhaseReport:   s.cfg.ReportInterval(),
	}

	for _, p := range phasePriority {
		if p == PhaseCleanup && (s.scan != nil || len(s.pendingDeletes) > 0) {
			return p
		}
		last, ran := s.lastRun[p]
		if !ran || now.Sub(last) >= intervals[p] {
			return p
		}
	}
	return PhaseIdle
}

// Run executes the tick loop until the context is cancelled, Quit is
// called, or the demo cycle limit is reached. Phase errors are
// downgraded to warning alerts; only cancellation stops the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickCadence())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finalize(context.Background())
			return ctx.Err()
		case <-s.quit:
			s.finalize(ctx)
			return nil
		case <-ticker.C:
			phase, err := s.Tick(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					s.finalize(context.Background())
					return err
				}
				s.alertLog.Warnf("%s phase failed: %v", phase, err)
			}
			if limit := s.cfg.DemoCycleLimit; limit > 0 && s.Cycle() >= limit {
				s.finalize(ctx)
				return nil
			}
		}
	}
}

// tickCadence is the loop resolution: a fraction of the monitor
// interval, so downstream phases get ticks between samples.
func (s *Scheduler) tickCadence() time.Duration {
	cadence := s.cfg.MonitorInterval() / 4
	if cadence < 50*time.Millisecond {
		cadence = 50 * time.Millisecond
	}
	return cadence
}

// finalize writes one last report so a stopping guardian leaves a
// record behind. Best effort.
func (s *Scheduler) finalize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.runReport(ctx, s.now()); err != nil {
		s.alertLog.Warnf("final report failed: %v", err)
	}
}

// Snapshot copies the current derived state for reporting and export.
func (s *Scheduler) Snapshot() types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Scheduler) snapshotLocked() types.Snapshot {
	snap := types.Snapshot{
		GeneratedAt:       s.now(),
		Cycle:             s.cycle,
		Health:            s.health,
		Anomalies:         append([]types.AnomalyRecord(nil), s.anomalies...),
		Trends:            append([]types.TrendEstimate(nil), s.trends...),
		Plan:              s.plan,
		Alerts:            s.alertLog.Recent(10),
		OptimizationScore: s.optimizationScore,
		Optimizations:     append([]string(nil), s.optimizations...),
	}
	if latest, ok := s.engine.Latest(); ok {
		snap.Latest = &latest
	}
	return snap
}

// Prime runs the monitor phase n times followed by one analyze and one
// optimize pass. One-shot commands use it to build a meaningful
// snapshot without starting the loop.
func (s *Scheduler) Prime(ctx context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < n; i++ {
		if err := s.runMonitor(ctx, s.now()); err != nil {
			return err
		}
	}
	s.runAnalyze()
	s.runOptimize()
	return nil
}

// EvaluateAlerts runs the alert phase once against the current state.
// One-shot commands pair it with Prime.
func (s *Scheduler) EvaluateAlerts(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runAlert(ctx)
}

// DiscoverPlan runs a complete cleanup scan immediately and stores the
// resulting plan.
func (s *Scheduler) DiscoverPlan(ctx context.Context) (*types.CleanupPlan, error) {
	plan, err := s.planner.Discover(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()
	return plan, nil
}

// ExecuteCleanup deletes the current plan's safe candidates, recording
// every attempt in the audit trail when a store is configured.
func (s *Scheduler) ExecuteCleanup(ctx context.Context, confirmed bool) (cleanup.ExecResult, error) {
	s.mu.Lock()
	plan := s.plan
	s.mu.Unlock()
	if plan == nil {
		return cleanup.ExecResult{}, errors.New("no cleanup plan: run discovery first")
	}
	return s.executePlan(ctx, plan, confirmed)
}

func (s *Scheduler) executePlan(ctx context.Context, plan *types.CleanupPlan, confirmed bool) (cleanup.ExecResult, error) {
	result := cleanup.ExecResult{ByCategory: make(map[types.FileCategory]int)}

	for _, c := range plan.Candidates {
		if !c.Safe {
			result.SafetySkipped++
			s.audit(ctx, c, storage.OutcomeSkipped, c.RejectReason)
			continue
		}
		if err := s.planner.Throttle(ctx); err != nil {
			return result, err
		}
		bytes, err := s.planner.Delete(c, confirmed)
		if err != nil {
			result.Failures++
			s.audit(ctx, c, storage.OutcomeFailed, err.Error())
			continue
		}
		result.Deleted++
		result.BytesReclaimed += bytes
		result.ByCategory[c.Category]++
		s.audit(ctx, c, storage.OutcomeDeleted, "")
	}
	return result, nil
}

func (s *Scheduler) audit(ctx context.Context, c types.CleanupCandidate, outcome storage.AuditOutcome, detail string) {
	if s.store == nil {
		return
	}
	entry := storage.AuditEntry{
		Timestamp: s.now(),
		Path:      c.Path,
		SizeBytes: c.SizeBytes,
		Category:  c.Category,
		Outcome:   outcome,
		Detail:    detail,
	}
	if err := s.store.RecordAudit(ctx, entry); err != nil {
		s.alertLog.Warnf("audit write failed: %v", err)
	}
}

// Health returns the current health score.
func (s *Scheduler) Health() types.HealthScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// Baseline summarizes one metric's rolling window.
type Baseline struct {
	Metric  types.Metric
	Mean    float64
	StdDev  float64
	Samples int
}

// Baselines returns the rolling-window summary for every metric.
func (s *Scheduler) Baselines() []Baseline {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Baseline, 0, len(types.AllMetrics()))
	for _, m := range types.AllMetrics() {
		out = append(out, Baseline{
			Metric:  m,
			Mean:    s.engine.Mean(m),
			StdDev:  s.engine.StdDev(m),
			Samples: s.engine.SampleCount(m),
		})
	}
	return out
}

// thresholdMap adapts the config's per-metric thresholds for scoring.
func (s *Scheduler) thresholdMap() map[types.Metric]config.Thresholds {
	out := make(map[types.Metric]config.Thresholds, len(types.AllMetrics()))
	for _, m := range types.AllMetrics() {
		out[m] = s.cfg.MetricThresholds(m)
	}
	return out
}
