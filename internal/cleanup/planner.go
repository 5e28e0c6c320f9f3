// Package cleanup discovers stale files under configured roots, scores
// them for reclamation priority, and applies a safety filter chain before
// anything may be deleted.
package cleanup

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zenzone/guardian/internal/config"
	"github.com/zenzone/guardian/internal/types"
)

// Normalization anchors for priority scoring: a file this old or this
// large saturates its factor.
const (
	normAge  = 30 * 24 * time.Hour
	normSize = 100 * 1024 * 1024
)

// categoryWeights maps a file category to its reclamation appeal.
var categoryWeights = map[types.FileCategory]float64{
	types.CategoryTemp:    1.0,
	types.CategoryCache:   0.9,
	types.CategoryLog:     0.8,
	types.CategoryBackup:  0.7,
	types.CategoryUnknown: 0.3,
}

// Options configures a Planner. Zero values are filled from defaults.
type Options struct {
	// Roots are the directories to scan.
	Roots []string

	// MaxAge excludes files modified more recently than now-MaxAge.
	// They are skipped before scoring, not rejected by the safety chain.
	MaxAge time.Duration

	// Safety chain inputs.
	ProtectedPrefixes   []string
	ProtectedExtensions []string
	MaxSingleFileBytes  int64

	// AllowOversize is the per-call override of the single-file size cap.
	AllowOversize bool

	// Plan bounds.
	MaxItems      int
	MaxTotalBytes int64

	// VisitQuota bounds entries examined per scan step.
	VisitQuota int

	// Weights for the multi-factor priority score.
	Weights config.CleanupWeights

	// AutoCleanup permits deletion of safe candidates without explicit
	// confirmation.
	AutoCleanup bool

	// DeletesPerSecond throttles plan execution.
	DeletesPerSecond float64

	// Now overrides the clock (tests).
	Now func() time.Time
}

// OptionsFromConfig builds planner options from the effective config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Roots:               cfg.ScanRoots,
		MaxAge:              cfg.MaxFileAge(),
		ProtectedPrefixes:   cfg.ProtectedPathPrefixes,
		ProtectedExtensions: cfg.ProtectedExtensions,
		MaxSingleFileBytes:  cfg.MaxSingleFileBytes,
		MaxItems:            cfg.MaxPlanItems,
		MaxTotalBytes:       cfg.MaxPlanBytes,
		VisitQuota:          cfg.ScanQuotaPerTick,
		Weights:             cfg.Weights,
		AutoCleanup:         cfg.AutoCleanup,
		DeletesPerSecond:    cfg.DeletesPerSecond,
	}
}

// Planner discovers and deletes cleanup candidates. It is stateless
// between scans; every scan is independent.
type Planner struct {
	opts    Options
	limiter *rate.Limiter
}

// New creates a planner.
func New(opts Options) *Planner {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 200
	}
	if opts.MaxTotalBytes <= 0 {
		opts.MaxTotalBytes = 1024 * 1024 * 1024
	}
	if opts.VisitQuota <= 0 {
		opts.VisitQuota = 500
	}
	if opts.MaxSingleFileBytes <= 0 {
		opts.MaxSingleFileBytes = normSize
	}
	if opts.DeletesPerSecond <= 0 {
		opts.DeletesPerSecond = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	wsum := opts.Weights.Age + opts.Weights.Size + opts.Weights.Category + opts.Weights.Risk
	if wsum <= 0 {
		opts.Weights = config.CleanupWeights{Age: 0.4, Size: 0.3, Category: 0.2, Risk: 0.1}
	}

	burst := int(opts.DeletesPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Planner{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.DeletesPerSecond), burst),
	}
}

// Options returns the planner's effective options.
func (p *Planner) Options() Options { return p.opts }

// Discover runs a complete scan and returns the bounded, ordered plan.
// The scan honors ctx between quota slices, so a long traversal remains
// interruptible.
func (p *Planner) Discover(ctx context.Context) (*types.CleanupPlan, error) {
	scan := p.NewScan()
	for !scan.Done() {
		if err := scan.Step(ctx, p.opts.VisitQuota); err != nil {
			return nil, err
		}
	}
	return scan.Plan(), nil
}

// buildPlan sorts and truncates candidates into the final plan.
// Ordering is priority descending with lexical path order breaking ties;
// truncation applies both the item cap and the cumulative byte cap.
func (p *Planner) buildPlan(candidates []types.CleanupCandidate, scanned int) *types.CleanupPlan {
	sorted := make([]types.CleanupCandidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PriorityScore != sorted[j].PriorityScore {
			return sorted[i].PriorityScore > sorted[j].PriorityScore
		}
		return sorted[i].Path < sorted[j].Path
	})

	plan := &types.CleanupPlan{
		ScannedEntries: scanned,
		GeneratedAt:    p.opts.Now(),
	}
	var totalBytes int64
	for _, c := range sorted {
		if len(plan.Candidates) >= p.opts.MaxItems || totalBytes+c.SizeBytes > p.opts.MaxTotalBytes {
			plan.Truncated = true
			break
		}
		plan.Candidates = append(plan.Candidates, c)
		totalBytes += c.SizeBytes
		if c.Safe {
			plan.TotalReclaimableBytes += c.SizeBytes
		}
	}
	return plan
}

// score computes the multi-factor reclamation priority. Higher means
// reclaim sooner. Monotonically non-decreasing in age and size.
func (p *Planner) score(age time.Duration, size int64, category types.FileCategory, risk float64) float64 {
	ageScore := float64(age) / float64(normAge)
	if ageScore > 1 {
		ageScore = 1
	}
	sizeScore := float64(size) / float64(normSize)
	if sizeScore > 1 {
		sizeScore = 1
	}
	w := p.opts.Weights
	return w.Age*ageScore + w.Size*sizeScore + w.Category*categoryWeights[category] - w.Risk*risk
}

// categorize derives the file category from its name and extension.
func categorize(path string) types.FileCategory {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tmp"), strings.HasSuffix(lower, ".temp"), strings.HasSuffix(lower, ".swp"):
		return types.CategoryTemp
	case strings.HasSuffix(lower, ".cache"), strings.Contains(lower, "cache"):
		return types.CategoryCache
	case strings.HasSuffix(lower, ".log"), strings.HasSuffix(lower, ".out"):
		return types.CategoryLog
	case strings.HasSuffix(lower, ".bak"), strings.HasSuffix(lower, ".old"), strings.HasSuffix(lower, "~"):
		return types.CategoryBackup
	default:
		return types.CategoryUnknown
	}
}

// locationRisk estimates how dangerous a path's neighborhood is, in
// [0,1]. Scratch locations score low; anything near system or protected
// territory scores high.
func (p *Planner) locationRisk(path string) float64 {
	lower := strings.ToLower(filepath.Clean(path))

	for _, prefix := range p.opts.ProtectedPrefixes {
		if prefix == "" {
			continue
		}
		if underPrefix(lower, prefix) {
			return 1.0
		}
	}
	for _, marker := range []string{"system", "program", "windows"} {
		if strings.Contains(lower, marker) {
			return 0.9
		}
	}
	for _, marker := range []string{"tmp", "temp", "cache"} {
		if strings.Contains(lower, marker) {
			return 0.1
		}
	}
	return 0.5
}
