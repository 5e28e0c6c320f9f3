package cleanup

import (
	"context"
	"fmt"
	"os"

	"github.com/zenzone/guardian/internal/types"
)

// ExecResult summarizes one plan execution pass.
type ExecResult struct {
	Deleted        int
	BytesReclaimed int64
	SafetySkipped  int
	Failures       int
	ByCategory     map[types.FileCategory]int
}

// Delete removes one candidate from disk and returns the bytes reclaimed.
// It refuses unsafe candidates with ErrSafetyViolation, and refuses
// unconfirmed deletions unless auto-cleanup applies. The file is
// re-verified against the safety chain immediately before removal in
// case it changed since discovery.
func (p *Planner) Delete(c types.CleanupCandidate, confirmed bool) (int64, error) {
	if !c.Safe {
		return 0, fmt.Errorf("%s: %w", c.Path, types.ErrSafetyViolation)
	}
	if !confirmed && !p.opts.AutoCleanup {
		return 0, fmt.Errorf("%s: %w", c.Path, types.ErrNotConfirmed)
	}

	info, err := os.Lstat(c.Path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", c.Path, err)
	}
	if safe, reason := p.checkSafety(c.Path, info); !safe {
		return 0, fmt.Errorf("%s (%s): %w", c.Path, reason, types.ErrSafetyViolation)
	}

	if err := os.Remove(c.Path); err != nil {
		return 0, fmt.Errorf("remove %s: %w", c.Path, err)
	}
	return info.Size(), nil
}

// Throttle blocks until the deletion rate limiter permits another
// removal.
func (p *Planner) Throttle(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// TryThrottle reports whether the deletion rate limiter permits another
// removal right now, consuming a token if so. Callers that must not
// block use this and retry later.
func (p *Planner) TryThrottle() bool {
	return p.limiter.Allow()
}

// ExecutePlan deletes the plan's safe candidates, throttled by the
// deletion rate limiter and bounded by maxDeletes (<=0 means no bound).
// Unsafe candidates are counted as skipped; individual failures do not
// stop the pass. Context cancellation does.
func (p *Planner) ExecutePlan(ctx context.Context, plan *types.CleanupPlan, confirmed bool, maxDeletes int) (ExecResult, error) {
	result := ExecResult{ByCategory: make(map[types.FileCategory]int)}

	for _, c := range plan.Candidates {
		if maxDeletes > 0 && result.Deleted >= maxDeletes {
			break
		}
		if !c.Safe {
			result.SafetySkipped++
			continue
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return result, err
		}

		bytes, err := p.Delete(c, confirmed)
		if err != nil {
			result.Failures++
			continue
		}
		result.Deleted++
		result.BytesReclaimed += bytes
		result.ByCategory[c.Category]++
	}
	return result, nil
}
