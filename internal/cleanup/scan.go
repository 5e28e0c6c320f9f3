package cleanup

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zenzone/guardian/internal/types"
)

// Scan is one in-progress traversal of the configured roots. The pending
// work is an explicit stack of paths, so the scan can stop after any
// number of entries and resume later; the scheduler advances it one
// bounded slice per tick. Scans never share state: each NewScan starts
// from the roots again.
type Scan struct {
	p          *Planner
	stack      []string
	candidates []types.CleanupCandidate
	visited    int
	skipped    int
}

// NewScan starts a fresh traversal of the planner's roots.
func (p *Planner) NewScan() *Scan {
	s := &Scan{p: p}
	for _, root := range p.opts.Roots {
		s.stack = append(s.stack, filepath.Clean(root))
	}
	return s
}

// Done reports whether the traversal has exhausted all pending entries.
func (s *Scan) Done() bool { return len(s.stack) == 0 }

// Visited returns how many filesystem entries have been examined so far.
func (s *Scan) Visited() int { return s.visited }

// Step examines up to quota pending entries. Unreadable entries are
// counted and skipped rather than failing the scan; only context
// cancellation aborts it.
func (s *Scan) Step(ctx context.Context, quota int) error {
	if quota <= 0 {
		quota = s.p.opts.VisitQuota
	}

	for n := 0; n < quota && len(s.stack) > 0; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Pop the most recently discovered path.
		path := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		s.visited++

		info, err := os.Lstat(path)
		if err != nil {
			s.skipped++
			continue
		}

		switch {
		case info.Mode().IsDir():
			entries, err := os.ReadDir(path)
			if err != nil {
				s.skipped++
				continue
			}
			for _, e := range entries {
				s.stack = append(s.stack, filepath.Join(path, e.Name()))
			}
		default:
			s.consider(path, info)
		}
	}
	return nil
}

// consider applies the age gate, then scores and safety-filters a
// non-directory entry into a candidate.
func (s *Scan) consider(path string, info fs.FileInfo) {
	now := s.p.opts.Now()
	age := now.Sub(info.ModTime())
	if s.p.opts.MaxAge > 0 && age < s.p.opts.MaxAge {
		// Too young to be a cleanup target; excluded before scoring.
		return
	}

	category := categorize(path)
	risk := s.p.locationRisk(path)
	cand := types.CleanupCandidate{
		Path:          path,
		SizeBytes:     info.Size(),
		AgeSeconds:    int64(age.Seconds()),
		Category:      category,
		LocationRisk:  risk,
		PriorityScore: s.p.score(age, info.Size(), category, risk),
	}
	cand.Safe, cand.RejectReason = s.p.checkSafety(path, info)
	s.candidates = append(s.candidates, cand)
}

// Plan sorts and truncates what has been discovered so far. Call after
// Done() for a complete plan; calling earlier yields a partial one.
func (s *Scan) Plan() *types.CleanupPlan {
	return s.p.buildPlan(s.candidates, s.visited)
}
