package metrics

import (
	"context"
	"math/rand"
	"time"

	"github.com/zenzone/guardian/internal/types"
)

// SyntheticSource generates plausible readings around configurable
// baselines with bounded random drift. Each reading is smoothed against
// the previous one, so consecutive samples move gradually the way real
// load does. A fixed seed makes the sequence reproducible for tests.
type SyntheticSource struct {
	rng  *rand.Rand
	now  func() time.Time
	last types.Sample
	has  bool

	// Baselines and drift amplitude, in percent.
	CPUBase, MemBase, DiskBase float64
	Jitter                     float64
}

// NewSynthetic creates a synthetic sampler with the given seed.
func NewSynthetic(seed int64) *SyntheticSource {
	return &SyntheticSource{
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		CPUBase: 35, MemBase: 55, DiskBase: 70,
		Jitter: 15,
	}
}

// Sample implements Source.
func (s *SyntheticSource) Sample(_ context.Context) (types.Sample, error) {
	next := types.Sample{
		Timestamp:     s.now(),
		CPUPercent:    clampPct(s.CPUBase + (s.rng.Float64()*2-1)*s.Jitter),
		MemoryPercent: clampPct(s.MemBase + (s.rng.Float64()*2-1)*s.Jitter),
		DiskPercent:   clampPct(s.DiskBase + (s.rng.Float64()*2-1)*s.Jitter/3),
	}
	if s.has {
		next.CPUPercent = (next.CPUPercent + s.last.CPUPercent) / 2
		next.MemoryPercent = (next.MemoryPercent + s.last.MemoryPercent) / 2
		next.DiskPercent = (next.DiskPercent + s.last.DiskPercent) / 2
	}
	s.last = next
	s.has = true
	return next, nil
}

// SetClock overrides the timestamp source (used by tests).
func (s *SyntheticSource) SetClock(now func() time.Time) { s.now = now }
