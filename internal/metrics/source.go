// Package metrics supplies Sample producers for the scheduler. The core
// only sees the Source interface; whether readings are real, estimated,
// or synthetic is this package's concern.
package metrics

import (
	"context"

	"github.com/zenzone/guardian/internal/types"
)

// Source produces one Sample per invocation. Implementations must be
// cheap enough to call once per monitor tick.
type Source interface {
	Sample(ctx context.Context) (types.Sample, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (types.Sample, error)

func (f SourceFunc) Sample(ctx context.Context) (types.Sample, error) {
	return f(ctx)
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
