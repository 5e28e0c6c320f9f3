//go:build !linux && !darwin

package metrics

import "time"

// NewHost falls back to the synthetic sampler on platforms without
// statfs support.
func NewHost(path string) Source {
	return NewSynthetic(time.Now().UnixNano())
}
