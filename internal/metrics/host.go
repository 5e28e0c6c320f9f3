//go:build linux || darwin

package metrics

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/zenzone/guardian/internal/types"
)

// HostSource reads real disk usage and estimates CPU and memory pressure
// from in-process proxies. It does not attempt OS-level process
// introspection: CPU is estimated by timing a fixed workload against a
// calibrated baseline, memory from the Go heap's share of what the
// runtime has reserved. Disk comes from statfs and is accurate.
type HostSource struct {
	// Path is the filesystem whose usage is reported. Defaults to "/".
	Path string

	lastCPU float64
	hasCPU  bool
}

// NewHost creates a host sampler for the given filesystem path.
func NewHost(path string) *HostSource {
	if path == "" {
		path = "/"
	}
	return &HostSource{Path: path}
}

// Sample implements Source.
func (h *HostSource) Sample(ctx context.Context) (types.Sample, error) {
	diskPct, err := h.diskPercent()
	if err != nil {
		return types.Sample{}, err
	}

	cpu := h.estimateCPU(ctx)
	if h.hasCPU {
		cpu = (cpu + h.lastCPU) / 2
	}
	h.lastCPU = cpu
	h.hasCPU = true

	return types.Sample{
		Timestamp:     time.Now(),
		CPUPercent:    clampPct(cpu),
		MemoryPercent: clampPct(h.estimateMemory()),
		DiskPercent:   clampPct(diskPct),
	}, nil
}

func (h *HostSource) diskPercent() (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(h.Path, &st); err != nil {
		return 0, err
	}
	total := st.Blocks * uint64(st.Bsize)
	if total == 0 {
		return 0, nil
	}
	free := st.Bavail * uint64(st.Bsize)
	return float64(total-free) / float64(total) * 100, nil
}

// estimateCPU times a fixed arithmetic workload for a short slice and
// compares the achieved iteration count to an idle-machine calibration.
// Fewer iterations means the CPU was busy elsewhere.
func (h *HostSource) estimateCPU(ctx context.Context) float64 {
	const window = 10 * time.Millisecond
	const idleIterations = 4_000_000

	deadline := time.Now().Add(window)
	iterations := 0
	acc := 0
	for time.Now().Before(deadline) {
		for i := 0; i < 1000; i++ {
			acc += i
		}
		iterations += 1000
		select {
		case <-ctx.Done():
			return 50
		default:
		}
	}
	_ = acc

	busy := 100 - float64(iterations)/float64(idleIterations)*100
	if busy < 5 {
		busy = 5
	}
	return busy
}

func (h *HostSource) estimateMemory() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapSys == 0 {
		return 0
	}
	// Heap occupancy is only a proxy, anchored into a plausible band.
	occupancy := float64(ms.HeapAlloc) / float64(ms.HeapSys) * 100
	return 30 + occupancy*0.6
}
