// Package report renders a snapshot into an operator-readable text
// report and writes timestamped report files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zenzone/guardian/internal/types"
)

// Writer renders snapshots and writes them as guardian_report_<ts>.txt
// files under Dir.
type Writer struct {
	Dir string

	now func() time.Time
}

// NewWriter creates a report writer targeting dir ("." if empty).
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{Dir: dir, now: time.Now}
}

// SetClock overrides the filename timestamp source (tests).
func (w *Writer) SetClock(now func() time.Time) { w.now = now }

// Write renders the snapshot and writes it to a new timestamped file,
// returning the file's path. Reports written within the same second get
// a numeric suffix instead of overwriting each other.
func (w *Writer) Write(snap types.Snapshot) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	base := fmt.Sprintf("guardian_report_%d", w.now().Unix())
	path := filepath.Join(w.Dir, base+".txt")
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(w.Dir, fmt.Sprintf("%s_%d.txt", base, n))
	}
	if err := os.WriteFile(path, []byte(Render(snap)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Render produces the text form of a snapshot.
func Render(snap types.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GUARDIAN SYSTEM REPORT\n")
	fmt.Fprintf(&b, "Generated: %s  (cycle %d)\n", snap.GeneratedAt.Format(time.RFC3339), snap.Cycle)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 60))

	fmt.Fprintf(&b, "Health Score: %.1f/100\n", snap.Health.Value)
	if snap.Latest != nil {
		fmt.Fprintf(&b, "  CPU:    %5.1f%%\n", snap.Latest.CPUPercent)
		fmt.Fprintf(&b, "  Memory: %5.1f%%\n", snap.Latest.MemoryPercent)
		fmt.Fprintf(&b, "  Disk:   %5.1f%%\n", snap.Latest.DiskPercent)
	}
	if len(snap.Health.Factors) > 0 {
		metrics := make([]string, 0, len(snap.Health.Factors))
		for m := range snap.Health.Factors {
			metrics = append(metrics, string(m))
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			if penalty := snap.Health.Factors[types.Metric(m)]; penalty > 0 {
				fmt.Fprintf(&b, "  penalty %s: %.1f\n", m, penalty)
			}
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Anomalies: %d\n", len(snap.Anomalies))
	for _, a := range snap.Anomalies {
		fmt.Fprintf(&b, "  %s: value %.1f deviates %.2f stddevs from baseline %.1f\n",
			a.Metric, a.Value, a.ZScore, a.Mean)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Trends:\n")
	for _, t := range snap.Trends {
		if t.Status != types.TrendOK {
			fmt.Fprintf(&b, "  %s: insufficient data\n", t.Metric)
			continue
		}
		fmt.Fprintf(&b, "  %s: %+.2f%%/hr, forecast %.1f%% in %s\n",
			t.Metric, t.Slope*3600, t.ForecastValue, t.ForecastHorizon)
	}
	b.WriteString("\n")

	if snap.Plan != nil {
		fmt.Fprintf(&b, "Cleanup Plan: %d candidates (%d safe), %s reclaimable\n",
			len(snap.Plan.Candidates), snap.Plan.SafeCount(), HumanBytes(snap.Plan.TotalReclaimableBytes))
		if snap.Plan.Truncated {
			fmt.Fprintf(&b, "  plan truncated by configured bounds\n")
		}
		for i, c := range snap.Plan.Candidates {
			if i >= 10 {
				fmt.Fprintf(&b, "  ... and %d more\n", len(snap.Plan.Candidates)-i)
				break
			}
			marker := "ok"
			if !c.Safe {
				marker = "UNSAFE: " + c.RejectReason
			}
			fmt.Fprintf(&b, "  %5.2f  %-8s %8s  %s (%s)\n",
				c.PriorityScore, c.Category, HumanBytes(c.SizeBytes), c.Path, marker)
		}
	} else {
		fmt.Fprintf(&b, "Cleanup Plan: none yet\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Optimization Score: %.1f/100\n", snap.OptimizationScore)
	for _, opt := range snap.Optimizations {
		fmt.Fprintf(&b, "  - %s\n", opt)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Recent Alerts: %d\n", len(snap.Alerts))
	for _, a := range snap.Alerts {
		fmt.Fprintf(&b, "  [%s] %s %s\n", strings.ToUpper(string(a.Level)),
			a.Timestamp.Format("15:04:05"), a.Message)
	}

	return b.String()
}

// HumanBytes formats a byte count for display.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
