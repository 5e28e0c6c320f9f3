// Package alerts keeps a bounded in-memory log of operator-facing
// alerts. The newest alerts win: once the log is full, raising another
// alert evicts the oldest.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/zenzone/guardian/internal/types"
)

// DefaultCapacity bounds the alert log when no capacity is given.
const DefaultCapacity = 100

var (
	infoIcon = color.New(color.FgCyan).SprintFunc()
	warnIcon = color.New(color.FgYellow).SprintFunc()
	critIcon = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Log is a fixed-capacity alert history. Safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []types.Alert
	echo     bool
	now      func() time.Time
}

// New creates an alert log holding at most capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, now: time.Now}
}

// SetEcho controls whether raised alerts are also printed to stdout.
func (l *Log) SetEcho(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = on
}

// SetClock overrides the timestamp source (tests).
func (l *Log) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Raise records an alert and returns it. The oldest entry is evicted if
// the log is at capacity.
func (l *Log) Raise(level types.AlertLevel, message string, details map[string]string) types.Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	alert := types.Alert{
		ID:        uuid.New().String(),
		Timestamp: l.now(),
		Level:     level,
		Message:   message,
		Details:   details,
	}
	l.entries = append(l.entries, alert)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
	if l.echo {
		fmt.Printf("%s %s\n", levelIcon(level), message)
	}
	return alert
}

// Infof raises an informational alert.
func (l *Log) Infof(format string, args ...interface{}) types.Alert {
	return l.Raise(types.AlertInfo, fmt.Sprintf(format, args...), nil)
}

// Warnf raises a warning alert.
func (l *Log) Warnf(format string, args ...interface{}) types.Alert {
	return l.Raise(types.AlertWarning, fmt.Sprintf(format, args...), nil)
}

// Critf raises a critical alert.
func (l *Log) Critf(format string, args ...interface{}) types.Alert {
	return l.Raise(types.AlertCritical, fmt.Sprintf(format, args...), nil)
}

// Recent returns up to n alerts, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []types.Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]types.Alert, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[len(l.entries)-1-i]
	}
	return out
}

// Len returns the number of alerts currently held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// CountByLevel tallies the held alerts per level.
func (l *Log) CountByLevel() map[types.AlertLevel]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := make(map[types.AlertLevel]int)
	for _, a := range l.entries {
		counts[a.Level]++
	}
	return counts
}

func levelIcon(level types.AlertLevel) string {
	switch level {
	case types.AlertCritical:
		return critIcon("✗")
	case types.AlertWarning:
		return warnIcon("⚠")
	default:
		return infoIcon("ℹ")
	}
}
