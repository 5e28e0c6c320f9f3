package stats

import (
	"math"
	"time"
)

type point struct {
	t time.Time
	v float64
}

// Window is a fixed-capacity FIFO of readings for one metric. Mean and
// variance are maintained incrementally with Welford's method, updated on
// both insertion and eviction, so the baseline never suffers the
// catastrophic cancellation a naive sum-of-squares accumulator would.
type Window struct {
	capacity int
	points   []point
	mean     float64
	m2       float64
}

// NewWindow creates a window with the given capacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 50
	}
	return &Window{capacity: capacity, points: make([]point, 0, capacity)}
}

// Push appends a reading, evicting the oldest when full.
func (w *Window) Push(t time.Time, v float64) {
	if len(w.points) == w.capacity {
		w.evict()
	}

	w.points = append(w.points, point{t: t, v: v})
	n := float64(len(w.points))
	delta := v - w.mean
	w.mean += delta / n
	w.m2 += delta * (v - w.mean)
}

// evict removes the oldest point and reverses its Welford contribution.
func (w *Window) evict() {
	n := float64(len(w.points))
	old := w.points[0].v
	w.points = w.points[1:]

	if n <= 1 {
		w.mean = 0
		w.m2 = 0
		return
	}
	prevMean := w.mean
	w.mean = (n*w.mean - old) / (n - 1)
	w.m2 -= (old - prevMean) * (old - w.mean)
	if w.m2 < 0 { // floating point drift
		w.m2 = 0
	}
}

// Len returns the number of readings held.
func (w *Window) Len() int { return len(w.points) }

// Mean returns the window mean, or 0 when empty.
func (w *Window) Mean() float64 {
	if len(w.points) == 0 {
		return 0
	}
	return w.mean
}

// StdDev returns the population standard deviation over the window.
func (w *Window) StdDev() float64 {
	n := len(w.points)
	if n == 0 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(n))
}

// Latest returns the most recent reading.
func (w *Window) Latest() (time.Time, float64, bool) {
	if len(w.points) == 0 {
		return time.Time{}, 0, false
	}
	p := w.points[len(w.points)-1]
	return p.t, p.v, true
}

// Slope computes the ordinary least-squares slope of value over elapsed
// time across the window, in units per second. A window of identical
// values, or one with no time spread, has slope 0.
func (w *Window) Slope() float64 {
	n := len(w.points)
	if n < 2 {
		return 0
	}

	t0 := w.points[0].t
	var sumT, sumV float64
	for _, p := range w.points {
		sumT += p.t.Sub(t0).Seconds()
		sumV += p.v
	}
	meanT := sumT / float64(n)
	meanV := sumV / float64(n)

	var num, den float64
	for _, p := range w.points {
		dt := p.t.Sub(t0).Seconds() - meanT
		num += dt * (p.v - meanV)
		den += dt * dt
	}
	if den == 0 {
		return 0
	}
	return num / den
}
