package diskio

import (
	"math"
	"slices"
	"time"
)

// LatencyWindow keeps the most recent completion latencies and reports
// percentiles over them.
type LatencyWindow struct {
	samples []time.Duration
	next    int
	full    bool
}

// NewLatencyWindow creates a window holding up to size samples.
func NewLatencyWindow(size int) *LatencyWindow {
	if size < 1 {
		size = 1
	}
	return &LatencyWindow{samples: make([]time.Duration, size)}
}

// Add records a sample, evicting the oldest once the window is full.
func (w *LatencyWindow) Add(d time.Duration) {
	w.samples[w.next] = d
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

// Len returns the number of samples held.
func (w *LatencyWindow) Len() int {
	if w.full {
		return len(w.samples)
	}
	return w.next
}

// Percentile returns the nearest-rank p-th percentile, or 0 with no samples.
func (w *LatencyWindow) Percentile(p float64) time.Duration {
	n := w.Len()
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(w.samples[:n])
	slices.Sort(sorted)

	rank := int(math.Ceil(p/100*float64(n))) - 1
	rank = max(0, min(rank, n-1))
	return sorted[rank]
}

// Reset discards all samples.
func (w *LatencyWindow) Reset() {
	w.next = 0
	w.full = false
}
