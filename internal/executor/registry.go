package executor

import "sync"

// defaultWindowMax is the maximum number of rolling-average samples the
// controller keeps around to judge a trend, absent an override.
const defaultWindowMax = 10

// latencyRegistry accumulates successes, total elapsed time, and a bounded
// trailing window of cumulative-average latencies.
//
// The window tracks the cumulative mean after each success, not a windowed
// mean: later entries move less per sample as the batch ages. This is an
// inherited quirk of the tool this was ported from, preserved on purpose —
// the controller's DELTA_RANGE threshold is tuned against it.
type latencyRegistry struct {
	mu             sync.Mutex
	successes      uint32
	totalElapsedMs uint64
	window         []uint64
	windowMax      int
}

func newLatencyRegistry(windowMax int) *latencyRegistry {
	return &latencyRegistry{window: make([]uint64, 0, windowMax), windowMax: windowMax}
}

// recordSuccess appends a new cumulative-average sample after a success.
func (r *latencyRegistry) recordSuccess(elapsedMs uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.successes++
	r.totalElapsedMs += elapsedMs
	avg := r.totalElapsedMs / uint64(r.successes)

	r.window = append(r.window, avg)
	for len(r.window) > r.windowMax {
		r.window = r.window[1:]
	}
}

// snapshotWindow returns a copy of the current window for the controller.
func (r *latencyRegistry) snapshotWindow() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint64, len(r.window))
	copy(out, r.window)
	return out
}

// totals returns (successes, totalElapsedMs) as a consistent pair.
func (r *latencyRegistry) totals() (uint32, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.successes, r.totalElapsedMs
}
