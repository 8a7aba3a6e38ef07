// Package executor implements the bounded, self-tuning concurrent job
// engine: a fan-out dispatcher that caps in-flight jobs at an admission
// limit, measures per-job latency, and periodically retunes the limit by
// inspecting the trend of recent rolling-average latencies.
//
// This is a from-scratch port of a concurrency pattern originally written
// against tokio: spawn one goroutine per job, poll an atomic admission gate
// for backpressure, and run a second goroutine that nudges the gate's limit
// based on whether recent latency is trending up or down. Everything here
// is scoped to a single Executor value rather than process-wide globals, so
// nothing needs resetting between batches — just construct a new Executor.
package executor

import (
	"context"
	"fmt"
	"time"
)

// Tunables configures the core engine's fixed points: the starting
// admission limit, the controller's window size, how often it re-tunes,
// its noise floor, and the floor it won't decrement below. DefaultTunables
// reproduces the values this engine was ported from; internal/appconfig
// overrides them from TOML/env for experimentation.
type Tunables struct {
	InitialLimit   uint32
	WindowMax      int
	UpdateInterval time.Duration
	DeltaRangeMs   uint64
	MinLimit       uint32
}

// DefaultTunables returns the tunables this engine was ported from.
func DefaultTunables() Tunables {
	return Tunables{
		InitialLimit:   2,
		WindowMax:      defaultWindowMax,
		UpdateInterval: defaultUpdateInterval,
		DeltaRangeMs:   defaultDeltaRangeMs,
		MinLimit:       defaultMinLimit,
	}
}

// BatchResult is what a drained batch reports back to the caller.
type BatchResult struct {
	Successes      uint32
	TotalElapsedMs uint64
	// FinalLimit is the admission limit in effect when the batch finished,
	// after any controller adjustments.
	FinalLimit uint32
}

// AverageMs returns TotalElapsedMs / Successes, or 0 if nothing succeeded.
func (r BatchResult) AverageMs() uint64 {
	if r.Successes == 0 {
		return 0
	}
	return r.TotalElapsedMs / uint64(r.Successes)
}

// Executor runs one batch of Jobs under admission control. It holds no
// state that survives ExecuteBatch returning; create a new Executor per
// batch (or reuse one sequentially — ExecuteBatch resets its own state on
// entry).
type Executor struct {
	clock    Clock
	tunables Tunables
}

// New creates an Executor using DefaultTunables(). clock is injectable for
// deterministic tests; pass executor.SystemClock in production.
func New(clock Clock) *Executor {
	return &Executor{clock: clock, tunables: DefaultTunables()}
}

// NewWithTunables creates an Executor with an explicit Tunables, for callers
// that override the defaults (see internal/appconfig.Config.Tunables).
func NewWithTunables(clock Clock, tunables Tunables) *Executor {
	return &Executor{clock: clock, tunables: tunables}
}

// handle is the join handle for one spawned job: it reports either nil (the
// job returned, success or failure already recorded) or a non-nil error if
// the goroutine running the job panicked.
type handle struct {
	done chan error
}

// ExecuteBatch fans out jobs one at a time, in input order, gated by an
// admission limit. Once every job has been spawned, a controller goroutine
// adjusts that limit every updateInterval based on the trend of recorded
// latencies while the remaining jobs drain. It returns once every job has
// finished, or with an error as soon as it awaits the handle of a job whose
// goroutine panicked.
//
// Jobs are started in input order but may finish in any order. A job that
// returns a non-nil error is dropped from the latency statistics entirely —
// it counts toward neither Successes nor TotalElapsedMs.
func (e *Executor) ExecuteBatch(ctx context.Context, jobs []Job) (BatchResult, error) {
	registry := newLatencyRegistry(e.tunables.WindowMax)
	admit := newAdmissionState(e.tunables.InitialLimit, e.tunables.MinLimit)
	admissionLimitGauge.Set(float64(e.tunables.InitialLimit))

	pending := make([]*handle, 0, len(jobs))

	spawn := func(job Job) *handle {
		h := &handle{done: make(chan error, 1)}
		admit.enter()
		inFlightGauge.Set(float64(admit.loadInFlight()))

		go func() {
			defer func() {
				admit.leave()
				inFlightGauge.Set(float64(admit.loadInFlight()))

				if r := recover(); r != nil {
					h.done <- fmt.Errorf("job panicked: %v", r)
					return
				}
				h.done <- nil
			}()

			t0 := e.clock()
			err := job(ctx)
			if err == nil {
				t1 := e.clock()
				registry.recordSuccess(t1 - t0)
				jobsTotal.WithLabelValues("success").Inc()
				jobLatencySeconds.Observe(float64(t1-t0) / 1000)
			} else {
				jobsTotal.WithLabelValues("failure").Inc()
			}
		}()

		return h
	}

	await := func(h *handle) error {
		return <-h.done
	}

	for _, job := range jobs {
		h := spawn(job)
		pending = append(pending, h)

		for admit.loadLimit() <= admit.loadInFlight() {
			tail := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			if err := await(tail); err != nil {
				return BatchResult{}, err
			}
		}
	}

	var ctl *controller
	if len(jobs) > 0 {
		ctl = newController(registry, admit, e.tunables.UpdateInterval, e.tunables.DeltaRangeMs)
		go func() {
			ctl.run()
		}()
	}

	for _, h := range pending {
		if err := await(h); err != nil {
			if ctl != nil {
				ctl.stop()
			}
			return BatchResult{}, err
		}
	}

	if ctl != nil {
		ctl.stop()
	}

	finalLimit := admit.loadLimit()
	admissionLimitGauge.Set(float64(finalLimit))

	successes, total := registry.totals()
	return BatchResult{Successes: successes, TotalElapsedMs: total, FinalLimit: finalLimit}, nil
}
