package executor

import "sync/atomic"

// defaultMinLimit is the floor the controller will never decrement the
// admission limit below, absent an override.
const defaultMinLimit = 1

// admissionState tracks how many jobs are currently spawned-but-not-yet-
// finished, and the current admission cap the controller is allowed to
// raise or lower.
//
// inFlight and limit are plain atomics. The original tool this was ported
// from did a non-atomic load-then-store on its in-flight counter, which can
// under-count across concurrent increments/decrements; here both bump and
// drop use fetch-add/fetch-sub so the counter is correct under contention
// even though it remains an advisory admission gate, not a hard limiter.
type admissionState struct {
	inFlight uint32
	limit    uint32
	minLimit uint32
}

func newAdmissionState(initialLimit, minLimit uint32) *admissionState {
	return &admissionState{limit: initialLimit, minLimit: minLimit}
}

func (a *admissionState) enter() {
	atomic.AddUint32(&a.inFlight, 1)
}

func (a *admissionState) leave() {
	atomic.AddUint32(&a.inFlight, ^uint32(0))
}

func (a *admissionState) loadInFlight() uint32 {
	return atomic.LoadUint32(&a.inFlight)
}

func (a *admissionState) loadLimit() uint32 {
	return atomic.LoadUint32(&a.limit)
}

// double doubles the limit, matching the controller's "rising latency ⇒
// more headroom" heuristic. Saturates rather than wrapping.
func (a *admissionState) double() {
	for {
		old := atomic.LoadUint32(&a.limit)
		next := old * 2
		if next < old {
			next = ^uint32(0) // saturate on overflow
		}
		if atomic.CompareAndSwapUint32(&a.limit, old, next) {
			return
		}
	}
}

// decrement lowers the limit by one, clamped at a.minLimit.
func (a *admissionState) decrement() {
	for {
		old := atomic.LoadUint32(&a.limit)
		next := old - 1
		if old <= a.minLimit {
			next = a.minLimit
		}
		if atomic.CompareAndSwapUint32(&a.limit, old, next) {
			return
		}
	}
}
