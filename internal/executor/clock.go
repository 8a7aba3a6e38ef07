package executor

import "time"

// Clock returns the current wall-clock time in milliseconds since the Unix
// epoch. It is injected into the Executor so tests can drive latency
// measurements deterministically.
type Clock func() uint64

// SystemClock is the production Clock, backed by time.Now.
//
// Panics if the system clock reports a time before the Unix epoch, matching
// the original tool's behaviour (it panics rather than returning a negative
// duration, which u128 cannot represent).
func SystemClock() uint64 {
	now := time.Now().UnixMilli()
	if now < 0 {
		panic("system clock before Unix epoch")
	}
	return uint64(now)
}
