package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// constantClock returns a Clock pinned at a fixed value, for tests that only
// care about success/failure counts and not about measured latency.
func constantClock(ms uint64) Clock {
	return func() uint64 { return ms }
}

func TestExecuteBatch_EmptyBatch(t *testing.T) {
	e := New(constantClock(0))
	result, err := e.ExecuteBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, result.Successes)
	require.Zero(t, result.TotalElapsedMs)
	require.Zero(t, result.AverageMs())
}

func TestExecuteBatch_AllSuccessRecordsEverySample(t *testing.T) {
	e := New(constantClock(0))

	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error { return nil }
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, uint32(20), result.Successes)
}

func TestExecuteBatch_AllFailureYieldsZeroSuccessesAndZeroTotal(t *testing.T) {
	e := New(constantClock(0))

	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error { return errors.New("boom") }
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Zero(t, result.Successes)
	require.Zero(t, result.TotalElapsedMs)
	require.Zero(t, result.AverageMs())
}

func TestExecuteBatch_MixedSuccessFailureCountsOnlySuccesses(t *testing.T) {
	e := New(constantClock(0))

	jobs := make([]Job, 10)
	for i := range jobs {
		i := i
		if i%2 == 0 {
			jobs[i] = func(ctx context.Context) error { return nil }
		} else {
			jobs[i] = func(ctx context.Context) error { return errors.New("boom") }
		}
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, uint32(5), result.Successes)
}

func TestExecuteBatch_SingleJobBatch(t *testing.T) {
	e := New(constantClock(0))

	result, err := e.ExecuteBatch(context.Background(), []Job{
		func(ctx context.Context) error { return nil },
	})
	require.NoError(t, err)
	require.Equal(t, uint32(1), result.Successes)
}

func TestExecuteBatch_PanickingJobSurfacesAsError(t *testing.T) {
	e := New(constantClock(0))

	jobs := []Job{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { panic("job exploded") },
	}

	_, err := e.ExecuteBatch(context.Background(), jobs)
	require.Error(t, err)
}

func TestExecuteBatch_ConstantLatencyProducesRealisticElapsed(t *testing.T) {
	// Each job sleeps a small, fixed duration measured by the real system
	// clock. The admission gate starts at 2, and the controller only starts
	// once every job has been spawned, so it never changes the gate during
	// this run.
	const (
		n       = 12
		latency = 5 * time.Millisecond
	)

	e := New(SystemClock)
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			time.Sleep(latency)
			return nil
		}
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, uint32(n), result.Successes)
	require.GreaterOrEqual(t, result.TotalElapsedMs, uint64(n)*uint64(latency/time.Millisecond))
}

func TestExecuteBatch_AdmissionGateBoundsConcurrency(t *testing.T) {
	// 8 jobs of latency each, starting limit 2, paired off two at a time:
	// 4 waves. The controller only starts once every job has been spawned,
	// so it never changes the gate during spawning — wall-clock should land in
	// [4x latency, 5x latency), matching the 4-wave serialization with some
	// scheduling slack on the upper bound.
	const (
		n       = 8
		latency = 20 * time.Millisecond
	)

	e := New(SystemClock)
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			time.Sleep(latency)
			return nil
		}
	}

	start := time.Now()
	result, err := e.ExecuteBatch(context.Background(), jobs)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, uint32(n), result.Successes)
	require.GreaterOrEqual(t, elapsed, 4*latency)
	require.Less(t, elapsed, 5*latency)
}

// The following reproduce the end-to-end scenarios with exact totals, using
// InitialLimit: 1 to force strictly serial execution (each job is spawned
// and fully awaited before the next starts, see ExecuteBatch's admission
// loop) and a shared fake "now" counter that each job body advances by its
// own latency instead of sleeping. That makes totals exact and immune to
// scheduler jitter; it does not exercise the controller's goroutine, which
// is covered separately by controller_test.go's tick() tests.

func TestExecuteBatch_Scenario1_AllSuccessConstantLatency(t *testing.T) {
	const (
		n       = 20
		latency = uint64(50)
	)

	var now uint64
	tunables := DefaultTunables()
	tunables.InitialLimit = 1
	e := NewWithTunables(func() uint64 { return now }, tunables)

	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			now += latency
			return nil
		}
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, uint32(n), result.Successes)
	require.Equal(t, uint64(n)*latency, result.TotalElapsedMs)
	require.Equal(t, latency, result.AverageMs())
}

func TestExecuteBatch_Scenario2_AllFailureYieldsZeroTotal(t *testing.T) {
	const n = 20

	var now uint64
	tunables := DefaultTunables()
	tunables.InitialLimit = 1
	e := NewWithTunables(func() uint64 { return now }, tunables)

	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			now += 50
			return errors.New("boom")
		}
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Zero(t, result.Successes)
	require.Zero(t, result.TotalElapsedMs)
}

func TestExecuteBatch_Scenario3_RisingLatencyTotal(t *testing.T) {
	const n = 12

	var now uint64
	tunables := DefaultTunables()
	tunables.InitialLimit = 1
	e := NewWithTunables(func() uint64 { return now }, tunables)

	jobs := make([]Job, n)
	for i := range jobs {
		latency := uint64(100 * (i + 1))
		jobs[i] = func(ctx context.Context) error {
			now += latency
			return nil
		}
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, uint32(n), result.Successes)
	require.Equal(t, uint64(7800), result.TotalElapsedMs)
}

func TestExecuteBatch_Scenario4_FallingLatencyTotal(t *testing.T) {
	const n = 12

	var now uint64
	tunables := DefaultTunables()
	tunables.InitialLimit = 1
	e := NewWithTunables(func() uint64 { return now }, tunables)

	jobs := make([]Job, n)
	for i := range jobs {
		latency := uint64(100 * (n - i))
		jobs[i] = func(ctx context.Context) error {
			now += latency
			return nil
		}
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, uint32(n), result.Successes)
	require.Equal(t, uint64(7800), result.TotalElapsedMs)
}

func TestExecuteBatch_Scenario5_AlternatingSuccessFailure(t *testing.T) {
	const n = 10

	var now uint64
	tunables := DefaultTunables()
	tunables.InitialLimit = 1
	e := NewWithTunables(func() uint64 { return now }, tunables)

	jobs := make([]Job, n)
	for i := range jobs {
		i := i
		jobs[i] = func(ctx context.Context) error {
			now += 40
			if i%2 == 0 {
				return nil
			}
			return errors.New("boom")
		}
	}

	result, err := e.ExecuteBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, uint32(5), result.Successes)
	require.Equal(t, uint64(200), result.TotalElapsedMs)
}

func TestExecuteBatch_JobsRunUnderContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "token")

	var sawValue atomic.Bool
	e := New(constantClock(0))

	_, err := e.ExecuteBatch(ctx, []Job{
		func(jobCtx context.Context) error {
			if jobCtx.Value(ctxKey{}) == "token" {
				sawValue.Store(true)
			}
			return nil
		},
	})

	require.NoError(t, err)
	require.True(t, sawValue.Load())
}
