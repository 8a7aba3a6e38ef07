package executor

import "context"

// Job is a single, opaque unit of work the Executor runs at most once.
//
// The core never inspects what a Job does; it only cares whether it
// returns a nil error (success, latency is recorded) or a non-nil error
// (failure, the sample is silently dropped). Callers close over whatever
// state they need — an RPC client, a spec, a logger — the Executor does
// not provide any of it.
type Job func(ctx context.Context) error
