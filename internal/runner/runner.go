// Package runner executes a fixed batch of independent jobs with bounded
// concurrency, per-job retry, and a deterministic final report.
//
// The runner performs no I/O of its own: each attempt is delegated to the
// supplied ExecFunc, and the only shared mutable state is the result
// accumulator, updated under a single mutex.
package runner

import (
	"context"
	"sync"
	"time"

	"tunepull/internal/model"
)

// MaxWorkers caps the worker pool size.
const MaxWorkers = 10

// DefaultBackoff is the fixed delay between transient retry attempts.
const DefaultBackoff = 2 * time.Second

// ExecFunc performs one attempt for a job and returns the output file path on
// success. Failures should be wrapped with Transient or Permanent; anything
// else is retried as transient. Implementations must honor ctx cancellation.
type ExecFunc func(ctx context.Context, job model.Job) (string, error)

// Runner schedules jobs over a bounded worker pool.
type Runner struct {
	exec    ExecFunc
	workers int
	retries int
	backoff time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the worker pool size, clamped to [1, MaxWorkers].
func WithWorkers(w int) Option {
	return func(r *Runner) {
		if w < 1 {
			w = 1
		}
		if w > MaxWorkers {
			w = MaxWorkers
		}
		r.workers = w
	}
}

// WithRetries sets the per-job attempt budget (minimum 1).
func WithRetries(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.retries = n
	}
}

// WithBackoff sets the fixed delay between transient retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// New constructs a Runner around the given execution function.
func New(exec ExecFunc, opts ...Option) *Runner {
	r := &Runner{
		exec:    exec,
		workers: 2,
		retries: 1,
		backoff: DefaultBackoff,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes all jobs and blocks until every job reaches a terminal state.
// The returned report contains exactly one result per submitted job, ordered
// by ordinal. Cancelling ctx stops new attempts; jobs not yet started are
// recorded as cancelled, while in-flight attempts resolve naturally.
func (r *Runner) Run(ctx context.Context, jobs []model.Job) model.BatchReport {
	results := make([]model.JobResult, len(jobs))
	var mu sync.Mutex

	idxCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxCh {
				res := r.runOne(ctx, jobs[idx])
				mu.Lock()
				results[idx] = res
				mu.Unlock()
			}
		}()
	}

	// Workers drain the channel even after cancellation (marking the
	// remainder cancelled), so feeding never blocks indefinitely.
	for i := range jobs {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	return model.NewBatchReport(results)
}

// runOne drives a single job through its attempt loop:
// Pending -> Running -> {Succeeded | Retrying -> Running | Failed | Cancelled}.
func (r *Runner) runOne(ctx context.Context, job model.Job) model.JobResult {
	if ctx.Err() != nil {
		return model.JobResult{Job: job, Outcome: model.OutcomeCancelled, Err: ctx.Err()}
	}

	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		out, err := r.exec(ctx, job)
		if err == nil {
			return model.JobResult{
				Job:        job,
				Outcome:    model.OutcomeSucceeded,
				OutputPath: out,
				Attempts:   attempt,
			}
		}
		lastErr = err

		// An attempt abandoned by cancellation is not a real failure.
		if ctx.Err() != nil {
			return model.JobResult{
				Job:      job,
				Outcome:  model.OutcomeCancelled,
				Err:      lastErr,
				Attempts: attempt,
			}
		}
		if ClassOf(err) == FailurePermanent {
			return model.JobResult{
				Job:      job,
				Outcome:  model.OutcomeFailed,
				Err:      lastErr,
				Attempts: attempt,
			}
		}
		if attempt < r.retries {
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return model.JobResult{
					Job:      job,
					Outcome:  model.OutcomeCancelled,
					Err:      lastErr,
					Attempts: attempt,
				}
			}
		}
	}

	return model.JobResult{
		Job:      job,
		Outcome:  model.OutcomeFailed,
		Err:      lastErr,
		Attempts: r.retries,
	}
}
