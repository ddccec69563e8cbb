package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

const DefaultConcurrencyCap = 10

// Executor admits outbound upstream calls through a bounded-concurrency
// FIFO queue and runs each admitted call under the retry policy.
//
// Admission order is first-come-first-served; completion order is not
// guaranteed. Queue depth is unbounded. A task's failure propagates only to
// its own caller and never affects sibling tasks.
type Executor struct {
	slots  *semaphore.Weighted
	policy RetryPolicy
}

func New(concurrencyCap int, policy RetryPolicy) *Executor {
	if concurrencyCap < 1 {
		concurrencyCap = 1
	}
	return &Executor{
		slots:  semaphore.NewWeighted(int64(concurrencyCap)),
		policy: policy,
	}
}

func NewDefault() *Executor {
	return New(DefaultConcurrencyCap, NewDefaultRetryPolicy())
}

// Do blocks until a slot is free, then runs operation with retries.
func (e *Executor) Do(ctx context.Context, operation func(context.Context) error) error {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("canceled while waiting for an execution slot: %w", err)
	}
	defer e.slots.Release(1)

	return e.policy.Execute(ctx, operation)
}

// Submit queues operation and returns a channel that yields its final
// result once it has run to completion.
func (e *Executor) Submit(ctx context.Context, operation func(context.Context) error) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- e.Do(ctx, operation)
	}()
	return result
}
