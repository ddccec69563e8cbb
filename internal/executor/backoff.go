package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/logging"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
)

// RetryPolicy decides whether and how long to wait before retrying a failed
// upstream call.
//
// Client errors (4xx except 429) are never retried. 429 responses wait for
// the Retry-After duration when given, the exponential delay otherwise, and
// do not consume a retry attempt. Server and transport errors retry with
// exponential backoff until the attempt budget is spent.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	afterFunc  func(time.Duration) <-chan time.Time
}

func NewRetryPolicy(
	maxRetries int,
	baseDelay time.Duration,
	afterFunc func(time.Duration) <-chan time.Time,
) RetryPolicy {
	return RetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		afterFunc:  afterFunc,
	}
}

func NewDefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(DefaultMaxRetries, DefaultBaseDelay, time.After)
}

func (p RetryPolicy) exponentialDelay(attempt int) time.Duration {
	return p.baseDelay << attempt
}

func (p RetryPolicy) wait(ctx context.Context, delay time.Duration, reason string, attempt int) error {
	logging.FromContext(ctx).Warn(
		"waiting before retrying upstream call",
		"delay", delay.String(),
		"reason", reason,
		"attempt", attempt,
	)

	select {
	case <-p.afterFunc(delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("canceled while waiting to retry: %w", ctx.Err())
	}
}

// Execute runs operation, retrying per the policy. The attempt index is
// frozen while the upstream answers 429, so a rate-limited call can wait
// through any number of 429s without spending its retry budget.
func (p RetryPolicy) Execute(ctx context.Context, operation func(context.Context) error) error {
	attempt := 0
	for attempt <= p.maxRetries {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		status := -1
		retryAfter := time.Duration(0)
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
			retryAfter = statusErr.RetryAfter
		}

		if status == http.StatusTooManyRequests {
			delay := retryAfter
			if delay <= 0 {
				delay = p.exponentialDelay(attempt)
			}
			if waitErr := p.wait(ctx, delay, "rate limited", attempt); waitErr != nil {
				return waitErr
			}
			continue
		}

		if status >= 400 && status < 500 {
			// The request itself is at fault. Retrying will not help.
			return err
		}

		if attempt >= p.maxRetries {
			return fmt.Errorf("%w: %w", domain.ErrRetriesExhausted, err)
		}

		if waitErr := p.wait(ctx, p.exponentialDelay(attempt), "upstream error", attempt); waitErr != nil {
			return waitErr
		}
		attempt++
	}

	return domain.ErrRetriesExhausted
}
