package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds retries of a failed catalog request. MaxTries counts the
// first attempt, so 0 or 1 disables retrying.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) enabled() bool {
	return p.MaxTries > 1
}

// retryable reports whether err may succeed on a later attempt: network
// failures, 429 and 5xx responses.
func retryable(err error) bool {
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return false
}

func withRetry[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	if !p.enabled() {
		return op()
	}
	bo := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		bo.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		bo.MaxInterval = p.MaxInterval
	}
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(p.MaxTries))
}
