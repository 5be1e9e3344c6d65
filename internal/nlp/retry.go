package nlp

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	maxAttempts   = 3
	baseInterval  = time.Second
	singleTimeout = 30 * time.Second
)

// retry runs fn up to maxAttempts times with exponential backoff and
// jitter. Errors wrapped with ErrPermanent stop the retries immediately.
func retry[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = baseInterval

	return backoff.Retry(ctx, func() (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, singleTimeout)
		defer cancel()

		out, err := fn(attemptCtx)
		if err != nil && errors.Is(err, ErrPermanent) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(maxAttempts))
}
