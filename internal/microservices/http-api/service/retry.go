package service

import (
	"context"
	"errors"
	"time"

	"stackit/internal/microservices/http-api/repository"

	"github.com/cenkalti/backoff/v4"
)

const defaultMaxAttempts = 3

// withRetry runs op up to attempts times while it fails with a store
// conflict. Anything else stops immediately.
func withRetry(ctx context.Context, attempts int, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 10 * time.Millisecond
	exp.MaxInterval = 200 * time.Millisecond
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	err := backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, repository.ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	return storeError(err)
}
