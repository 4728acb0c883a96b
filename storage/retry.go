package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ruteri/docvault/interfaces"
)

// RetryingStore wraps a store and retries operations that failed with
// ErrBackendUnavailable. Each attempt is a full Set of the whole value, so a
// retried write never leaves a mix of old and new content behind.
type RetryingStore struct {
	interfaces.KVStore

	attempts int
	backoff  time.Duration
	log      *slog.Logger
}

// NewRetryingStore wraps inner. attempts counts the first try; backoff is the
// initial wait, doubled (with jitter) after each failure.
func NewRetryingStore(inner interfaces.KVStore, attempts int, backoff time.Duration, log *slog.Logger) *RetryingStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingStore{
		KVStore:  inner,
		attempts: attempts,
		backoff:  backoff,
		log:      log,
	}
}

func (r *RetryingStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.retry(ctx, "get", key, func() error {
		var err error
		value, err = r.KVStore.Get(ctx, key)
		return err
	})
	return value, err
}

func (r *RetryingStore) Set(ctx context.Context, key, value string) error {
	return r.retry(ctx, "set", key, func() error {
		return r.KVStore.Set(ctx, key, value)
	})
}

func (r *RetryingStore) Remove(ctx context.Context, key string) error {
	return r.retry(ctx, "remove", key, func() error {
		return r.KVStore.Remove(ctx, key)
	})
}

func (r *RetryingStore) retry(ctx context.Context, op, key string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.backoff
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	var lastErr error
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		lastErr = fn()
		if lastErr != nil && !errors.Is(lastErr, interfaces.ErrBackendUnavailable) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.attempts-1)), ctx), func(err error, wait time.Duration) {
		r.log.Warn("Retrying storage operation",
			slog.String("op", op),
			slog.String("key", key),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			"err", err)
	})

	if ctxErr := ctx.Err(); err != nil && ctxErr != nil && errors.Is(err, ctxErr) && lastErr != nil {
		return errors.Join(lastErr, ctxErr)
	}
	return err
}
