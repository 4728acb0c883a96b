package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/docvault/interfaces"
)

// MultiStorageBackend implements interfaces.KVStore by mirroring onto several
// backends. Mutations succeed on all of them or on none.
type MultiStorageBackend struct {
	backends []interfaces.KVStore
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new mirrored store with read fallback
func NewMultiStorageBackend(backends []interfaces.KVStore, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Get returns the value from the first available backend that has key.
func (m *MultiStorageBackend) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	var errs []error
	notFound := 0

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key))
			continue
		}

		value, err := backend.Get(ctx, key)
		if err == nil {
			m.log.Debug("Fetched value",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return value, nil
		}
		if errors.Is(err, interfaces.ErrContentNotFound) {
			notFound++
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("key", key),
			"err", err)
	}

	if len(errs) == 0 && notFound > 0 {
		return "", interfaces.ErrContentNotFound
	}

	m.log.Error("All backends failed to fetch value",
		slog.String("key", key),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return "", fmt.Errorf("%w: all backends failed to fetch %s: %v", interfaces.ErrBackendUnavailable, key, errs)
}

// Set writes value to every backend. If any backend is unavailable nothing is
// written; if one fails, the backends already written get their previous value back.
func (m *MultiStorageBackend) Set(ctx context.Context, key, value string) error {
	return m.mutate(ctx, "store", key, func(backend interfaces.KVStore) error {
		return backend.Set(ctx, key, value)
	})
}

// Remove deletes key from every backend with the same all-or-nothing rule as Set.
func (m *MultiStorageBackend) Remove(ctx context.Context, key string) error {
	return m.mutate(ctx, "remove", key, func(backend interfaces.KVStore) error {
		return backend.Remove(ctx, key)
	})
}

// previous is the value a backend held before a mutation.
type previous struct {
	backend interfaces.KVStore
	value   string
	existed bool
}

func (m *MultiStorageBackend) mutate(ctx context.Context, op, key string, fn func(interfaces.KVStore) error) error {
	start := time.Now()

	if len(m.backends) == 0 {
		return fmt.Errorf("%w: no backends to %s %s", interfaces.ErrBackendUnavailable, op, key)
	}
	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Warn("Refusing partial write, backend unavailable",
				slog.String("op", op),
				slog.String("backend_name", backend.Name()),
				slog.String("key", key))
			return fmt.Errorf("%w: %s unavailable, did not %s %s", interfaces.ErrBackendUnavailable, backend.Name(), op, key)
		}
	}

	done := make([]previous, 0, len(m.backends))
	for _, backend := range m.backends {
		value, err := backend.Get(ctx, key)
		if err != nil && !errors.Is(err, interfaces.ErrContentNotFound) {
			m.rollback(ctx, key, done)
			return fmt.Errorf("%s: failed to read %s before %s: %w", backend.Name(), key, op, err)
		}
		prev := previous{backend: backend, value: value, existed: err == nil}

		if err := fn(backend); err != nil {
			m.log.Warn("Backend operation failed, rolling back",
				slog.String("op", op),
				slog.String("backend_name", backend.Name()),
				slog.String("key", key),
				slog.Int("rolled_back", len(done)),
				"err", err)
			m.rollback(ctx, key, done)
			return fmt.Errorf("%s: failed to %s %s: %w", backend.Name(), op, key, err)
		}
		done = append(done, prev)
	}

	m.log.Debug("Mirrored operation",
		slog.String("op", op),
		slog.String("key", key),
		slog.Int("backends", len(done)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// rollback restores the previous values of key. A backend that cannot be
// restored now disagrees with the others; that is logged as an error.
func (m *MultiStorageBackend) rollback(ctx context.Context, key string, done []previous) {
	for _, prev := range done {
		var err error
		if prev.existed {
			err = prev.backend.Set(ctx, key, prev.value)
		} else {
			err = prev.backend.Remove(ctx, key)
		}
		if err != nil {
			m.log.Error("Backends diverged, rollback failed",
				slog.String("backend_name", prev.backend.Name()),
				slog.String("key", key),
				"err", err)
		}
	}
}

// Available checks if any backend is available
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the URI of this backend
func (m *MultiStorageBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
