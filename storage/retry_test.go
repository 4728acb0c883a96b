package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ruteri/docvault/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRetryingStore_RetriesUnavailable(t *testing.T) {
	inner := &MockKVStore{name: "flaky"}
	inner.On("Set", mock.Anything, "k", "v").Return(interfaces.ErrBackendUnavailable).Twice()
	inner.On("Set", mock.Anything, "k", "v").Return(nil).Once()

	store := NewRetryingStore(inner, 3, time.Millisecond, testLogger())
	assert.NoError(t, store.Set(context.Background(), "k", "v"))
	inner.AssertNumberOfCalls(t, "Set", 3)
}

func TestRetryingStore_GivesUp(t *testing.T) {
	inner := &MockKVStore{name: "down"}
	inner.On("Get", mock.Anything, "k").Return("", interfaces.ErrBackendUnavailable)

	store := NewRetryingStore(inner, 2, time.Millisecond, testLogger())
	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
	inner.AssertNumberOfCalls(t, "Get", 2)
}

func TestRetryingStore_DoesNotRetryOtherErrors(t *testing.T) {
	inner := &MockKVStore{name: "strict"}
	inner.On("Remove", mock.Anything, "k").Return(errors.New("permission denied"))
	inner.On("Get", mock.Anything, "missing").Return("", interfaces.ErrContentNotFound)

	store := NewRetryingStore(inner, 5, time.Millisecond, testLogger())
	assert.Error(t, store.Remove(context.Background(), "k"))
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	inner.AssertNumberOfCalls(t, "Remove", 1)
	inner.AssertNumberOfCalls(t, "Get", 1)
}

func TestRetryingStore_ContextCancelled(t *testing.T) {
	inner := &MockKVStore{name: "down"}
	inner.On("Set", mock.Anything, "k", "v").Return(interfaces.ErrBackendUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewRetryingStore(inner, 5, time.Hour, testLogger())
	err := store.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
	inner.AssertNumberOfCalls(t, "Set", 1)
}

func TestRetryingStore_SingleAttempt(t *testing.T) {
	inner := &MockKVStore{name: "down"}
	inner.On("Set", mock.Anything, "k", "v").Return(interfaces.ErrBackendUnavailable)

	store := NewRetryingStore(inner, 0, time.Millisecond, testLogger())
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), interfaces.ErrBackendUnavailable)
	inner.AssertNumberOfCalls(t, "Set", 1)
}
