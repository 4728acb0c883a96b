package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockKVStore implements interfaces.KVStore for testing
type MockKVStore struct {
	mock.Mock
	name string
}

func (m *MockKVStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockKVStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKVStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockKVStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockKVStore) Name() string {
	return m.name
}

func (m *MockKVStore) LocationURI() string {
	return "mock:"
}
