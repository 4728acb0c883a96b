package vault

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ruteri/docvault/cryptoutils"
	"github.com/ruteri/docvault/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// fastDeriver keeps the PBKDF2 construction but with a single iteration.
type fastDeriver struct{}

func (fastDeriver) DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, 1, cryptoutils.KeySize, sha256.New)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, *storage.MemoryBackend) {
	t.Helper()
	store := storage.NewMemoryBackend()
	return NewManager(store, discardLogger()).WithKeyDeriver(fastDeriver{}), store
}

func snapshot(t *testing.T, store *storage.MemoryBackend) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, key := range store.Keys() {
		value, err := store.Get(context.Background(), key)
		require.NoError(t, err)
		out[key] = value
	}
	return out
}

// flakyStore fails Set for keys with failPrefix.
type flakyStore struct {
	*storage.MemoryBackend
	failPrefix string
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if f.failPrefix != "" && strings.HasPrefix(key, f.failPrefix) {
		return errors.New("write refused")
	}
	return f.MemoryBackend.Set(ctx, key, value)
}
