package storage

import (
	"path/filepath"
	"testing"

	"github.com/ruteri/docvault/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, uri string) interfaces.StorageBackendLocation {
	loc, err := interfaces.NewStorageBackendLocation(uri)
	require.NoError(t, err)
	return loc
}

func TestStorageBackendFactory_StoreFor(t *testing.T) {
	factory := NewStorageBackendFactory(testLogger())
	dir := t.TempDir()

	store, err := factory.StoreFor(mustLocation(t, "file://"+dir))
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, store)

	mem1, err := factory.StoreFor(mustLocation(t, "mem://"))
	require.NoError(t, err)
	mem2, err := factory.StoreFor(mustLocation(t, "mem://"))
	require.NoError(t, err)
	assert.Same(t, mem1, mem2, "mem:// locations share one store per factory")

	store, err = factory.StoreFor(mustLocation(t, "s3://AK:SK@bucket/vaults?region=eu-west-1&endpoint=http://127.0.0.1:9000"))
	require.NoError(t, err)
	s3Store := store.(*S3Backend)
	assert.Equal(t, "vaults/docvault.registry", s3Store.getObjectKey("docvault.registry"))
	assert.NotContains(t, s3Store.LocationURI(), "SK")

	store, err = factory.StoreFor(mustLocation(t, "ipfs://127.0.0.1:5001/vaults?timeout=5s"))
	require.NoError(t, err)
	assert.Equal(t, "/vaults/docvault.registry", store.(*IPFSBackend).getMFSPath("docvault.registry"))

	_, err = factory.StoreFor(mustLocation(t, "ipfs://127.0.0.1:5001/?timeout=soon"))
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)

	store, err = factory.StoreFor(mustLocation(t, "vault://127.0.0.1:8200/secret/docvault?token=root"))
	require.NoError(t, err)
	vaultStore := store.(*VaultBackend)
	assert.Equal(t, "secret/data/docvault/k", vaultStore.secretPath("data", "k"))
	assert.Equal(t, "secret/metadata/docvault/k", vaultStore.secretPath("metadata", "k"))

	_, err = factory.StoreFor(mustLocation(t, "vault://127.0.0.1:8200/"))
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestStorageBackendFactory_CreateMultiStore(t *testing.T) {
	factory := NewStorageBackendFactory(testLogger())
	dir := t.TempDir()

	single, err := factory.CreateMultiStore([]interfaces.StorageBackendLocation{
		mustLocation(t, "file://" + filepath.Join(dir, "a")),
	})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, single)

	multi, err := factory.CreateMultiStore([]interfaces.StorageBackendLocation{
		mustLocation(t, "file://" + filepath.Join(dir, "a")),
		mustLocation(t, "mem://"),
	})
	require.NoError(t, err)
	assert.IsType(t, &MultiStorageBackend{}, multi)
	exerciseStore(t, multi)

	_, err = factory.CreateMultiStore([]interfaces.StorageBackendLocation{
		mustLocation(t, "vault://127.0.0.1:8200/"),
	})
	assert.Error(t, err)
}
