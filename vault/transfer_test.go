package vault

import (
	"context"
	"testing"

	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportAsNew(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	work, err := s.CreateVault(ctx, "Work", "pw123")
	require.NoError(t, err)
	_, err = s.AddSignature(ctx, interfaces.SignatureRecord{Name: "Jane", ImageData: "x", Kind: interfaces.SignatureKindDraw})
	require.NoError(t, err)

	bundle, err := s.ExportVault(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.TransferBundleVersion, bundle.Version)
	assert.Equal(t, "Work", bundle.Name)
	assert.Equal(t, work.Salt, bundle.Salt)
	payload, err := store.Get(ctx, registry.PayloadKey(work.ID))
	require.NoError(t, err)
	assert.Equal(t, payload, bundle.Payload, "bundles reuse the persisted ciphertext")

	imported, err := s.ImportVaultAsNew(ctx, bundle, "pw123")
	require.NoError(t, err)
	assert.Equal(t, "Work (1)", imported.Name)
	assert.NotEqual(t, work.ID, imported.ID)
	assert.Equal(t, work.Salt, imported.Salt)
	assert.Equal(t, imported.ID, s.ActiveVaultID())

	signatures, err := s.GetSignatures()
	require.NoError(t, err)
	require.Len(t, signatures, 1)

	for _, id := range []string{work.ID, imported.ID} {
		s.Lock()
		require.NoError(t, s.Unlock(ctx, id, "pw123"))
	}

	list, err := s.GetRegistry(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestImportVaultAsNew_Rejected(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	_, err := s.CreateVault(ctx, "Work", "pw123")
	require.NoError(t, err)
	bundle, err := s.ExportVault(ctx)
	require.NoError(t, err)
	s.Lock()
	before := snapshot(t, store)

	_, err = s.ImportVaultAsNew(ctx, bundle, "wrong")
	assert.ErrorIs(t, err, interfaces.ErrWrongPassword)

	incomplete := *bundle
	incomplete.Payload = ""
	_, err = s.ImportVaultAsNew(ctx, &incomplete, "pw123")
	assert.ErrorIs(t, err, interfaces.ErrInvalidBundle)

	future := *bundle
	future.Version = 2
	_, err = s.ImportVaultAsNew(ctx, &future, "pw123")
	assert.ErrorIs(t, err, interfaces.ErrInvalidBundle)

	_, err = s.ImportVaultAsNew(ctx, nil, "pw123")
	assert.ErrorIs(t, err, interfaces.ErrInvalidBundle)

	garbage := *bundle
	garbage.Payload = "bm90IGEgdmF1bHQ="
	_, err = s.ImportVaultAsNew(ctx, &garbage, "pw123")
	assert.ErrorIs(t, err, interfaces.ErrWrongPassword)

	assert.Equal(t, before, snapshot(t, store))
	assert.False(t, s.IsUnlocked())
}

func TestReplaceVaultWithImport(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	_, err := s.CreateVault(ctx, "Source", "file-pw")
	require.NoError(t, err)
	_, err = s.AddSignature(ctx, interfaces.SignatureRecord{Name: "Jane", ImageData: "x", Kind: interfaces.SignatureKindType})
	require.NoError(t, err)
	bundle, err := s.ExportVault(ctx)
	require.NoError(t, err)

	dest, err := s.CreateVault(ctx, "Destination", "my-pw")
	require.NoError(t, err)
	before := snapshot(t, store)

	assert.ErrorIs(t, s.ReplaceVaultWithImport(ctx, bundle, "file-pw", "not-mine"), interfaces.ErrWrongPassword)
	assert.ErrorIs(t, s.ReplaceVaultWithImport(ctx, bundle, "not-file", "my-pw"), interfaces.ErrWrongPassword)
	assert.Equal(t, before, snapshot(t, store))

	require.NoError(t, s.ReplaceVaultWithImport(ctx, bundle, "file-pw", "my-pw"))
	signatures, err := s.GetSignatures()
	require.NoError(t, err)
	require.Len(t, signatures, 1)
	assert.Equal(t, "Jane", signatures[0].Name)

	s.Lock()
	assert.ErrorIs(t, s.Unlock(ctx, dest.ID, "file-pw"), interfaces.ErrWrongPassword, "the imported password is never adopted")
	require.NoError(t, s.Unlock(ctx, dest.ID, "my-pw"))
	signatures, err = s.GetSignatures()
	require.NoError(t, err)
	assert.Len(t, signatures, 1)

	got, err := m.Registry().Get(ctx, dest.ID)
	require.NoError(t, err)
	assert.Equal(t, "Destination", got.Name)
	assert.Equal(t, dest.Salt, got.Salt)
}

func TestReplaceVaultWithImport_RequiresUnlocked(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	_, err := s.CreateVault(ctx, "Work", "pw")
	require.NoError(t, err)
	bundle, err := s.ExportVault(ctx)
	require.NoError(t, err)
	s.Lock()

	assert.ErrorIs(t, s.ReplaceVaultWithImport(ctx, bundle, "pw", "pw"), interfaces.ErrNotUnlocked)
}
