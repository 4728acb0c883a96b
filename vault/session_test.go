package vault

import (
	"context"
	"sync"
	"testing"

	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/registry"
	"github.com/ruteri/docvault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVault_DefaultTemplates(t *testing.T) {
	// Real PBKDF2 parameters end to end.
	m := NewManager(storage.NewMemoryBackend(), discardLogger())
	s := m.NewSession()
	ctx := context.Background()

	d, err := s.CreateVault(ctx, "Work", "pw123")
	require.NoError(t, err)

	list, err := s.GetRegistry(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Work", list[0].Name)
	assert.Len(t, list[0].Salt, 16)

	assert.True(t, s.IsUnlocked())
	assert.Equal(t, d.ID, s.ActiveVaultID())

	templates, err := s.GetTemplatesStore()
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplatesStore(), templates)

	signatures, err := s.GetSignatures()
	require.NoError(t, err)
	assert.Empty(t, signatures)

	name, err := s.GetActiveVaultName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Work", name)

	has, err := s.HasVault(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCreateVault_EmptyName(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()

	_, err := s.CreateVault(context.Background(), "   ", "pw")
	assert.ErrorIs(t, err, interfaces.ErrEmptyName)
	assert.Empty(t, store.Keys())
	assert.False(t, s.IsUnlocked())
}

func TestCreateVault_RegistryWriteFailureLeavesNoPayload(t *testing.T) {
	store := &flakyStore{MemoryBackend: storage.NewMemoryBackend(), failPrefix: registry.RegistryKey}
	m := NewManager(store, discardLogger()).WithKeyDeriver(fastDeriver{})
	s := m.NewSession()

	_, err := s.CreateVault(context.Background(), "Work", "pw")
	assert.Error(t, err)
	assert.Empty(t, store.Keys())
	assert.False(t, s.IsUnlocked())
}

func TestSignatureSurvivesLockUnlock(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	d, err := s.CreateVault(ctx, "Work", "pw123")
	require.NoError(t, err)

	added, err := s.AddSignature(ctx, interfaces.SignatureRecord{
		ID:        "caller-chosen",
		Name:      "Jane",
		ImageData: "data:image/png;base64,iVBORw0KGgo=",
		Kind:      interfaces.SignatureKindDraw,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "caller-chosen", added.ID)
	assert.False(t, added.CreatedAt.IsZero())

	s.Lock()
	assert.False(t, s.IsUnlocked())
	_, err = s.GetSignatures()
	assert.ErrorIs(t, err, interfaces.ErrNotUnlocked)

	require.NoError(t, s.Unlock(ctx, d.ID, "pw123"))
	signatures, err := s.GetSignatures()
	require.NoError(t, err)
	require.Len(t, signatures, 1)
	assert.Equal(t, "Jane", signatures[0].Name)
	assert.Equal(t, added.ID, signatures[0].ID)
}

func TestUnlock_WrongPassword(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	d, err := s.CreateVault(ctx, "Work", "pw123")
	require.NoError(t, err)
	s.Lock()
	before := snapshot(t, store)

	err = s.Unlock(ctx, d.ID, "wrongpw")
	assert.ErrorIs(t, err, interfaces.ErrWrongPassword)
	assert.False(t, s.IsUnlocked())
	assert.Equal(t, before, snapshot(t, store))
}

func TestUnlock_FailureLocksPreviousSession(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	a, err := s.CreateVault(ctx, "A", "pa")
	require.NoError(t, err)
	_, err = s.CreateVault(ctx, "B", "pb")
	require.NoError(t, err)

	require.NoError(t, s.Unlock(ctx, a.ID, "pa"))
	assert.Error(t, s.Unlock(ctx, "unknown", "pa"))
	assert.False(t, s.IsUnlocked())
}

func TestUnlock_MissingVaultAndPayload(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	assert.ErrorIs(t, s.Unlock(ctx, "nope", "pw"), interfaces.ErrVaultNotFound)

	d, err := s.CreateVault(ctx, "Work", "pw")
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, registry.PayloadKey(d.ID)))

	assert.ErrorIs(t, s.Unlock(ctx, d.ID, "pw"), interfaces.ErrPayloadMissing)
	assert.False(t, s.IsUnlocked())
}

func TestSessionExclusivity(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	a, err := s.CreateVault(ctx, "A", "pa")
	require.NoError(t, err)
	b, err := s.CreateVault(ctx, "B", "pb")
	require.NoError(t, err)

	require.NoError(t, s.Unlock(ctx, a.ID, "pa"))
	keyA := s.active.key

	require.NoError(t, s.Unlock(ctx, b.ID, "pb"))
	assert.Equal(t, b.ID, s.ActiveVaultID())
	assert.Equal(t, make([]byte, len(keyA)), keyA, "the previous key is wiped")

	s.Lock()
	s.Lock()
	assert.False(t, s.IsUnlocked())
	assert.Equal(t, "", s.ActiveVaultID())
	name, err := s.GetActiveVaultName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestVerifyPassword(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	d, err := s.CreateVault(ctx, "Work", "pw")
	require.NoError(t, err)
	s.Lock()
	before := snapshot(t, store)

	assert.NoError(t, s.VerifyPassword(ctx, d.ID, "pw"))
	assert.ErrorIs(t, s.VerifyPassword(ctx, d.ID, "nope"), interfaces.ErrWrongPassword)
	assert.False(t, s.IsUnlocked(), "verification never opens a session")
	assert.Equal(t, before, snapshot(t, store))
}

func TestDeleteVault(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	a, err := s.CreateVault(ctx, "A", "pa")
	require.NoError(t, err)
	b, err := s.CreateVault(ctx, "B", "pb")
	require.NoError(t, err)
	before := snapshot(t, store)

	assert.ErrorIs(t, s.DeleteVault(ctx, a.ID, "pb"), interfaces.ErrWrongPassword)
	assert.ErrorIs(t, s.DeleteVault(ctx, "nope", "pb"), interfaces.ErrVaultNotFound)
	assert.Equal(t, before, snapshot(t, store))
	assert.Equal(t, b.ID, s.ActiveVaultID())

	// Deleting a vault that is not open keeps the session.
	require.NoError(t, s.DeleteVault(ctx, a.ID, "pa"))
	assert.Equal(t, b.ID, s.ActiveVaultID())
	_, err = store.Get(ctx, registry.PayloadKey(a.ID))
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	// Deleting the open vault locks.
	require.NoError(t, s.DeleteVault(ctx, b.ID, "pb"))
	assert.False(t, s.IsUnlocked())

	has, err := s.HasVault(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRenameVault(t *testing.T) {
	m, store := newTestManager(t)
	s := m.NewSession()
	ctx := context.Background()

	d, err := s.CreateVault(ctx, "Work", "pw")
	require.NoError(t, err)
	s.Lock()
	payload, err := store.Get(ctx, registry.PayloadKey(d.ID))
	require.NoError(t, err)
	before := snapshot(t, store)

	assert.ErrorIs(t, s.RenameVault(ctx, d.ID, "bad", "Office"), interfaces.ErrWrongPassword)
	assert.ErrorIs(t, s.RenameVault(ctx, d.ID, "pw", " "), interfaces.ErrEmptyName)
	assert.Equal(t, before, snapshot(t, store))

	require.NoError(t, s.RenameVault(ctx, d.ID, "pw", "Office"))
	got, err := m.Registry().Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office", got.Name)
	assert.Equal(t, d.Salt, got.Salt)

	after, err := store.Get(ctx, registry.PayloadKey(d.ID))
	require.NoError(t, err)
	assert.Equal(t, payload, after, "rename is metadata only")
	require.NoError(t, s.Unlock(ctx, d.ID, "pw"))
}

func TestSessionsShareManager(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sessions := make([]*Session, 4)
	for i := range sessions {
		sessions[i] = m.NewSession()
		_, err := sessions[i].CreateVault(ctx, "Vault", "pw")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := s.AddSignature(ctx, interfaces.SignatureRecord{Name: "sig", ImageData: "x", Kind: interfaces.SignatureKindType})
				assert.NoError(t, err)
			}
		}(s)
	}
	wg.Wait()

	list, err := m.Registry().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	for _, s := range sessions {
		id := s.ActiveVaultID()
		s.Lock()
		require.NoError(t, s.Unlock(ctx, id, "pw"))
		signatures, err := s.GetSignatures()
		require.NoError(t, err)
		assert.Len(t, signatures, 5)
	}
}
