package vault

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ruteri/docvault/cryptoutils"
	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/registry"
	"github.com/ruteri/docvault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyBodyV0 = `{
	"templates": [
		{"id": "builtin-letter", "name": "Letter", "subject": "s", "body": "b", "builtin": true},
		{"id": "custom-1", "name": "Old custom", "subject": "Hi", "body": "Hello"}
	],
	"defaultTemplateId": "custom-1",
	"signatures": [
		{"id": "sig-1", "name": "Legacy", "imageData": "x", "kind": "image", "createdAt": "2023-01-02T03:04:05Z"}
	]
}`

func seedLegacyVault(t *testing.T, store *storage.MemoryBackend, password string) string {
	t.Helper()
	ctx := context.Background()

	salt, err := cryptoutils.GenerateSalt()
	require.NoError(t, err)
	blob, err := cryptoutils.Encrypt([]byte(legacyBodyV0), fastDeriver{}.DeriveKey([]byte(password), salt))
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, LegacySaltKey, base64.StdEncoding.EncodeToString(salt)))
	require.NoError(t, store.Set(ctx, LegacyDataKey, blob))
	return blob
}

func TestMigrateIfNeeded_AdoptsLegacyVault(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	blob := seedLegacyVault(t, store, "old-pw")

	migrated, err := m.MigrateIfNeeded(ctx)
	require.NoError(t, err)
	assert.True(t, migrated)

	list, err := m.Registry().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, LegacyVaultName, list[0].Name)

	payload, err := store.Get(ctx, registry.PayloadKey(list[0].ID))
	require.NoError(t, err)
	assert.Equal(t, blob, payload, "ciphertext is adopted byte for byte")

	for _, key := range []string{LegacySaltKey, LegacyDataKey} {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound, key)
	}

	s := m.NewSession()
	require.NoError(t, s.Unlock(ctx, list[0].ID, "old-pw"))

	templates, err := s.GetTemplatesStore()
	require.NoError(t, err)
	def, ok := templates.Default()
	require.True(t, ok)
	assert.Equal(t, "custom-1", def.ID, "v0 defaultTemplateId becomes the default flag")
	require.NoError(t, templates.Validate())
	for _, b := range builtinTemplates() {
		_, ok := templates.Find(b.ID)
		assert.True(t, ok, b.ID)
	}

	signatures, err := s.GetSignatures()
	require.NoError(t, err)
	require.Len(t, signatures, 1)
	assert.Equal(t, "Legacy", signatures[0].Name)
}

func TestMigrateIfNeeded_Idempotent(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	seedLegacyVault(t, store, "old-pw")

	_, err := m.MigrateIfNeeded(ctx)
	require.NoError(t, err)
	once := snapshot(t, store)

	migrated, err := m.MigrateIfNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, once, snapshot(t, store))
}

func TestMigrateIfNeeded_NoOp(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		m, store := newTestManager(t)
		migrated, err := m.MigrateIfNeeded(ctx)
		require.NoError(t, err)
		assert.False(t, migrated)
		assert.Empty(t, store.Keys())
	})

	t.Run("registry not empty", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.NewSession().CreateVault(ctx, "Work", "pw")
		require.NoError(t, err)
		seedLegacyVault(t, store, "old-pw")

		migrated, err := m.MigrateIfNeeded(ctx)
		require.NoError(t, err)
		assert.False(t, migrated)
		_, err = store.Get(ctx, LegacyDataKey)
		assert.NoError(t, err, "legacy data is left alone")
	})

	t.Run("salt without data", func(t *testing.T) {
		m, store := newTestManager(t)
		require.NoError(t, store.Set(ctx, LegacySaltKey, "AAAAAAAAAAAAAAAAAAAAAA=="))
		migrated, err := m.MigrateIfNeeded(ctx)
		require.NoError(t, err)
		assert.False(t, migrated)
	})
}

func TestCreateVault_ConsumesLegacyTemplates(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	legacy, err := json.Marshal([]interfaces.Template{
		{ID: "legacy-1", Name: "Old quote", Subject: "Quote", Body: "..."},
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, LegacyTemplatesKey, string(legacy)))

	s := m.NewSession()
	_, err = s.CreateVault(ctx, "First", "pw")
	require.NoError(t, err)

	templates, err := s.GetTemplatesStore()
	require.NoError(t, err)
	_, ok := templates.Find("legacy-1")
	assert.True(t, ok)
	require.NoError(t, templates.Validate())

	_, err = store.Get(ctx, LegacyTemplatesKey)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	_, err = s.CreateVault(ctx, "Second", "pw")
	require.NoError(t, err)
	templates, err = s.GetTemplatesStore()
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplatesStore(), templates)
}

func TestCreateVault_LegacyTemplatesOnlyForFirstVault(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	s := m.NewSession()

	_, err := s.CreateVault(ctx, "First", "pw")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, LegacyTemplatesKey, `[{"id":"late","name":"Late"}]`))

	_, err = s.CreateVault(ctx, "Second", "pw")
	require.NoError(t, err)
	templates, err := s.GetTemplatesStore()
	require.NoError(t, err)
	_, ok := templates.Find("late")
	assert.False(t, ok)

	_, err = store.Get(ctx, LegacyTemplatesKey)
	assert.NoError(t, err)
}

func TestCreateVault_ConcurrentFirstVaultsSeedOnce(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, LegacyTemplatesKey, `[{"id":"legacy-1","name":"Old quote"}]`))

	const n = 8
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := range sessions {
		sessions[i] = m.NewSession()
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			_, err := s.CreateVault(ctx, "Vault", "pw")
			assert.NoError(t, err)
		}(sessions[i])
	}
	wg.Wait()

	seeded := 0
	for _, s := range sessions {
		templates, err := s.GetTemplatesStore()
		require.NoError(t, err)
		if _, ok := templates.Find("legacy-1"); ok {
			seeded++
		}
	}
	assert.Equal(t, 1, seeded)

	list, err := m.Registry().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n)
}
