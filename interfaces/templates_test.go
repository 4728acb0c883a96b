package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() TemplatesStore {
	return TemplatesStore{Templates: []Template{
		{ID: "letter", Name: "Letter", Builtin: true, IsDefault: true},
		{ID: "memo", Name: "Memo", Builtin: true},
		{ID: "mine", Name: "Mine"},
	}}
}

func TestTemplatesStore_Validate(t *testing.T) {
	s := testStore()
	require.NoError(t, s.Validate())

	s.Templates[1].IsDefault = true
	assert.ErrorIs(t, s.Validate(), ErrInvalidTemplates)

	s = testStore()
	s.Templates[0].IsDefault = false
	assert.ErrorIs(t, s.Validate(), ErrInvalidTemplates)

	s = testStore()
	s.Templates[2].ID = "letter"
	assert.ErrorIs(t, s.Validate(), ErrInvalidTemplates)
}

func TestTemplatesStore_SetDefault(t *testing.T) {
	s := testStore()
	require.NoError(t, s.SetDefault("mine"))
	def, ok := s.Default()
	require.True(t, ok)
	assert.Equal(t, "mine", def.ID)
	require.NoError(t, s.Validate())

	assert.ErrorIs(t, s.SetDefault("nope"), ErrTemplateNotFound)
}

func TestTemplatesStore_Remove(t *testing.T) {
	s := testStore()
	assert.ErrorIs(t, s.Remove("letter"), ErrBuiltinTemplate)
	assert.ErrorIs(t, s.Remove("nope"), ErrTemplateNotFound)

	require.NoError(t, s.SetDefault("mine"))
	require.NoError(t, s.Remove("mine"))
	assert.Len(t, s.Templates, 2)

	def, ok := s.Default()
	require.True(t, ok)
	assert.Equal(t, "letter", def.ID, "default falls back to the first built-in")
}

func TestTemplatesStore_Upsert(t *testing.T) {
	s := testStore()
	s.Upsert(Template{ID: "letter", Name: "Renamed", Builtin: false, IsDefault: false})
	got, ok := s.Find("letter")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.Builtin, "builtin flag cannot be cleared")
	assert.True(t, got.IsDefault)

	s.Upsert(Template{ID: "new", Name: "New", Builtin: true, IsDefault: true})
	got, ok = s.Find("new")
	require.True(t, ok)
	assert.False(t, got.Builtin)
	assert.False(t, got.IsDefault)
	require.NoError(t, s.Validate())
}

func TestTemplatesStore_KeepsBuiltins(t *testing.T) {
	prev := testStore()
	next := prev.Clone()
	require.NoError(t, next.KeepsBuiltins(prev))

	next.Templates = next.Templates[1:]
	assert.ErrorIs(t, next.KeepsBuiltins(prev), ErrBuiltinTemplate)
}

func TestTransferBundle_Validate(t *testing.T) {
	b := &TransferBundle{Version: TransferBundleVersion, Name: "Work", Salt: []byte{1}, Payload: "abc"}
	require.NoError(t, b.Validate())

	missing := *b
	missing.Payload = ""
	assert.ErrorIs(t, missing.Validate(), ErrInvalidBundle)

	future := *b
	future.Version = 7
	assert.ErrorIs(t, future.Validate(), ErrInvalidBundle)
	assert.ErrorIs(t, future.Validate(), ErrUnsupportedVersion)

	var nilBundle *TransferBundle
	assert.ErrorIs(t, nilBundle.Validate(), ErrInvalidBundle)
}
