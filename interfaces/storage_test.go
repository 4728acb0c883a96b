package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageBackendLocation(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		scheme  string
		wantErr bool
	}{
		{name: "memory", uri: "mem://", scheme: "mem"},
		{name: "file", uri: "file:///var/lib/docvault", scheme: "file"},
		{name: "s3 with credentials", uri: "s3://AK:SK@bucket/vaults?region=eu-west-1", scheme: "s3"},
		{name: "ipfs", uri: "ipfs://127.0.0.1:5001/docvault", scheme: "ipfs"},
		{name: "vault", uri: "vault://127.0.0.1:8200/secret/docvault?token=x", scheme: "vault"},
		{name: "unsupported", uri: "ftp://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := NewStorageBackendLocation(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocationURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, loc.Scheme)
			assert.Equal(t, tt.uri, loc.String())
		})
	}
}

func TestStorageBackendLocation_Params(t *testing.T) {
	loc, err := NewStorageBackendLocation("vault://127.0.0.1:8200/secret/docvault?tls=yes&token=abc")
	require.NoError(t, err)
	assert.True(t, loc.IsVault())
	assert.True(t, loc.GetParamBool("tls"))
	assert.Equal(t, "abc", loc.GetParam("token"))
	assert.False(t, loc.GetParamBool("missing"))
}

func TestParseStorageBackendLocations(t *testing.T) {
	locs, err := ParseStorageBackendLocations("file:///tmp/a, mem://")
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.True(t, locs[0].IsFile())
	assert.True(t, locs[1].IsMemory())

	_, err = ParseStorageBackendLocations(" , ")
	assert.ErrorIs(t, err, ErrInvalidLocationURI)
}
