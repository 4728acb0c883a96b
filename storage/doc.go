// Package storage provides the key-value persistence adapters docvault writes
// its registry and vault payloads through.
//
// Every backend implements interfaces.KVStore: opaque string values addressed by
// key, with Set replacing the whole value. Supported backends:
//
//   - In-memory storage for tests and ephemeral sessions
//   - File system storage, one file per key, written atomically
//   - S3-compatible object storage
//   - IPFS mutable file system (MFS) on a local node
//   - HashiCorp Vault KV version 2
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - mem://
//   - file:///var/lib/docvault/
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=custom.s3.com
//   - ipfs://127.0.0.1:5001/docvault
//   - vault://vault.example.com:8200/secret/docvault?token=...&tls=true
//
// # Keys
//
// Keys are restricted to letters, digits, '.', '_' and '-' so they map safely onto
// file names, object keys and KV paths.
//
// # Multi-Backend Storage
//
// MultiStorageBackend mirrors writes onto several backends:
//
//   - Set/Remove: applied to all available backends, succeeds if any succeeds
//   - Get: tries each backend until the key is found
//   - Available: true if any backend is available
//
// # Critical Sections
//
// KeyLocks serializes read-modify-write sequences per key; RetryingStore retries
// writes that failed with ErrBackendUnavailable instead of giving up half way.
//
// # Usage Example
//
//	factory := storage.NewStorageBackendFactory(logger)
//
//	locations, err := interfaces.ParseStorageBackendLocations("file:///var/lib/docvault/")
//	if err != nil {
//	    log.Fatalf("Invalid storage URI: %v", err)
//	}
//
//	store, err := factory.CreateMultiStore(locations)
//	if err != nil {
//	    log.Fatalf("Failed to create store: %v", err)
//	}
//
//	err = store.Set(ctx, "docvault.registry", "[]")
package storage
