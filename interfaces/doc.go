// Package interfaces defines the contracts and data model shared by the
// docvault packages, separating interface definitions from implementations.
//
// # Storage
//
// KVStore is the persistence adapter: a durable key to string store with
// get/set/remove semantics. Implementations live in the storage package and are
// selected with a StorageBackendLocation URI (mem://, file://, s3://, ipfs://, vault://).
//
// # Registry
//
// VaultRegistry maintains the public list of VaultDescriptor values (id, name,
// salt, creation time). It never sees plaintext.
//
// # Vault data model
//
//   - VaultBody: the decrypted content of a vault (templates and signatures)
//   - TemplatesStore / Template: document templates, exactly one default
//   - SignatureRecord: a saved signature image
//   - TransferBundle: a vault's salt and ciphertext packaged for another device
//
// # Errors
//
// All failures are reported through the sentinel errors declared here
// (ErrWrongPassword, ErrVaultNotFound, ErrPayloadMissing, ErrNotUnlocked,
// ErrInvalidBundle, ...) and are meant to be tested with errors.Is.
package interfaces
