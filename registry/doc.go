// Package registry maintains the public list of vault descriptors.
//
// The registry is persisted as a single JSON array under the RegistryKey of an
// interfaces.KVStore:
//
//	[{"id":"...","name":"Work","salt":"<base64>","createdAt":"2024-05-01T10:00:00Z"}]
//
// Every mutation reads the whole list, changes it in memory and writes the
// whole list back while holding the per-key lock for RegistryKey, so
// concurrent callers sharing one storage.KeyLocks table never lose updates.
// Descriptors carry no secret material: the salt is public by construction and
// the vault contents live in a separate, encrypted payload under PayloadKey(id).
//
// # Usage Example
//
//	locks := storage.NewKeyLocks()
//	reg := registry.NewStoreRegistry(store, locks, logger)
//
//	name, _ := reg.UniqueName(ctx, "Work") // "Work" or "Work (1)"
//	err := reg.Add(ctx, interfaces.VaultDescriptor{ID: id, Name: name, Salt: salt, CreatedAt: time.Now()})
package registry
