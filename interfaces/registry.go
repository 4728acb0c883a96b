package interfaces

import "context"

// VaultRegistry maintains the public list of vault descriptors. Every
// mutation is a whole-registry read-modify-write.
type VaultRegistry interface {
	// List returns a copy of all descriptors in creation order.
	List(ctx context.Context) ([]VaultDescriptor, error)

	// Get returns the descriptor for id or ErrVaultNotFound.
	Get(ctx context.Context, id string) (VaultDescriptor, error)

	// Add appends a descriptor. Its id must not be present yet.
	Add(ctx context.Context, descriptor VaultDescriptor) error

	// Remove drops the descriptor and the vault payload.
	Remove(ctx context.Context, id string) error

	// Rename changes the display name of a vault.
	Rename(ctx context.Context, id, newName string) error

	// UniqueName returns name, or name with a " (n)" suffix when it is taken.
	UniqueName(ctx context.Context, name string) (string, error)
}
