package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/storage"
)

// ErrDuplicateID is returned by Add for an id that is already registered.
var ErrDuplicateID = errors.New("vault id already registered")

// StoreRegistry implements interfaces.VaultRegistry on top of a KVStore.
type StoreRegistry struct {
	store interfaces.KVStore
	locks *storage.KeyLocks
	log   *slog.Logger
}

// NewStoreRegistry creates a registry persisted in store. locks must be shared
// with every other component writing to the same store.
func NewStoreRegistry(store interfaces.KVStore, locks *storage.KeyLocks, log *slog.Logger) *StoreRegistry {
	return &StoreRegistry{
		store: store,
		locks: locks,
		log:   log,
	}
}

// List returns a copy of all descriptors in creation order.
func (r *StoreRegistry) List(ctx context.Context) ([]interfaces.VaultDescriptor, error) {
	unlock := r.locks.Lock(RegistryKey)
	defer unlock()

	return r.load(ctx)
}

// Get returns the descriptor for id.
func (r *StoreRegistry) Get(ctx context.Context, id string) (interfaces.VaultDescriptor, error) {
	descriptors, err := r.List(ctx)
	if err != nil {
		return interfaces.VaultDescriptor{}, err
	}
	if i := indexOf(descriptors, id); i >= 0 {
		return descriptors[i], nil
	}
	return interfaces.VaultDescriptor{}, fmt.Errorf("%w: %s", interfaces.ErrVaultNotFound, id)
}

// Add appends descriptor to the registry.
func (r *StoreRegistry) Add(ctx context.Context, descriptor interfaces.VaultDescriptor) error {
	if strings.TrimSpace(descriptor.Name) == "" {
		return interfaces.ErrEmptyName
	}
	if descriptor.ID == "" || len(descriptor.Salt) == 0 {
		return fmt.Errorf("incomplete vault descriptor %q", descriptor.ID)
	}

	return r.update(ctx, func(descriptors []interfaces.VaultDescriptor) ([]interfaces.VaultDescriptor, error) {
		if indexOf(descriptors, descriptor.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, descriptor.ID)
		}
		return append(descriptors, descriptor.Clone()), nil
	})
}

// Remove drops the descriptor for id, then the vault payload. A payload that
// cannot be removed is logged and left behind; it is unreachable without a descriptor.
func (r *StoreRegistry) Remove(ctx context.Context, id string) error {
	err := r.update(ctx, func(descriptors []interfaces.VaultDescriptor) ([]interfaces.VaultDescriptor, error) {
		i := indexOf(descriptors, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrVaultNotFound, id)
		}
		return append(descriptors[:i:i], descriptors[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	unlock := r.locks.Lock(PayloadKey(id))
	defer unlock()

	if err := r.store.Remove(ctx, PayloadKey(id)); err != nil {
		r.log.Warn("Failed to remove vault payload",
			slog.String("vault_id", id),
			"err", err)
		return fmt.Errorf("vault %s unregistered but payload removal failed: %w", id, err)
	}

	r.log.Info("Removed vault", slog.String("vault_id", id))
	return nil
}

// Rename changes the display name of vault id.
func (r *StoreRegistry) Rename(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return interfaces.ErrEmptyName
	}

	return r.update(ctx, func(descriptors []interfaces.VaultDescriptor) ([]interfaces.VaultDescriptor, error) {
		i := indexOf(descriptors, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrVaultNotFound, id)
		}
		descriptors[i].Name = newName
		return descriptors, nil
	})
}

// UniqueName returns name if no vault uses it yet, otherwise the first free
// "name (n)" with n starting at 1.
func (r *StoreRegistry) UniqueName(ctx context.Context, name string) (string, error) {
	descriptors, err := r.List(ctx)
	if err != nil {
		return "", err
	}

	taken := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		taken[d.Name] = struct{}{}
	}

	candidate := name
	for n := 1; ; n++ {
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
}

func (r *StoreRegistry) update(ctx context.Context, fn func([]interfaces.VaultDescriptor) ([]interfaces.VaultDescriptor, error)) error {
	unlock := r.locks.Lock(RegistryKey)
	defer unlock()

	descriptors, err := r.load(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(descriptors)
	if err != nil {
		return err
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	if err := r.store.Set(ctx, RegistryKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist registry: %w", err)
	}
	return nil
}

// load must be called with the registry lock held.
func (r *StoreRegistry) load(ctx context.Context) ([]interfaces.VaultDescriptor, error) {
	raw, err := r.store.Get(ctx, RegistryKey)
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return []interfaces.VaultDescriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var descriptors []interfaces.VaultDescriptor
	if err := json.Unmarshal([]byte(raw), &descriptors); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}
	if descriptors == nil {
		descriptors = []interfaces.VaultDescriptor{}
	}
	return descriptors, nil
}

func indexOf(descriptors []interfaces.VaultDescriptor, id string) int {
	for i, d := range descriptors {
		if d.ID == id {
			return i
		}
	}
	return -1
}
var _ interfaces.VaultRegistry = (*StoreRegistry)(nil)
