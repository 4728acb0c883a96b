package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ruteri/docvault/cryptoutils"
	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/registry"
	"github.com/ruteri/docvault/storage"
)

// Manager binds the registry and the vault payloads of one store.
type Manager struct {
	store    interfaces.KVStore
	locks    *storage.KeyLocks
	registry *registry.StoreRegistry
	deriver  cryptoutils.KeyDeriver
	log      *slog.Logger

	// migrateMu serializes legacy adoption and first-vault creation.
	migrateMu *sync.Mutex
}

// NewManager creates a manager over store using PBKDF2 key derivation.
func NewManager(store interfaces.KVStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	locks := storage.NewKeyLocks()
	return &Manager{
		store:    store,
		locks:    locks,
		registry: registry.NewStoreRegistry(store, locks, log),
		deriver:  cryptoutils.PBKDF2Deriver{},
		log:      log,

		migrateMu: &sync.Mutex{},
	}
}

// WithKeyDeriver returns a manager sharing m's store, locks and registry that
// derives keys with d instead.
func (m *Manager) WithKeyDeriver(d cryptoutils.KeyDeriver) *Manager {
	return &Manager{
		store:    m.store,
		locks:    m.locks,
		registry: m.registry,
		deriver:  d,
		log:      m.log,

		migrateMu: m.migrateMu,
	}
}

// Registry exposes the vault registry.
func (m *Manager) Registry() interfaces.VaultRegistry {
	return m.registry
}

// NewSession returns a locked session bound to m.
func (m *Manager) NewSession() *Session {
	return &Session{m: m}
}

func (m *Manager) deriveKey(password string, salt []byte) []byte {
	return m.deriver.DeriveKey([]byte(password), salt)
}

func (m *Manager) readPayload(ctx context.Context, id string) (string, error) {
	unlock := m.locks.Lock(registry.PayloadKey(id))
	defer unlock()

	blob, err := m.store.Get(ctx, registry.PayloadKey(id))
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return "", fmt.Errorf("%w: %s", interfaces.ErrPayloadMissing, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read vault payload: %w", err)
	}
	return blob, nil
}

func (m *Manager) writePayload(ctx context.Context, id, blob string) error {
	unlock := m.locks.Lock(registry.PayloadKey(id))
	defer unlock()

	if err := m.store.Set(ctx, registry.PayloadKey(id), blob); err != nil {
		return fmt.Errorf("failed to write vault payload: %w", err)
	}
	return nil
}

func (m *Manager) removePayload(ctx context.Context, id string) error {
	unlock := m.locks.Lock(registry.PayloadKey(id))
	defer unlock()

	return m.store.Remove(ctx, registry.PayloadKey(id))
}

// open derives the key for descriptor id and decrypts its payload. The caller
// owns the returned key and must zero it when done.
func (m *Manager) open(ctx context.Context, id, password string) (interfaces.VaultDescriptor, []byte, *interfaces.VaultBody, error) {
	descriptor, err := m.registry.Get(ctx, id)
	if err != nil {
		return interfaces.VaultDescriptor{}, nil, nil, err
	}

	blob, err := m.readPayload(ctx, id)
	if err != nil {
		return interfaces.VaultDescriptor{}, nil, nil, err
	}

	key := m.deriveKey(password, descriptor.Salt)
	body, err := decryptBody(blob, key)
	if err != nil {
		cryptoutils.ZeroBytes(key)
		return interfaces.VaultDescriptor{}, nil, nil, err
	}
	return descriptor, key, body, nil
}

// verify checks password against vault id without keeping anything.
func (m *Manager) verify(ctx context.Context, id, password string) error {
	_, key, _, err := m.open(ctx, id, password)
	if err != nil {
		return err
	}
	cryptoutils.ZeroBytes(key)
	return nil
}
