package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/docvault/cryptoutils"
	"github.com/ruteri/docvault/interfaces"
)

// Session is either locked or holds the key and decrypted body of exactly one
// vault. Its methods are serialized; a Session should still have a single owner.
type Session struct {
	m  *Manager
	mu sync.Mutex

	active *activeVault
}

type activeVault struct {
	id   string
	key  []byte
	body *interfaces.VaultBody
}

// drop discards the active vault. Must be called with s.mu held.
func (s *Session) drop() {
	if s.active == nil {
		return
	}
	cryptoutils.ZeroBytes(s.active.key)
	s.active = nil
}

func (s *Session) activate(id string, key []byte, body *interfaces.VaultBody) {
	s.drop()
	s.active = &activeVault{id: id, key: key, body: body}
}

// CreateVault creates a vault protected by password and unlocks it. The first
// vault on a store consumes the legacy template set if one exists.
func (s *Session) CreateVault(ctx context.Context, name, password string) (interfaces.VaultDescriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return interfaces.VaultDescriptor{}, interfaces.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Sessions sharing the manager must agree on which vault is the first one.
	s.m.migrateMu.Lock()
	defer s.m.migrateMu.Unlock()

	existing, err := s.m.registry.List(ctx)
	if err != nil {
		return interfaces.VaultDescriptor{}, err
	}

	var legacy []interfaces.Template
	if len(existing) == 0 {
		legacy = s.m.loadLegacyTemplates(ctx)
	}
	body := newBody(legacy)

	salt, err := cryptoutils.GenerateSalt()
	if err != nil {
		return interfaces.VaultDescriptor{}, err
	}
	key := s.m.deriveKey(password, salt)

	descriptor := interfaces.VaultDescriptor{
		ID:        uuid.NewString(),
		Name:      name,
		Salt:      salt,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := s.m.persistNew(ctx, descriptor, func() (string, error) { return encryptBody(body, key) }); err != nil {
		cryptoutils.ZeroBytes(key)
		return interfaces.VaultDescriptor{}, err
	}

	if legacy != nil {
		s.m.consumeLegacyTemplates(ctx)
	}

	s.activate(descriptor.ID, key, body)
	s.m.log.Info("Created vault",
		slog.String("vault_id", descriptor.ID),
		slog.Bool("seeded_from_legacy", legacy != nil))

	return descriptor.Clone(), nil
}

// Unlock opens vault id. Any previously open vault is locked first, so a
// failed unlock leaves the session locked. Nothing is persisted.
func (s *Session) Unlock(ctx context.Context, id, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drop()

	_, key, body, err := s.m.open(ctx, id, password)
	if err != nil {
		s.m.log.Debug("Unlock failed", slog.String("vault_id", id), "err", err)
		return err
	}

	s.activate(id, key, body)
	s.m.log.Info("Unlocked vault", slog.String("vault_id", id))
	return nil
}

// Lock discards the open vault, if any.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drop()
}

// VerifyPassword reports whether password opens vault id. It changes nothing.
func (s *Session) VerifyPassword(ctx context.Context, id, password string) error {
	return s.m.verify(ctx, id, password)
}

// DeleteVault removes vault id after checking password. Deleting the open
// vault locks the session.
func (s *Session) DeleteVault(ctx context.Context, id, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.m.verify(ctx, id, password); err != nil {
		return err
	}

	err := s.m.registry.Remove(ctx, id)
	if s.active != nil && s.active.id == id {
		// The descriptor may be gone even when payload removal failed.
		if _, getErr := s.m.registry.Get(ctx, id); errors.Is(getErr, interfaces.ErrVaultNotFound) {
			s.drop()
		}
	}
	return err
}

// RenameVault changes the display name of vault id after checking password.
// The salt and payload are not touched.
func (s *Session) RenameVault(ctx context.Context, id, password, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return interfaces.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.m.verify(ctx, id, password); err != nil {
		return err
	}
	return s.m.registry.Rename(ctx, id, newName)
}

// HasVault reports whether any vault exists.
func (s *Session) HasVault(ctx context.Context) (bool, error) {
	descriptors, err := s.m.registry.List(ctx)
	if err != nil {
		return false, err
	}
	return len(descriptors) > 0, nil
}

// IsUnlocked reports whether a vault is open.
func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active != nil
}

// ActiveVaultID returns the id of the open vault or "".
func (s *Session) ActiveVaultID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ""
	}
	return s.active.id
}

// GetRegistry returns all vault descriptors.
func (s *Session) GetRegistry(ctx context.Context) ([]interfaces.VaultDescriptor, error) {
	return s.m.registry.List(ctx)
}

// GetActiveVaultName returns the display name of the open vault, or "" when locked.
func (s *Session) GetActiveVaultName(ctx context.Context) (string, error) {
	id := s.ActiveVaultID()
	if id == "" {
		return "", nil
	}
	descriptor, err := s.m.registry.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return descriptor.Name, nil
}

// persistNew writes the payload of a new vault and then registers it. When
// registration fails the payload is removed again.
func (m *Manager) persistNew(ctx context.Context, descriptor interfaces.VaultDescriptor, payload func() (string, error)) error {
	blob, err := payload()
	if err != nil {
		return err
	}
	if err := m.writePayload(ctx, descriptor.ID, blob); err != nil {
		return err
	}
	if err := m.registry.Add(ctx, descriptor); err != nil {
		if rmErr := m.removePayload(ctx, descriptor.ID); rmErr != nil {
			m.log.Warn("Failed to remove orphaned payload",
				slog.String("vault_id", descriptor.ID),
				"err", rmErr)
		}
		return fmt.Errorf("failed to register vault: %w", err)
	}
	return nil
}

func newBody(legacy []interfaces.Template) *interfaces.VaultBody {
	store := DefaultTemplatesStore()
	if legacy != nil {
		store = withBuiltins(interfaces.TemplatesStore{Templates: legacy})
	}
	return &interfaces.VaultBody{
		Version:        interfaces.CurrentBodyVersion,
		TemplatesStore: store,
		Signatures:     []interfaces.SignatureRecord{},
	}
}
