package vault

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/docvault/cryptoutils"
	"github.com/ruteri/docvault/interfaces"
)

// ExportVault returns a bundle holding the open vault's persisted salt and
// ciphertext. Unsaved changes do not exist: every mutation is persisted.
func (s *Session) ExportVault(ctx context.Context) (*interfaces.TransferBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, interfaces.ErrNotUnlocked
	}

	descriptor, err := s.m.registry.Get(ctx, s.active.id)
	if err != nil {
		return nil, err
	}
	blob, err := s.m.readPayload(ctx, s.active.id)
	if err != nil {
		return nil, err
	}

	return &interfaces.TransferBundle{
		Version:    interfaces.TransferBundleVersion,
		Name:       descriptor.Name,
		Salt:       descriptor.Salt,
		Payload:    blob,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
	}, nil
}

// ImportVaultAsNew registers the bundle as a new vault and unlocks it. The
// bundle must decrypt with password before anything is written. A name that
// is already taken gets a " (n)" suffix.
func (s *Session) ImportVaultAsNew(ctx context.Context, bundle *interfaces.TransferBundle, password string) (interfaces.VaultDescriptor, error) {
	if err := bundle.Validate(); err != nil {
		return interfaces.VaultDescriptor{}, err
	}

	key := s.m.deriveKey(password, bundle.Salt)
	body, err := decryptBody(bundle.Payload, key)
	if err != nil {
		cryptoutils.ZeroBytes(key)
		return interfaces.VaultDescriptor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.m.registry.UniqueName(ctx, bundle.Name)
	if err != nil {
		cryptoutils.ZeroBytes(key)
		return interfaces.VaultDescriptor{}, err
	}

	descriptor := interfaces.VaultDescriptor{
		ID:        uuid.NewString(),
		Name:      name,
		Salt:      append([]byte(nil), bundle.Salt...),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := s.m.persistNew(ctx, descriptor, func() (string, error) { return bundle.Payload, nil }); err != nil {
		cryptoutils.ZeroBytes(key)
		return interfaces.VaultDescriptor{}, err
	}

	s.activate(descriptor.ID, key, body)
	s.m.log.Info("Imported vault",
		slog.String("vault_id", descriptor.ID),
		slog.String("name", name))

	return descriptor.Clone(), nil
}

// ReplaceVaultWithImport replaces the contents of the open vault with the
// contents of bundle. activePassword must open the open vault; filePassword
// only decrypts the bundle. The open vault keeps its salt and password.
func (s *Session) ReplaceVaultWithImport(ctx context.Context, bundle *interfaces.TransferBundle, filePassword, activePassword string) error {
	if err := bundle.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return interfaces.ErrNotUnlocked
	}
	if err := s.m.verify(ctx, s.active.id, activePassword); err != nil {
		return fmt.Errorf("active vault: %w", err)
	}

	fileKey := s.m.deriveKey(filePassword, bundle.Salt)
	body, err := decryptBody(bundle.Payload, fileKey)
	cryptoutils.ZeroBytes(fileKey)
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}

	blob, err := encryptBody(body, s.active.key)
	if err != nil {
		return err
	}
	if err := s.m.writePayload(ctx, s.active.id, blob); err != nil {
		return err
	}

	s.active.body = body
	s.m.log.Info("Replaced vault contents from import", slog.String("vault_id", s.active.id))
	return nil
}
