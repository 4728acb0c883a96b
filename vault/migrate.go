package vault

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/docvault/interfaces"
)

// Keys of the single-vault layout that predates the registry.
const (
	LegacySaltKey      = "docvault.salt"
	LegacyDataKey      = "docvault.data"
	LegacyTemplatesKey = "docvault.templates"

	// LegacyVaultName names the vault adopted from the legacy layout.
	LegacyVaultName = "My Vault"
)

// MigrateIfNeeded adopts a legacy single vault as the first registry entry.
// Salt and ciphertext are reused byte for byte, so the old password keeps
// working. It does nothing when the registry is not empty or no legacy vault
// exists, and reports whether a vault was adopted.
func (m *Manager) MigrateIfNeeded(ctx context.Context) (bool, error) {
	m.migrateMu.Lock()
	defer m.migrateMu.Unlock()

	descriptors, err := m.registry.List(ctx)
	if err != nil {
		return false, err
	}
	if len(descriptors) > 0 {
		return false, nil
	}

	rawSalt, err := m.store.Get(ctx, LegacySaltKey)
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read legacy salt: %w", err)
	}

	data, err := m.store.Get(ctx, LegacyDataKey)
	if errors.Is(err, interfaces.ErrContentNotFound) {
		m.log.Warn("Legacy salt without legacy data, skipping migration")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read legacy data: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(rawSalt)
	if err != nil {
		return false, fmt.Errorf("invalid legacy salt: %w", err)
	}
	if len(salt) == 0 {
		return false, errors.New("invalid legacy salt: empty")
	}

	descriptor := interfaces.VaultDescriptor{
		ID:        uuid.NewString(),
		Name:      LegacyVaultName,
		Salt:      salt,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := m.persistNew(ctx, descriptor, func() (string, error) { return data, nil }); err != nil {
		return false, err
	}

	for _, key := range []string{LegacySaltKey, LegacyDataKey} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.log.Warn("Failed to remove legacy key", slog.String("key", key), "err", err)
		}
	}

	m.log.Info("Migrated legacy vault", slog.String("vault_id", descriptor.ID))
	return true, nil
}

// loadLegacyTemplates returns the pre-vault template list, or nil when there
// is none or it cannot be read.
func (m *Manager) loadLegacyTemplates(ctx context.Context) []interfaces.Template {
	raw, err := m.store.Get(ctx, LegacyTemplatesKey)
	if err != nil {
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			m.log.Warn("Failed to read legacy templates", "err", err)
		}
		return nil
	}

	var templates []interfaces.Template
	if err := json.Unmarshal([]byte(raw), &templates); err != nil {
		m.log.Warn("Ignoring unreadable legacy templates", "err", err)
		return nil
	}
	if templates == nil {
		templates = []interfaces.Template{}
	}
	return templates
}

func (m *Manager) consumeLegacyTemplates(ctx context.Context) {
	if err := m.store.Remove(ctx, LegacyTemplatesKey); err != nil {
		m.log.Warn("Failed to remove legacy templates", "err", err)
	}
}
