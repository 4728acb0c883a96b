package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/docvault/interfaces"
)

// GetTemplatesStore returns a copy of the open vault's templates.
func (s *Session) GetTemplatesStore() (interfaces.TemplatesStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return interfaces.TemplatesStore{}, interfaces.ErrNotUnlocked
	}
	return s.active.body.TemplatesStore.Clone(), nil
}

// SaveTemplatesStore replaces the templates of the open vault. The new store
// must have exactly one default and keep every built-in template.
func (s *Session) SaveTemplatesStore(ctx context.Context, store interfaces.TemplatesStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func(body *interfaces.VaultBody) error {
		next := store.Clone()
		if err := next.Validate(); err != nil {
			return err
		}
		if err := next.KeepsBuiltins(body.TemplatesStore); err != nil {
			return fmt.Errorf("%w: %w", interfaces.ErrInvalidTemplates, err)
		}
		body.TemplatesStore = next
		return nil
	})
}

// GetSignatures returns a copy of the open vault's signatures.
func (s *Session) GetSignatures() ([]interfaces.SignatureRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, interfaces.ErrNotUnlocked
	}
	return append([]interfaces.SignatureRecord{}, s.active.body.Signatures...), nil
}

// AddSignature stores a signature in the open vault. The id and creation time
// of record are ignored and assigned here.
func (s *Session) AddSignature(ctx context.Context, record interfaces.SignatureRecord) (interfaces.SignatureRecord, error) {
	record.Name = strings.TrimSpace(record.Name)
	switch {
	case record.Name == "":
		return interfaces.SignatureRecord{}, fmt.Errorf("%w: empty name", interfaces.ErrInvalidSignature)
	case record.ImageData == "":
		return interfaces.SignatureRecord{}, fmt.Errorf("%w: empty image data", interfaces.ErrInvalidSignature)
	case !record.Kind.Valid():
		return interfaces.SignatureRecord{}, fmt.Errorf("%w: unknown kind %q", interfaces.ErrInvalidSignature, record.Kind)
	}

	record.ID = uuid.NewString()
	record.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.mutate(ctx, func(body *interfaces.VaultBody) error {
		body.Signatures = append(body.Signatures, record)
		return nil
	})
	if err != nil {
		return interfaces.SignatureRecord{}, err
	}
	return record, nil
}

// RemoveSignature deletes signature id from the open vault.
func (s *Session) RemoveSignature(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func(body *interfaces.VaultBody) error {
		for i, sig := range body.Signatures {
			if sig.ID == id {
				body.Signatures = append(body.Signatures[:i:i], body.Signatures[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", interfaces.ErrSignatureNotFound, id)
	})
}

// mutate applies fn to a copy of the open body, persists the copy under a
// fresh nonce and only then makes it the session's body. Must be called with s.mu held.
func (s *Session) mutate(ctx context.Context, fn func(body *interfaces.VaultBody) error) error {
	if s.active == nil {
		return interfaces.ErrNotUnlocked
	}

	next := s.active.body.Clone()
	if err := fn(next); err != nil {
		return err
	}

	blob, err := encryptBody(next, s.active.key)
	if err != nil {
		return err
	}
	if err := s.m.writePayload(ctx, s.active.id, blob); err != nil {
		return err
	}

	s.active.body = next
	s.m.log.Debug("Saved vault", slog.String("vault_id", s.active.id))
	return nil
}
