package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ruteri/docvault/cryptoutils"
	"github.com/ruteri/docvault/interfaces"
)

// bodyMigrations upgrades a serialized body from version v to v+1.
var bodyMigrations = map[int]func(json.RawMessage) (json.RawMessage, error){
	0: migrateBodyV0,
}

func encryptBody(body *interfaces.VaultBody, key []byte) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode vault body: %w", err)
	}
	defer cryptoutils.ZeroBytes(data)

	return cryptoutils.Encrypt(data, key)
}

func decryptBody(blob string, key []byte) (*interfaces.VaultBody, error) {
	plaintext, err := cryptoutils.Decrypt(blob, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrWrongPassword, err)
	}
	defer cryptoutils.ZeroBytes(plaintext)

	return decodeBody(plaintext)
}

// decodeBody parses a plaintext body of any supported version and returns it
// upgraded to CurrentBodyVersion.
func decodeBody(data []byte) (*interfaces.VaultBody, error) {
	var header struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: invalid vault body: %v", interfaces.ErrWrongPassword, err)
	}

	version := 0
	if header.Version != nil {
		version = *header.Version
	}
	if version < 0 || version > interfaces.CurrentBodyVersion {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrUnsupportedVersion, version)
	}

	raw := json.RawMessage(data)
	for v := version; v < interfaces.CurrentBodyVersion; v++ {
		migrate, ok := bodyMigrations[v]
		if !ok {
			return nil, fmt.Errorf("%w: no migration from version %d", interfaces.ErrUnsupportedVersion, v)
		}
		var err error
		if raw, err = migrate(raw); err != nil {
			return nil, fmt.Errorf("failed to migrate vault body from version %d: %w", v, err)
		}
	}

	var body interfaces.VaultBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: invalid vault body: %v", interfaces.ErrWrongPassword, err)
	}
	normalizeBody(&body)
	return &body, nil
}

// normalizeBody repairs what older writers may have left out.
func normalizeBody(body *interfaces.VaultBody) {
	if body.Signatures == nil {
		body.Signatures = []interfaces.SignatureRecord{}
	}
	body.TemplatesStore = withBuiltins(body.TemplatesStore)
}

// bodyV0 is the unversioned layout used before template defaults moved into the templates.
type bodyV0 struct {
	Templates         []interfaces.Template        `json:"templates"`
	DefaultTemplateID string                       `json:"defaultTemplateId"`
	Signatures        []interfaces.SignatureRecord `json:"signatures"`
}

func migrateBodyV0(raw json.RawMessage) (json.RawMessage, error) {
	var old bodyV0
	if err := json.Unmarshal(raw, &old); err != nil {
		return nil, err
	}

	store := interfaces.TemplatesStore{Templates: old.Templates}
	for i := range store.Templates {
		store.Templates[i].IsDefault = false
	}
	if old.DefaultTemplateID != "" {
		if err := store.SetDefault(old.DefaultTemplateID); err != nil && !errors.Is(err, interfaces.ErrTemplateNotFound) {
			return nil, err
		}
	}

	return json.Marshal(interfaces.VaultBody{
		Version:        1,
		TemplatesStore: store,
		Signatures:     old.Signatures,
	})
}
