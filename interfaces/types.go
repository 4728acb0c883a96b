package interfaces

import (
	"errors"
	"time"
)

var (
	// ErrWrongPassword is returned when the AEAD tag does not verify: either the
	// password is wrong or the stored vault is corrupted.
	ErrWrongPassword = errors.New("wrong password or corrupted vault")

	// ErrVaultNotFound is returned for an id that is not in the registry.
	ErrVaultNotFound = errors.New("vault not found")

	// ErrPayloadMissing is returned when a descriptor exists but its ciphertext does not.
	ErrPayloadMissing = errors.New("vault payload missing")

	// ErrNotUnlocked is returned by content operations without an open session.
	ErrNotUnlocked = errors.New("no vault is unlocked")

	// ErrInvalidBundle is returned for structurally incomplete transfer data.
	ErrInvalidBundle = errors.New("invalid transfer bundle")

	ErrEmptyName          = errors.New("vault name must not be empty")
	ErrInvalidTemplates   = errors.New("invalid templates store")
	ErrBuiltinTemplate    = errors.New("built-in templates cannot be deleted")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrSignatureNotFound  = errors.New("signature not found")
	ErrInvalidSignature   = errors.New("invalid signature record")
	ErrUnsupportedVersion = errors.New("unsupported vault body version")
)

// VaultDescriptor is the public, unencrypted metadata of one vault.
// Salt is serialized as base64 and CreatedAt as RFC 3339.
type VaultDescriptor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Salt      []byte    `json:"salt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a copy that shares no memory with d.
func (d VaultDescriptor) Clone() VaultDescriptor {
	d.Salt = append([]byte(nil), d.Salt...)
	return d
}

// SignatureKind records how a signature image was produced.
type SignatureKind string

const (
	SignatureKindDraw  SignatureKind = "draw"
	SignatureKindType  SignatureKind = "type"
	SignatureKindImage SignatureKind = "image"
)

// Valid reports whether k is one of the known kinds.
func (k SignatureKind) Valid() bool {
	switch k {
	case SignatureKindDraw, SignatureKindType, SignatureKindImage:
		return true
	}
	return false
}

// SignatureRecord is a saved signature image.
type SignatureRecord struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	ImageData string        `json:"imageData"`
	Kind      SignatureKind `json:"kind"`
	CreatedAt time.Time     `json:"createdAt"`
}

// CurrentBodyVersion is the VaultBody layout written by this build.
const CurrentBodyVersion = 1

// VaultBody is the plaintext content of a vault. It only ever exists in memory.
type VaultBody struct {
	Version        int               `json:"version"`
	TemplatesStore TemplatesStore    `json:"templatesStore"`
	Signatures     []SignatureRecord `json:"signatures"`
}

// Clone returns a deep copy of the body.
func (b *VaultBody) Clone() *VaultBody {
	if b == nil {
		return nil
	}
	return &VaultBody{
		Version:        b.Version,
		TemplatesStore: b.TemplatesStore.Clone(),
		Signatures:     append([]SignatureRecord(nil), b.Signatures...),
	}
}

// TransferBundleVersion is the only bundle layout understood by this build.
const TransferBundleVersion = 1

// TransferBundle carries a vault between devices. Salt and Payload are the
// persisted values, copied verbatim; the bundle is useless without the password.
type TransferBundle struct {
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	Salt       []byte    `json:"salt"`
	Payload    string    `json:"payload"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Validate checks the bundle is structurally complete.
func (b *TransferBundle) Validate() error {
	switch {
	case b == nil:
		return ErrInvalidBundle
	case b.Version != TransferBundleVersion:
		return errors.Join(ErrInvalidBundle, ErrUnsupportedVersion)
	case b.Name == "", len(b.Salt) == 0, b.Payload == "":
		return ErrInvalidBundle
	}
	return nil
}
