package api

import (
	"time"

	"github.com/ruteri/docvault/interfaces"
)

// StatusResponse is the read-only session status used for UI gating.
type StatusResponse struct {
	HasVault        bool   `json:"has_vault"`
	Unlocked        bool   `json:"unlocked"`
	ActiveVaultID   string `json:"active_vault_id,omitempty"`
	ActiveVaultName string `json:"active_vault_name,omitempty"`
}

// VaultInfo is the public part of a vault descriptor. The salt is left out.
type VaultInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVaultInfo converts a descriptor.
func NewVaultInfo(d interfaces.VaultDescriptor) VaultInfo {
	return VaultInfo{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt}
}

type CreateVaultRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// PasswordRequest is the body of unlock, verify and delete.
type PasswordRequest struct {
	Password string `json:"password"`
}

type RenameVaultRequest struct {
	Password string `json:"password"`
	NewName  string `json:"new_name"`
}

// SignatureRequest creates a signature. The server assigns id and creation time.
type SignatureRequest struct {
	Name      string                   `json:"name"`
	ImageData string                   `json:"image_data"`
	Kind      interfaces.SignatureKind `json:"kind"`
}

// ExportResponse carries the open vault as a single clipboard payload and,
// when a chunk size was requested, as visual-code chunks.
type ExportResponse struct {
	Bundle string   `json:"bundle"`
	Chunks []string `json:"chunks,omitempty"`
}

// ImportRequest imports a bundle. Bundle is either a clipboard payload or
// whitespace separated chunks.
type ImportRequest struct {
	Bundle   string `json:"bundle"`
	Password string `json:"password"`
}

// ReplaceImportRequest replaces the open vault's contents with a bundle.
// FilePassword opens the bundle, ActivePassword must open the open vault.
type ReplaceImportRequest struct {
	Bundle         string `json:"bundle"`
	FilePassword   string `json:"file_password"`
	ActivePassword string `json:"active_password"`
}

type ChunkRequest struct {
	Chunk string `json:"chunk"`
}

// ChunkProgress reports the state of a chunked receive. Bundle is set once complete.
type ChunkProgress struct {
	Added    bool   `json:"added"`
	Seen     int    `json:"seen"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
	Bundle   string `json:"bundle,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
