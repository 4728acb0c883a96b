package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/docvault/api"
	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/transfer"
	"github.com/ruteri/docvault/vault"
)

// maxBodySize bounds request bodies. Bundles carry signature images.
const maxBodySize = 16 << 20

// Handler exposes one vault session over HTTP. It also keeps the chunk
// assembler of the transfer in progress.
type Handler struct {
	session   *vault.Session
	assembler *transfer.Assembler
	log       *slog.Logger
}

// NewHandler creates a handler driving session.
func NewHandler(session *vault.Session, log *slog.Logger) *Handler {
	return &Handler{
		session:   session,
		assembler: transfer.NewAssembler(),
		log:       log,
	}
}

// RegisterRoutes adds the vault API routes to r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/status", h.HandleStatus)

	r.Get("/api/vaults", h.HandleListVaults)
	r.Post("/api/vaults", h.HandleCreateVault)
	r.Post("/api/vaults/{id}/unlock", h.HandleUnlock)
	r.Post("/api/vaults/{id}/verify", h.HandleVerify)
	r.Post("/api/vaults/{id}/rename", h.HandleRename)
	r.Delete("/api/vaults/{id}", h.HandleDelete)
	r.Post("/api/lock", h.HandleLock)

	r.Get("/api/templates", h.HandleGetTemplates)
	r.Put("/api/templates", h.HandleSaveTemplates)
	r.Get("/api/signatures", h.HandleGetSignatures)
	r.Post("/api/signatures", h.HandleAddSignature)
	r.Delete("/api/signatures/{id}", h.HandleRemoveSignature)

	r.Get("/api/export", h.HandleExport)
	r.Post("/api/import", h.HandleImport)
	r.Post("/api/import/replace", h.HandleReplaceImport)
	r.Post("/api/transfer/chunks", h.HandleAddChunk)
	r.Delete("/api/transfer/chunks", h.HandleResetChunks)
}

// HandleStatus reports whether any vault exists and which one is open.
//
// URL format: GET /api/status
//
// Response: JSON containing has_vault, unlocked, and when unlocked the
// active_vault_id and active_vault_name.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	hasVault, err := h.session.HasVault(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	name, err := h.session.GetActiveVaultName(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{
		HasVault:        hasVault,
		Unlocked:        h.session.IsUnlocked(),
		ActiveVaultID:   h.session.ActiveVaultID(),
		ActiveVaultName: name,
	})
}

// HandleListVaults lists every vault in registry order. Salts are not returned.
//
// URL format: GET /api/vaults
//
// Response: JSON array of {id, name, created_at}
func (h *Handler) HandleListVaults(w http.ResponseWriter, r *http.Request) {
	descriptors, err := h.session.GetRegistry(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]api.VaultInfo, 0, len(descriptors))
	for _, d := range descriptors {
		resp = append(resp, api.NewVaultInfo(d))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleCreateVault creates a vault and opens it, locking any vault open before.
//
// URL format: POST /api/vaults
//
// Request body: JSON {name, password}
//
// Response: 201 with the new vault's {id, name, created_at}; 400 on an empty name.
func (h *Handler) HandleCreateVault(w http.ResponseWriter, r *http.Request) {
	var req api.CreateVaultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.session.CreateVault(r.Context(), req.Name, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.NewVaultInfo(d))
}

// HandleUnlock opens vault {id}. The previously open vault is locked first,
// so a failed unlock leaves the session locked.
//
// URL format: POST /api/vaults/{id}/unlock
//
// Request body: JSON {password}
//
// Response: 204; 401 on a wrong password, 404 when the vault or its payload is missing.
func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	var req api.PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.session.Unlock(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify checks a password against vault {id} without opening it.
//
// URL format: POST /api/vaults/{id}/verify
//
// Request body: JSON {password}
//
// Response: 204 or 401.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req api.PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.session.VerifyPassword(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRename changes the display name of vault {id}. The payload is untouched.
//
// URL format: POST /api/vaults/{id}/rename
//
// Request body: JSON {password, new_name}
//
// Response: 204; 400 on an empty name, 401 on a wrong password.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req api.RenameVaultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.session.RenameVault(r.Context(), chi.URLParam(r, "id"), req.Password, req.NewName); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes vault {id} and its payload. Deleting the open vault locks the session.
//
// URL format: DELETE /api/vaults/{id}
//
// Request body: JSON {password}
//
// Response: 204; 401 on a wrong password.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req api.PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.session.DeleteVault(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLock discards the open vault. Locking a locked session is not an error.
//
// URL format: POST /api/lock
func (h *Handler) HandleLock(w http.ResponseWriter, r *http.Request) {
	h.session.Lock()
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetTemplates returns the templates of the open vault.
//
// URL format: GET /api/templates
//
// Response: JSON {templates: [{id, name, subject, body, builtin, isDefault}]}; 409 when locked.
func (h *Handler) HandleGetTemplates(w http.ResponseWriter, r *http.Request) {
	store, err := h.session.GetTemplatesStore()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, store)
}

// HandleSaveTemplates replaces the templates of the open vault and persists it.
//
// URL format: PUT /api/templates
//
// Request body: JSON templates store as returned by HandleGetTemplates. It must
// have exactly one default and keep every built-in template.
//
// Response: 204; 400 when the store is invalid, 409 when locked.
func (h *Handler) HandleSaveTemplates(w http.ResponseWriter, r *http.Request) {
	var store interfaces.TemplatesStore
	if err := decodeJSON(w, r, &store); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.session.SaveTemplatesStore(r.Context(), store); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetSignatures returns the signatures of the open vault.
//
// URL format: GET /api/signatures
//
// Response: JSON array of {id, name, imageData, kind, createdAt}; 409 when locked.
func (h *Handler) HandleGetSignatures(w http.ResponseWriter, r *http.Request) {
	signatures, err := h.session.GetSignatures()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, signatures)
}

// HandleAddSignature stores a signature in the open vault. The server assigns
// the id and creation time.
//
// URL format: POST /api/signatures
//
// Request body: JSON {name, image_data, kind} where kind is draw, type or image
//
// Response: 201 with the stored record; 400 on an invalid record, 409 when locked.
func (h *Handler) HandleAddSignature(w http.ResponseWriter, r *http.Request) {
	var req api.SignatureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	record, err := h.session.AddSignature(r.Context(), interfaces.SignatureRecord{
		Name:      req.Name,
		ImageData: req.ImageData,
		Kind:      req.Kind,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

// HandleRemoveSignature deletes signature {id} from the open vault.
//
// URL format: DELETE /api/signatures/{id}
//
// Response: 204; 404 when no such signature exists, 409 when locked.
func (h *Handler) HandleRemoveSignature(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveSignature(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport returns the open vault as a transfer bundle.
//
// URL format: GET /api/export?chunk=N
//
// With chunk set, the response also carries the bundle split into chunks of
// at most N characters for display as rotating visual codes.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	chunkSize := 0
	if raw := r.URL.Query().Get("chunk"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid chunk size %q", raw)})
			return
		}
		chunkSize = n
	}

	bundle, err := h.session.ExportVault(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	encoded, err := transfer.Encode(bundle)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := api.ExportResponse{Bundle: encoded}
	if chunkSize > 0 {
		resp.Chunks = transfer.Split(encoded, chunkSize)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleImport adds a transferred vault as a new vault and opens it. The
// bundle must decrypt with password before anything is written. Name
// collisions get a " (n)" suffix.
//
// URL format: POST /api/import
//
// Request body: JSON {bundle, password} where bundle is the clipboard text,
// the bundle JSON, or whitespace separated chunks
//
// Response: 201 with the new vault's {id, name, created_at}; 400 on a malformed
// bundle, 401 when password does not open it.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req api.ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	bundle, err := transfer.Parse(req.Bundle)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.session.ImportVaultAsNew(r.Context(), bundle, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.assembler.Reset()
	h.writeJSON(w, http.StatusCreated, api.NewVaultInfo(d))
}

// HandleReplaceImport replaces the contents of the open vault with those of a
// transferred vault. The open vault keeps its id, name and password.
//
// URL format: POST /api/import/replace
//
// Request body: JSON {bundle, file_password, active_password}
//
// Response: 204; 401 when either password is wrong, 409 when locked.
func (h *Handler) HandleReplaceImport(w http.ResponseWriter, r *http.Request) {
	var req api.ReplaceImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	bundle, err := transfer.Parse(req.Bundle)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.session.ReplaceVaultWithImport(r.Context(), bundle, req.FilePassword, req.ActivePassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.assembler.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddChunk feeds one scanned chunk to the assembler. Once every chunk
// has been seen the response carries the reassembled bundle; it still has to
// be imported with a password.
//
// URL format: POST /api/transfer/chunks
//
// Request body: JSON {chunk} with a "DVX1:<index>:<total>:<data>" chunk
//
// Response: JSON {added, seen, total, complete, bundle}; 400 on a malformed
// chunk or one announcing a different total.
func (h *Handler) HandleAddChunk(w http.ResponseWriter, r *http.Request) {
	var req api.ChunkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	added, err := h.assembler.Add(req.Chunk)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	seen, total := h.assembler.Progress()
	resp := api.ChunkProgress{Added: added, Seen: seen, Total: total}
	if h.assembler.IsComplete() {
		encoded, err := h.assembler.Assemble()
		if err != nil && !errors.Is(err, transfer.ErrIncomplete) {
			h.writeError(w, r, err)
			return
		}
		resp.Complete = err == nil
		resp.Bundle = encoded
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleResetChunks discards the chunks received so far.
//
// URL format: DELETE /api/transfer/chunks
func (h *Handler) HandleResetChunks(w http.ResponseWriter, r *http.Request) {
	h.assembler.Reset()
	w.WriteHeader(http.StatusNoContent)
}
