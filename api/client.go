package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/docvault/interfaces"
)

// knownErrors are matched against server error messages so that callers can
// use errors.Is on client errors as they would on local ones.
var knownErrors = []error{
	interfaces.ErrWrongPassword,
	interfaces.ErrVaultNotFound,
	interfaces.ErrPayloadMissing,
	interfaces.ErrNotUnlocked,
	interfaces.ErrInvalidBundle,
	interfaces.ErrEmptyName,
	interfaces.ErrInvalidTemplates,
	interfaces.ErrBuiltinTemplate,
	interfaces.ErrTemplateNotFound,
	interfaces.ErrSignatureNotFound,
	interfaces.ErrInvalidSignature,
	interfaces.ErrUnsupportedVersion,
	interfaces.ErrBackendUnavailable,
}

// APIError is a non-2xx response of the vault API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vault api: %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the sentinel errors named in the message.
func (e *APIError) Unwrap() []error {
	var errs []error
	for _, known := range knownErrors {
		if strings.Contains(e.Message, known.Error()) {
			errs = append(errs, known)
		}
	}
	return errs
}

// VaultClient talks to the API served by cmd/vaultd.
type VaultClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewVaultClient creates a client for the API at baseURL (e.g. "http://127.0.0.1:8080").
// Key derivation happens on the server, so the timeout is generous.
func NewVaultClient(baseURL string, timeout ...time.Duration) *VaultClient {
	clientTimeout := 60 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &VaultClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

func (c *VaultClient) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *VaultClient) ListVaults(ctx context.Context) ([]VaultInfo, error) {
	var resp []VaultInfo
	if err := c.do(ctx, http.MethodGet, "/api/vaults", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *VaultClient) CreateVault(ctx context.Context, name, password string) (*VaultInfo, error) {
	var resp VaultInfo
	if err := c.do(ctx, http.MethodPost, "/api/vaults", CreateVaultRequest{Name: name, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *VaultClient) Unlock(ctx context.Context, id, password string) error {
	return c.do(ctx, http.MethodPost, "/api/vaults/"+url.PathEscape(id)+"/unlock", PasswordRequest{Password: password}, nil)
}

func (c *VaultClient) Lock(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/lock", nil, nil)
}

func (c *VaultClient) VerifyPassword(ctx context.Context, id, password string) error {
	return c.do(ctx, http.MethodPost, "/api/vaults/"+url.PathEscape(id)+"/verify", PasswordRequest{Password: password}, nil)
}

func (c *VaultClient) RenameVault(ctx context.Context, id, password, newName string) error {
	return c.do(ctx, http.MethodPost, "/api/vaults/"+url.PathEscape(id)+"/rename", RenameVaultRequest{Password: password, NewName: newName}, nil)
}

func (c *VaultClient) DeleteVault(ctx context.Context, id, password string) error {
	return c.do(ctx, http.MethodDelete, "/api/vaults/"+url.PathEscape(id), PasswordRequest{Password: password}, nil)
}

func (c *VaultClient) Templates(ctx context.Context) (*interfaces.TemplatesStore, error) {
	var resp interfaces.TemplatesStore
	if err := c.do(ctx, http.MethodGet, "/api/templates", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *VaultClient) SaveTemplates(ctx context.Context, store interfaces.TemplatesStore) error {
	return c.do(ctx, http.MethodPut, "/api/templates", store, nil)
}

func (c *VaultClient) Signatures(ctx context.Context) ([]interfaces.SignatureRecord, error) {
	var resp []interfaces.SignatureRecord
	if err := c.do(ctx, http.MethodGet, "/api/signatures", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *VaultClient) AddSignature(ctx context.Context, req SignatureRequest) (*interfaces.SignatureRecord, error) {
	var resp interfaces.SignatureRecord
	if err := c.do(ctx, http.MethodPost, "/api/signatures", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *VaultClient) RemoveSignature(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/signatures/"+url.PathEscape(id), nil, nil)
}

// Export returns the open vault as a transfer bundle. chunkSize > 0 also requests chunks.
func (c *VaultClient) Export(ctx context.Context, chunkSize int) (*ExportResponse, error) {
	path := "/api/export"
	if chunkSize > 0 {
		path += "?chunk=" + strconv.Itoa(chunkSize)
	}

	var resp ExportResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *VaultClient) Import(ctx context.Context, bundle, password string) (*VaultInfo, error) {
	var resp VaultInfo
	if err := c.do(ctx, http.MethodPost, "/api/import", ImportRequest{Bundle: bundle, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *VaultClient) ReplaceWithImport(ctx context.Context, req ReplaceImportRequest) error {
	return c.do(ctx, http.MethodPost, "/api/import/replace", req, nil)
}

func (c *VaultClient) AddChunk(ctx context.Context, chunk string) (*ChunkProgress, error) {
	var resp ChunkProgress
	if err := c.do(ctx, http.MethodPost, "/api/transfer/chunks", ChunkRequest{Chunk: chunk}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *VaultClient) ResetChunks(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/transfer/chunks", nil, nil)
}

func (c *VaultClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
