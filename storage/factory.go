package storage

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ruteri/docvault/interfaces"
)

// StorageBackendFactory creates stores from location URIs and manages
// mirrored configurations for redundant storage.
type StorageBackendFactory struct {
	log     *slog.Logger
	tlsAuth func() (tls.Certificate, error)
	memory  *MemoryBackend
}

// NewStorageBackendFactory creates a new factory instance.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{
		log:    logger,
		memory: NewMemoryBackend(),
	}
}

// WithTLSAuth configures the TLS client certificate used by vault:// stores.
func (sf *StorageBackendFactory) WithTLSAuth(certFn func() (tls.Certificate, error)) *StorageBackendFactory {
	return &StorageBackendFactory{
		log:     sf.log,
		tlsAuth: certFn,
		memory:  sf.memory,
	}
}

// StoreFor creates a store from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - mem:// - In-process storage, shared by every mem:// location of this factory
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS mutable file system
//   - vault:// - HashiCorp Vault KV v2
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StorageBackendFactory) StoreFor(location interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	switch location.Scheme {
	case "mem":
		return sf.memory, nil
	case "file":
		return sf.createFileBackend(location)
	case "s3":
		return sf.createS3Backend(location)
	case "ipfs":
		return sf.createIPFSBackend(location)
	case "vault":
		return sf.createVaultBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %s", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiStore creates a store from a list of location URIs.
// A single location yields that store directly; several are mirrored.
// Returns an error if no valid store could be created from the provided URIs.
func (sf *StorageBackendFactory) CreateMultiStore(locations []interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	backends := make([]interfaces.KVStore, 0, len(locations))

	for _, loc := range locations {
		backend, err := sf.StoreFor(loc)
		if err != nil {
			sf.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("locationURI", loc.String()))
			continue
		}
		backends = append(backends, backend)
	}

	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("no valid storage backends created")
	case 1:
		return backends[0], nil
	}
	return NewMultiStorageBackend(backends, sf.log), nil
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(loc interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", loc.String()))

	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %s", interfaces.ErrInvalidLocationURI, loc.String())
	}

	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
func (sf *StorageBackendFactory) createS3Backend(loc interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating S3 backend", slog.String("bucket", loc.Host))

	if loc.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", interfaces.ErrInvalidLocationURI, loc.String())
	}

	region := loc.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if loc.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(loc.Auth, ":")
	}

	return NewS3Backend(loc.Host, strings.TrimPrefix(loc.Path, "/"), region, loc.GetParam("endpoint"), accessKey, secretKey, sf.log)
}

// createIPFSBackend creates an IPFS MFS storage backend.
// URI format: ipfs://host:port/mfs/dir?timeout=30s
func (sf *StorageBackendFactory) createIPFSBackend(loc interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", loc.String()))

	host, port, found := strings.Cut(loc.Host, ":")
	if !found || port == "" {
		port = "5001" // Default IPFS API port
	}
	if host == "" {
		host = "127.0.0.1"
	}

	timeout := 30 * time.Second
	if raw := loc.GetParam("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q", interfaces.ErrInvalidLocationURI, raw)
		}
		timeout = parsed
	}

	dir := loc.Path
	if strings.Trim(dir, "/") == "" {
		dir = "/docvault"
	}

	return NewIPFSBackend(host, port, dir, timeout, sf.log)
}

// createVaultBackend creates a HashiCorp Vault KV v2 storage backend.
// URI format: vault://host:port/mount/path?token=...&tls=true
// The token may also come from VAULT_TOKEN.
func (sf *StorageBackendFactory) createVaultBackend(loc interfaces.StorageBackendLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating Vault backend", slog.String("host", loc.Host))

	mount, dataPath, _ := strings.Cut(strings.Trim(loc.Path, "/"), "/")
	if loc.Host == "" || mount == "" {
		return nil, fmt.Errorf("%w: expected vault://host:port/mount[/path]", interfaces.ErrInvalidLocationURI)
	}

	scheme := "http"
	if loc.GetParamBool("tls") {
		scheme = "https"
	}

	token := loc.GetParam("token")
	if token == "" {
		token = os.Getenv("VAULT_TOKEN")
	}

	var clientCert *tls.Certificate
	if sf.tlsAuth != nil {
		cert, err := sf.tlsAuth()
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS client certificate: %w", err)
		}
		clientCert = &cert
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, loc.Host), mount, dataPath, token, clientCert, sf.log)
}
