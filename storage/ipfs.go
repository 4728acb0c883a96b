package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/docvault/interfaces"
)

// IPFSBackend implements a storage backend on the mutable file system (MFS) of
// an IPFS node. Each key is one file under dir. Values are written with a single
// truncating "files write" call which the node applies as a unit.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	dir         string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a new IPFS storage backend connected to the node API at host:port.
func NewIPFSBackend(host, port, dir string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	dir = "/" + strings.Trim(dir, "/")

	sh := shell.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		dir:         dir,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s", apiURL, dir),
	}, nil
}

// Get reads the MFS file for key.
func (b *IPFSBackend) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	start := time.Now()
	filePath := b.getMFSPath(key)

	reader, err := b.shell.FilesRead(ctx, filePath)
	if err != nil {
		if isMFSNotFound(err) {
			return "", interfaces.ErrContentNotFound
		}
		b.log.Error("Failed to read from IPFS",
			slog.String("path", filePath),
			"err", err)
		return "", fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		if isMFSNotFound(err) {
			return "", interfaces.ErrContentNotFound
		}
		return "", fmt.Errorf("failed to read IPFS content: %w", err)
	}

	b.log.Debug("Fetched value from IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return string(data), nil
}

// Set writes value to the MFS file for key, creating parent directories.
func (b *IPFSBackend) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	filePath := b.getMFSPath(key)

	err := b.shell.FilesWrite(ctx, filePath, strings.NewReader(value),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("%w: failed to write to IPFS: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored value in IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(value)))

	return nil
}

// Remove deletes the MFS file for key.
func (b *IPFSBackend) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := b.shell.FilesRm(ctx, b.getMFSPath(key), true)
	if err != nil && !isMFSNotFound(err) {
		return fmt.Errorf("%w: failed to remove from IPFS: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// Available checks if the IPFS node is reachable.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	if !b.shell.IsUp() {
		b.log.Debug("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s", b.host)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) getMFSPath(key string) string {
	return path.Join(b.dir, key)
}

func isMFSNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "file does not exist") || strings.Contains(msg, "no link named")
}
