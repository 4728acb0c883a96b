package cryptoutils

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size of derived keys in bytes (AES-256).
	KeySize = 32

	// SaltSize is the size of a vault salt in bytes.
	SaltSize = 16

	// PBKDF2Iterations is fixed; changing it would lock every existing vault.
	PBKDF2Iterations = 210_000
)

// KeyDeriver turns a password and salt into a symmetric key.
// The same inputs must always produce the same output.
type KeyDeriver interface {
	DeriveKey(password, salt []byte) []byte
}

// PBKDF2Deriver implements KeyDeriver with PBKDF2-HMAC-SHA256.
type PBKDF2Deriver struct{}

// DeriveKey implements KeyDeriver.
func (PBKDF2Deriver) DeriveKey(password, salt []byte) []byte {
	return DeriveKey(password, salt)
}

// DeriveKey stretches password with salt into a KeySize key.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, PBKDF2Iterations, KeySize, sha256.New)
}

// GenerateSalt returns SaltSize bytes from the system CSPRNG.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// ZeroBytes overwrites b with zeros.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
