// Package cryptoutils provides the password-based cryptography of docvault.
//
// A vault key is derived from the user's password and the vault's salt with
// PBKDF2-HMAC-SHA256 and is then used with AES-256-GCM to seal the serialized
// vault body.
//
//   - PBKDF2-HMAC-SHA256, 210,000 iterations, 32-byte key
//   - AES-256-GCM with a fresh random 12-byte nonce for every Encrypt call
//   - 16-byte authentication tag; tag failure is the only password check
//
// # Key Functions
//
// # DeriveKey - Stretches a password and salt into a 256-bit key
//
// # Encrypt - Seals a plaintext and returns portable base64 text
//
// # Decrypt - Opens base64 text, returning ErrAuthenticationFailed on a bad tag
//
// # Encryption Format
//
// The sealed blob is base64 (standard alphabet, padded) of:
//
//	[nonce (12 bytes)][ciphertext][tag (16 bytes)]
//
// # Usage Example
//
//	salt, err := cryptoutils.GenerateSalt()
//	key := cryptoutils.DeriveKey([]byte(password), salt)
//	defer cryptoutils.ZeroBytes(key)
//
//	blob, err := cryptoutils.Encrypt(body, key)
//	...
//	plaintext, err := cryptoutils.Decrypt(blob, key)
//	if errors.Is(err, cryptoutils.ErrAuthenticationFailed) {
//	    // wrong password or corrupted vault
//	}
package cryptoutils
