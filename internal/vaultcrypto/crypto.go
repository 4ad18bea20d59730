// Package vaultcrypto implements the two-tier key hierarchy and authenticated
// symmetric encryption that back the vault's at-rest confidentiality: a
// server-held master key wraps per-account keys, and per-account keys
// encrypt individual vault-entry secrets.
//
// The derivation style (HKDF-SHA256 domain separation) and the AES-256-GCM
// primitive are grounded on pkg/secrets, generalised here to a fixed byte
// layout so that key rotation is a pure data transformation: unwrap under
// the old master key, wrap under the new one, with no schema change.
package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/shieldvault/vaultd/internal/domain"
)

// KeySize is the size in bytes of both the master key and every per-account
// key (AES-256).
const KeySize = 32

const (
	nonceSize  = 12
	authTagSize = 16
	// wrapBlobSize is nonce(12) ‖ authTag(16) ‖ ciphertext(32) = 60 bytes.
	wrapBlobSize = nonceSize + authTagSize + KeySize

	wrapInfo = "vaultd-key-wrap-v1"
)

var (
	errKeyLength      = errors.New("vaultcrypto: key must be 32 bytes")
	errBlobLength     = errors.New("vaultcrypto: wrapped key blob has wrong length")
	errCiphertextSize = errors.New("vaultcrypto: ciphertext/nonce/tag size mismatch")
)

// GenerateUserKey returns a fresh cryptographically random 32-byte per-account
// key.
func GenerateUserKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, domain.NewError(domain.KindCrypto, "failed to generate account key", err)
	}
	return key, nil
}

func aesGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// deriveWrapKey domain-separates the master key via HKDF so that key wrap
// never reuses the raw master key material directly, mirroring
// pkg/secrets' compound-key derivation.
func deriveWrapKey(masterKey []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, masterKey, nil, []byte(wrapInfo))
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, err
	}
	return derived, nil
}

// Wrap encrypts userKey under masterKey with a fresh nonce. The returned
// blob has the fixed layout nonce(12) ‖ authTag(16) ‖ ciphertext(32), 60
// bytes total — distinct from Go's native Seal ordering (ciphertext‖tag) so
// that rotation is schema-stable.
func Wrap(userKey, masterKey []byte) ([]byte, error) {
	if len(userKey) != KeySize || len(masterKey) != KeySize {
		return nil, domain.NewError(domain.KindCrypto, "wrap: invalid key length", errKeyLength)
	}

	wrapKey, err := deriveWrapKey(masterKey)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "wrap: key derivation failed", err)
	}

	gcm, err := aesGCM(wrapKey)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "wrap: cipher init failed", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, domain.NewError(domain.KindCrypto, "wrap: nonce generation failed", err)
	}

	// Seal appends the tag after the ciphertext: sealed = ciphertext ‖ tag.
	sealed := gcm.Seal(nil, nonce, userKey, nil)
	ciphertext, tag := sealed[:KeySize], sealed[KeySize:]

	blob := make([]byte, 0, wrapBlobSize)
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// Unwrap is the inverse of Wrap; it rejects tampered or malformed blobs.
func Unwrap(blob, masterKey []byte) ([]byte, error) {
	if len(blob) != wrapBlobSize {
		return nil, domain.NewError(domain.KindCrypto, "unwrap: malformed blob", errBlobLength)
	}
	if len(masterKey) != KeySize {
		return nil, domain.NewError(domain.KindCrypto, "unwrap: invalid master key length", errKeyLength)
	}

	nonce := blob[:nonceSize]
	tag := blob[nonceSize : nonceSize+authTagSize]
	ciphertext := blob[nonceSize+authTagSize:]

	wrapKey, err := deriveWrapKey(masterKey)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "unwrap: key derivation failed", err)
	}

	gcm, err := aesGCM(wrapKey)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "unwrap: cipher init failed", err)
	}

	// Reassemble into Seal/Open's native ciphertext‖tag ordering before Open.
	sealed := make([]byte, 0, authTagSize+KeySize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	userKey, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "unwrap: authentication failed", err)
	}
	return userKey, nil
}

// EncryptField encrypts plaintext under userKey with a fresh nonce, returning
// the three components that are always stored and rewritten together.
func EncryptField(plaintext []byte, userKey []byte) (ciphertext, nonce, authTag []byte, err error) {
	if len(userKey) != KeySize {
		return nil, nil, nil, domain.NewError(domain.KindCrypto, "encryptField: invalid key length", errKeyLength)
	}

	gcm, err := aesGCM(userKey)
	if err != nil {
		return nil, nil, nil, domain.NewError(domain.KindCrypto, "encryptField: cipher init failed", err)
	}

	nonce = make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, domain.NewError(domain.KindCrypto, "encryptField: nonce generation failed", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - authTagSize
	ciphertext = append([]byte(nil), sealed[:split]...)
	authTag = append([]byte(nil), sealed[split:]...)
	return ciphertext, nonce, authTag, nil
}

// DecryptField is the inverse of EncryptField.
func DecryptField(ciphertext, nonce, authTag, userKey []byte) ([]byte, error) {
	if len(userKey) != KeySize {
		return nil, domain.NewError(domain.KindCrypto, "decryptField: invalid key length", errKeyLength)
	}
	if len(nonce) != nonceSize || len(authTag) != authTagSize {
		return nil, domain.NewError(domain.KindCrypto, "decryptField: malformed components", errCiphertextSize)
	}

	gcm, err := aesGCM(userKey)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "decryptField: cipher init failed", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "decryptField: authentication failed", err)
	}
	return plaintext, nil
}

// Fingerprint returns a collision-resistant one-way hex digest of token,
// used for lookups when the raw token itself must not be persisted
// (refresh credentials, share capability tokens).
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RandomOpaqueToken returns a URL-safe token with at least 256 bits of
// entropy, hex-encoded for simplicity of transport in cookies and URLs.
func RandomOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", domain.NewError(domain.KindCrypto, "failed to generate random token", err)
	}
	return hex.EncodeToString(buf), nil
}

// ConstantTimeEqual compares two fingerprints without leaking timing
// information, used when an extra defense-in-depth compare is wanted beyond
// the database equality lookup.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
