// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package security provides the encryption capability used for raw values
// kept under investigation storage, the tenant-salted value hash, and a
// redacting holder for key material.
package security

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrInvalidKey is returned when the encryption key is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned when decryption fails due to invalid ciphertext or wrong key.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
)

const (
	// KeySize is the length of a raw master key.
	KeySize = chacha20poly1305.KeySize

	tokenPrefix      = "v1."
	passphraseSalt   = "pii-linkage/passphrase/v1"
	passphraseRounds = 210_000
	hkdfInfo         = "pii-linkage/raw-value-encryption/v1"
)

// Cipher encrypts raw values with XChaCha20-Poly1305. Tokens are
// "v1." + base64url(nonce || ciphertext || tag). A Cipher is safe for
// concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a key string. The key can be:
//   - A base64-encoded 32-byte key (e.g., from: openssl rand -base64 32)
//   - A hex-encoded 32-byte key
//   - Any passphrase (stretched to 32 bytes with PBKDF2-SHA256)
//
// The AEAD key is then derived from that master key with HKDF-SHA256, so the
// master key is never used directly.
func NewCipher(keyInput string) (*Cipher, error) {
	if strings.TrimSpace(keyInput) == "" {
		return nil, ErrInvalidKey
	}

	master := NewSecureBytes(masterKey(keyInput))
	defer master.Clear()

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master.Bytes(), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

func masterKey(keyInput string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(keyInput); err == nil && len(decoded) == KeySize {
		return decoded
	}
	if decoded, err := hex.DecodeString(keyInput); err == nil && len(decoded) == KeySize {
		return decoded
	}
	return pbkdf2.Key([]byte(keyInput), []byte(passphraseSalt), passphraseRounds, KeySize, sha256.New)
}

// GenerateKey returns a new random master key, base64-encoded.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Every failure is reported as
// ErrDecryptionFailed without any part of the token or plaintext.
func (c *Cipher) Decrypt(token string) (string, error) {
	body, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return "", fmt.Errorf("%w: unknown token version", ErrDecryptionFailed)
	}
	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return string(plaintext), nil
}

// HashWithTenantSalt returns hex(SHA-256(salt + ":" + value)).
func HashWithTenantSalt(value string, salt []byte) string {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte{':'})
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}
