// Package crypto seals confidential profile fields with XChaCha20-Poly1305.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"rachel/config"
	"rachel/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// addressCipher stores values as base64(nonce || ciphertext).
type addressCipher struct {
	aead cipher.AEAD
}

// NewAddressCipher builds the cipher from the base64 encoded 32 byte encryption.addressKey.
func NewAddressCipher(cfg *config.Config) (service.AddressCipher, error) {
	key, err := base64.StdEncoding.DecodeString(cfg.Encryption.AddressKey)
	if err != nil {
		return nil, errors.Wrap(err, "decode encryption.addressKey")
	}

	return newAddressCipher(key)
}

func newAddressCipher(key []byte) (*addressCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("encryption.addressKey must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "init xchacha20-poly1305")
	}

	return &addressCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Empty values stay empty.
func (c *addressCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "generate nonce")
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt and fails if it was altered.
func (c *addressCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "decode sealed value")
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", errors.New("sealed value is truncated")
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.Wrap(err, "open sealed value")
	}

	return string(plain), nil
}
