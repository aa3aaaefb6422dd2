package accounts

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/goliatone/go-errors"
)

// QueryCipher encrypts opaque strings for embedding in URLs. Decryption
// soft-fails: callers treat an undecryptable value as absent instead of
// surfacing an error, so forged or truncated input degrades gracefully.
type QueryCipher struct {
	key []byte
}

// NewQueryCipher derives a 256 bit AES key from the configured secret.
func NewQueryCipher(secret string) *QueryCipher {
	key := sha256.Sum256([]byte(secret))
	return &QueryCipher{key: key[:]}
}

// EncryptQuery seals the plaintext with AES-GCM. The random nonce is
// prepended to the ciphertext and the whole value is base64url encoded so
// it survives query-string transport.
func (c *QueryCipher) EncryptQuery(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to initialize cipher")
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to initialize cipher")
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read random source")
	}

	sealed := aesgcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses EncryptQuery. It returns ok=false for anything it
// cannot open: bad encoding, wrong key, tampered or truncated input.
func (c *QueryCipher) Decrypt(ciphertext string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", false
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", false
	}

	if len(raw) < aesgcm.NonceSize() {
		return "", false
	}

	nonce, sealed := raw[:aesgcm.NonceSize()], raw[aesgcm.NonceSize():]
	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", false
	}

	return string(plaintext), true
}
