// Package vault encrypts health record documents at rest.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"dsas/internal/errors"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Document is the plaintext of a record: an arbitrary JSON object. Decrypted
// numbers come back as json.Number so large integers keep every digit.
type Document map[string]any

// Ciphertext is base64(nonce || sealed document), safe to store as text.
type Ciphertext string

// Vault provides AES-256-GCM encryption for record documents. The key is fixed
// at construction and the Vault is safe for concurrent use.
type Vault struct {
	aead cipher.AEAD
}

// New creates a Vault with the given 32-byte key.
func New(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("vault: key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: create GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt serializes doc and seals it under a fresh random nonce.
func (v *Vault) Encrypt(doc Document) (Ciphertext, error) {
	if doc == nil {
		return "", errors.WithMessage(errors.ErrMalformed, "record document is empty")
	}
	plaintext, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(errors.ErrMalformed, err)
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: generate nonce: %w", err)
	}

	// Seal appends to nonce, so the result is nonce + ciphertext + tag.
	sealed := v.aead.Seal(nonce, nonce, plaintext, nil)
	return Ciphertext(base64.StdEncoding.EncodeToString(sealed)), nil
}

// Decrypt opens ct. Any authentication failure, including truncation, a
// flipped bit or the wrong key, is reported as errors.ErrTampered. The text
// is decoded strictly, so a flip in the padding bits of the last base64
// character is rejected too.
func (v *Vault) Decrypt(ct Ciphertext) (Document, error) {
	data, err := base64.StdEncoding.Strict().DecodeString(string(ct))
	if err != nil {
		return nil, errors.Wrap(errors.ErrTampered, err)
	}

	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize+v.aead.Overhead() {
		return nil, errors.WithMessage(errors.ErrTampered, "ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTampered, err)
	}

	return decodeDocument(plaintext)
}

func decodeDocument(plaintext []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrMalformed, err)
	}
	if doc == nil || dec.More() {
		return nil, errors.WithMessage(errors.ErrMalformed, "record document is not a single JSON object")
	}
	return doc, nil
}

// GenerateKey returns a fresh random key, hex-encoded for RECORD_ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("vault: generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
