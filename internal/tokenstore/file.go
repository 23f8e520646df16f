package tokenstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// fileStore persists the token record encrypted at rest. The key is derived
// from a passphrase with scrypt; the payload is sealed with XChaCha20-Poly1305.
// File layout: salt || nonce || ciphertext.
type fileStore struct {
	path       string
	passphrase []byte
}

// NewFile creates a token store backed by an encrypted file at path.
func NewFile(path, passphrase string) Store {
	return &fileStore{path: path, passphrase: []byte(passphrase)}
}

func (f *fileStore) Save(_ context.Context, rec *Record) error {
	plaintext, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode token record: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := f.aead(salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := append(salt, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, nil)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token store directory: %w", err)
	}

	// Write-then-rename so a crash never leaves a torn file behind.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("failed to write token store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace token store: %w", err)
	}

	return nil
}

func (f *fileStore) Load(_ context.Context) (*Record, error) {
	blob, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}

	if len(blob) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("token store file truncated: %w", ErrDecrypt)
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	ciphertext := blob[saltSize+chacha20poly1305.NonceSizeX:]

	aead, err := f.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	rec := &Record{}
	if err := json.Unmarshal(plaintext, rec); err != nil {
		return nil, fmt.Errorf("failed to decode token record: %w", err)
	}

	return rec, nil
}

func (f *fileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token store: %w", err)
	}
	return nil
}

func (f *fileStore) Ping(_ context.Context) error {
	// The directory must be usable; the file itself may not exist yet.
	return os.MkdirAll(filepath.Dir(f.path), 0o700)
}

func (f *fileStore) Close() error { return nil }

func (f *fileStore) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(f.passphrase, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead, nil
}
