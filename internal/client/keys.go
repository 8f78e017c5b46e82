package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

// GenerateKey creates a fresh signing key.
func GenerateKey() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	return priv, err
}

// EncodeKey renders key as base58 of its 64-byte private form.
func EncodeKey(key ed25519.PrivateKey) string {
	return base58.Encode(key)
}

// DecodeKey parses EncodeKey output. A 32-byte seed is accepted too.
func DecodeKey(s string) (ed25519.PrivateKey, error) {
	raw := base58.Decode(strings.TrimSpace(s))
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	}
	return nil, fmt.Errorf("key must decode to %d or %d bytes, got %d", ed25519.PrivateKeySize, ed25519.SeedSize, len(raw))
}

// SaveKey writes key to path, readable by the owner only. It refuses to
// overwrite an existing file.
func SaveKey(path string, key ed25519.PrivateKey) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	if _, err := f.WriteString(EncodeKey(key) + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	return f.Close()
}

func LoadKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return DecodeKey(string(raw))
}

// EncodeKeySeed renders only the 32-byte seed.
func EncodeKeySeed(key ed25519.PrivateKey) string {
	return base58.Encode(key.Seed())
}
