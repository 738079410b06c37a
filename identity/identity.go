// Package identity owns the agent's long-lived Ed25519 signing keypair.
//
// The keypair is generated on first run and persisted as an unencrypted
// PKCS#8 PEM file; every later start loads the same key. Merchants register
// the agent by its public key, so losing the key file invalidates the agent's
// identity with every merchant that has recorded it.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
)

const pemBlockType = "PRIVATE KEY"

// Identity wraps the agent's Ed25519 private key. The key material is
// read-only after load, so a single Identity is safe for concurrent use by
// any number of in-flight handshakes.
type Identity struct {
	key ed25519.PrivateKey
}

// LoadOrCreate loads the keypair persisted at path, generating and writing a
// fresh one if the file does not exist yet. Any storage or decode fault is
// returned as an error; callers treat that as fatal since the agent cannot
// operate without an identity.
func LoadOrCreate(path string) (*Identity, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("identity: read key file %s: %w", path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != pemBlockType {
		return nil, fmt.Errorf("identity: %s is not a PEM private key", path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("identity: parse key file %s: %w", path, err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("identity: %s holds a %T, want an Ed25519 key", path, parsed)
	}
	return &Identity{key: key}, nil
}

func create(path string) (*Identity, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("identity: encode key: %w", err)
	}
	raw := pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der})
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, fmt.Errorf("identity: persist key file %s: %w", path, err)
	}
	return &Identity{key: key}, nil
}

// Sign signs the message with the agent's private key. Signing is a pure
// operation on the loaded key and never fails.
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.key, message)
}

// Public returns the public half of the keypair. This is the only key
// material that ever leaves the process.
func (id *Identity) Public() ed25519.PublicKey {
	return id.key.Public().(ed25519.PublicKey)
}

// PublicKeyHex returns the public key hex-encoded, the form merchants record
// for verification.
func (id *Identity) PublicKeyHex() string {
	return hex.EncodeToString(id.Public())
}
