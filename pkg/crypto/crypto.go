package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
)

// Signer holds an ed25519 private key and signs operation digests.
type Signer struct {
	privateKey ed25519.PrivateKey
}

// New parses a hex-encoded ed25519 seed (32 bytes) or full private key (64 bytes).
func New(privateKeyStr string) (*Signer, error) {
	raw, err := hex.DecodeString(privateKeyStr)
	if err != nil {
		return nil, errors.Wrap(err, "decode private key")
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return &Signer{privateKey: ed25519.NewKeyFromSeed(raw)}, nil
	case ed25519.PrivateKeySize:
		return &Signer{privateKey: ed25519.PrivateKey(raw)}, nil
	default:
		return nil, errors.Errorf("private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

// Generate creates a new random keypair.
func Generate() (*Signer, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate keypair")
	}
	return &Signer{privateKey: privateKey}, nil
}

// Sign signs a precomputed digest. The digest is signed directly, not hashed again.
func (s *Signer) Sign(digest []byte) []byte {
	return ed25519.Sign(s.privateKey, digest)
}

func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.privateKey.Public().(ed25519.PublicKey)
}

func (s *Signer) Address() common.Address {
	// the public key is always well-formed here
	addr, _ := common.NewAddressFromPublicKey(s.PublicKey())
	return addr
}

// Seed returns the hex-encoded 32-byte seed, the format New accepts.
func (s *Signer) Seed() string {
	return hex.EncodeToString(s.privateKey.Seed())
}

// Verify reports whether sig is a valid signature of digest by publicKey.
func Verify(publicKey ed25519.PublicKey, digest, sig []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(publicKey, digest, sig)
}
