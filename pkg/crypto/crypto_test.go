package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedStr = "ce9c2fd75623e82a83ed743518ec7749f6f355f7301dd432400b087717fed2f2"

func TestNew(t *testing.T) {
	t.Run("from_seed", func(t *testing.T) {
		signer, err := New(seedStr)
		require.NoError(t, err)
		assert.Equal(t, seedStr, signer.Seed())
	})
	t.Run("from_full_private_key", func(t *testing.T) {
		seed, err := hex.DecodeString(seedStr)
		require.NoError(t, err)
		fullKey := ed25519.NewKeyFromSeed(seed)

		signer, err := New(hex.EncodeToString(fullKey))
		require.NoError(t, err)
		assert.Equal(t, seedStr, signer.Seed())
	})
	t.Run("invalid_hex", func(t *testing.T) {
		_, err := New("not-hex")
		assert.Error(t, err)
	})
	t.Run("invalid_length", func(t *testing.T) {
		_, err := New("deadbeef")
		assert.Error(t, err)
	})
}

func TestSignVerify(t *testing.T) {
	signer, err := New(seedStr)
	require.NoError(t, err)

	digest := []byte("0123456789abcdef0123456789abcdef")
	signature := signer.Sign(digest)

	assert.True(t, Verify(signer.PublicKey(), digest, signature))
	assert.False(t, Verify(signer.PublicKey(), []byte("other digest, same length......."), signature))

	other, err := Generate()
	require.NoError(t, err)
	assert.False(t, Verify(other.PublicKey(), digest, signature))
}

func TestAddressRoundTrip(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)

	addr := signer.Address()
	require.True(t, addr.IsValid())

	publicKey, err := addr.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), publicKey)
}
