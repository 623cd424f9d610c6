package common

import (
	"crypto/ed25519"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/mr-tron/base58"
)

// Address is a base58-encoded ed25519 public key. It identifies organizers,
// buyers and payout recipients on a GatePass network.
type Address string

func NewAddressFromPublicKey(publicKey ed25519.PublicKey) (Address, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", errors.Wrapf(errs.InvalidArgument, "public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
	}
	return Address(base58.Encode(publicKey)), nil
}

// PublicKey decodes the address back to the ed25519 public key it encodes.
func (a Address) PublicKey() (ed25519.PublicKey, error) {
	raw, err := base58.Decode(string(a))
	if err != nil {
		return nil, errors.Wrap(errs.InvalidArgument, "address is not base58")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(errs.InvalidArgument, "address must decode to %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func (a Address) IsValid() bool {
	_, err := a.PublicKey()
	return err == nil
}

func (a Address) String() string {
	return string(a)
}
