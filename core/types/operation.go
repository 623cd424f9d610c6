package types

import (
	"crypto/ed25519"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/pkg/codec"
	"github.com/zeebo/blake3"
)

// OperationKind identifies one protocol operation carried by an envelope.
type OperationKind string

const (
	OpRegisterEvent     OperationKind = "register_event"
	OpLaunchEvent       OperationKind = "launch_event"
	OpPurchase          OperationKind = "purchase"
	OpQuotePrice        OperationKind = "quote_price"
	OpSetDiscount       OperationKind = "set_discount"
	OpCancelDiscount    OperationKind = "cancel_discount"
	OpUpdateBasePrice   OperationKind = "update_base_price"
	OpUpdateMetadataURI OperationKind = "update_metadata_uri"
	OpWithdraw          OperationKind = "withdraw"
	OpWithdrawAll       OperationKind = "withdraw_all"
	OpDeposit           OperationKind = "deposit"
	OpSweepTreasury     OperationKind = "sweep_treasury"
)

var operationKinds = map[OperationKind]struct{}{
	OpRegisterEvent:     {},
	OpLaunchEvent:       {},
	OpPurchase:          {},
	OpQuotePrice:        {},
	OpSetDiscount:       {},
	OpCancelDiscount:    {},
	OpUpdateBasePrice:   {},
	OpUpdateMetadataURI: {},
	OpWithdraw:          {},
	OpWithdrawAll:       {},
	OpDeposit:           {},
	OpSweepTreasury:     {},
}

func (k OperationKind) IsValid() bool {
	_, ok := operationKinds[k]
	return ok
}

func (k OperationKind) String() string {
	return string(k)
}

// operationDomainKey is the BLAKE3 key for operation signing digests.
// The byte values are the ASCII encoding of the domain name, zero-padded
// to 32 bytes, so the key is inspectable in hex dumps.
var operationDomainKey = [32]byte{
	'g', 'a', 't', 'e', 'p', 'a', 's', 's', '.',
	'o', 'p', 'e', 'r', 'a', 't', 'i', 'o', 'n',
}

// Envelope is a signed operation as submitted by a client. The signature
// covers the deterministic CBOR encoding of every other field, keyed to
// the operation domain, so envelopes cannot be replayed across networks
// or reinterpreted as other message types.
type Envelope struct {
	Network   common.Network `cbor:"1,keyasint" json:"network"`
	Kind      OperationKind  `cbor:"2,keyasint" json:"kind"`
	Caller    common.Address `cbor:"3,keyasint" json:"caller"`
	Nonce     uint64         `cbor:"4,keyasint" json:"nonce"`
	Payment   uint64         `cbor:"5,keyasint" json:"payment"`
	Payload   []byte         `cbor:"6,keyasint" json:"payload"`
	Signature []byte         `cbor:"7,keyasint" json:"signature,omitempty"`
}

// SigningDigest returns the 32-byte digest a caller must sign.
func (e Envelope) SigningDigest() (common.Hash, error) {
	e.Signature = nil
	encoded, err := codec.Marshal(e)
	if err != nil {
		return common.ZeroHash, errors.Wrap(err, "failed to encode envelope")
	}
	hasher, err := blake3.NewKeyed(operationDomainKey[:])
	if err != nil {
		return common.ZeroHash, errors.Wrap(err, "failed to create keyed hasher")
	}
	_, _ = hasher.Write(encoded)
	var digest common.Hash
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// VerifySignature checks the envelope signature against the caller address.
// The caller address is the base58 encoding of the signing public key, so
// no separate key distribution is needed.
func (e Envelope) VerifySignature() error {
	publicKey, err := e.Caller.PublicKey()
	if err != nil {
		return errors.Wrap(err, "invalid caller address")
	}
	if len(e.Signature) != ed25519.SignatureSize {
		return errors.Newf("invalid signature length %d, expected %d", len(e.Signature), ed25519.SignatureSize)
	}
	digest, err := e.SigningDigest()
	if err != nil {
		return errors.WithStack(err)
	}
	if !ed25519.Verify(publicKey, digest[:], e.Signature) {
		return errors.New("signature does not match caller public key")
	}
	return nil
}

// Operation is an envelope admitted by the sequencer, stamped with its
// position in the global order and the ledger timestamp used for all
// time-dependent pricing logic.
type Operation struct {
	Envelope
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}
