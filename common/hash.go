package common

import (
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
)

// HashSize is the size of a BLAKE3-256 digest in bytes.
const HashSize = 32

// Hash is a 32-byte digest. Used for operation digests, receipt event hashes
// and the cumulative attestation chain.
type Hash [HashSize]byte

// ZeroHash is the chain seed: the cumulative hash "before" the first operation.
var ZeroHash = Hash{}

func NewHashFromStr(s string) (Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, errors.Wrap(errs.InvalidArgument, "hash must be hex")
	}
	if len(raw) != HashSize {
		return Hash{}, errors.Wrapf(errs.InvalidArgument, "hash must be %d bytes, got %d", HashSize, len(raw))
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}

func (h Hash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.WithStack(err)
	}
	parsed, err := NewHashFromStr(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
