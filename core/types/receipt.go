package types

import (
	"encoding/json"
	"time"

	"github.com/gatepass-network/boxoffice/common"
)

// ReceiptStatus tells whether an operation mutated state or was journaled
// as a rejection.
type ReceiptStatus string

const (
	ReceiptStatusApplied  ReceiptStatus = "applied"
	ReceiptStatusRejected ReceiptStatus = "rejected"
)

// Receipt is the outcome of one journaled operation. Both applied and
// rejected operations produce receipts; submissions that fail admission
// (bad signature, stale nonce, wrong network) never reach the journal and
// have no receipt.
type Receipt struct {
	Sequence  uint64          `json:"sequence"`
	Kind      OperationKind   `json:"kind"`
	Caller    common.Address  `json:"caller"`
	Status    ReceiptStatus   `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	// EventsHash commits to the protocol events emitted by this operation.
	// CumulativeHash chains it onto the previous receipt, so two journals
	// agree on their entire history iff their latest cumulative hashes match.
	EventsHash     common.Hash `json:"eventsHash"`
	CumulativeHash common.Hash `json:"cumulativeHash"`
}

func (r *Receipt) Applied() bool {
	return r.Status == ReceiptStatusApplied
}
