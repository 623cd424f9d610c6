package entity

import (
	"time"

	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
)

// JournalEntry is one admitted operation as persisted. RawPayload is the
// exact CBOR the caller signed; ParsedPayload is its JSON rendering (nil
// when the payload could not be decoded). Replays feed RawPayload back
// through the processor, so the journal alone reproduces all state.
type JournalEntry struct {
	Sequence       uint64
	Kind           types.OperationKind
	Caller         common.Address
	Nonce          uint64
	Payment        uint64
	RawPayload     []byte
	ParsedPayload  []byte
	Signature      []byte
	Status         types.ReceiptStatus
	Reason         string
	Result         []byte
	EventsHash     common.Hash
	CumulativeHash common.Hash
	Timestamp      time.Time
}

// Receipt projects the journal entry to the caller-facing receipt.
func (e *JournalEntry) Receipt() *types.Receipt {
	return &types.Receipt{
		Sequence:       e.Sequence,
		Kind:           e.Kind,
		Caller:         e.Caller,
		Status:         e.Status,
		Reason:         e.Reason,
		Result:         e.Result,
		Timestamp:      e.Timestamp,
		EventsHash:     e.EventsHash,
		CumulativeHash: e.CumulativeHash,
	}
}
