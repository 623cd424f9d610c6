package entity

import (
	"time"

	"github.com/gatepass-network/boxoffice/common"
	"github.com/gaze-network/uint128"
)

type EventKind string

const (
	EventKindEventRegistered   EventKind = "event_registered"
	EventKindEventLaunched     EventKind = "event_launched"
	EventKindTicketPurchased   EventKind = "ticket_purchased"
	EventKindPriceChanged      EventKind = "price_changed"
	EventKindDiscountSet       EventKind = "discount_set"
	EventKindDiscountCancelled EventKind = "discount_cancelled"
	EventKindBasePriceChanged  EventKind = "base_price_changed"
	EventKindMetadataUpdated   EventKind = "metadata_updated"
	EventKindWithdrawal        EventKind = "withdrawal"
	EventKindDeposit           EventKind = "deposit"
	EventKindTreasurySwept     EventKind = "treasury_swept"
)

// ProtocolEvent is one observable effect of an applied operation, journaled
// append-only and committed to by the operation's events hash. Fields not
// meaningful for a kind stay zero and still hash deterministically.
type ProtocolEvent struct {
	Sequence   uint64
	Index      uint32
	Kind       EventKind
	EventID    uint64
	TierID     uint32
	Address    common.Address
	Amount     uint128.Uint128
	Price      uint64
	Serial     uint64
	Percentage uint64
	Timestamp  time.Time
}
