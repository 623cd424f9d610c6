package entity

import (
	"time"

	"github.com/gatepass-network/boxoffice/common"
)

// Ticket is one minted credential. Tickets are never destroyed: once sold
// out or past the sale window a tier is purchase-inert, but every credential
// stays queryable.
type Ticket struct {
	EventID      uint64
	TierID       uint32
	Serial       uint64
	Owner        common.Address
	PricePaid    uint64
	MintSequence uint64
	MintedAt     time.Time
}

// TicketBalance counts credentials per (tier, owner). Balances only grow.
type TicketBalance struct {
	EventID uint64
	TierID  uint32
	Owner   common.Address
	Balance uint64
}
