package entity

import (
	"strconv"
	"time"

	"github.com/gaze-network/uint128"
)

// Tier is one live pricing core. Created at event launch from the declared
// TierConfig; all price and inventory state lives here.
//
// Invariants maintained by the processor: CurrentPrice >= BasePrice after
// every price recomputation, TicketsSold <= TotalTickets, TotalRevenue is
// non-decreasing between withdrawals.
type Tier struct {
	EventID uint64
	TierID  uint32
	Name    string
	Symbol  string

	TotalTickets uint64
	TicketsSold  uint64

	BasePrice    uint64
	InitialPrice uint64
	CurrentPrice uint64
	TotalRevenue uint128.Uint128

	StartTime time.Time
	// EndTime is mutable in exactly one case: a withdrawal of a sold-out
	// tier force-closes the sale by pulling EndTime to the withdrawal time.
	EndTime             time.Time
	LastPriceUpdate     time.Time
	PriceUpdateInterval time.Duration
	DecayPercentage     uint64
	SalesTimeInterval   time.Duration

	// DiscountPercentage is 0 when no discount is active.
	DiscountPercentage uint64

	// Issuer state: NextSerial is the serial of the next credential to be
	// minted (1-based), MetadataBaseURI prefixes per-ticket metadata URIs.
	NextSerial      uint64
	MetadataBaseURI string

	LaunchedAt time.Time
}

func (t Tier) SoldOut() bool {
	return t.TicketsSold >= t.TotalTickets
}

func (t Tier) TicketsLeft() uint64 {
	if t.TicketsSold >= t.TotalTickets {
		return 0
	}
	return t.TotalTickets - t.TicketsSold
}

// TicketMetadataURI composes a credential's metadata URI by appending the
// decimal serial to the tier's base URI. Empty until a base URI is set.
func (t Tier) TicketMetadataURI(serial uint64) string {
	if t.MetadataBaseURI == "" {
		return ""
	}
	return t.MetadataBaseURI + strconv.FormatUint(serial, 10)
}
