package protocol

import (
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/pkg/codec"
)

// MaxTiersPerEvent bounds the declared tier list of one event.
const MaxTiersPerEvent = 16

// MaxTierPrice bounds every declared price (µGP): 10^9 GP per ticket.
// Keeps sale-rate and discount products inside uint64.
const MaxTierPrice uint64 = 1_000_000_000 * 1_000_000

// MaxTotalTickets bounds a tier's inventory, for the same reason.
const MaxTotalTickets uint64 = 1_000_000_000

// GPDecimals is the display-unit scale: 1 GP = 10^6 µGP. Wire amounts,
// stored amounts and all pricing arithmetic are µGP; GP is rendering only.
const GPDecimals = 6

// Payload is a kind-specific operation body. The wire encoding is canonical
// CBOR with integer keys, same as the envelope itself. Times are Unix
// seconds, intervals are whole seconds, prices are µGP.
type Payload interface {
	Validate() error
}

// DecodePayload decodes and validates a payload. All failures carry
// ReasonInvalidPayload (or the payload's own reason) and are journaled as
// rejections: a signed, nonce-valid envelope always leaves a trace.
func DecodePayload[T Payload](raw []byte) (T, error) {
	var payload T
	if err := codec.Unmarshal(raw, &payload); err != nil {
		return payload, Rejectf(ReasonInvalidPayload, "malformed payload: %s", err.Error())
	}
	if err := payload.Validate(); err != nil {
		return payload, err
	}
	return payload, nil
}

// EncodePayload is the client-side counterpart of DecodePayload, used by
// tests and tooling to build envelopes.
func EncodePayload(payload Payload) ([]byte, error) {
	return codec.Marshal(payload)
}

// TierConfig declares one tier at registration.
type TierConfig struct {
	Name                string `cbor:"1,keyasint" json:"name"`
	Symbol              string `cbor:"2,keyasint" json:"symbol"`
	TotalTickets        uint64 `cbor:"3,keyasint" json:"totalTickets"`
	BasePrice           uint64 `cbor:"4,keyasint" json:"basePrice"`
	InitialPrice        uint64 `cbor:"5,keyasint" json:"initialPrice"`
	StartTime           int64  `cbor:"6,keyasint" json:"startTime"`
	EndTime             int64  `cbor:"7,keyasint" json:"endTime"`
	PriceUpdateInterval uint64 `cbor:"8,keyasint" json:"priceUpdateInterval"`
	DecayPercentage     uint64 `cbor:"9,keyasint" json:"decayPercentage"`
	SalesTimeInterval   uint64 `cbor:"10,keyasint" json:"salesTimeInterval"`
}

// Validate checks the declared bounds. basePrice <= initialPrice is expected
// but deliberately not enforced: the price computation degrades to a no-op
// decay step for inverted configurations instead of rejecting them.
func (c TierConfig) Validate() error {
	if c.Name == "" {
		return Rejectf(ReasonInvalidPayload, "tier name is required")
	}
	if c.Symbol == "" {
		return Rejectf(ReasonInvalidPayload, "tier symbol is required")
	}
	if c.TotalTickets == 0 {
		return Rejectf(ReasonInvalidPayload, "tier %q: total tickets must be positive", c.Name)
	}
	if c.TotalTickets > MaxTotalTickets {
		return Rejectf(ReasonInvalidPayload, "tier %q: total tickets must not exceed %d", c.Name, MaxTotalTickets)
	}
	if c.BasePrice > MaxTierPrice || c.InitialPrice > MaxTierPrice {
		return Rejectf(ReasonInvalidPayload, "tier %q: prices must not exceed %d", c.Name, MaxTierPrice)
	}
	if c.StartTime >= c.EndTime {
		return Rejectf(ReasonInvalidPayload, "tier %q: start time must be before end time", c.Name)
	}
	if c.DecayPercentage < 1 || c.DecayPercentage > 100 {
		return Rejectf(ReasonInvalidPayload, "tier %q: decay percentage must be in [1,100]", c.Name)
	}
	if c.PriceUpdateInterval == 0 {
		return Rejectf(ReasonInvalidPayload, "tier %q: price update interval must be positive", c.Name)
	}
	if c.SalesTimeInterval == 0 {
		return Rejectf(ReasonInvalidPayload, "tier %q: sales time interval must be positive", c.Name)
	}
	return nil
}

type RegisterEventPayload struct {
	Name        string       `cbor:"1,keyasint" json:"name"`
	Venue       string       `cbor:"2,keyasint" json:"venue"`
	MetadataURI string       `cbor:"3,keyasint" json:"metadataUri"`
	Tiers       []TierConfig `cbor:"4,keyasint" json:"tiers"`
}

func (p RegisterEventPayload) Validate() error {
	if p.Name == "" {
		return Rejectf(ReasonInvalidPayload, "event name is required")
	}
	if len(p.Tiers) == 0 {
		return Rejectf(ReasonInvalidPayload, "at least one tier is required")
	}
	if len(p.Tiers) > MaxTiersPerEvent {
		return Rejectf(ReasonInvalidPayload, "at most %d tiers are allowed, got %d", MaxTiersPerEvent, len(p.Tiers))
	}
	for _, tier := range p.Tiers {
		if err := tier.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type LaunchEventPayload struct {
	EventID uint64 `cbor:"1,keyasint" json:"eventId"`
}

func (p LaunchEventPayload) Validate() error {
	return nil
}

type PurchasePayload struct {
	EventID uint64 `cbor:"1,keyasint" json:"eventId"`
	TierID  uint32 `cbor:"2,keyasint" json:"tierId"`
}

func (p PurchasePayload) Validate() error {
	return nil
}

type QuotePricePayload struct {
	EventID uint64 `cbor:"1,keyasint" json:"eventId"`
	TierID  uint32 `cbor:"2,keyasint" json:"tierId"`
}

func (p QuotePricePayload) Validate() error {
	return nil
}

type SetDiscountPayload struct {
	EventID    uint64 `cbor:"1,keyasint" json:"eventId"`
	TierID     uint32 `cbor:"2,keyasint" json:"tierId"`
	Percentage uint64 `cbor:"3,keyasint" json:"percentage"`
}

func (p SetDiscountPayload) Validate() error {
	return nil
}

type CancelDiscountPayload struct {
	EventID uint64 `cbor:"1,keyasint" json:"eventId"`
	TierID  uint32 `cbor:"2,keyasint" json:"tierId"`
}

func (p CancelDiscountPayload) Validate() error {
	return nil
}

type UpdateBasePricePayload struct {
	EventID  uint64 `cbor:"1,keyasint" json:"eventId"`
	TierID   uint32 `cbor:"2,keyasint" json:"tierId"`
	NewPrice uint64 `cbor:"3,keyasint" json:"newPrice"`
}

func (p UpdateBasePricePayload) Validate() error {
	if p.NewPrice > MaxTierPrice {
		return Rejectf(ReasonInvalidPayload, "new base price must not exceed %d", MaxTierPrice)
	}
	return nil
}

type UpdateMetadataURIPayload struct {
	EventID uint64 `cbor:"1,keyasint" json:"eventId"`
	TierID  uint32 `cbor:"2,keyasint" json:"tierId"`
	URI     string `cbor:"3,keyasint" json:"uri"`
}

func (p UpdateMetadataURIPayload) Validate() error {
	if p.URI == "" {
		return Rejectf(ReasonInvalidPayload, "metadata uri is required")
	}
	return nil
}

type WithdrawPayload struct {
	EventID uint64 `cbor:"1,keyasint" json:"eventId"`
	TierID  uint32 `cbor:"2,keyasint" json:"tierId"`
}

func (p WithdrawPayload) Validate() error {
	return nil
}

type WithdrawAllPayload struct {
	EventID uint64 `cbor:"1,keyasint" json:"eventId"`
}

func (p WithdrawAllPayload) Validate() error {
	return nil
}

type DepositPayload struct {
	To     common.Address `cbor:"1,keyasint" json:"to"`
	Amount uint64         `cbor:"2,keyasint" json:"amount"`
}

func (p DepositPayload) Validate() error {
	if !p.To.IsValid() {
		return Rejectf(ReasonInvalidPayload, "deposit recipient address is invalid")
	}
	if p.Amount == 0 {
		return Rejectf(ReasonInvalidPayload, "deposit amount must be positive")
	}
	return nil
}

type SweepTreasuryPayload struct {
	To common.Address `cbor:"1,keyasint" json:"to"`
}

func (p SweepTreasuryPayload) Validate() error {
	if !p.To.IsValid() {
		return Rejectf(ReasonInvalidPayload, "sweep recipient address is invalid")
	}
	return nil
}
