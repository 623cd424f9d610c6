package httphandler

import (
	"encoding/json"
	"time"

	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type journalEntryResult struct {
	Sequence       uint64              `json:"sequence"`
	Kind           types.OperationKind `json:"kind"`
	Caller         common.Address      `json:"caller"`
	Nonce          uint64              `json:"nonce"`
	Payment        uint64              `json:"payment"`
	Status         types.ReceiptStatus `json:"status"`
	Reason         string              `json:"reason,omitempty"`
	Payload        json.RawMessage     `json:"payload,omitempty"`
	Result         json.RawMessage     `json:"result,omitempty"`
	EventsHash     common.Hash         `json:"eventsHash"`
	CumulativeHash common.Hash         `json:"cumulativeHash"`
	Timestamp      int64               `json:"timestamp"`
}

func renderJournalEntry(entry *entity.JournalEntry) journalEntryResult {
	return journalEntryResult{
		Sequence:       entry.Sequence,
		Kind:           entry.Kind,
		Caller:         entry.Caller,
		Nonce:          entry.Nonce,
		Payment:        entry.Payment,
		Status:         entry.Status,
		Reason:         entry.Reason,
		Payload:        json.RawMessage(entry.ParsedPayload),
		Result:         json.RawMessage(entry.Result),
		EventsHash:     entry.EventsHash,
		CumulativeHash: entry.CumulativeHash,
		Timestamp:      entry.Timestamp.Unix(),
	}
}

// protocolEventResult renders every field regardless of kind; fields not
// meaningful for a kind are zero, mirroring how events are hashed.
type protocolEventResult struct {
	Sequence   uint64           `json:"sequence"`
	Index      uint32           `json:"index"`
	Kind       entity.EventKind `json:"kind"`
	EventID    uint64           `json:"eventId"`
	TierID     uint32           `json:"tierId"`
	Address    common.Address   `json:"address"`
	Amount     uint128.Uint128  `json:"amount"`
	Price      uint64           `json:"price"`
	Serial     uint64           `json:"serial"`
	Percentage uint64           `json:"percentage"`
	Timestamp  int64            `json:"timestamp"`
}

func renderProtocolEvent(event *entity.ProtocolEvent) protocolEventResult {
	return protocolEventResult{
		Sequence:   event.Sequence,
		Index:      event.Index,
		Kind:       event.Kind,
		EventID:    event.EventID,
		TierID:     event.TierID,
		Address:    event.Address,
		Amount:     event.Amount,
		Price:      event.Price,
		Serial:     event.Serial,
		Percentage: event.Percentage,
		Timestamp:  event.Timestamp.Unix(),
	}
}

type tierConfigResult struct {
	Name                string `json:"name"`
	Symbol              string `json:"symbol"`
	TotalTickets        uint64 `json:"totalTickets"`
	BasePrice           uint64 `json:"basePrice"`
	InitialPrice        uint64 `json:"initialPrice"`
	StartTime           int64  `json:"startTime"`
	EndTime             int64  `json:"endTime"`
	PriceUpdateInterval uint64 `json:"priceUpdateInterval"`
	DecayPercentage     uint64 `json:"decayPercentage"`
	SalesTimeInterval   uint64 `json:"salesTimeInterval"`
}

type eventResult struct {
	EventID      uint64             `json:"eventId"`
	Organizer    common.Address     `json:"organizer"`
	Name         string             `json:"name"`
	Venue        string             `json:"venue"`
	MetadataURI  string             `json:"metadataUri"`
	Launched     bool               `json:"launched"`
	RegisteredAt int64              `json:"registeredAt"`
	LaunchedAt   *int64             `json:"launchedAt"`
	TierConfigs  []tierConfigResult `json:"tierConfigs"`
}

func renderEvent(event *entity.Event) eventResult {
	return eventResult{
		EventID:      event.EventID,
		Organizer:    event.Organizer,
		Name:         event.Name,
		Venue:        event.Venue,
		MetadataURI:  event.MetadataURI,
		Launched:     event.Launched(),
		RegisteredAt: event.RegisteredAt.Unix(),
		LaunchedAt:   lo.Ternary(event.LaunchedAt.IsZero(), nil, lo.ToPtr(event.LaunchedAt.Unix())),
		TierConfigs: lo.Map(event.TierConfigs, func(config entity.TierConfig, _ int) tierConfigResult {
			return tierConfigResult{
				Name:                config.Name,
				Symbol:              config.Symbol,
				TotalTickets:        config.TotalTickets,
				BasePrice:           config.BasePrice,
				InitialPrice:        config.InitialPrice,
				StartTime:           config.StartTime.Unix(),
				EndTime:             config.EndTime.Unix(),
				PriceUpdateInterval: uint64(config.PriceUpdateInterval / time.Second),
				DecayPercentage:     config.DecayPercentage,
				SalesTimeInterval:   uint64(config.SalesTimeInterval / time.Second),
			}
		}),
	}
}

// Prices appear twice: raw µGP for programmatic callers and a GP decimal
// string for display.
type tierResult struct {
	EventID uint64 `json:"eventId"`
	TierID  uint32 `json:"tierId"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`

	TotalTickets uint64 `json:"totalTickets"`
	TicketsSold  uint64 `json:"ticketsSold"`
	TicketsLeft  uint64 `json:"ticketsLeft"`
	SoldOut      bool   `json:"soldOut"`

	BasePrice      uint64          `json:"basePrice"`
	InitialPrice   uint64          `json:"initialPrice"`
	CurrentPrice   uint64          `json:"currentPrice"`
	CurrentPriceGP decimal.Decimal `json:"currentPriceGp"`
	TotalRevenue   uint128.Uint128 `json:"totalRevenue"`
	TotalRevenueGP decimal.Decimal `json:"totalRevenueGp"`

	StartTime           int64  `json:"startTime"`
	EndTime             int64  `json:"endTime"`
	LastPriceUpdate     int64  `json:"lastPriceUpdate"`
	PriceUpdateInterval uint64 `json:"priceUpdateInterval"`
	DecayPercentage     uint64 `json:"decayPercentage"`
	SalesTimeInterval   uint64 `json:"salesTimeInterval"`

	DiscountPercentage uint64 `json:"discountPercentage"`

	NextSerial      uint64 `json:"nextSerial"`
	MetadataBaseURI string `json:"metadataBaseUri"`

	LaunchedAt int64 `json:"launchedAt"`
}

func renderTier(tier *entity.Tier) tierResult {
	return tierResult{
		EventID:             tier.EventID,
		TierID:              tier.TierID,
		Name:                tier.Name,
		Symbol:              tier.Symbol,
		TotalTickets:        tier.TotalTickets,
		TicketsSold:         tier.TicketsSold,
		TicketsLeft:         tier.TicketsLeft(),
		SoldOut:             tier.SoldOut(),
		BasePrice:           tier.BasePrice,
		InitialPrice:        tier.InitialPrice,
		CurrentPrice:        tier.CurrentPrice,
		CurrentPriceGP:      toGP(tier.CurrentPrice),
		TotalRevenue:        tier.TotalRevenue,
		TotalRevenueGP:      toGP(tier.TotalRevenue),
		StartTime:           tier.StartTime.Unix(),
		EndTime:             tier.EndTime.Unix(),
		LastPriceUpdate:     tier.LastPriceUpdate.Unix(),
		PriceUpdateInterval: uint64(tier.PriceUpdateInterval / time.Second),
		DecayPercentage:     tier.DecayPercentage,
		SalesTimeInterval:   uint64(tier.SalesTimeInterval / time.Second),
		DiscountPercentage:  tier.DiscountPercentage,
		NextSerial:          tier.NextSerial,
		MetadataBaseURI:     tier.MetadataBaseURI,
		LaunchedAt:          tier.LaunchedAt.Unix(),
	}
}

type ticketResult struct {
	EventID      uint64          `json:"eventId"`
	TierID       uint32          `json:"tierId"`
	Serial       uint64          `json:"serial"`
	Owner        common.Address  `json:"owner"`
	PricePaid    uint64          `json:"pricePaid"`
	PricePaidGP  decimal.Decimal `json:"pricePaidGp"`
	MintSequence uint64          `json:"mintSequence"`
	MintedAt     int64           `json:"mintedAt"`
	MetadataURI  string          `json:"metadataUri,omitempty"`
}

func renderTicket(ticket *entity.Ticket, metadataURI string) ticketResult {
	return ticketResult{
		EventID:      ticket.EventID,
		TierID:       ticket.TierID,
		Serial:       ticket.Serial,
		Owner:        ticket.Owner,
		PricePaid:    ticket.PricePaid,
		PricePaidGP:  toGP(ticket.PricePaid),
		MintSequence: ticket.MintSequence,
		MintedAt:     ticket.MintedAt.Unix(),
		MetadataURI:  metadataURI,
	}
}

type payoutResult struct {
	Sequence  uint64          `json:"sequence"`
	Index     uint32          `json:"index"`
	Recipient common.Address  `json:"recipient"`
	Amount    uint128.Uint128 `json:"amount"`
	AmountGP  decimal.Decimal `json:"amountGp"`
	CreatedAt int64           `json:"createdAt"`
}

func renderPayout(payout *entity.Payout) payoutResult {
	return payoutResult{
		Sequence:  payout.Sequence,
		Index:     payout.Index,
		Recipient: payout.Recipient,
		Amount:    payout.Amount,
		AmountGP:  toGP(payout.Amount),
		CreatedAt: payout.CreatedAt.Unix(),
	}
}
