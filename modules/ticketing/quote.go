package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/pricing"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
)

type QuotePriceResult struct {
	EventID uint64 `json:"eventId"`
	TierID  uint32 `json:"tierId"`
	Price   uint64 `json:"price"`
}

// processQuotePrice is the mutating price read: it persists the price
// transition exactly as a purchase would, so quoting and buying at the same
// sequence see the same price. Before the sale opens the stored price is
// returned without running the computation; a closed or sold-out sale
// cannot be quoted.
func (p *Processor) processQuotePrice(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.QuotePricePayload) (*QuotePriceResult, []*entity.ProtocolEvent, error) {
	_, tier, err := resolveLaunchedTier(ctx, qtx, payload.EventID, payload.TierID)
	if err != nil {
		return nil, nil, err
	}
	now := operation.Timestamp
	if now.After(tier.EndTime) {
		return nil, nil, protocol.Rejectf(protocol.ReasonInvalidWindow, "sale of tier %d/%d ended at %s", tier.EventID, tier.TierID, tier.EndTime)
	}
	if tier.SoldOut() {
		return nil, nil, protocol.Rejectf(protocol.ReasonSoldOut, "tier %d/%d is sold out", tier.EventID, tier.TierID)
	}
	if now.Before(tier.StartTime) {
		return &QuotePriceResult{EventID: tier.EventID, TierID: tier.TierID, Price: tier.CurrentPrice}, nil, nil
	}

	quote := pricing.Compute(*tier, now)
	*tier = quote.Tier
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}

	var events []*entity.ProtocolEvent
	if quote.PriceChanged {
		events = append(events, &entity.ProtocolEvent{
			Kind:    entity.EventKindPriceChanged,
			EventID: tier.EventID,
			TierID:  tier.TierID,
			Price:   quote.Price,
		})
	}
	return &QuotePriceResult{EventID: tier.EventID, TierID: tier.TierID, Price: quote.Price}, events, nil
}
