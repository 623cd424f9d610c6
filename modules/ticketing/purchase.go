package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/pricing"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gaze-network/uint128"
)

type PurchaseResult struct {
	EventID uint64 `json:"eventId"`
	TierID  uint32 `json:"tierId"`
	Serial  uint64 `json:"serial"`
	Price   uint64 `json:"price"`
}

// processPurchase sells one ticket at the live price. The same computation
// that quotes the price gates the sale, so the price charged can never
// diverge from the price quoted at this sequence. The full payment (not the
// quoted price) is debited and custodied as tier revenue.
//
// Inventory is reserved before the issuer mints: a misbehaving issuer
// observes the post-sale counters and cannot double-sell a serial's slot.
func (p *Processor) processPurchase(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.PurchasePayload) (*PurchaseResult, []*entity.ProtocolEvent, error) {
	_, tier, err := resolveLaunchedTier(ctx, qtx, payload.EventID, payload.TierID)
	if err != nil {
		return nil, nil, err
	}
	now := operation.Timestamp
	if now.Before(tier.StartTime) || now.After(tier.EndTime) {
		return nil, nil, protocol.Rejectf(protocol.ReasonInvalidWindow, "sale window is [%s, %s], now %s", tier.StartTime, tier.EndTime, now)
	}
	if tier.SoldOut() {
		return nil, nil, protocol.Rejectf(protocol.ReasonSoldOut, "tier %d/%d is sold out", tier.EventID, tier.TierID)
	}

	quote := pricing.Compute(*tier, now)
	if operation.Payment < quote.Price {
		return nil, nil, protocol.Rejectf(protocol.ReasonInsufficientPayment, "price is %d, got payment %d", quote.Price, operation.Payment)
	}
	if err := debitFunds(ctx, qtx, operation.Caller, operation.Payment); err != nil {
		return nil, nil, err
	}

	*tier = quote.Tier
	tier.TicketsSold++
	tier.TotalRevenue = tier.TotalRevenue.Add(uint128.From64(operation.Payment))
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}
	if err := qtx.IncrementTicketBalance(ctx, tier.EventID, tier.TierID, operation.Caller, 1); err != nil {
		return nil, nil, errors.Wrap(err, "failed to increment ticket balance")
	}

	issuer := p.newTokenIssuer(qtx, operation)
	serial, err := issuer.Mint(ctx, tier, operation.Caller, operation.Payment)
	if err != nil {
		return nil, nil, errors.Wrap(err, "token issuer failed to mint")
	}
	// the issuer advanced the serial counter
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindTicketPurchased,
		EventID: tier.EventID,
		TierID:  tier.TierID,
		Address: operation.Caller,
		Amount:  uint128.From64(operation.Payment),
		Price:   quote.Price,
		Serial:  serial,
	}}
	if quote.PriceChanged {
		events = append(events, &entity.ProtocolEvent{
			Kind:    entity.EventKindPriceChanged,
			EventID: tier.EventID,
			TierID:  tier.TierID,
			Price:   quote.Price,
		})
	}
	return &PurchaseResult{EventID: tier.EventID, TierID: tier.TierID, Serial: serial, Price: quote.Price}, events, nil
}
