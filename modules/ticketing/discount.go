package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
)

type SetDiscountResult struct {
	EventID   uint64 `json:"eventId"`
	TierID    uint32 `json:"tierId"`
	BasePrice uint64 `json:"basePrice"`
}

type CancelDiscountResult struct {
	EventID   uint64 `json:"eventId"`
	TierID    uint32 `json:"tierId"`
	BasePrice uint64 `json:"basePrice"`
}

// processSetDiscount lowers the base price floor by a percentage. Only one
// discount can be active at a time, so cancellation can invert the division
// later. The current price is not re-clamped here; the next computation
// pulls it toward the discounted floor.
func (p *Processor) processSetDiscount(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.SetDiscountPayload) (*SetDiscountResult, []*entity.ProtocolEvent, error) {
	event, tier, err := resolveLaunchedTier(ctx, qtx, payload.EventID, payload.TierID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOrganizer(event, operation.Caller); err != nil {
		return nil, nil, err
	}
	if tier.DiscountPercentage != 0 {
		return nil, nil, protocol.Rejectf(protocol.ReasonInvalidDiscount, "discount of %d%% is already active on tier %d/%d", tier.DiscountPercentage, tier.EventID, tier.TierID)
	}
	if payload.Percentage < 1 || payload.Percentage > 98 {
		return nil, nil, protocol.Rejectf(protocol.ReasonInvalidDiscount, "percentage must be in [1,98], got %d", payload.Percentage)
	}

	tier.BasePrice = tier.BasePrice * (100 - payload.Percentage) / 100
	tier.DiscountPercentage = payload.Percentage
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}

	events := []*entity.ProtocolEvent{
		{
			Kind:       entity.EventKindDiscountSet,
			EventID:    tier.EventID,
			TierID:     tier.TierID,
			Address:    operation.Caller,
			Percentage: payload.Percentage,
		},
		{
			Kind:    entity.EventKindBasePriceChanged,
			EventID: tier.EventID,
			TierID:  tier.TierID,
			Price:   tier.BasePrice,
		},
	}
	return &SetDiscountResult{EventID: tier.EventID, TierID: tier.TierID, BasePrice: tier.BasePrice}, events, nil
}

// processCancelDiscount restores the pre-discount base price by inverting
// the discount division. Both directions round down, so the restored price
// can land slightly below the original. The drift is part of the protocol
// surface: replays must reproduce it exactly.
func (p *Processor) processCancelDiscount(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.CancelDiscountPayload) (*CancelDiscountResult, []*entity.ProtocolEvent, error) {
	event, tier, err := resolveLaunchedTier(ctx, qtx, payload.EventID, payload.TierID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOrganizer(event, operation.Caller); err != nil {
		return nil, nil, err
	}
	if tier.DiscountPercentage == 0 {
		return nil, nil, protocol.Rejectf(protocol.ReasonInvalidDiscount, "no discount is active on tier %d/%d", tier.EventID, tier.TierID)
	}

	percentage := tier.DiscountPercentage
	tier.BasePrice = tier.BasePrice * 100 / (100 - percentage)
	tier.DiscountPercentage = 0
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}

	events := []*entity.ProtocolEvent{
		{
			Kind:       entity.EventKindDiscountCancelled,
			EventID:    tier.EventID,
			TierID:     tier.TierID,
			Address:    operation.Caller,
			Percentage: percentage,
		},
		{
			Kind:    entity.EventKindBasePriceChanged,
			EventID: tier.EventID,
			TierID:  tier.TierID,
			Price:   tier.BasePrice,
		},
	}
	return &CancelDiscountResult{EventID: tier.EventID, TierID: tier.TierID, BasePrice: tier.BasePrice}, events, nil
}
