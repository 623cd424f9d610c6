package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gaze-network/uint128"
)

type WithdrawResult struct {
	EventID uint64          `json:"eventId"`
	TierID  uint32          `json:"tierId"`
	Amount  uint128.Uint128 `json:"amount"`
}

type WithdrawAllResult struct {
	EventID uint64            `json:"eventId"`
	Total   uint128.Uint128   `json:"total"`
	Tiers   []*WithdrawResult `json:"tiers"`
}

// processWithdraw pays the tier's custodied revenue out to the organizer.
// A sold-out tier may be withdrawn before its window ends; doing so
// force-closes the sale. Otherwise the window must have ended. Withdrawing
// an already-empty tier is an applied no-op, so organizers can sweep
// finished events idempotently.
func (p *Processor) processWithdraw(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.WithdrawPayload) (*WithdrawResult, []*entity.ProtocolEvent, error) {
	event, tier, err := resolveLaunchedTier(ctx, qtx, payload.EventID, payload.TierID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOrganizer(event, operation.Caller); err != nil {
		return nil, nil, err
	}
	return p.withdrawTier(ctx, qtx, operation, tier, p.newPayoutSink(qtx, operation))
}

// processWithdrawAll withdraws every tier of the event in tier order,
// sharing one payout sink so the payout indexes stay sequential. Tiers with
// nothing custodied are skipped; any other tier failing its gates rejects
// the whole operation and reverts the payouts already staged.
func (p *Processor) processWithdrawAll(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.WithdrawAllPayload) (*WithdrawAllResult, []*entity.ProtocolEvent, error) {
	event, err := qtx.GetEvent(ctx, payload.EventID)
	if errors.Is(err, errs.NotFound) {
		return nil, nil, protocol.Rejectf(protocol.ReasonInvalidEventID, "event %d does not exist", payload.EventID)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get event")
	}
	if err := requireOrganizer(event, operation.Caller); err != nil {
		return nil, nil, err
	}
	if !event.Launched() {
		return nil, nil, protocol.Rejectf(protocol.ReasonNotLaunched, "event %d is not launched", event.EventID)
	}
	tiers, err := qtx.GetTiersByEventID(ctx, event.EventID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get tiers")
	}

	sink := p.newPayoutSink(qtx, operation)
	result := &WithdrawAllResult{EventID: event.EventID, Tiers: make([]*WithdrawResult, 0, len(tiers))}
	var events []*entity.ProtocolEvent
	for _, tier := range tiers {
		if tier.TotalRevenue.IsZero() {
			continue
		}
		tierResult, tierEvents, err := p.withdrawTier(ctx, qtx, operation, tier, sink)
		if err != nil {
			return nil, nil, err
		}
		result.Tiers = append(result.Tiers, tierResult)
		result.Total = result.Total.Add(tierResult.Amount)
		events = append(events, tierEvents...)
	}
	return result, events, nil
}

// withdrawTier runs the withdrawal gates and payout for one tier. The
// caller must have authorized the organizer already.
func (p *Processor) withdrawTier(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, tier *entity.Tier, sink PayoutSink) (*WithdrawResult, []*entity.ProtocolEvent, error) {
	now := operation.Timestamp
	if tier.SoldOut() {
		// a sold-out sale has nothing left to sell
		if tier.EndTime.After(now) {
			tier.EndTime = now
		}
	} else if !now.After(tier.EndTime) {
		return nil, nil, protocol.Rejectf(protocol.ReasonSaleStillActive, "sale of tier %d/%d runs until %s", tier.EventID, tier.TierID, tier.EndTime)
	}

	amount := tier.TotalRevenue
	if amount.IsZero() {
		// nothing custodied; persist the possible force-close only
		if err := qtx.UpdateTier(ctx, tier); err != nil {
			return nil, nil, errors.Wrap(err, "failed to update tier")
		}
		return &WithdrawResult{EventID: tier.EventID, TierID: tier.TierID, Amount: amount}, nil, nil
	}

	tier.TotalRevenue = uint128.Zero
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}
	treasury, err := qtx.GetTreasury(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get treasury")
	}
	treasury.TotalPaidOut = treasury.TotalPaidOut.Add(amount)
	if err := qtx.UpdateTreasury(ctx, treasury); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update treasury")
	}
	if err := sink.Transfer(ctx, operation.Caller, amount); err != nil {
		return nil, nil, protocol.Rejectf(protocol.ReasonTransferFailed, "payout sink rejected transfer of %s to %s: %s", amount.String(), operation.Caller, err.Error())
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindWithdrawal,
		EventID: tier.EventID,
		TierID:  tier.TierID,
		Address: operation.Caller,
		Amount:  amount,
	}}
	return &WithdrawResult{EventID: tier.EventID, TierID: tier.TierID, Amount: amount}, events, nil
}
