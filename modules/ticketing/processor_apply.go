package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gaze-network/uint128"
)

// applyOperation decodes and routes one operation inside its domain
// transaction. Returns the parsed payload, the handler result and the
// emitted events; the payload is returned separately so rejected operations
// still journal what the caller signed.
func (p *Processor) applyOperation(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation) (any, any, []*entity.ProtocolEvent, error) {
	// only registrations and purchases carry value
	switch operation.Kind {
	case types.OpRegisterEvent, types.OpPurchase:
	default:
		if operation.Payment != 0 {
			return nil, nil, nil, protocol.Rejectf(protocol.ReasonInvalidPayload, "%s does not accept payment", operation.Kind)
		}
	}

	switch operation.Kind {
	case types.OpRegisterEvent:
		payload, err := protocol.DecodePayload[protocol.RegisterEventPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processRegisterEvent(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpLaunchEvent:
		payload, err := protocol.DecodePayload[protocol.LaunchEventPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processLaunchEvent(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpPurchase:
		payload, err := protocol.DecodePayload[protocol.PurchasePayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processPurchase(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpQuotePrice:
		payload, err := protocol.DecodePayload[protocol.QuotePricePayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processQuotePrice(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpSetDiscount:
		payload, err := protocol.DecodePayload[protocol.SetDiscountPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processSetDiscount(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpCancelDiscount:
		payload, err := protocol.DecodePayload[protocol.CancelDiscountPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processCancelDiscount(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpUpdateBasePrice:
		payload, err := protocol.DecodePayload[protocol.UpdateBasePricePayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processUpdateBasePrice(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpUpdateMetadataURI:
		payload, err := protocol.DecodePayload[protocol.UpdateMetadataURIPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processUpdateMetadataURI(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpWithdraw:
		payload, err := protocol.DecodePayload[protocol.WithdrawPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processWithdraw(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpWithdrawAll:
		payload, err := protocol.DecodePayload[protocol.WithdrawAllPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processWithdrawAll(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpDeposit:
		payload, err := protocol.DecodePayload[protocol.DepositPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processDeposit(ctx, qtx, operation, payload)
		return payload, result, events, err
	case types.OpSweepTreasury:
		payload, err := protocol.DecodePayload[protocol.SweepTreasuryPayload](operation.Payload)
		if err != nil {
			return nil, nil, nil, err
		}
		result, events, err := p.processSweepTreasury(ctx, qtx, operation, payload)
		return payload, result, events, err
	default:
		// the sequencer rejects unknown kinds at admission
		return nil, nil, nil, errors.Wrapf(errs.SomethingWentWrong, "unhandled operation kind %q", operation.Kind)
	}
}

// getFundsAccount returns the stored account or a fresh zero account, whose
// first valid envelope carries nonce 1.
func getFundsAccount(ctx context.Context, dg datagateway.TicketingDataGateway, address common.Address) (*entity.FundsAccount, error) {
	account, err := dg.GetFundsAccount(ctx, address)
	if errors.Is(err, errs.NotFound) {
		return &entity.FundsAccount{Address: address}, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return account, nil
}

// debitFunds takes payment out of the caller's credit balance.
func debitFunds(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, address common.Address, payment uint64) error {
	account, err := getFundsAccount(ctx, qtx, address)
	if err != nil {
		return errors.Wrap(err, "failed to get funds account")
	}
	amount := uint128.From64(payment)
	if account.Balance.Cmp(amount) < 0 {
		return protocol.Rejectf(protocol.ReasonInsufficientFunds, "credit %s cannot cover payment %d", account.Balance.String(), payment)
	}
	account.Balance = account.Balance.Sub(amount)
	if err := qtx.UpsertFundsAccount(ctx, account); err != nil {
		return errors.Wrap(err, "failed to update funds account")
	}
	return nil
}

// resolveLaunchedTier routes (eventID, tierID) to a live pricing core.
// Rejection order: unknown event, then unlaunched event, then unknown tier;
// tier rows only exist once the event is launched.
func resolveLaunchedTier(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, eventID uint64, tierID uint32) (*entity.Event, *entity.Tier, error) {
	event, err := qtx.GetEvent(ctx, eventID)
	if errors.Is(err, errs.NotFound) {
		return nil, nil, protocol.Rejectf(protocol.ReasonInvalidEventID, "event %d does not exist", eventID)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get event")
	}
	if !event.Launched() {
		return nil, nil, protocol.Rejectf(protocol.ReasonNotLaunched, "event %d is not launched", eventID)
	}
	tier, err := qtx.GetTier(ctx, eventID, tierID)
	if errors.Is(err, errs.NotFound) {
		return nil, nil, protocol.Rejectf(protocol.ReasonUnknownTier, "tier %d does not exist on event %d", tierID, eventID)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get tier")
	}
	return event, tier, nil
}

func requireOrganizer(event *entity.Event, caller common.Address) error {
	if event.Organizer != caller {
		return protocol.Rejectf(protocol.ReasonUnauthorized, "caller %s is not the organizer of event %d", caller, event.EventID)
	}
	return nil
}

func (p *Processor) requireOperator(caller common.Address) error {
	if caller != p.operatorAddress {
		return protocol.Rejectf(protocol.ReasonUnauthorized, "caller %s is not the network operator", caller)
	}
	return nil
}
