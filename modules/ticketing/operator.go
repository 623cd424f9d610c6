package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gaze-network/uint128"
)

type DepositResult struct {
	To      common.Address  `json:"to"`
	Amount  uint64          `json:"amount"`
	Balance uint128.Uint128 `json:"balance"`
}

type SweepTreasuryResult struct {
	To     common.Address  `json:"to"`
	Amount uint128.Uint128 `json:"amount"`
}

// processDeposit is the ledger's on-ramp: the network operator credits an
// address's funds account, growing the total credit in circulation.
func (p *Processor) processDeposit(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.DepositPayload) (*DepositResult, []*entity.ProtocolEvent, error) {
	if err := p.requireOperator(operation.Caller); err != nil {
		return nil, nil, err
	}

	account, err := getFundsAccount(ctx, qtx, payload.To)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get funds account")
	}
	amount := uint128.From64(payload.Amount)
	account.Balance = account.Balance.Add(amount)
	if err := qtx.UpsertFundsAccount(ctx, account); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update funds account")
	}
	treasury, err := qtx.GetTreasury(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get treasury")
	}
	treasury.TotalDeposited = treasury.TotalDeposited.Add(amount)
	if err := qtx.UpdateTreasury(ctx, treasury); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update treasury")
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindDeposit,
		Address: payload.To,
		Amount:  amount,
	}}
	return &DepositResult{To: payload.To, Amount: payload.Amount, Balance: account.Balance}, events, nil
}

// processSweepTreasury moves the whole treasury balance out through the
// payout sink. feesCollected keeps its historical total; only the spendable
// balance is swept. Sweeping an empty treasury is an applied no-op.
func (p *Processor) processSweepTreasury(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.SweepTreasuryPayload) (*SweepTreasuryResult, []*entity.ProtocolEvent, error) {
	if err := p.requireOperator(operation.Caller); err != nil {
		return nil, nil, err
	}

	treasury, err := qtx.GetTreasury(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get treasury")
	}
	amount := treasury.Balance
	if amount.IsZero() {
		return &SweepTreasuryResult{To: payload.To, Amount: amount}, nil, nil
	}

	treasury.Balance = uint128.Zero
	treasury.TotalPaidOut = treasury.TotalPaidOut.Add(amount)
	if err := qtx.UpdateTreasury(ctx, treasury); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update treasury")
	}
	sink := p.newPayoutSink(qtx, operation)
	if err := sink.Transfer(ctx, payload.To, amount); err != nil {
		return nil, nil, protocol.Rejectf(protocol.ReasonTransferFailed, "payout sink rejected transfer of %s to %s: %s", amount.String(), payload.To, err.Error())
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindTreasurySwept,
		Address: payload.To,
		Amount:  amount,
	}}
	return &SweepTreasuryResult{To: payload.To, Amount: amount}, events, nil
}
