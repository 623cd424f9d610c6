package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gaze-network/uint128"
)

// PayoutSink moves value out of the ledger, the off-ramp counterpart of the
// operator's deposit on-ramp. A sink error rejects the whole operation with
// TransferFailed and reverts its state effects.
type PayoutSink interface {
	Transfer(ctx context.Context, recipient common.Address, amount uint128.Uint128) error
}

// PayoutSinkFactory binds a sink to the operation's storage transaction.
type PayoutSinkFactory func(dgTx datagateway.TicketingDataGatewayWithTx, operation *types.Operation) PayoutSink

type nativePayoutSink struct {
	dgTx      datagateway.TicketingDataGatewayWithTx
	operation *types.Operation
	index     uint32
}

// NewNativePayoutSink is the default sink: each transfer appends one payout
// row. Index disambiguates multiple transfers within one operation.
func NewNativePayoutSink(dgTx datagateway.TicketingDataGatewayWithTx, operation *types.Operation) PayoutSink {
	return &nativePayoutSink{dgTx: dgTx, operation: operation}
}

func (s *nativePayoutSink) Transfer(ctx context.Context, recipient common.Address, amount uint128.Uint128) error {
	payout := &entity.Payout{
		Sequence:  s.operation.Sequence,
		Index:     s.index,
		Recipient: recipient,
		Amount:    amount,
		CreatedAt: s.operation.Timestamp,
	}
	if err := s.dgTx.CreatePayout(ctx, payout); err != nil {
		return errors.Wrap(err, "failed to create payout")
	}
	s.index++
	return nil
}
