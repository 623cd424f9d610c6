package httphandler

import (
	"context"

	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gatepass-network/boxoffice/modules/ticketing/usecase"
	"github.com/gatepass-network/boxoffice/pkg/decimals"
	"github.com/shopspring/decimal"
)

// OperationSubmitter admits signed envelopes into the ledger's global
// order. Implemented by the sequencer.
type OperationSubmitter interface {
	Submit(ctx context.Context, envelope types.Envelope) (*types.Receipt, error)
}

type HttpHandler struct {
	network   common.Network
	usecase   *usecase.Usecase
	submitter OperationSubmitter
}

func New(network common.Network, usecase *usecase.Usecase, submitter OperationSubmitter) *HttpHandler {
	return &HttpHandler{
		network:   network,
		usecase:   usecase,
		submitter: submitter,
	}
}

// toGP renders a µGP amount in the GP display unit.
func toGP(amount any) decimal.Decimal {
	return decimals.ToDecimal(amount, protocol.GPDecimals)
}
