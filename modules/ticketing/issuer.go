package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
)

// TokenIssuer mints ticket credentials and owns the tier's issuer state
// (serial counter, metadata base URI). Implementations mutate the passed
// tier in place; the operation handler persists it.
//
// The issuer is a capability: handlers treat it as untrusted, reserve
// inventory before calling Mint, and rely on the sequencer's reentrancy
// guard against issuers that try to submit operations of their own.
type TokenIssuer interface {
	Mint(ctx context.Context, tier *entity.Tier, buyer common.Address, pricePaid uint64) (serial uint64, err error)
	SetMetadataBase(ctx context.Context, tier *entity.Tier, uri string) error
}

// TokenIssuerFactory binds an issuer to the operation's storage transaction,
// so credential writes commit and roll back with the operation.
type TokenIssuerFactory func(dgTx datagateway.TicketingDataGatewayWithTx, operation *types.Operation) TokenIssuer

type nativeTokenIssuer struct {
	dgTx      datagateway.TicketingDataGatewayWithTx
	operation *types.Operation
}

// NewNativeTokenIssuer is the default issuer: credentials are rows in the
// module's own store, written within the operation transaction.
func NewNativeTokenIssuer(dgTx datagateway.TicketingDataGatewayWithTx, operation *types.Operation) TokenIssuer {
	return &nativeTokenIssuer{dgTx: dgTx, operation: operation}
}

func (i *nativeTokenIssuer) Mint(ctx context.Context, tier *entity.Tier, buyer common.Address, pricePaid uint64) (uint64, error) {
	serial := tier.NextSerial
	// hard supply cap backstop, independent of the handler's sold-out gate
	if serial > tier.TotalTickets {
		return 0, protocol.Rejectf(protocol.ReasonSoldOut, "serial %d exceeds supply cap %d on tier %d/%d", serial, tier.TotalTickets, tier.EventID, tier.TierID)
	}
	if err := i.dgTx.CreateTicket(ctx, &entity.Ticket{
		EventID:      tier.EventID,
		TierID:       tier.TierID,
		Serial:       serial,
		Owner:        buyer,
		PricePaid:    pricePaid,
		MintSequence: i.operation.Sequence,
		MintedAt:     i.operation.Timestamp,
	}); err != nil {
		return 0, errors.Wrap(err, "failed to create ticket")
	}
	tier.NextSerial = serial + 1
	return serial, nil
}

func (i *nativeTokenIssuer) SetMetadataBase(ctx context.Context, tier *entity.Tier, uri string) error {
	tier.MetadataBaseURI = uri
	return nil
}
