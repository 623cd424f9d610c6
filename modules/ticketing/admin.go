package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
)

type UpdateBasePriceResult struct {
	EventID   uint64 `json:"eventId"`
	TierID    uint32 `json:"tierId"`
	BasePrice uint64 `json:"basePrice"`
}

type UpdateMetadataURIResult struct {
	EventID uint64 `json:"eventId"`
	TierID  uint32 `json:"tierId"`
	URI     string `json:"uri"`
}

// processUpdateBasePrice replaces the price floor immediately. The current
// price is not re-clamped here; the next price computation clamps against
// the new floor.
func (p *Processor) processUpdateBasePrice(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.UpdateBasePricePayload) (*UpdateBasePriceResult, []*entity.ProtocolEvent, error) {
	event, tier, err := resolveLaunchedTier(ctx, qtx, payload.EventID, payload.TierID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOrganizer(event, operation.Caller); err != nil {
		return nil, nil, err
	}

	tier.BasePrice = payload.NewPrice
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindBasePriceChanged,
		EventID: tier.EventID,
		TierID:  tier.TierID,
		Address: operation.Caller,
		Price:   tier.BasePrice,
	}}
	return &UpdateBasePriceResult{EventID: tier.EventID, TierID: tier.TierID, BasePrice: tier.BasePrice}, events, nil
}

// processUpdateMetadataURI forwards the new base URI to the token issuer,
// which owns credential metadata.
func (p *Processor) processUpdateMetadataURI(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.UpdateMetadataURIPayload) (*UpdateMetadataURIResult, []*entity.ProtocolEvent, error) {
	event, tier, err := resolveLaunchedTier(ctx, qtx, payload.EventID, payload.TierID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOrganizer(event, operation.Caller); err != nil {
		return nil, nil, err
	}

	issuer := p.newTokenIssuer(qtx, operation)
	if err := issuer.SetMetadataBase(ctx, tier, payload.URI); err != nil {
		return nil, nil, errors.Wrap(err, "token issuer failed to set metadata base")
	}
	if err := qtx.UpdateTier(ctx, tier); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update tier")
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindMetadataUpdated,
		EventID: tier.EventID,
		TierID:  tier.TierID,
		Address: operation.Caller,
	}}
	return &UpdateMetadataURIResult{EventID: tier.EventID, TierID: tier.TierID, URI: payload.URI}, events, nil
}
