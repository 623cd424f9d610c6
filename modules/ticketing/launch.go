package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
)

type LaunchEventResult struct {
	EventID uint64 `json:"eventId"`
	Tiers   int    `json:"tiers"`
}

// processLaunchEvent instantiates one pricing core per declared tier. Tier
// IDs are the positions in the declared tier list. The sale price starts at
// initialPrice and the decay clock starts at launch time, not startTime, so
// an early launch begins decaying before the sale window opens.
func (p *Processor) processLaunchEvent(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.LaunchEventPayload) (*LaunchEventResult, []*entity.ProtocolEvent, error) {
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
	if event.Launched() {
		return nil, nil, protocol.Rejectf(protocol.ReasonAlreadyLaunched, "event %d was launched at %s", event.EventID, event.LaunchedAt)
	}

	tiers := make([]*entity.Tier, 0, len(event.TierConfigs))
	for i, config := range event.TierConfigs {
		tiers = append(tiers, &entity.Tier{
			EventID:             event.EventID,
			TierID:              uint32(i),
			Name:                config.Name,
			Symbol:              config.Symbol,
			TotalTickets:        config.TotalTickets,
			BasePrice:           config.BasePrice,
			InitialPrice:        config.InitialPrice,
			CurrentPrice:        config.InitialPrice,
			StartTime:           config.StartTime,
			EndTime:             config.EndTime,
			LastPriceUpdate:     operation.Timestamp,
			PriceUpdateInterval: config.PriceUpdateInterval,
			DecayPercentage:     config.DecayPercentage,
			SalesTimeInterval:   config.SalesTimeInterval,
			NextSerial:          1,
			LaunchedAt:          operation.Timestamp,
		})
	}
	if err := qtx.CreateTiers(ctx, tiers); err != nil {
		return nil, nil, errors.Wrap(err, "failed to create tiers")
	}
	if err := qtx.MarkEventLaunched(ctx, event.EventID, operation.Timestamp); err != nil {
		return nil, nil, errors.Wrap(err, "failed to mark event launched")
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindEventLaunched,
		EventID: event.EventID,
		Address: operation.Caller,
	}}
	return &LaunchEventResult{EventID: event.EventID, Tiers: len(tiers)}, events, nil
}
