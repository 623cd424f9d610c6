package ticketing

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gaze-network/uint128"
)

type RegisterEventResult struct {
	EventID uint64 `json:"eventId"`
}

// processRegisterEvent charges the registration fee and stores the event
// with its declared tiers. The full payment (not just the fee) accrues to
// the treasury; tiers become live pricing cores only at launch. Event IDs
// are assigned sequentially starting at 1.
func (p *Processor) processRegisterEvent(ctx context.Context, qtx datagateway.TicketingDataGatewayWithTx, operation *types.Operation, payload protocol.RegisterEventPayload) (*RegisterEventResult, []*entity.ProtocolEvent, error) {
	if operation.Payment < p.registrationFee {
		return nil, nil, protocol.Rejectf(protocol.ReasonInsufficientPayment, "registration fee is %d, got payment %d", p.registrationFee, operation.Payment)
	}
	if err := debitFunds(ctx, qtx, operation.Caller, operation.Payment); err != nil {
		return nil, nil, err
	}
	treasury, err := qtx.GetTreasury(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get treasury")
	}
	payment := uint128.From64(operation.Payment)
	treasury.Balance = treasury.Balance.Add(payment)
	treasury.FeesCollected = treasury.FeesCollected.Add(payment)
	if err := qtx.UpdateTreasury(ctx, treasury); err != nil {
		return nil, nil, errors.Wrap(err, "failed to update treasury")
	}

	eventID := uint64(1)
	latestEventID, err := qtx.GetLatestEventID(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return nil, nil, errors.Wrap(err, "failed to get latest event id")
	}
	if err == nil {
		eventID = latestEventID + 1
	}

	event := &entity.Event{
		EventID:      eventID,
		Organizer:    operation.Caller,
		Name:         payload.Name,
		Venue:        payload.Venue,
		MetadataURI:  payload.MetadataURI,
		TierConfigs:  make([]entity.TierConfig, 0, len(payload.Tiers)),
		RegisteredAt: operation.Timestamp,
	}
	for _, tier := range payload.Tiers {
		event.TierConfigs = append(event.TierConfigs, entity.TierConfig{
			Name:                tier.Name,
			Symbol:              tier.Symbol,
			TotalTickets:        tier.TotalTickets,
			BasePrice:           tier.BasePrice,
			InitialPrice:        tier.InitialPrice,
			StartTime:           time.Unix(tier.StartTime, 0).UTC(),
			EndTime:             time.Unix(tier.EndTime, 0).UTC(),
			PriceUpdateInterval: time.Duration(tier.PriceUpdateInterval) * time.Second,
			DecayPercentage:     tier.DecayPercentage,
			SalesTimeInterval:   time.Duration(tier.SalesTimeInterval) * time.Second,
		})
	}
	if err := qtx.CreateEvent(ctx, event); err != nil {
		return nil, nil, errors.Wrap(err, "failed to create event")
	}

	events := []*entity.ProtocolEvent{{
		Kind:    entity.EventKindEventRegistered,
		EventID: eventID,
		Address: operation.Caller,
		Amount:  payment,
	}}
	return &RegisterEventResult{EventID: eventID}, events, nil
}
