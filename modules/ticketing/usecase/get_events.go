package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"golang.org/x/sync/errgroup"
)

// EventWithTiers pairs an event with its live tiers. Tiers is empty until
// the event is launched; declared tier configurations stay on the event.
type EventWithTiers struct {
	Event *entity.Event
	Tiers []*entity.Tier
}

func (u *Usecase) GetEvents(ctx context.Context, params datagateway.GetEventsParams) ([]*entity.Event, error) {
	events, err := u.ticketingDg.GetEvents(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetEvents")
	}
	return events, nil
}

func (u *Usecase) GetEventWithTiers(ctx context.Context, eventID uint64) (*EventWithTiers, error) {
	eg, ectx := errgroup.WithContext(ctx)
	var (
		event *entity.Event
		tiers []*entity.Tier
	)
	eg.Go(func() error {
		var err error
		event, err = u.ticketingDg.GetEvent(ectx, eventID)
		if err != nil {
			return errors.Wrap(err, "error during GetEvent")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		tiers, err = u.ticketingDg.GetTiersByEventID(ectx, eventID)
		if err != nil {
			return errors.Wrap(err, "error during GetTiersByEventID")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, errors.WithStack(err)
	}
	return &EventWithTiers{Event: event, Tiers: tiers}, nil
}

func (u *Usecase) GetTier(ctx context.Context, eventID uint64, tierID uint32) (*entity.Tier, error) {
	tier, err := u.ticketingDg.GetTier(ctx, eventID, tierID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			// distinguish "no such event" from "event not launched yet"
			if _, eventErr := u.ticketingDg.GetEvent(ctx, eventID); eventErr == nil {
				return nil, errors.Wrapf(errs.NotFound, "event %d is not launched", eventID)
			}
		}
		return nil, errors.Wrap(err, "error during GetTier")
	}
	return tier, nil
}
