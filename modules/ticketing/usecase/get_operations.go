package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"golang.org/x/sync/errgroup"
)

// JournalEntryWithEvents pairs a journal entry with the protocol events it
// emitted. Rejected entries carry no events.
type JournalEntryWithEvents struct {
	Entry  *entity.JournalEntry
	Events []*entity.ProtocolEvent
}

func (u *Usecase) GetJournalEntries(ctx context.Context, params datagateway.GetJournalEntriesParams) ([]*entity.JournalEntry, error) {
	entries, err := u.ticketingDg.GetJournalEntries(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetJournalEntries")
	}
	return entries, nil
}

func (u *Usecase) GetJournalEntryWithEvents(ctx context.Context, sequence uint64) (*JournalEntryWithEvents, error) {
	eg, ectx := errgroup.WithContext(ctx)
	var (
		entry  *entity.JournalEntry
		events []*entity.ProtocolEvent
	)
	eg.Go(func() error {
		var err error
		entry, err = u.ticketingDg.GetJournalEntryBySequence(ectx, sequence)
		if err != nil {
			return errors.Wrap(err, "error during GetJournalEntryBySequence")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		events, err = u.ticketingDg.GetProtocolEventsBySequence(ectx, sequence)
		if err != nil {
			return errors.Wrap(err, "error during GetProtocolEventsBySequence")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, errors.WithStack(err)
	}
	return &JournalEntryWithEvents{Entry: entry, Events: events}, nil
}
