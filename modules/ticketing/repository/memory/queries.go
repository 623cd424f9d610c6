package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

func paginate[T any](items []T, limit, offset int32) []T {
	if offset > 0 {
		if int(offset) >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

func (r *Repository) CreateJournalEntry(ctx context.Context, entry *entity.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.journal[entry.Sequence]; ok {
		return errors.Wrapf(errs.Duplicate, "journal entry %d already exists", entry.Sequence)
	}
	r.state.journal[entry.Sequence] = *entry
	if entry.Sequence > r.state.latestSequence {
		r.state.latestSequence = entry.Sequence
	}
	return nil
}

func (r *Repository) GetLatestJournalEntry(ctx context.Context) (*entity.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.state.journal[r.state.latestSequence]
	if !ok {
		return nil, errors.Wrap(errs.NotFound, "journal is empty")
	}
	return &entry, nil
}

func (r *Repository) GetJournalEntryBySequence(ctx context.Context, sequence uint64) (*entity.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.state.journal[sequence]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "journal entry %d not found", sequence)
	}
	return &entry, nil
}

func (r *Repository) GetJournalEntries(ctx context.Context, params datagateway.GetJournalEntriesParams) ([]*entity.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*entity.JournalEntry, 0)
	for sequence := range r.state.journal {
		entry := r.state.journal[sequence]
		if params.FromSequence != 0 && entry.Sequence < params.FromSequence {
			continue
		}
		if params.ToSequence != 0 && entry.Sequence > params.ToSequence {
			continue
		}
		if params.Caller != nil && entry.Caller != *params.Caller {
			continue
		}
		if params.Kind != "" && entry.Kind != params.Kind {
			continue
		}
		entries = append(entries, &entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })
	return paginate(entries, params.Limit, params.Offset), nil
}

func (r *Repository) CreateProtocolEvents(ctx context.Context, events []*entity.ProtocolEvent) error {
	if len(events) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sequence := events[0].Sequence
	r.state.protocolEvents[sequence] = append(r.state.protocolEvents[sequence],
		lo.Map(events, func(event *entity.ProtocolEvent, _ int) entity.ProtocolEvent { return *event })...)
	return nil
}

func (r *Repository) GetProtocolEventsBySequence(ctx context.Context, sequence uint64) ([]*entity.ProtocolEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := r.state.protocolEvents[sequence]
	out := make([]*entity.ProtocolEvent, 0, len(events))
	for i := range events {
		event := events[i]
		out = append(out, &event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (r *Repository) GetLatestEventID(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.latestEventID == 0 {
		return 0, errors.Wrap(errs.NotFound, "no events registered")
	}
	return r.state.latestEventID, nil
}

func (r *Repository) CreateEvent(ctx context.Context, event *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.events[event.EventID]; ok {
		return errors.Wrapf(errs.Duplicate, "event %d already exists", event.EventID)
	}
	r.state.events[event.EventID] = *event
	if event.EventID > r.state.latestEventID {
		r.state.latestEventID = event.EventID
	}
	return nil
}

func (r *Repository) GetEvent(ctx context.Context, eventID uint64) (*entity.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	event, ok := r.state.events[eventID]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "event %d not found", eventID)
	}
	return &event, nil
}

func (r *Repository) GetEvents(ctx context.Context, params datagateway.GetEventsParams) ([]*entity.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]*entity.Event, 0, len(r.state.events))
	for eventID := range r.state.events {
		event := r.state.events[eventID]
		if params.Organizer != nil && event.Organizer != *params.Organizer {
			continue
		}
		events = append(events, &event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventID < events[j].EventID })
	return paginate(events, params.Limit, params.Offset), nil
}

func (r *Repository) MarkEventLaunched(ctx context.Context, eventID uint64, launchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.state.events[eventID]
	if !ok {
		return errors.Wrapf(errs.NotFound, "event %d not found", eventID)
	}
	event.LaunchedAt = launchedAt
	r.state.events[eventID] = event
	return nil
}

func (r *Repository) CreateTiers(ctx context.Context, tiers []*entity.Tier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tier := range tiers {
		key := tierKey{EventID: tier.EventID, TierID: tier.TierID}
		if _, ok := r.state.tiers[key]; ok {
			return errors.Wrapf(errs.Duplicate, "tier %d/%d already exists", tier.EventID, tier.TierID)
		}
		r.state.tiers[key] = *tier
	}
	return nil
}

func (r *Repository) GetTier(ctx context.Context, eventID uint64, tierID uint32) (*entity.Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tier, ok := r.state.tiers[tierKey{EventID: eventID, TierID: tierID}]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "tier %d/%d not found", eventID, tierID)
	}
	return &tier, nil
}

func (r *Repository) GetTiersByEventID(ctx context.Context, eventID uint64) ([]*entity.Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tiers := make([]*entity.Tier, 0)
	for key := range r.state.tiers {
		if key.EventID != eventID {
			continue
		}
		tier := r.state.tiers[key]
		tiers = append(tiers, &tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].TierID < tiers[j].TierID })
	return tiers, nil
}

func (r *Repository) UpdateTier(ctx context.Context, tier *entity.Tier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tierKey{EventID: tier.EventID, TierID: tier.TierID}
	if _, ok := r.state.tiers[key]; !ok {
		return errors.Wrapf(errs.NotFound, "tier %d/%d not found", tier.EventID, tier.TierID)
	}
	r.state.tiers[key] = *tier
	return nil
}

func (r *Repository) CreateTicket(ctx context.Context, ticket *entity.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ticketKey{EventID: ticket.EventID, TierID: ticket.TierID, Serial: ticket.Serial}
	if _, ok := r.state.tickets[key]; ok {
		return errors.Wrapf(errs.Duplicate, "ticket %d/%d#%d already exists", ticket.EventID, ticket.TierID, ticket.Serial)
	}
	r.state.tickets[key] = *ticket
	return nil
}

func (r *Repository) GetTicket(ctx context.Context, eventID uint64, tierID uint32, serial uint64) (*entity.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.state.tickets[ticketKey{EventID: eventID, TierID: tierID, Serial: serial}]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "ticket %d/%d#%d not found", eventID, tierID, serial)
	}
	return &ticket, nil
}

func (r *Repository) GetTickets(ctx context.Context, params datagateway.GetTicketsParams) ([]*entity.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tickets := make([]*entity.Ticket, 0)
	for key := range r.state.tickets {
		ticket := r.state.tickets[key]
		if params.Owner != nil && ticket.Owner != *params.Owner {
			continue
		}
		if params.EventID != nil && ticket.EventID != *params.EventID {
			continue
		}
		if params.TierID != nil && ticket.TierID != *params.TierID {
			continue
		}
		tickets = append(tickets, &ticket)
	}
	sort.Slice(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.TierID != b.TierID {
			return a.TierID < b.TierID
		}
		return a.Serial < b.Serial
	})
	return paginate(tickets, params.Limit, params.Offset), nil
}

func (r *Repository) IncrementTicketBalance(ctx context.Context, eventID uint64, tierID uint32, owner common.Address, delta uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := balanceKey{EventID: eventID, TierID: tierID, Owner: owner}
	balance, ok := r.state.balances[key]
	if !ok {
		balance = entity.TicketBalance{EventID: eventID, TierID: tierID, Owner: owner}
	}
	balance.Balance += delta
	r.state.balances[key] = balance
	return nil
}

func (r *Repository) GetTicketBalance(ctx context.Context, eventID uint64, tierID uint32, owner common.Address) (*entity.TicketBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balance, ok := r.state.balances[balanceKey{EventID: eventID, TierID: tierID, Owner: owner}]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "no balance for %s on %d/%d", owner, eventID, tierID)
	}
	return &balance, nil
}

func (r *Repository) GetTicketBalancesByOwner(ctx context.Context, owner common.Address) ([]*entity.TicketBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balances := make([]*entity.TicketBalance, 0)
	for key := range r.state.balances {
		if key.Owner != owner {
			continue
		}
		balance := r.state.balances[key]
		balances = append(balances, &balance)
	}
	sort.Slice(balances, func(i, j int) bool {
		a, b := balances[i], balances[j]
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		return a.TierID < b.TierID
	})
	return balances, nil
}

func (r *Repository) GetFundsAccount(ctx context.Context, address common.Address) (*entity.FundsAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.state.accounts[address]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "funds account %s not found", address)
	}
	return &account, nil
}

func (r *Repository) UpsertFundsAccount(ctx context.Context, account *entity.FundsAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.accounts[account.Address] = *account
	return nil
}

func (r *Repository) GetTreasury(ctx context.Context) (*entity.Treasury, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	treasury := r.state.treasury
	return &treasury, nil
}

func (r *Repository) UpdateTreasury(ctx context.Context, treasury *entity.Treasury) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.treasury = *treasury
	return nil
}

func (r *Repository) CreatePayout(ctx context.Context, payout *entity.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.payouts = append(r.state.payouts, *payout)
	return nil
}

func (r *Repository) GetPayouts(ctx context.Context, params datagateway.GetPayoutsParams) ([]*entity.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payouts := make([]*entity.Payout, 0)
	for i := range r.state.payouts {
		payout := r.state.payouts[i]
		if params.Recipient != nil && payout.Recipient != *params.Recipient {
			continue
		}
		payouts = append(payouts, &payout)
	}
	sort.Slice(payouts, func(i, j int) bool {
		a, b := payouts[i], payouts[j]
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		return a.Index < b.Index
	})
	return paginate(payouts, params.Limit, params.Offset), nil
}

func (r *Repository) SumFundsBalances(ctx context.Context) (uint128.Uint128, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := uint128.Zero
	for _, account := range r.state.accounts {
		sum = sum.Add(account.Balance)
	}
	return sum, nil
}

func (r *Repository) SumTierRevenue(ctx context.Context) (uint128.Uint128, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := uint128.Zero
	for _, tier := range r.state.tiers {
		sum = sum.Add(tier.TotalRevenue)
	}
	return sum, nil
}
