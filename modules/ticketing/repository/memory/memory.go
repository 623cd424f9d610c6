// Package memory is an in-memory TicketingDataGateway. It backs unit tests
// and journal replay verification, where state must be rebuilt from scratch
// without touching the live database.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
)

type tierKey struct {
	EventID uint64
	TierID  uint32
}

type ticketKey struct {
	EventID uint64
	TierID  uint32
	Serial  uint64
}

type balanceKey struct {
	EventID uint64
	TierID  uint32
	Owner   common.Address
}

// state holds every table as a value map. Entities are stored and handed
// out by value, so transaction clones never alias live rows.
type state struct {
	latestSequence uint64
	latestEventID  uint64

	journal        map[uint64]entity.JournalEntry
	protocolEvents map[uint64][]entity.ProtocolEvent
	events         map[uint64]entity.Event
	tiers          map[tierKey]entity.Tier
	tickets        map[ticketKey]entity.Ticket
	balances       map[balanceKey]entity.TicketBalance
	accounts       map[common.Address]entity.FundsAccount
	treasury       entity.Treasury
	payouts        []entity.Payout
}

func newState() *state {
	return &state{
		journal:        make(map[uint64]entity.JournalEntry),
		protocolEvents: make(map[uint64][]entity.ProtocolEvent),
		events:         make(map[uint64]entity.Event),
		tiers:          make(map[tierKey]entity.Tier),
		tickets:        make(map[ticketKey]entity.Ticket),
		balances:       make(map[balanceKey]entity.TicketBalance),
		accounts:       make(map[common.Address]entity.FundsAccount),
	}
}

func (s *state) clone() *state {
	return &state{
		latestSequence: s.latestSequence,
		latestEventID:  s.latestEventID,
		journal:        maps.Clone(s.journal),
		protocolEvents: maps.Clone(s.protocolEvents),
		events:         maps.Clone(s.events),
		tiers:          maps.Clone(s.tiers),
		tickets:        maps.Clone(s.tickets),
		balances:       maps.Clone(s.balances),
		accounts:       maps.Clone(s.accounts),
		treasury:       s.treasury,
		payouts:        slices.Clone(s.payouts),
	}
}

// Repository implements datagateway.TicketingDataGateway in memory.
// Transactions clone the whole state and swap it back in on commit, so a
// rollback is a plain discard and commits are atomic.
type Repository struct {
	mu    sync.RWMutex
	state *state
}

var _ datagateway.TicketingDataGateway = (*Repository)(nil)

func New() *Repository {
	return &Repository{state: newState()}
}

func (r *Repository) BeginTicketingTx(ctx context.Context) (datagateway.TicketingDataGatewayWithTx, error) {
	r.mu.RLock()
	clone := &Repository{state: r.state.clone()}
	r.mu.RUnlock()
	return &repositoryTx{Repository: clone, origin: r}, nil
}

// repositoryTx is a transaction: a full clone of the repository plus the
// origin to swap the clone into on commit. Writers are serialized by the
// sequencer, so last-write-wins on commit cannot lose updates in practice.
type repositoryTx struct {
	*Repository
	origin *Repository
	done   bool
}

var _ datagateway.TicketingDataGatewayWithTx = (*repositoryTx)(nil)

func (t *repositoryTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.origin.mu.Lock()
	t.origin.state = t.Repository.state
	t.origin.mu.Unlock()
	t.done = true
	return nil
}

func (t *repositoryTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}
