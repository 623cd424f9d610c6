package datagateway

import (
	"context"
	"time"

	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gaze-network/uint128"
)

// TicketingDataGateway is the module's storage port. Query methods return
// errs.NotFound for missing rows. The processor performs all writes inside
// one transaction per operation via BeginTicketingTx.
type TicketingDataGateway interface {
	BeginTicketingTx(ctx context.Context) (TicketingDataGatewayWithTx, error)

	// journal
	CreateJournalEntry(ctx context.Context, entry *entity.JournalEntry) error
	GetLatestJournalEntry(ctx context.Context) (*entity.JournalEntry, error)
	GetJournalEntryBySequence(ctx context.Context, sequence uint64) (*entity.JournalEntry, error)
	GetJournalEntries(ctx context.Context, params GetJournalEntriesParams) ([]*entity.JournalEntry, error)
	CreateProtocolEvents(ctx context.Context, events []*entity.ProtocolEvent) error
	GetProtocolEventsBySequence(ctx context.Context, sequence uint64) ([]*entity.ProtocolEvent, error)

	// events and tiers
	GetLatestEventID(ctx context.Context) (uint64, error)
	CreateEvent(ctx context.Context, event *entity.Event) error
	GetEvent(ctx context.Context, eventID uint64) (*entity.Event, error)
	GetEvents(ctx context.Context, params GetEventsParams) ([]*entity.Event, error)
	MarkEventLaunched(ctx context.Context, eventID uint64, launchedAt time.Time) error
	CreateTiers(ctx context.Context, tiers []*entity.Tier) error
	GetTier(ctx context.Context, eventID uint64, tierID uint32) (*entity.Tier, error)
	GetTiersByEventID(ctx context.Context, eventID uint64) ([]*entity.Tier, error)
	UpdateTier(ctx context.Context, tier *entity.Tier) error

	// tickets
	CreateTicket(ctx context.Context, ticket *entity.Ticket) error
	GetTicket(ctx context.Context, eventID uint64, tierID uint32, serial uint64) (*entity.Ticket, error)
	GetTickets(ctx context.Context, params GetTicketsParams) ([]*entity.Ticket, error)
	IncrementTicketBalance(ctx context.Context, eventID uint64, tierID uint32, owner common.Address, delta uint64) error
	GetTicketBalance(ctx context.Context, eventID uint64, tierID uint32, owner common.Address) (*entity.TicketBalance, error)
	GetTicketBalancesByOwner(ctx context.Context, owner common.Address) ([]*entity.TicketBalance, error)

	// funds, treasury, payouts
	GetFundsAccount(ctx context.Context, address common.Address) (*entity.FundsAccount, error)
	UpsertFundsAccount(ctx context.Context, account *entity.FundsAccount) error
	GetTreasury(ctx context.Context) (*entity.Treasury, error)
	UpdateTreasury(ctx context.Context, treasury *entity.Treasury) error
	CreatePayout(ctx context.Context, payout *entity.Payout) error
	GetPayouts(ctx context.Context, params GetPayoutsParams) ([]*entity.Payout, error)

	// aggregates for the conservation invariant:
	// total deposited - total paid out == credits + custodied revenue + treasury
	SumFundsBalances(ctx context.Context) (uint128.Uint128, error)
	SumTierRevenue(ctx context.Context) (uint128.Uint128, error)
}

type TicketingDataGatewayWithTx interface {
	TicketingDataGateway
	Tx
}

type GetJournalEntriesParams struct {
	Caller       *common.Address
	Kind         types.OperationKind
	FromSequence uint64
	ToSequence   uint64
	Limit        int32
	Offset       int32
}

type GetEventsParams struct {
	Organizer *common.Address
	Limit     int32
	Offset    int32
}

type GetTicketsParams struct {
	Owner   *common.Address
	EventID *uint64
	TierID  *uint32
	Limit   int32
	Offset  int32
}

type GetPayoutsParams struct {
	Recipient *common.Address
	Limit     int32
	Offset    int32
}
