package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const createTicket = `
INSERT INTO ticketing_tickets ("event_id", "tier_id", "serial", "owner", "price_paid", "mint_sequence", "minted_at")
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (r *Repository) CreateTicket(ctx context.Context, ticket *entity.Ticket) error {
	_, err := r.queryable().Exec(ctx, createTicket,
		int64(ticket.EventID),
		int32(ticket.TierID),
		numericFromUint64(ticket.Serial),
		ticket.Owner.String(),
		numericFromUint64(ticket.PricePaid),
		int64(ticket.MintSequence),
		timestampFromTime(ticket.MintedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errs.Duplicate, "ticket %d/%d#%d already exists", ticket.EventID, ticket.TierID, ticket.Serial)
		}
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const ticketColumns = `"event_id", "tier_id", "serial", "owner", "price_paid", "mint_sequence", "minted_at"`

func scanTicket(row pgx.Row) (ticketModel, error) {
	var model ticketModel
	err := row.Scan(
		&model.EventID,
		&model.TierID,
		&model.Serial,
		&model.Owner,
		&model.PricePaid,
		&model.MintSequence,
		&model.MintedAt,
	)
	return model, errors.WithStack(err)
}

const getTicket = `
SELECT ` + ticketColumns + ` FROM ticketing_tickets WHERE "event_id" = $1 AND "tier_id" = $2 AND "serial" = $3
`

func (r *Repository) GetTicket(ctx context.Context, eventID uint64, tierID uint32, serial uint64) (*entity.Ticket, error) {
	model, err := scanTicket(r.queryable().QueryRow(ctx, getTicket, int64(eventID), int32(tierID), numericFromUint64(serial)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "ticket %d/%d#%d not found", eventID, tierID, serial)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	ticket, err := mapTicketModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ticket model")
	}
	return ticket, nil
}

const getTickets = `
SELECT ` + ticketColumns + ` FROM ticketing_tickets
WHERE ($1::TEXT IS NULL OR "owner" = $1)
  AND ($2::BIGINT IS NULL OR "event_id" = $2)
  AND ($3::INT IS NULL OR "tier_id" = $3)
ORDER BY "event_id", "tier_id", "serial"
LIMIT $4 OFFSET $5
`

func (r *Repository) GetTickets(ctx context.Context, params datagateway.GetTicketsParams) ([]*entity.Ticket, error) {
	var owner *string
	if params.Owner != nil {
		owner = lo.ToPtr(params.Owner.String())
	}
	var eventID *int64
	if params.EventID != nil {
		eventID = lo.ToPtr(int64(*params.EventID))
	}
	var tierID *int32
	if params.TierID != nil {
		tierID = lo.ToPtr(int32(*params.TierID))
	}
	rows, err := r.queryable().Query(ctx, getTickets, owner, eventID, tierID, limitArg(params.Limit), offsetArg(params.Offset))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		model, err := scanTicket(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		ticket, err := mapTicketModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse ticket model")
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return tickets, nil
}

const incrementTicketBalance = `
INSERT INTO ticketing_ticket_balances ("event_id", "tier_id", "owner", "balance")
VALUES ($1, $2, $3, $4)
ON CONFLICT ("event_id", "tier_id", "owner") DO UPDATE SET "balance" = ticketing_ticket_balances."balance" + EXCLUDED."balance"
`

func (r *Repository) IncrementTicketBalance(ctx context.Context, eventID uint64, tierID uint32, owner common.Address, delta uint64) error {
	_, err := r.queryable().Exec(ctx, incrementTicketBalance,
		int64(eventID),
		int32(tierID),
		owner.String(),
		numericFromUint64(delta),
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const getTicketBalance = `
SELECT "event_id", "tier_id", "owner", "balance" FROM ticketing_ticket_balances
WHERE "event_id" = $1 AND "tier_id" = $2 AND "owner" = $3
`

func (r *Repository) GetTicketBalance(ctx context.Context, eventID uint64, tierID uint32, owner common.Address) (*entity.TicketBalance, error) {
	var model ticketBalanceModel
	err := r.queryable().QueryRow(ctx, getTicketBalance, int64(eventID), int32(tierID), owner.String()).
		Scan(&model.EventID, &model.TierID, &model.Owner, &model.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "no balance for %s on %d/%d", owner, eventID, tierID)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	balance, err := mapTicketBalanceModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ticket balance model")
	}
	return balance, nil
}

const getTicketBalancesByOwner = `
SELECT "event_id", "tier_id", "owner", "balance" FROM ticketing_ticket_balances
WHERE "owner" = $1
ORDER BY "event_id", "tier_id"
`

func (r *Repository) GetTicketBalancesByOwner(ctx context.Context, owner common.Address) ([]*entity.TicketBalance, error) {
	rows, err := r.queryable().Query(ctx, getTicketBalancesByOwner, owner.String())
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	balances := make([]*entity.TicketBalance, 0)
	for rows.Next() {
		var model ticketBalanceModel
		if err := rows.Scan(&model.EventID, &model.TierID, &model.Owner, &model.Balance); err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		balance, err := mapTicketBalanceModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse ticket balance model")
		}
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return balances, nil
}
