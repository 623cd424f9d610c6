package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
)

func (u *Usecase) GetTicket(ctx context.Context, eventID uint64, tierID uint32, serial uint64) (*entity.Ticket, error) {
	ticket, err := u.ticketingDg.GetTicket(ctx, eventID, tierID, serial)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetTicket")
	}
	return ticket, nil
}

func (u *Usecase) GetTickets(ctx context.Context, params datagateway.GetTicketsParams) ([]*entity.Ticket, error) {
	tickets, err := u.ticketingDg.GetTickets(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetTickets")
	}
	return tickets, nil
}

func (u *Usecase) GetTicketBalancesByOwner(ctx context.Context, owner common.Address) ([]*entity.TicketBalance, error) {
	balances, err := u.ticketingDg.GetTicketBalancesByOwner(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetTicketBalancesByOwner")
	}
	return balances, nil
}
