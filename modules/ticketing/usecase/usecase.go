package usecase

import (
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
)

type Usecase struct {
	ticketingDg datagateway.TicketingDataGateway
}

func New(ticketingDg datagateway.TicketingDataGateway) *Usecase {
	return &Usecase{
		ticketingDg: ticketingDg,
	}
}
