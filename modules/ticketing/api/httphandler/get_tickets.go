package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

const (
	defaultTicketsLimit = 100
	maxTicketsLimit     = 1000
)

type getTicketsRequest struct {
	Owner   string  `query:"owner"`
	EventID *uint64 `query:"eventId"`
	TierID  *uint32 `query:"tierId"`
	Limit   int32   `query:"limit"`
	Offset  int32   `query:"offset"`
}

func (r getTicketsRequest) Validate() error {
	var errList []error
	if r.Owner == "" && r.EventID == nil {
		errList = append(errList, errors.New("'owner' or 'eventId' is required"))
	}
	if r.Owner != "" && !common.Address(r.Owner).IsValid() {
		errList = append(errList, errors.New("'owner' is not a valid address"))
	}
	if r.TierID != nil && r.EventID == nil {
		errList = append(errList, errors.New("'tierId' requires 'eventId'"))
	}
	if r.Limit < 0 || r.Limit > maxTicketsLimit {
		errList = append(errList, errors.Errorf("'limit' must be in [0, %d]", maxTicketsLimit))
	}
	if r.Offset < 0 {
		errList = append(errList, errors.New("'offset' must not be negative"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getTicketsResult struct {
	List []ticketResult `json:"list"`
}

type getTicketsResponse = common.HttpResponse[getTicketsResult]

func (h *HttpHandler) GetTickets(ctx *fiber.Ctx) (err error) {
	var req getTicketsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	params := datagateway.GetTicketsParams{
		EventID: req.EventID,
		TierID:  req.TierID,
		Limit:   lo.Ternary(req.Limit == 0, int32(defaultTicketsLimit), req.Limit),
		Offset:  req.Offset,
	}
	if req.Owner != "" {
		params.Owner = lo.ToPtr(common.Address(req.Owner))
	}

	tickets, err := h.usecase.GetTickets(ctx.UserContext(), params)
	if err != nil {
		return errors.Wrap(err, "error during GetTickets")
	}

	resp := getTicketsResponse{
		Result: &getTicketsResult{
			List: lo.Map(tickets, func(ticket *entity.Ticket, _ int) ticketResult {
				return renderTicket(ticket, "")
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
