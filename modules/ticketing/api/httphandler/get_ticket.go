package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type getTicketRequest struct {
	EventID uint64 `params:"eventId"`
	TierID  uint32 `params:"tierId"`
	Serial  uint64 `params:"serial"`
}

func (r getTicketRequest) Validate() error {
	var errList []error
	if r.EventID == 0 {
		errList = append(errList, errors.New("'eventId' must be positive"))
	}
	if r.Serial == 0 {
		errList = append(errList, errors.New("'serial' must be positive"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getTicketResponse = common.HttpResponse[ticketResult]

func (h *HttpHandler) GetTicket(ctx *fiber.Ctx) (err error) {
	var req getTicketRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	eg, ectx := errgroup.WithContext(ctx.UserContext())
	var (
		ticket *entity.Ticket
		tier   *entity.Tier
	)
	eg.Go(func() error {
		var err error
		ticket, err = h.usecase.GetTicket(ectx, req.EventID, req.TierID, req.Serial)
		if err != nil {
			return errors.Wrap(err, "error during GetTicket")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		tier, err = h.usecase.GetTier(ectx, req.EventID, req.TierID)
		if err != nil {
			return errors.Wrap(err, "error during GetTier")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		if errors.Is(err, errs.NotFound) {
			return fiber.NewError(fiber.StatusNotFound, "ticket not found")
		}
		return errors.WithStack(err)
	}

	resp := getTicketResponse{
		Result: lo.ToPtr(renderTicket(ticket, tier.TicketMetadataURI(ticket.Serial))),
	}

	return errors.WithStack(ctx.JSON(resp))
}
