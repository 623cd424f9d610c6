package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getEventRequest struct {
	EventID uint64 `params:"eventId"`
}

func (r getEventRequest) Validate() error {
	var errList []error
	if r.EventID == 0 {
		errList = append(errList, errors.New("'eventId' must be positive"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getEventResult struct {
	eventResult
	Tiers []tierResult `json:"tiers"`
}

type getEventResponse = common.HttpResponse[getEventResult]

func (h *HttpHandler) GetEvent(ctx *fiber.Ctx) (err error) {
	var req getEventRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	event, err := h.usecase.GetEventWithTiers(ctx.UserContext(), req.EventID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return fiber.NewError(fiber.StatusNotFound, "event not found")
		}
		return errors.Wrap(err, "error during GetEventWithTiers")
	}

	resp := getEventResponse{
		Result: &getEventResult{
			eventResult: renderEvent(event.Event),
			Tiers: lo.Map(event.Tiers, func(tier *entity.Tier, _ int) tierResult {
				return renderTier(tier)
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
