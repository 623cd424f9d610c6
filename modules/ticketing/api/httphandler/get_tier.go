package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getTierRequest struct {
	EventID uint64 `params:"eventId"`
	TierID  uint32 `params:"tierId"`
}

func (r getTierRequest) Validate() error {
	var errList []error
	if r.EventID == 0 {
		errList = append(errList, errors.New("'eventId' must be positive"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getTierResponse = common.HttpResponse[tierResult]

func (h *HttpHandler) GetTier(ctx *fiber.Ctx) (err error) {
	var req getTierRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	tier, err := h.usecase.GetTier(ctx.UserContext(), req.EventID, req.TierID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return fiber.NewError(fiber.StatusNotFound, "tier not found")
		}
		return errors.Wrap(err, "error during GetTier")
	}

	resp := getTierResponse{
		Result: lo.ToPtr(renderTier(tier)),
	}

	return errors.WithStack(ctx.JSON(resp))
}
