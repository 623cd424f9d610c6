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
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

type getEventsRequest struct {
	Organizer string `query:"organizer"`
	Limit     int32  `query:"limit"`
	Offset    int32  `query:"offset"`
}

func (r getEventsRequest) Validate() error {
	var errList []error
	if r.Organizer != "" && !common.Address(r.Organizer).IsValid() {
		errList = append(errList, errors.New("'organizer' is not a valid address"))
	}
	if r.Limit < 0 || r.Limit > maxEventsLimit {
		errList = append(errList, errors.Errorf("'limit' must be in [0, %d]", maxEventsLimit))
	}
	if r.Offset < 0 {
		errList = append(errList, errors.New("'offset' must not be negative"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getEventsResult struct {
	List []eventResult `json:"list"`
}

type getEventsResponse = common.HttpResponse[getEventsResult]

func (h *HttpHandler) GetEvents(ctx *fiber.Ctx) (err error) {
	var req getEventsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	params := datagateway.GetEventsParams{
		Limit:  lo.Ternary(req.Limit == 0, int32(defaultEventsLimit), req.Limit),
		Offset: req.Offset,
	}
	if req.Organizer != "" {
		params.Organizer = lo.ToPtr(common.Address(req.Organizer))
	}

	events, err := h.usecase.GetEvents(ctx.UserContext(), params)
	if err != nil {
		return errors.Wrap(err, "error during GetEvents")
	}

	resp := getEventsResponse{
		Result: &getEventsResult{
			List: lo.Map(events, func(event *entity.Event, _ int) eventResult {
				return renderEvent(event)
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
