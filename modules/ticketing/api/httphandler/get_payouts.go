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
	defaultPayoutsLimit = 100
	maxPayoutsLimit     = 1000
)

type getPayoutsRequest struct {
	Recipient string `query:"recipient"`
	Limit     int32  `query:"limit"`
	Offset    int32  `query:"offset"`
}

func (r getPayoutsRequest) Validate() error {
	var errList []error
	if r.Recipient != "" && !common.Address(r.Recipient).IsValid() {
		errList = append(errList, errors.New("'recipient' is not a valid address"))
	}
	if r.Limit < 0 || r.Limit > maxPayoutsLimit {
		errList = append(errList, errors.Errorf("'limit' must be in [0, %d]", maxPayoutsLimit))
	}
	if r.Offset < 0 {
		errList = append(errList, errors.New("'offset' must not be negative"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getPayoutsResult struct {
	List []payoutResult `json:"list"`
}

type getPayoutsResponse = common.HttpResponse[getPayoutsResult]

func (h *HttpHandler) GetPayouts(ctx *fiber.Ctx) (err error) {
	var req getPayoutsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	params := datagateway.GetPayoutsParams{
		Limit:  lo.Ternary(req.Limit == 0, int32(defaultPayoutsLimit), req.Limit),
		Offset: req.Offset,
	}
	if req.Recipient != "" {
		params.Recipient = lo.ToPtr(common.Address(req.Recipient))
	}

	payouts, err := h.usecase.GetPayouts(ctx.UserContext(), params)
	if err != nil {
		return errors.Wrap(err, "error during GetPayouts")
	}

	resp := getPayoutsResponse{
		Result: &getPayoutsResult{
			List: lo.Map(payouts, func(payout *entity.Payout, _ int) payoutResult {
				return renderPayout(payout)
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
