package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getTicketBalancesRequest struct {
	Address string `params:"address"`
}

func (r getTicketBalancesRequest) Validate() error {
	var errList []error
	if !common.Address(r.Address).IsValid() {
		errList = append(errList, errors.New("'address' is not a valid address"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type ticketBalanceResult struct {
	EventID uint64 `json:"eventId"`
	TierID  uint32 `json:"tierId"`
	Balance uint64 `json:"balance"`
}

type getTicketBalancesResult struct {
	Address common.Address        `json:"address"`
	List    []ticketBalanceResult `json:"list"`
}

type getTicketBalancesResponse = common.HttpResponse[getTicketBalancesResult]

func (h *HttpHandler) GetTicketBalances(ctx *fiber.Ctx) (err error) {
	var req getTicketBalancesRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	owner := common.Address(req.Address)
	balances, err := h.usecase.GetTicketBalancesByOwner(ctx.UserContext(), owner)
	if err != nil {
		return errors.Wrap(err, "error during GetTicketBalancesByOwner")
	}

	resp := getTicketBalancesResponse{
		Result: &getTicketBalancesResult{
			Address: owner,
			List: lo.Map(balances, func(balance *entity.TicketBalance, _ int) ticketBalanceResult {
				return ticketBalanceResult{
					EventID: balance.EventID,
					TierID:  balance.TierID,
					Balance: balance.Balance,
				}
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
