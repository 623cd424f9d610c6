package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type getTreasuryResult struct {
	Balance        uint128.Uint128 `json:"balance"`
	BalanceGP      decimal.Decimal `json:"balanceGp"`
	FeesCollected  uint128.Uint128 `json:"feesCollected"`
	TotalDeposited uint128.Uint128 `json:"totalDeposited"`
	TotalPaidOut   uint128.Uint128 `json:"totalPaidOut"`
}

type getTreasuryResponse = common.HttpResponse[getTreasuryResult]

func (h *HttpHandler) GetTreasury(ctx *fiber.Ctx) (err error) {
	treasury, err := h.usecase.GetTreasury(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetTreasury")
	}

	resp := getTreasuryResponse{
		Result: &getTreasuryResult{
			Balance:        treasury.Balance,
			BalanceGP:      toGP(treasury.Balance),
			FeesCollected:  treasury.FeesCollected,
			TotalDeposited: treasury.TotalDeposited,
			TotalPaidOut:   treasury.TotalPaidOut,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
