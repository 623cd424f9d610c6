package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type getFundsAccountRequest struct {
	Address string `params:"address"`
}

func (r getFundsAccountRequest) Validate() error {
	var errList []error
	if !common.Address(r.Address).IsValid() {
		errList = append(errList, errors.New("'address' is not a valid address"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getFundsAccountResult struct {
	Address   common.Address  `json:"address"`
	Balance   uint128.Uint128 `json:"balance"`
	BalanceGP decimal.Decimal `json:"balanceGp"`
	Nonce     uint64          `json:"nonce"`
	// NextNonce is what the address's next envelope must carry.
	NextNonce uint64 `json:"nextNonce"`
}

type getFundsAccountResponse = common.HttpResponse[getFundsAccountResult]

func (h *HttpHandler) GetFundsAccount(ctx *fiber.Ctx) (err error) {
	var req getFundsAccountRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	account, err := h.usecase.GetFundsAccount(ctx.UserContext(), common.Address(req.Address))
	if err != nil {
		return errors.Wrap(err, "error during GetFundsAccount")
	}

	resp := getFundsAccountResponse{
		Result: &getFundsAccountResult{
			Address:   account.Address,
			Balance:   account.Balance,
			BalanceGP: toGP(account.Balance),
			Nonce:     account.Nonce,
			NextNonce: account.Nonce + 1,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
