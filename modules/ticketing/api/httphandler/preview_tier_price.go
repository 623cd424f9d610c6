package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type previewTierPriceRequest struct {
	EventID uint64 `params:"eventId"`
	TierID  uint32 `params:"tierId"`
	// At previews the price at a given Unix second; 0 means now. Previews
	// assume no operations execute between now and the previewed instant.
	At int64 `query:"at"`
}

func (r previewTierPriceRequest) Validate() error {
	var errList []error
	if r.EventID == 0 {
		errList = append(errList, errors.New("'eventId' must be positive"))
	}
	if r.At < 0 {
		errList = append(errList, errors.New("'at' must be a Unix timestamp in seconds"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type previewTierPriceResult struct {
	EventID      uint64          `json:"eventId"`
	TierID       uint32          `json:"tierId"`
	At           int64           `json:"at"`
	Price        uint64          `json:"price"`
	PriceGP      decimal.Decimal `json:"priceGp"`
	PriceChanged bool            `json:"priceChanged"`
	Quotable     bool            `json:"quotable"`
	Reason       string          `json:"reason,omitempty"`
}

type previewTierPriceResponse = common.HttpResponse[previewTierPriceResult]

// PreviewTierPrice estimates what quote_price would return without binding
// anything: no state is touched and no operation is journaled. Ledger time
// is whole seconds, so the previewed instant is too.
func (h *HttpHandler) PreviewTierPrice(ctx *fiber.Ctx) (err error) {
	var req previewTierPriceRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	at := req.At
	if at == 0 {
		at = time.Now().Unix()
	}

	preview, err := h.usecase.PreviewTierPrice(ctx.UserContext(), req.EventID, req.TierID, time.Unix(at, 0).UTC())
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return fiber.NewError(fiber.StatusNotFound, "tier not found")
		}
		return errors.Wrap(err, "error during PreviewTierPrice")
	}

	resp := previewTierPriceResponse{
		Result: &previewTierPriceResult{
			EventID:      req.EventID,
			TierID:       req.TierID,
			At:           at,
			Price:        preview.Price,
			PriceGP:      toGP(preview.Price),
			PriceChanged: preview.PriceChanged,
			Quotable:     preview.Quotable,
			Reason:       string(preview.Reason),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
