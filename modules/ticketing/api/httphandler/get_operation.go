package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getOperationRequest struct {
	Sequence uint64 `params:"sequence"`
}

func (r getOperationRequest) Validate() error {
	var errList []error
	if r.Sequence == 0 {
		errList = append(errList, errors.New("'sequence' must be positive"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getOperationResult struct {
	journalEntryResult
	Events []protocolEventResult `json:"events"`
}

type getOperationResponse = common.HttpResponse[getOperationResult]

func (h *HttpHandler) GetOperation(ctx *fiber.Ctx) (err error) {
	var req getOperationRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.usecase.GetJournalEntryWithEvents(ctx.UserContext(), req.Sequence)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return fiber.NewError(fiber.StatusNotFound, "operation not found")
		}
		return errors.Wrap(err, "error during GetJournalEntryWithEvents")
	}

	resp := getOperationResponse{
		Result: &getOperationResult{
			journalEntryResult: renderJournalEntry(entry.Entry),
			Events: lo.Map(entry.Events, func(event *entity.ProtocolEvent, _ int) protocolEventResult {
				return renderProtocolEvent(event)
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
