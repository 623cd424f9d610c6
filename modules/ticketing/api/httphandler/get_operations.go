package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

const (
	defaultOperationsLimit = 100
	maxOperationsLimit     = 1000
)

type getOperationsRequest struct {
	Caller       string `query:"caller"`
	Kind         string `query:"kind"`
	FromSequence uint64 `query:"fromSequence"`
	ToSequence   uint64 `query:"toSequence"`
	Limit        int32  `query:"limit"`
	Offset       int32  `query:"offset"`
}

func (r getOperationsRequest) Validate() error {
	var errList []error
	if r.Caller != "" && !common.Address(r.Caller).IsValid() {
		errList = append(errList, errors.New("'caller' is not a valid address"))
	}
	if r.Kind != "" && !types.OperationKind(r.Kind).IsValid() {
		errList = append(errList, errors.Errorf("unknown operation kind %q", r.Kind))
	}
	if r.FromSequence != 0 && r.ToSequence != 0 && r.FromSequence > r.ToSequence {
		errList = append(errList, errors.New("'fromSequence' must not exceed 'toSequence'"))
	}
	if r.Limit < 0 || r.Limit > maxOperationsLimit {
		errList = append(errList, errors.Errorf("'limit' must be in [0, %d]", maxOperationsLimit))
	}
	if r.Offset < 0 {
		errList = append(errList, errors.New("'offset' must not be negative"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getOperationsResult struct {
	List []journalEntryResult `json:"list"`
}

type getOperationsResponse = common.HttpResponse[getOperationsResult]

func (h *HttpHandler) GetOperations(ctx *fiber.Ctx) (err error) {
	var req getOperationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	params := datagateway.GetJournalEntriesParams{
		Kind:         types.OperationKind(req.Kind),
		FromSequence: req.FromSequence,
		ToSequence:   req.ToSequence,
		Limit:        lo.Ternary(req.Limit == 0, int32(defaultOperationsLimit), req.Limit),
		Offset:       req.Offset,
	}
	if req.Caller != "" {
		params.Caller = lo.ToPtr(common.Address(req.Caller))
	}

	entries, err := h.usecase.GetJournalEntries(ctx.UserContext(), params)
	if err != nil {
		return errors.Wrap(err, "error during GetJournalEntries")
	}

	resp := getOperationsResponse{
		Result: &getOperationsResult{
			List: lo.Map(entries, func(entry *entity.JournalEntry, _ int) journalEntryResult {
				return renderJournalEntry(entry)
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
