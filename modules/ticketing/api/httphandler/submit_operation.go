package httphandler

import (
	"crypto/ed25519"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gofiber/fiber/v2"
)

// submitOperationRequest is a signed envelope as produced by a client SDK.
// Payload and signature travel base64-encoded in JSON.
type submitOperationRequest struct {
	Network   common.Network      `json:"network"`
	Kind      types.OperationKind `json:"kind"`
	Caller    common.Address      `json:"caller"`
	Nonce     uint64              `json:"nonce"`
	Payment   uint64              `json:"payment"`
	Payload   []byte              `json:"payload"`
	Signature []byte              `json:"signature"`
}

func (r submitOperationRequest) Validate() error {
	var errList []error
	if !r.Kind.IsValid() {
		errList = append(errList, errors.Errorf("unknown operation kind %q", r.Kind))
	}
	if !r.Caller.IsValid() {
		errList = append(errList, errors.New("'caller' is not a valid address"))
	}
	if len(r.Signature) != ed25519.SignatureSize {
		errList = append(errList, errors.Errorf("'signature' must be %d bytes", ed25519.SignatureSize))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type submitOperationResponse = common.HttpResponse[types.Receipt]

// SubmitOperation admits one signed envelope into the global order and
// responds with the journaled receipt. Admission failures (wrong network,
// bad signature, stale nonce) are client errors: nothing was journaled and
// the nonce is still unused.
func (h *HttpHandler) SubmitOperation(ctx *fiber.Ctx) (err error) {
	var req submitOperationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.WithPublicMessage(err, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}
	if req.Network != h.network {
		return errs.NewPublicError(fmt.Sprintf("envelope network %q, this node serves %q", req.Network, h.network))
	}

	envelope := types.Envelope{
		Network:   req.Network,
		Kind:      req.Kind,
		Caller:    req.Caller,
		Nonce:     req.Nonce,
		Payment:   req.Payment,
		Payload:   req.Payload,
		Signature: req.Signature,
	}
	receipt, err := h.submitter.Submit(ctx.UserContext(), envelope)
	if err != nil {
		switch {
		case errors.Is(err, errs.Unsupported),
			errors.Is(err, errs.InvalidArgument),
			errors.Is(err, errs.InvalidSignature),
			errors.Is(err, errs.InvalidNonce),
			errors.Is(err, errs.ReentrantCall):
			return errs.WithPublicMessage(err, "operation not admitted")
		}
		return errors.Wrap(err, "error during Submit")
	}

	resp := submitOperationResponse{
		Result: receipt,
	}

	return errors.WithStack(ctx.JSON(resp))
}
