package protocol

import "github.com/cockroachdb/errors"

// RejectReason identifies why an admitted operation was rejected. Reasons
// are journaled in receipts and are part of the protocol surface; renaming
// one is a breaking change.
type RejectReason string

const (
	ReasonInvalidPayload      RejectReason = "InvalidPayload"
	ReasonInvalidEventID      RejectReason = "InvalidEventID"
	ReasonUnknownTier         RejectReason = "UnknownTier"
	ReasonNotLaunched         RejectReason = "NotLaunched"
	ReasonAlreadyLaunched     RejectReason = "AlreadyLaunched"
	ReasonInvalidWindow       RejectReason = "InvalidWindow"
	ReasonSoldOut             RejectReason = "SoldOut"
	ReasonInsufficientPayment RejectReason = "InsufficientPayment"
	ReasonInsufficientFunds   RejectReason = "InsufficientFunds"
	ReasonUnauthorized        RejectReason = "Unauthorized"
	ReasonInvalidDiscount     RejectReason = "InvalidDiscount"
	ReasonSaleStillActive     RejectReason = "SaleStillActive"
	ReasonTransferFailed      RejectReason = "TransferFailed"
)

// Error satisfies the error interface so reasons travel through normal
// error returns and stay matchable with errors.Is.
func (r RejectReason) Error() string {
	return string(r)
}

// Rejectf wraps a reason with detail for the journaled receipt.
func Rejectf(reason RejectReason, format string, args ...any) error {
	return errors.Wrapf(reason, format, args...)
}

// AsReason extracts the rejection reason from an error chain. Errors that
// carry no reason are infrastructure failures, not protocol rejections.
func AsReason(err error) (RejectReason, bool) {
	var reason RejectReason
	if errors.As(err, &reason) {
		return reason, true
	}
	return "", false
}
