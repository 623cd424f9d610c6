package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("not found")
	// InvalidArgument is returned when a caller-supplied value is malformed or out of range.
	InvalidArgument  = ErrorKind("invalid argument")
	ArgumentRequired = ErrorKind("argument required")
	Duplicate        = ErrorKind("duplicate")
	ConflictSetting  = ErrorKind("conflict setting")
	Unsupported      = ErrorKind("unsupported")
	Unauthorized     = ErrorKind("unauthorized")
	Timeout          = ErrorKind("timeout")
	Closed           = ErrorKind("closed")
	InternalError    = ErrorKind("internal error")
	// SomethingWentWrong is returned when an error should not be possible to happen.
	SomethingWentWrong = ErrorKind("something went wrong")
	OverflowUint64     = ErrorKind("overflow uint64")
	OverflowUint128    = ErrorKind("overflow uint128")

	// Admission errors. Returned to the submitter before an operation is
	// sequenced; operations failing admission are never journaled and do
	// not consume nonces.
	InvalidSignature = ErrorKind("invalid signature")
	InvalidNonce     = ErrorKind("invalid nonce")
	ReentrantCall    = ErrorKind("reentrant call")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
