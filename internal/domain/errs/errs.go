package errs

import "errors"

// Error kinds shared by every aggregate. Aggregates wrap these so callers can
// match either the specific error (loan.ErrNotFound) or the kind (ErrNotFound).
var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidState   = errors.New("invalid state")
	ErrNotFound       = errors.New("not found")
	ErrAlreadySettled = errors.New("already settled")
	ErrIntegrityFault = errors.New("integrity fault")
	ErrInvalidInput   = errors.New("invalid input")
)

type Kind string

const (
	KindInvalidAmount  Kind = "invalid_amount"
	KindInvalidState   Kind = "invalid_state"
	KindNotFound       Kind = "not_found"
	KindAlreadySettled Kind = "already_settled"
	KindIntegrityFault Kind = "integrity_fault"
	KindInvalidInput   Kind = "invalid_input"
	KindInternal       Kind = "internal"
)

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIntegrityFault):
		return KindIntegrityFault
	case errors.Is(err, ErrAlreadySettled):
		return KindAlreadySettled
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// Retryable reports whether a caller may retry err with the same idempotency key.
func Retryable(err error) bool {
	return KindOf(err) == KindInternal
}
