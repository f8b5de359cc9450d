package engine

import "errors"

// Business errors are expected, client-correctable outcomes. They reach the
// caller unwrapped, with stable messages.
var (
	ErrInvalidAmount     = errors.New("value of money is not valid")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("your balance is not enough")
)

// ErrInfrastructure is the single failure kind exposed for store or
// connectivity faults. The underlying error is wrapped so operators can
// unwrap it from logs, but callers should only test against this sentinel.
var ErrInfrastructure = errors.New("system error during transaction")

// ErrEngineClosed is returned for work submitted after shutdown began, and
// for backlog entries cancelled when the shutdown grace period expires.
var ErrEngineClosed = errors.New("transaction engine is closed")

// IsBusiness reports whether err is one of the client-correctable outcomes.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrInsufficientFunds)
}
