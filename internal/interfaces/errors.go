package interfaces

import "errors"

// ErrAccountMissing is returned by store implementations when a referenced
// account does not exist. Callers translate it to their own not-found error;
// any other store error is treated as an infrastructure fault.
var ErrAccountMissing = errors.New("account missing in store")

// ErrStoreClosed is returned when a session is requested after Close.
var ErrStoreClosed = errors.New("ledger store is closed")
