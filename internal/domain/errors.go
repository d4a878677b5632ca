package domain

import "errors"

// ErrAccountNotFound is returned by ledger stores when an IBAN does not
// resolve to a stored account.
var ErrAccountNotFound = errors.New("account not found")
