package accounts

import "errors"

// ErrAccountNotFound is returned when no active account matches a lookup.
// Archived accounts are reported the same way.
var ErrAccountNotFound = errors.New("account not found")
