package core

import "errors"

// ErrNotFound is returned by DbClient lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by CreateUser when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")
