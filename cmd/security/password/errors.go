package password

import (
	"errors"
	"fmt"
)

// ErrHashing is the umbrella kind for server-side hashing failures.
// Callers map it to a 500; it is never a "wrong password" signal.
var ErrHashing = errors.New("password hashing failed")

// Public, stable errors for callers.
var (
	ErrInvalidHash  = fmt.Errorf("%w: invalid password hash", ErrHashing)
	ErrInputTooLong = errors.New("password input too long")
)
