package token

import (
	"errors"
	"fmt"
)

// Public, stable errors for callers.
var (
	ErrSecretMissing  = errors.New("token secret missing")
	ErrSecretTooShort = errors.New("token secret too short")
	ErrConfig         = errors.New("invalid token config")
)

// Kind classifies why a token failed verification.
type Kind string

const (
	KindMalformed     Kind = "malformed"
	KindBadSignature  Kind = "bad-signature"
	KindExpired       Kind = "expired"
	KindInvalidClaims Kind = "invalid-claims"
)

// Sentinels matched by errors.Is against a *VerificationError of the same kind.
var (
	ErrMalformed     = &VerificationError{Kind: KindMalformed}
	ErrBadSignature  = &VerificationError{Kind: KindBadSignature}
	ErrExpired       = &VerificationError{Kind: KindExpired}
	ErrInvalidClaims = &VerificationError{Kind: KindInvalidClaims}
)

// VerificationError is returned by Manager.Verify for every rejected token.
// Cause is for server-side logs only; it must not reach clients.
type VerificationError struct {
	Kind  Kind
	Cause error
}

func (e *VerificationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("token verification failed: %s", e.Kind)
	}
	return fmt.Sprintf("token verification failed: %s: %v", e.Kind, e.Cause)
}

func (e *VerificationError) Unwrap() error { return e.Cause }

// Is reports kind equality so callers can write errors.Is(err, token.ErrExpired).
func (e *VerificationError) Is(target error) bool {
	t, ok := target.(*VerificationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the verification kind of err, or "" if err is not a VerificationError.
func KindOf(err error) Kind {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}
