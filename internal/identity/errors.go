package identity

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes why a token could not be resolved to an identity.
type ErrorKind string

const (
	KindMissingToken       ErrorKind = "missing_token"
	KindInvalidAudience    ErrorKind = "invalid_audience"
	KindVerificationFailed ErrorKind = "verification_failed"
)

// AuthError is returned by Verify. Err holds the underlying cause for
// operator logs; it must not be sent to callers.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("identity %s", e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind, so callers can write
// errors.Is(err, identity.ErrInvalidAudience).
func (e *AuthError) Is(target error) bool {
	var t *AuthError
	if !errors.As(target, &t) {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

// Kind-only sentinels for errors.Is.
var (
	ErrMissingToken       = &AuthError{Kind: KindMissingToken}
	ErrInvalidAudience    = &AuthError{Kind: KindInvalidAudience}
	ErrVerificationFailed = &AuthError{Kind: KindVerificationFailed}
)

func newAuthError(kind ErrorKind, cause error) *AuthError {
	return &AuthError{Kind: kind, Err: cause}
}

// KindOf returns the AuthError kind in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
