package core

import "errors"

// Authentication errors
var (
	// ErrInvalidCallback is returned when a nil login or logout callback is
	// registered. This is a programmer error and is raised at registration
	// time, before any login or logout occurs.
	ErrInvalidCallback = errors.New("cannot register invalid callback")

	ErrAccountNotFound = errors.New("account not found")
)

// Sign-on exchange errors. CredentialNotFound, TokenNotFound and
// AccountResolution are internal diagnostic detail; callers only ever see
// them wrapped in a SignOnError.
var (
	ErrSignOnFailed       = errors.New("single sign-on failed")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrTokenNotFound      = errors.New("sign-on token not found")
	ErrAccountResolution  = errors.New("account resolution failed")
)

// Cache errors
var (
	ErrCacheNotFound = errors.New("credential not found in cache")
)

// Config errors (server-side configuration)
var (
	ErrAccountStorageRequired    = errors.New("account storage is required")    // 500
	ErrCredentialStorageRequired = errors.New("credential storage is required") // 500
	ErrTokenStorageRequired      = errors.New("token storage is required")      // 500
	ErrAccountResolverRequired   = errors.New("account resolver is required")   // 500
)

// SignOnError is the single failure surfaced by a sign-on exchange. Which
// stage failed (credential lookup, token lookup, account resolution) is
// deliberately not distinguishable from the error message, so a caller
// probing the endpoint cannot tell a consumed token from one that never
// existed. The wrapped cause is available for logs via errors.Is/Unwrap.
type SignOnError struct {
	cause error
}

func (e *SignOnError) Error() string { return ErrSignOnFailed.Error() }

func (e *SignOnError) Unwrap() error { return e.cause }

func (e *SignOnError) Is(target error) bool { return target == ErrSignOnFailed }

func signOnFailed(cause error) *SignOnError {
	return &SignOnError{cause: cause}
}
