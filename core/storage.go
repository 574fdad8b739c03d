package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies. Storage implementations
// live in the adapters packages; anything satisfying these contracts works.

// AccountStorage defines account-related database operations.
type AccountStorage interface {
	// GetByEmail loads an account by email, scoped to a multi-tenant
	// instance. A nil instance matches accounts without one.
	GetByEmail(ctx context.Context, email string, instance *string) (*Account, error)

	GetByID(ctx context.Context, id int64) (*Account, error)

	// Update persists mutable account fields (notably the password hash
	// after a transparent scheme upgrade).
	Update(ctx context.Context, a *Account) error

	// UpdateLastLogin records the given UTC timestamp as the account's
	// most recent login.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// CredentialStorage resolves API callers. Not-found is ErrCredentialNotFound.
type CredentialStorage interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*Credential, error)
}

// TokenStorage resolves and invalidates single-use sign-on tokens.
type TokenStorage interface {
	// GetSignOnToken loads the token matching (ident, token, credential).
	// Not-found is ErrTokenNotFound; a consumed token is indistinguishable
	// from one that never existed.
	//
	// When consume is true the load and the delete MUST be one atomic
	// storage operation (compare-and-delete or equivalent). Two concurrent
	// consuming loads of the same token must not both succeed.
	GetSignOnToken(ctx context.Context, ident, token string, cred *Credential, consume bool) (*SignOnToken, error)
}

// TokenIssuer is the writer side of TokenStorage, used by the trusted caller
// that mints sign-on tokens. The core protocol never issues tokens; both
// bundled adapters implement this for hosts that run the issuing side too.
type TokenIssuer interface {
	// IssueSignOnToken stores a new single-use token for ident under the
	// given credential and returns it with the generated secret. A zero ttl
	// means no expiry.
	IssueSignOnToken(ctx context.Context, ident string, cred *Credential, ttl time.Duration) (*SignOnToken, error)
}
