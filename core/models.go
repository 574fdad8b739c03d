package core

import "time"

// Account is the identity a session logs into.
//
// ID is nil until the account has been persisted; an account with a nil ID
// is never considered logged in.
type Account struct {
	ID           *int64     `json:"id,omitempty"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	Instance     *string    `json:"instance,omitempty"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"` // UTC
}

// Credential identifies an external caller entitled to perform sign-on
// exchanges. Credentials are created and managed outside this library;
// the core only ever reads them.
type Credential struct {
	ID           int64  `json:"id"`
	APIKey       string `json:"apiKey"`
	SharedSecret string `json:"-"` // Never expose in JSON
	Title        string `json:"title"`
}

// SignOnToken is a single-use proof that the owning credential authorized
// the subject named by Ident to be signed in. Tokens are consumed (deleted)
// exactly once, on the first consuming retrieval.
type SignOnToken struct {
	Ident        string     `json:"ident"`
	Token        string     `json:"-"` // Never expose in JSON
	CredentialID int64      `json:"credentialId"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the token carries an expiry in the past.
func (t *SignOnToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
