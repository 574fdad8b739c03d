package core

// SessionTransport is the session/cookie mechanism the authenticator drives.
// It owns session activation, identifier rotation and the registry of named
// session objects; the authenticator never touches the wire format itself.
type SessionTransport interface {
	// Activate starts the underlying session if it is not already started.
	Activate() error

	IsActive() bool

	// ID returns the current session identifier, or "" when inactive.
	ID() string

	// RegenerateID invalidates the current session identifier and issues a
	// new one. Mitigates session fixation when called on login.
	RegenerateID() (string, error)

	// Register adds a named object to the session. Objects registered with
	// destroyOnLogout are unset by UnsetRegistered.
	Register(name string, value any, destroyOnLogout bool)

	Lookup(name string) (any, bool)

	// UnsetRegistered unsets all objects registered with destroyOnLogout.
	UnsetRegistered()
}

// CookieSink receives the account-identity cookie set on login and removed
// on logout. Hosts without a cookie facility leave it nil; the authenticator
// treats a nil sink as a no-op.
type CookieSink interface {
	Set(name, value string)
	Remove(name string)
}
