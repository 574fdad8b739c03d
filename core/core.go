package core

import (
	"log/slog"
	"time"

	"github.com/arkeny/signon/pkg/crypto"
)

type Config struct {
	Accounts       AccountStorage
	Credentials    CredentialStorage
	Tokens         TokenStorage
	ResolveAccount AccountResolver

	// Optional config
	Cookies         CookieSink
	Passwords       crypto.PasswordHandler
	Instance        *string // multi-tenant discriminator for email login
	CredentialCache Cache
	DisableCache    bool
	Logger          *slog.Logger
	Now             func() time.Time
}

// Signon bundles the configured exchange with the shared collaborators
// needed to build per-session authenticators.
type Signon struct {
	Exchange  *Exchange
	Accounts  AccountStorage
	Passwords crypto.PasswordHandler
	Cookies   CookieSink
	Instance  *string
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewAuthenticator builds the login/logout state machine for one session.
// The transport is the host's session mechanism for the current client;
// hosts typically call this once per inbound request.
func (s *Signon) NewAuthenticator(transport SessionTransport) *Authenticator {
	return NewAuthenticator(AuthenticatorConfig{
		Accounts:  s.Accounts,
		Passwords: s.Passwords,
		Transport: transport,
		Cookies:   s.Cookies,
		Instance:  s.Instance,
		Logger:    s.Logger,
		Now:       s.Now,
	})
}
