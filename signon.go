// Package signon implements session-based account authentication with a
// single-use token sign-on exchange, letting a trusted external caller
// authenticate a user into a web session without re-entering credentials.
package signon

import (
	"time"

	"github.com/arkeny/signon/core"
	"github.com/arkeny/signon/pkg/cache"
	"github.com/arkeny/signon/pkg/crypto"
)

// interfaces
type (
	AccountStorage    = core.AccountStorage
	CredentialStorage = core.CredentialStorage
	TokenStorage      = core.TokenStorage
	TokenIssuer       = core.TokenIssuer
	Cache             = core.Cache
	CacheWithStats    = core.CacheWithStats

	SessionTransport = core.SessionTransport
	CookieSink       = core.CookieSink

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	Signon              = core.Signon
	Config              = core.Config
	Authenticator       = core.Authenticator
	AuthenticatorConfig = core.AuthenticatorConfig
	Exchange            = core.Exchange
	Request             = core.Request
	CacheConfig         = core.CacheConfig
	CacheStats          = core.CacheStats
	SignOnError         = core.SignOnError
)

type (
	Account     = core.Account
	Credential  = core.Credential
	SignOnToken = core.SignOnToken
	Callback    = core.Callback

	AccountResolver = core.AccountResolver
)

const (
	AccountCookieName = core.AccountCookieName
	RegenerateID      = core.RegenerateID
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache = cache.NewInMemoryCache
	NewArgon2        = crypto.NewArgon2
	NewAuthenticator = core.NewAuthenticator
	NewExchange      = core.NewExchange
)

var (
	ErrInvalidCallback = core.ErrInvalidCallback
	ErrAccountNotFound = core.ErrAccountNotFound
)

var (
	ErrSignOnFailed       = core.ErrSignOnFailed
	ErrCredentialNotFound = core.ErrCredentialNotFound
	ErrTokenNotFound      = core.ErrTokenNotFound
	ErrAccountResolution  = core.ErrAccountResolution
	ErrCacheNotFound      = core.ErrCacheNotFound
)

var (
	ErrAccountStorageRequired    = core.ErrAccountStorageRequired
	ErrCredentialStorageRequired = core.ErrCredentialStorageRequired
	ErrTokenStorageRequired      = core.ErrTokenStorageRequired
	ErrAccountResolverRequired   = core.ErrAccountResolverRequired
)

func New(config Config) (*Signon, error) {
	if config.Accounts == nil {
		return nil, ErrAccountStorageRequired
	}
	if config.Credentials == nil {
		return nil, ErrCredentialStorageRequired
	}
	if config.Tokens == nil {
		return nil, ErrTokenStorageRequired
	}
	if config.ResolveAccount == nil {
		return nil, ErrAccountResolverRequired
	}

	// Set Defaults

	credentialCache := config.CredentialCache
	if credentialCache == nil && !config.DisableCache {
		credentialCache = cache.NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	passwordHasher := config.Passwords
	if passwordHasher == nil {
		passwordHasher = crypto.NewArgon2()
	}

	exchange := core.NewExchange(core.ExchangeConfig{
		Credentials:     config.Credentials,
		Tokens:          config.Tokens,
		ResolveAccount:  config.ResolveAccount,
		CredentialCache: credentialCache,
		Logger:          config.Logger,
	})

	return &Signon{
		Exchange:  exchange,
		Accounts:  config.Accounts,
		Passwords: passwordHasher,
		Cookies:   config.Cookies,
		Instance:  config.Instance,
		Logger:    config.Logger,
		Now:       config.Now,
	}, nil
}
