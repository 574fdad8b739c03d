package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// AccountResolver maps a validated sign-on token to the account it signs in.
// The token-to-account mapping is domain-specific; hosts inject it.
type AccountResolver func(ctx context.Context, token *SignOnToken) (*Account, error)

// Request carries the protocol inputs of one sign-on exchange: the three
// query parameters and the HTTP method of the inbound request.
type Request struct {
	Ident  string // "id" query parameter: opaque subject reference
	Key    string // "key" query parameter: credential API key
	Token  string // "token" query parameter: single-use secret
	Method string // inbound HTTP method, e.g. http.MethodGet
}

// ExchangeConfig collects the collaborators of an Exchange. Credentials,
// Tokens and ResolveAccount are required.
type ExchangeConfig struct {
	Credentials    CredentialStorage
	Tokens         TokenStorage
	ResolveAccount AccountResolver

	CredentialCache Cache // optional
	Logger          *slog.Logger
}

// Exchange validates and consumes one inbound token-based sign-on request,
// then authenticates the resulting account into the caller's session.
//
// Token consumption is method-sensitive: the token is deleted only when the
// inbound method is GET, never for a HEAD probe, so browsers that issue a
// HEAD immediately before the real GET do not burn the token early. This
// treats the HTTP method as the sole idempotency signal, which is a
// transport heuristic: a client overriding methods or using another
// idempotent verb bypasses it.
type Exchange struct {
	credentials CredentialStorage
	tokens      TokenStorage
	resolve     AccountResolver
	cache       Cache
	logger      *slog.Logger
}

func NewExchange(cfg ExchangeConfig) *Exchange {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Exchange{
		credentials: cfg.Credentials,
		tokens:      cfg.Tokens,
		resolve:     cfg.ResolveAccount,
		cache:       cfg.CredentialCache,
		logger:      logger,
	}
}

// SignOn runs one exchange: resolve the credential, resolve (and on GET
// consume) the token, resolve the account, then force-logout and log the
// account into auth's session. The signed-in account is returned so the
// caller can pick the post-login destination.
//
// Every resolution failure is terminal and surfaces as a *SignOnError; the
// failed stage is logged but not exposed.
func (e *Exchange) SignOn(ctx context.Context, req Request, auth *Authenticator) (*Account, error) {
	cred, err := e.credential(ctx, req.Key)
	if err != nil {
		e.logger.WarnContext(ctx, "sign-on failed", "stage", "credential", "key", req.Key, "error", err)
		return nil, signOnFailed(err)
	}

	consume := req.Method == http.MethodGet

	token, err := e.tokens.GetSignOnToken(ctx, req.Ident, req.Token, cred, consume)
	if err != nil {
		e.logger.WarnContext(ctx, "sign-on failed", "stage", "token", "ident", req.Ident, "error", err)
		return nil, signOnFailed(err)
	}

	account, err := e.resolve(ctx, token)
	if err != nil {
		e.logger.WarnContext(ctx, "sign-on failed", "stage", "account", "ident", req.Ident, "error", err)
		return nil, signOnFailed(fmt.Errorf("%w: %w", ErrAccountResolution, err))
	}
	if account == nil || account.ID == nil {
		e.logger.WarnContext(ctx, "sign-on failed", "stage", "account", "ident", req.Ident)
		return nil, signOnFailed(ErrAccountResolution)
	}

	auth.Logout()
	if _, err := auth.LoginByAccount(ctx, account, RegenerateID); err != nil {
		return nil, signOnFailed(err)
	}

	e.logger.InfoContext(ctx, "sign-on exchange completed",
		"account_id", *account.ID, "credential", cred.Title, "consumed", consume)

	return account, nil
}

// CacheStats reports the credential cache counters. The second return is
// false when no cache is configured or the cache does not track stats.
func (e *Exchange) CacheStats() (CacheStats, bool) {
	c, ok := e.cache.(CacheWithStats)
	if !ok {
		return CacheStats{}, false
	}
	return c.Stats(), true
}

func (e *Exchange) credential(ctx context.Context, apiKey string) (*Credential, error) {
	if e.cache != nil {
		if cred, err := e.cache.Get(apiKey); err == nil && cred != nil {
			return cred, nil
		}
	}

	cred, err := e.credentials.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		_ = e.cache.Set(apiKey, cred)
	}

	return cred, nil
}
