package core

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/arkeny/signon/pkg/crypto"
)

// AccountCookieName is the account-identity cookie set on login and removed
// on logout.
const AccountCookieName = "account_id"

// RegenerateID is the default for the regenerateID argument of the login
// methods. Pass false only when identifier rotation is handled elsewhere.
const RegenerateID = true

// Names under which the authenticator registers its own session objects.
// Hosts must not register objects under these names.
const (
	accountObjectName   = "signon.account"
	authTokenObjectName = "signon.auth_token"
)

// Callback is a login or logout hook. Parameters are bound at registration
// time and passed back on every invocation. Callbacks return nothing and
// cannot abort the operation that triggered them.
type Callback func(params ...any)

type registeredCallback struct {
	fn     Callback
	params []any
}

// AuthenticatorConfig collects the collaborators of an Authenticator.
// Accounts, Passwords and Transport are required; the rest are optional.
type AuthenticatorConfig struct {
	Accounts  AccountStorage
	Passwords crypto.PasswordHandler
	Transport SessionTransport

	Cookies  CookieSink
	Instance *string // multi-tenant discriminator for email lookup
	Logger   *slog.Logger
	Now      func() time.Time // clock override for tests
}

// Authenticator owns the login/logout state machine for one session. The
// bound account lives in the transport, not in the Authenticator, so hosts
// may build a fresh Authenticator per request over the same transport and
// still observe the session's login state.
type Authenticator struct {
	accounts  AccountStorage
	passwords crypto.PasswordHandler
	transport SessionTransport
	cookies   CookieSink
	instance  *string
	logger    *slog.Logger
	now       func() time.Time

	loginCallbacks  []registeredCallback
	logoutCallbacks []registeredCallback
}

func NewAuthenticator(cfg AuthenticatorConfig) *Authenticator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	passwords := cfg.Passwords
	if passwords == nil {
		passwords = crypto.NewArgon2()
	}

	return &Authenticator{
		accounts:  cfg.Accounts,
		passwords: passwords,
		transport: cfg.Transport,
		cookies:   cfg.Cookies,
		instance:  cfg.Instance,
		logger:    logger,
		now:       now,
	}
}

// Login logs the current session into the account matching email within the
// configured instance scope. A wrong password or an unknown email yields
// (false, nil); errors are reserved for storage and hashing failures.
//
// On successful verification against a legacy-scheme hash, the password is
// transparently re-hashed with the current scheme and persisted before the
// login completes. This never happens on a failed verification.
func (a *Authenticator) Login(ctx context.Context, email, password string, regenerateID bool) (bool, error) {
	if a.IsLoggedIn() {
		a.Logout()
	}

	account, err := a.accounts.GetByEmail(ctx, email, a.instance)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			a.logger.DebugContext(ctx, "login rejected: unknown email", "email", email)
			return false, nil
		}
		return false, err
	}

	ok, err := a.passwords.Verify(password, account.PasswordHash)
	if err != nil {
		return false, err
	}
	if !ok {
		a.logger.DebugContext(ctx, "login rejected: password mismatch", "email", email)
		return false, nil
	}

	if a.passwords.NeedsRehash(account.PasswordHash) {
		hash, err := a.passwords.Hash(password)
		if err != nil {
			return false, err
		}
		account.PasswordHash = hash
		if err := a.accounts.Update(ctx, account); err != nil {
			return false, err
		}
		a.logger.DebugContext(ctx, "password hash upgraded to current scheme", "email", email)
	}

	if err := a.bind(ctx, account, regenerateID); err != nil {
		return false, err
	}

	return a.IsLoggedIn(), nil
}

// LoginByID performs the login transition for the account with the given
// primary identifier, without a password check. For trusted internal flows.
func (a *Authenticator) LoginByID(ctx context.Context, id int64, regenerateID bool) (bool, error) {
	if a.IsLoggedIn() {
		a.Logout()
	}

	account, err := a.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := a.bind(ctx, account, regenerateID); err != nil {
		return false, err
	}

	return a.IsLoggedIn(), nil
}

// LoginByAccount performs the login transition for an already-resolved
// account. No credential check is made; the caller is responsible for having
// authenticated the account by other means. The sign-on exchange uses this.
func (a *Authenticator) LoginByAccount(ctx context.Context, account *Account, regenerateID bool) (bool, error) {
	if a.IsLoggedIn() {
		a.Logout()
	}

	if err := a.bind(ctx, account, regenerateID); err != nil {
		return false, err
	}

	return a.IsLoggedIn(), nil
}

// bind is the shared tail of every login path: activate the session, bind
// the account, optionally rotate the session identifier, synchronize the
// account cookie, run login callbacks in registration order and record the
// UTC login timestamp. A failure after the account is bound unwinds through
// Logout so the error path never leaves a half-logged-in session.
func (a *Authenticator) bind(ctx context.Context, account *Account, regenerateID bool) error {
	if err := a.transport.Activate(); err != nil {
		return err
	}

	a.transport.Register(accountObjectName, account, true)

	if regenerateID {
		if _, err := a.transport.RegenerateID(); err != nil {
			a.Logout()
			return err
		}
	}

	a.setAccountCookie()
	a.runLoginCallbacks()

	now := a.now().UTC()
	account.LastLogin = &now
	if account.ID != nil {
		if err := a.accounts.UpdateLastLogin(ctx, *account.ID, now); err != nil {
			a.Logout()
			return err
		}
	}

	a.logger.DebugContext(ctx, "session logged in",
		"account_id", account.ID, "session_id", a.transport.ID())

	return nil
}

// Logout logs the current user out. It is safe to call defensively: when no
// session is active it still runs logout callbacks and removes the account
// cookie, so hosts can use it to clear registered state unconditionally.
func (a *Authenticator) Logout() {
	// Check IsActive instead of IsLoggedIn because logout is also used to
	// clear registered session objects when nobody is logged in. The bound
	// account and authentication token are destroy-on-logout objects, so
	// UnsetRegistered removes them along with the host's own.
	if a.transport.IsActive() {
		a.transport.UnsetRegistered()
	}

	a.runLogoutCallbacks()
	a.removeAccountCookie()
}

// IsLoggedIn reports whether the session is active with a persisted account
// bound to it.
func (a *Authenticator) IsLoggedIn() bool {
	if !a.transport.IsActive() {
		return false
	}

	account := a.boundAccount()
	if account == nil {
		return false
	}

	return account.ID != nil
}

// AccountID returns the bound account id, or false when not logged in.
func (a *Authenticator) AccountID() (int64, bool) {
	if !a.IsLoggedIn() {
		return 0, false
	}

	return *a.boundAccount().ID, true
}

// Account returns the bound account, or nil when not logged in.
func (a *Authenticator) Account() *Account {
	if !a.IsLoggedIn() {
		return nil
	}

	return a.boundAccount()
}

// boundAccount reads the account registered on the transport, if any.
func (a *Authenticator) boundAccount() *Account {
	v, ok := a.transport.Lookup(accountObjectName)
	if !ok {
		return nil
	}

	account, ok := v.(*Account)
	if !ok {
		return nil
	}

	return account
}

// AuthenticationToken returns the CSRF-style token bound to this session, if
// one has been set. This token is distinct from sign-on tokens; form layers
// restore it on session start and it is cleared on logout.
func (a *Authenticator) AuthenticationToken() (string, bool) {
	v, ok := a.transport.Lookup(authTokenObjectName)
	if !ok {
		return "", false
	}

	token, ok := v.(string)
	return token, ok
}

func (a *Authenticator) SetAuthenticationToken(token string) {
	a.transport.Register(authTokenObjectName, token, true)
}

// RegisterLoginCallback appends a callback run after every successful login,
// in registration order. A nil callback is rejected with ErrInvalidCallback
// immediately, before any login occurs.
func (a *Authenticator) RegisterLoginCallback(cb Callback, params ...any) error {
	if cb == nil {
		return ErrInvalidCallback
	}

	a.loginCallbacks = append(a.loginCallbacks, registeredCallback{fn: cb, params: params})
	return nil
}

// RegisterLogoutCallback appends a callback run on every logout, in
// registration order. A nil callback is rejected with ErrInvalidCallback.
func (a *Authenticator) RegisterLogoutCallback(cb Callback, params ...any) error {
	if cb == nil {
		return ErrInvalidCallback
	}

	a.logoutCallbacks = append(a.logoutCallbacks, registeredCallback{fn: cb, params: params})
	return nil
}

func (a *Authenticator) runLoginCallbacks() {
	for _, cb := range a.loginCallbacks {
		cb.fn(cb.params...)
	}
}

func (a *Authenticator) runLogoutCallbacks() {
	for _, cb := range a.logoutCallbacks {
		cb.fn(cb.params...)
	}
}

func (a *Authenticator) setAccountCookie() {
	if a.cookies == nil {
		return
	}

	if id, ok := a.AccountID(); ok {
		a.cookies.Set(AccountCookieName, strconv.FormatInt(id, 10))
	}
}

func (a *Authenticator) removeAccountCookie() {
	if a.cookies == nil {
		return
	}

	a.cookies.Remove(AccountCookieName)
}
