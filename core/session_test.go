package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/arkeny/signon/pkg/crypto"
)

func newTestAuthenticator(t *testing.T, accounts *FakeAccountStorage) (*Authenticator, *FakeTransport, *FakeCookieSink) {
	t.Helper()

	transport := NewFakeTransport()
	cookies := NewFakeCookieSink()
	auth := NewAuthenticator(AuthenticatorConfig{
		Accounts:  accounts,
		Passwords: crypto.NewArgon2(),
		Transport: transport,
		Cookies:   cookies,
	})
	return auth, transport, cookies
}

func addAccount(t *testing.T, accounts *FakeAccountStorage, email, password string) *Account {
	t.Helper()

	hash, err := crypto.NewArgon2().Hash(password)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	return accounts.Add(&Account{Email: email, PasswordHash: hash})
}

// Requirement: login with correct credentials binds the account, and login
// with a wrong password or unknown email reports false without an error.
func TestAuthenticator_Login(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		wantLogin  bool
		wantCookie bool
	}{
		{
			name:       "logs in with valid credentials",
			email:      "alice@example.com",
			password:   "SecurePass123!",
			wantLogin:  true,
			wantCookie: true,
		},
		{
			name:      "rejects wrong password",
			email:     "alice@example.com",
			password:  "WrongPassword",
			wantLogin: false,
		},
		{
			name:      "rejects unknown email",
			email:     "nobody@example.com",
			password:  "SecurePass123!",
			wantLogin: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			accounts := NewFakeAccountStorage()
			stored := addAccount(t, accounts, "alice@example.com", "SecurePass123!")
			auth, _, cookies := newTestAuthenticator(t, accounts)

			ok, err := auth.Login(context.Background(), test.email, test.password, RegenerateID)
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if ok != test.wantLogin {
				t.Fatalf("Login() = %v, want %v", ok, test.wantLogin)
			}
			if auth.IsLoggedIn() != test.wantLogin {
				t.Errorf("IsLoggedIn() = %v, want %v", auth.IsLoggedIn(), test.wantLogin)
			}

			if test.wantLogin {
				id, found := auth.AccountID()
				if !found || id != *stored.ID {
					t.Errorf("AccountID() = %v, %v, want %v", id, found, *stored.ID)
				}
				if cookies.Values[AccountCookieName] == "" {
					t.Error("account cookie should be set on login")
				}
				if last := accounts.Stored(*stored.ID).LastLogin; last == nil {
					t.Error("last login timestamp should be recorded")
				} else if last.Location() != time.UTC {
					t.Errorf("last login should be UTC, got %v", last.Location())
				}
			} else {
				if _, found := auth.AccountID(); found {
					t.Error("AccountID() should report absent when not logged in")
				}
			}
		})
	}
}

// Requirement: email login is scoped to the configured instance. Accounts may
// share an email across instances; a nil instance matches only the account
// without one.
func TestAuthenticator_LoginInstanceScope(t *testing.T) {
	acme := "acme"
	umbra := "umbra"

	hash, err := crypto.NewArgon2().Hash("SecurePass123!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	accounts := NewFakeAccountStorage()
	acmeAccount := accounts.Add(&Account{Email: "shared@example.com", PasswordHash: hash, Instance: &acme})
	plainAccount := accounts.Add(&Account{Email: "shared@example.com", PasswordHash: hash})

	tests := []struct {
		name     string
		instance *string
		wantOK   bool
		wantID   int64
	}{
		{
			name:     "scoped login binds the account of its instance",
			instance: &acme,
			wantOK:   true,
			wantID:   *acmeAccount.ID,
		},
		{
			name:     "nil instance binds only the account without one",
			instance: nil,
			wantOK:   true,
			wantID:   *plainAccount.ID,
		},
		{
			name:     "unknown instance matches nothing",
			instance: &umbra,
			wantOK:   false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			auth := NewAuthenticator(AuthenticatorConfig{
				Accounts:  accounts,
				Passwords: crypto.NewArgon2(),
				Transport: NewFakeTransport(),
				Instance:  test.instance,
			})

			lookups := accounts.EmailLookups
			ok, err := auth.Login(context.Background(), "shared@example.com", "SecurePass123!", RegenerateID)
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if ok != test.wantOK {
				t.Fatalf("Login() = %v, want %v", ok, test.wantOK)
			}
			if accounts.EmailLookups != lookups+1 {
				t.Errorf("email lookups = %d, want %d", accounts.EmailLookups, lookups+1)
			}

			if test.wantOK {
				if id, _ := auth.AccountID(); id != test.wantID {
					t.Errorf("bound account = %d, want %d", id, test.wantID)
				}
			}
		})
	}
}

// Requirement: a failed password check never mutates the stored hash; a
// successful check against a legacy hash upgrades it to the current scheme.
func TestAuthenticator_LoginHashUpgrade(t *testing.T) {
	legacyHash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}

	accounts := NewFakeAccountStorage()
	stored := accounts.Add(&Account{Email: "a@example.com", PasswordHash: string(legacyHash)})
	auth, _, _ := newTestAuthenticator(t, accounts)
	passwords := crypto.NewArgon2()

	// Wrong password: stored hash must stay untouched.
	ok, err := auth.Login(context.Background(), "a@example.com", "wrong", RegenerateID)
	if err != nil || ok {
		t.Fatalf("Login() = %v, %v, want false, nil", ok, err)
	}
	if got := accounts.Stored(*stored.ID).PasswordHash; got != string(legacyHash) {
		t.Fatalf("stored hash mutated on failed login: %q", got)
	}

	// Correct password: login succeeds and the hash is re-written with the
	// current scheme.
	ok, err = auth.Login(context.Background(), "a@example.com", "hunter2", RegenerateID)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !ok || !auth.IsLoggedIn() {
		t.Fatal("login with legacy hash should succeed")
	}

	upgraded := accounts.Stored(*stored.ID).PasswordHash
	if passwords.NeedsRehash(upgraded) {
		t.Errorf("stored hash should use the current scheme after login, got %q", upgraded)
	}
	if match, err := passwords.Verify("hunter2", upgraded); err != nil || !match {
		t.Errorf("upgraded hash should verify the original password (match=%v err=%v)", match, err)
	}
}

// Requirement: logging in while already logged in logs the previous account
// out first, so its logout callbacks fire before the new login callbacks.
func TestAuthenticator_LoginReplacesExistingLogin(t *testing.T) {
	accounts := NewFakeAccountStorage()
	accountA := addAccount(t, accounts, "a@example.com", "PassA")
	addAccount(t, accounts, "b@example.com", "PassB")
	auth, _, _ := newTestAuthenticator(t, accounts)

	var order []string
	if err := auth.RegisterLoginCallback(func(params ...any) {
		order = append(order, "login")
	}); err != nil {
		t.Fatalf("RegisterLoginCallback failed: %v", err)
	}
	if err := auth.RegisterLogoutCallback(func(params ...any) {
		order = append(order, "logout")
	}); err != nil {
		t.Fatalf("RegisterLogoutCallback failed: %v", err)
	}

	if ok, err := auth.Login(context.Background(), "b@example.com", "PassB", RegenerateID); err != nil || !ok {
		t.Fatalf("login as b failed: %v, %v", ok, err)
	}
	if ok, err := auth.Login(context.Background(), "a@example.com", "PassA", RegenerateID); err != nil || !ok {
		t.Fatalf("login as a failed: %v, %v", ok, err)
	}

	id, _ := auth.AccountID()
	if id != *accountA.ID {
		t.Errorf("bound account = %d, want %d", id, *accountA.ID)
	}

	want := []string{"login", "logout", "login"}
	if len(order) != len(want) {
		t.Fatalf("callback order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("callback order = %v, want %v", order, want)
		}
	}
}

// Requirement: logout is idempotent and safe to call defensively: callbacks
// run and cookie removal is attempted even when nobody is logged in, and
// destroy-on-logout session objects are unset.
func TestAuthenticator_Logout(t *testing.T) {
	accounts := NewFakeAccountStorage()
	addAccount(t, accounts, "alice@example.com", "SecurePass123!")
	auth, transport, cookies := newTestAuthenticator(t, accounts)

	logoutRuns := 0
	if err := auth.RegisterLogoutCallback(func(params ...any) {
		logoutRuns++
	}); err != nil {
		t.Fatalf("RegisterLogoutCallback failed: %v", err)
	}

	// Defensive logout before anyone logged in.
	auth.Logout()
	if logoutRuns != 1 {
		t.Fatalf("logout callbacks should run when not logged in, runs = %d", logoutRuns)
	}
	if cookies.Removes != 1 {
		t.Fatalf("cookie removal should be attempted, removes = %d", cookies.Removes)
	}

	if ok, err := auth.Login(context.Background(), "alice@example.com", "SecurePass123!", RegenerateID); err != nil || !ok {
		t.Fatalf("login failed: %v, %v", ok, err)
	}
	transport.Register("cart", "three items", true)
	transport.Register("theme", "dark", false)

	auth.Logout()
	if auth.IsLoggedIn() {
		t.Error("should be logged out")
	}
	if _, ok := transport.Lookup("cart"); ok {
		t.Error("destroy-on-logout object should be unset")
	}
	if _, ok := transport.Lookup("theme"); !ok {
		t.Error("persistent object should survive logout")
	}
	if _, ok := auth.AuthenticationToken(); ok {
		t.Error("authentication token should be cleared on logout")
	}

	// Second logout: same observable state, callbacks still run.
	auth.Logout()
	if auth.IsLoggedIn() {
		t.Error("second logout should leave the session logged out")
	}
	if logoutRuns != 3 {
		t.Errorf("logout callbacks runs = %d, want 3", logoutRuns)
	}
}

// Requirement: the session identifier rotates on login by default and stays
// put when rotation is declined.
func TestAuthenticator_SessionIDRotation(t *testing.T) {
	accounts := NewFakeAccountStorage()
	addAccount(t, accounts, "alice@example.com", "SecurePass123!")

	t.Run("rotates by default", func(t *testing.T) {
		auth, transport, _ := newTestAuthenticator(t, accounts)
		if ok, err := auth.Login(context.Background(), "alice@example.com", "SecurePass123!", RegenerateID); err != nil || !ok {
			t.Fatalf("login failed: %v, %v", ok, err)
		}
		if transport.Rotations != 1 {
			t.Errorf("rotations = %d, want 1", transport.Rotations)
		}
	})

	t.Run("keeps identifier when rotation declined", func(t *testing.T) {
		auth, transport, _ := newTestAuthenticator(t, accounts)
		if ok, err := auth.Login(context.Background(), "alice@example.com", "SecurePass123!", false); err != nil || !ok {
			t.Fatalf("login failed: %v, %v", ok, err)
		}
		if transport.Rotations != 0 {
			t.Errorf("rotations = %d, want 0", transport.Rotations)
		}
	})
}

// Requirement: registering a nil callback fails immediately with
// ErrInvalidCallback, before any login or logout occurs.
func TestAuthenticator_RegisterInvalidCallback(t *testing.T) {
	auth, _, _ := newTestAuthenticator(t, NewFakeAccountStorage())

	if err := auth.RegisterLoginCallback(nil); !errors.Is(err, ErrInvalidCallback) {
		t.Errorf("RegisterLoginCallback(nil) = %v, want ErrInvalidCallback", err)
	}
	if err := auth.RegisterLogoutCallback(nil); !errors.Is(err, ErrInvalidCallback) {
		t.Errorf("RegisterLogoutCallback(nil) = %v, want ErrInvalidCallback", err)
	}
}

// Requirement: callbacks receive the parameters bound at registration time.
func TestAuthenticator_CallbackParams(t *testing.T) {
	accounts := NewFakeAccountStorage()
	addAccount(t, accounts, "alice@example.com", "SecurePass123!")
	auth, _, _ := newTestAuthenticator(t, accounts)

	var got []any
	if err := auth.RegisterLoginCallback(func(params ...any) {
		got = params
	}, "audit", 7); err != nil {
		t.Fatalf("RegisterLoginCallback failed: %v", err)
	}

	if ok, err := auth.Login(context.Background(), "alice@example.com", "SecurePass123!", RegenerateID); err != nil || !ok {
		t.Fatalf("login failed: %v, %v", ok, err)
	}

	if len(got) != 2 || got[0] != "audit" || got[1] != 7 {
		t.Errorf("callback params = %v, want [audit 7]", got)
	}
}

// Requirement: an account without a persisted id is never considered logged
// in, even after a LoginByAccount transition.
func TestAuthenticator_LoginByAccountUnsaved(t *testing.T) {
	auth, _, _ := newTestAuthenticator(t, NewFakeAccountStorage())

	ok, err := auth.LoginByAccount(context.Background(), &Account{Email: "ghost@example.com"}, RegenerateID)
	if err != nil {
		t.Fatalf("LoginByAccount() error = %v", err)
	}
	if ok || auth.IsLoggedIn() {
		t.Error("an account with a nil id must not count as logged in")
	}
}

// Requirement: LoginByID resolves by primary identifier without a password
// check, and reports false for unknown ids.
func TestAuthenticator_LoginByID(t *testing.T) {
	accounts := NewFakeAccountStorage()
	stored := addAccount(t, accounts, "alice@example.com", "SecurePass123!")
	auth, _, _ := newTestAuthenticator(t, accounts)

	ok, err := auth.LoginByID(context.Background(), *stored.ID, RegenerateID)
	if err != nil {
		t.Fatalf("LoginByID() error = %v", err)
	}
	if !ok || !auth.IsLoggedIn() {
		t.Error("LoginByID with a known id should log in")
	}

	ok, err = auth.LoginByID(context.Background(), 9999, RegenerateID)
	if err != nil {
		t.Fatalf("LoginByID() error = %v", err)
	}
	if ok {
		t.Error("LoginByID with an unknown id should report false")
	}
}

// Requirement: a failure partway through the login transition unwinds it;
// the error path never leaves a bound account or an account cookie behind.
func TestAuthenticator_LoginUnwindsOnTransitionFailure(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(*FakeAccountStorage, *FakeTransport)
	}{
		{
			name: "session id rotation fails",
			arrange: func(_ *FakeAccountStorage, tr *FakeTransport) {
				tr.RegenerateErr = errors.New("rotation failed")
			},
		},
		{
			name: "last-login write fails",
			arrange: func(acc *FakeAccountStorage, _ *FakeTransport) {
				acc.LastLoginErr = errors.New("connection reset")
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			accounts := NewFakeAccountStorage()
			addAccount(t, accounts, "alice@example.com", "SecurePass123!")
			auth, transport, cookies := newTestAuthenticator(t, accounts)
			test.arrange(accounts, transport)

			_, err := auth.Login(context.Background(), "alice@example.com", "SecurePass123!", RegenerateID)
			if err == nil {
				t.Fatal("Login() should surface the transition failure")
			}
			if auth.IsLoggedIn() {
				t.Error("failed login must not leave the session logged in")
			}
			if _, ok := transport.Lookup(accountObjectName); ok {
				t.Error("failed login must not leave an account bound to the transport")
			}
			if cookies.Values[AccountCookieName] != "" {
				t.Error("failed login must not leave the account cookie set")
			}
		})
	}
}

// Requirement: the login state lives in the session transport, so a fresh
// authenticator built over the same transport observes it.
func TestAuthenticator_StatePersistsAcrossAuthenticators(t *testing.T) {
	accounts := NewFakeAccountStorage()
	stored := addAccount(t, accounts, "alice@example.com", "SecurePass123!")
	auth, transport, _ := newTestAuthenticator(t, accounts)

	if ok, err := auth.Login(context.Background(), "alice@example.com", "SecurePass123!", RegenerateID); err != nil || !ok {
		t.Fatalf("login failed: %v, %v", ok, err)
	}
	auth.SetAuthenticationToken("csrf-token")

	next := NewAuthenticator(AuthenticatorConfig{
		Accounts:  accounts,
		Passwords: crypto.NewArgon2(),
		Transport: transport,
	})
	if !next.IsLoggedIn() {
		t.Fatal("second authenticator over the same transport should see the login")
	}
	if id, _ := next.AccountID(); id != *stored.ID {
		t.Errorf("AccountID() = %d, want %d", id, *stored.ID)
	}
	if token, ok := next.AuthenticationToken(); !ok || token != "csrf-token" {
		t.Errorf("AuthenticationToken() = %q, %v, want csrf-token", token, ok)
	}

	next.Logout()
	if auth.IsLoggedIn() {
		t.Error("logout through one authenticator should log out the session")
	}
}

// Requirement: infrastructure failures surface as errors, not as a false
// login result.
func TestAuthenticator_LoginStorageError(t *testing.T) {
	accounts := NewFakeAccountStorage()
	accounts.GetErr = errors.New("connection refused")
	auth, _, _ := newTestAuthenticator(t, accounts)

	_, err := auth.Login(context.Background(), "alice@example.com", "SecurePass123!", RegenerateID)
	if err == nil {
		t.Fatal("Login() should surface storage errors")
	}
}
