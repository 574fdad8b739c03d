package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arkeny/signon/pkg/crypto"
)

// Test-only fakes implementing the storage and transport ports. They store
// records in maps and expose error fields for behavior injection, so tests
// can simulate backend failures without a real database.

type FakeAccountStorage struct {
	mu       sync.RWMutex
	accounts map[int64]*Account
	nextID   int64

	GetErr       error
	UpdateErr    error
	LastLoginErr error

	EmailLookups int // number of GetByEmail calls
}

func NewFakeAccountStorage() *FakeAccountStorage {
	return &FakeAccountStorage{accounts: make(map[int64]*Account), nextID: 1}
}

// Add persists an account copy and assigns it an id.
func (f *FakeAccountStorage) Add(a *Account) *Account {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	stored := *a
	stored.ID = &id
	f.accounts[id] = &stored
	return &stored
}

func (f *FakeAccountStorage) GetByEmail(ctx context.Context, email string, instance *string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.EmailLookups++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	for _, a := range f.accounts {
		if a.Email == email && equalInstance(a.Instance, instance) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (f *FakeAccountStorage) GetByID(ctx context.Context, id int64) (*Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.GetErr != nil {
		return nil, f.GetErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *FakeAccountStorage) Update(ctx context.Context, a *Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if a.ID == nil {
		return ErrAccountNotFound
	}
	if _, ok := f.accounts[*a.ID]; !ok {
		return ErrAccountNotFound
	}
	stored := *a
	f.accounts[*a.ID] = &stored
	return nil
}

func (f *FakeAccountStorage) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.LastLoginErr != nil {
		return f.LastLoginErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.LastLogin = &at
	return nil
}

// Stored returns the persisted record for id, bypassing error injection.
func (f *FakeAccountStorage) Stored(id int64) *Account {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.accounts[id]
}

func equalInstance(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type FakeCredentialStorage struct {
	mu          sync.RWMutex
	credentials map[string]*Credential

	GetErr  error
	Lookups int // number of GetByAPIKey calls
}

func NewFakeCredentialStorage() *FakeCredentialStorage {
	return &FakeCredentialStorage{credentials: make(map[string]*Credential)}
}

func (f *FakeCredentialStorage) Add(c *Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentials[c.APIKey] = c
}

func (f *FakeCredentialStorage) GetByAPIKey(ctx context.Context, apiKey string) (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Lookups++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	c, ok := f.credentials[apiKey]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return c, nil
}

type FakeTokenStorage struct {
	mu     sync.Mutex
	tokens map[string]*SignOnToken

	GetErr error
}

func NewFakeTokenStorage() *FakeTokenStorage {
	return &FakeTokenStorage{tokens: make(map[string]*SignOnToken)}
}

func (f *FakeTokenStorage) Add(t *SignOnToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[fakeTokenKey(t.CredentialID, t.Ident, t.Token)] = t
}

// GetSignOnToken holds the lock across the lookup and the delete, matching
// the atomic check-and-invalidate the port requires of real backends.
func (f *FakeTokenStorage) GetSignOnToken(ctx context.Context, ident, token string, cred *Credential, consume bool) (*SignOnToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetErr != nil {
		return nil, f.GetErr
	}

	key := fakeTokenKey(cred.ID, ident, token)
	t, ok := f.tokens[key]
	if !ok || t.Expired(time.Now()) {
		return nil, ErrTokenNotFound
	}
	if consume {
		delete(f.tokens, key)
	}
	return t, nil
}

func (f *FakeTokenStorage) IssueSignOnToken(ctx context.Context, ident string, cred *Credential, ttl time.Duration) (*SignOnToken, error) {
	secret, err := crypto.GenerateToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	t := &SignOnToken{
		Ident:        ident,
		Token:        secret,
		CredentialID: cred.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if ttl > 0 {
		at := t.CreatedAt.Add(ttl)
		t.ExpiresAt = &at
	}

	f.Add(t)
	return t, nil
}

func fakeTokenKey(credentialID int64, ident, token string) string {
	return fmt.Sprintf("%d:%s:%s", credentialID, ident, token)
}

// FakeTransport is an in-memory SessionTransport that counts identifier
// rotations.
type FakeTransport struct {
	Active        bool
	CurrentID     string
	Rotations     int
	ActivateErr   error
	RegenerateErr error

	objects map[string]fakeObject
}

type fakeObject struct {
	value           any
	destroyOnLogout bool
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{objects: make(map[string]fakeObject)}
}

func (f *FakeTransport) Activate() error {
	if f.ActivateErr != nil {
		return f.ActivateErr
	}
	if !f.Active {
		f.Active = true
		f.CurrentID = fmt.Sprintf("session-%d", f.Rotations)
	}
	return nil
}

func (f *FakeTransport) IsActive() bool { return f.Active }

func (f *FakeTransport) ID() string { return f.CurrentID }

func (f *FakeTransport) RegenerateID() (string, error) {
	if f.RegenerateErr != nil {
		return "", f.RegenerateErr
	}
	f.Rotations++
	f.CurrentID = fmt.Sprintf("session-%d", f.Rotations)
	return f.CurrentID, nil
}

func (f *FakeTransport) Register(name string, value any, destroyOnLogout bool) {
	f.objects[name] = fakeObject{value: value, destroyOnLogout: destroyOnLogout}
}

func (f *FakeTransport) Lookup(name string) (any, bool) {
	obj, ok := f.objects[name]
	if !ok {
		return nil, false
	}
	return obj.value, true
}

func (f *FakeTransport) UnsetRegistered() {
	for name, obj := range f.objects {
		if obj.destroyOnLogout {
			delete(f.objects, name)
		}
	}
}

// FakeCookieSink records cookie operations in order.
type FakeCookieSink struct {
	Values  map[string]string
	Removes int
}

func NewFakeCookieSink() *FakeCookieSink {
	return &FakeCookieSink{Values: make(map[string]string)}
}

func (f *FakeCookieSink) Set(name, value string) {
	f.Values[name] = value
}

func (f *FakeCookieSink) Remove(name string) {
	delete(f.Values, name)
	f.Removes++
}
