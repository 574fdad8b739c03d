// Package session provides an in-process implementation of the
// core.SessionTransport port, for tests, examples and single-process hosts.
// Production hosts usually adapt their own cookie/session middleware instead.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/arkeny/signon/core"
)

var ErrNotActive = errors.New("session is not active")

type registeredObject struct {
	value           any
	destroyOnLogout bool
}

// Memory holds the session state of one client in process memory.
type Memory struct {
	mu      sync.RWMutex
	active  bool
	id      string
	objects map[string]registeredObject
}

var _ core.SessionTransport = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]registeredObject)}
}

// Activate starts the session on first use. Activating an already active
// session is a no-op and keeps the current identifier.
func (m *Memory) Activate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return nil
	}

	m.active = true
	m.id = uuid.NewString()
	return nil
}

func (m *Memory) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

func (m *Memory) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id
}

// RegenerateID issues a fresh session identifier, invalidating the old one.
func (m *Memory) RegenerateID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return "", ErrNotActive
	}

	m.id = uuid.NewString()
	return m.id, nil
}

func (m *Memory) Register(name string, value any, destroyOnLogout bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[name] = registeredObject{value: value, destroyOnLogout: destroyOnLogout}
}

func (m *Memory) Lookup(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[name]
	if !ok {
		return nil, false
	}
	return obj.value, true
}

// UnsetRegistered drops all objects registered with destroyOnLogout.
func (m *Memory) UnsetRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, obj := range m.objects {
		if obj.destroyOnLogout {
			delete(m.objects, name)
		}
	}
}
