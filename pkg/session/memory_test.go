package session

import (
	"errors"
	"testing"
)

func TestMemory_Activate(t *testing.T) {
	m := NewMemory()

	if m.IsActive() {
		t.Fatal("new transport should be inactive")
	}
	if m.ID() != "" {
		t.Fatal("inactive transport should have no identifier")
	}

	if err := m.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if !m.IsActive() {
		t.Fatal("transport should be active after Activate")
	}

	first := m.ID()
	if first == "" {
		t.Fatal("active transport should have an identifier")
	}

	// Activating again keeps the current identifier.
	if err := m.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if m.ID() != first {
		t.Error("re-activation should not change the identifier")
	}
}

func TestMemory_RegenerateID(t *testing.T) {
	m := NewMemory()

	if _, err := m.RegenerateID(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("RegenerateID() on inactive transport = %v, want ErrNotActive", err)
	}

	if err := m.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	old := m.ID()

	fresh, err := m.RegenerateID()
	if err != nil {
		t.Fatalf("RegenerateID() error = %v", err)
	}
	if fresh == old {
		t.Error("RegenerateID() should issue a new identifier")
	}
	if m.ID() != fresh {
		t.Error("ID() should report the regenerated identifier")
	}
}

func TestMemory_RegisteredObjects(t *testing.T) {
	m := NewMemory()

	m.Register("cart", "three items", true)
	m.Register("theme", "dark", false)

	if v, ok := m.Lookup("cart"); !ok || v != "three items" {
		t.Errorf("Lookup(cart) = %v, %v", v, ok)
	}

	m.UnsetRegistered()

	if _, ok := m.Lookup("cart"); ok {
		t.Error("destroy-on-logout object should be unset")
	}
	if _, ok := m.Lookup("theme"); !ok {
		t.Error("persistent object should survive UnsetRegistered")
	}
}
