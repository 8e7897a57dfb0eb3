package chat

import (
	"testing"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

func TestRegistryRegisterLookup(t *testing.T) {
	r := NewRegistry()
	identity := models.Entity{ID: 42, Type: models.EntityUser}

	r.Register("conn-1", identity)

	got, ok := r.Lookup("conn-1")
	if !ok {
		t.Fatal("expected conn-1 to be registered")
	}
	if got != identity {
		t.Fatalf("expected %v, got %v", identity, got)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 connection, got %d", r.Len())
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup("nope"); ok {
		t.Fatal("expected lookup of unknown conn to fail")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("conn-1", models.Entity{ID: 1, Type: models.EntityUser})

	r.Unregister("conn-1")
	r.Unregister("conn-1") // second call is a no-op
	r.Unregister("never-registered")

	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
	if _, ok := r.Lookup("conn-1"); ok {
		t.Fatal("expected conn-1 to be gone")
	}
}

func TestRegistryMultipleConnectionsSameIdentity(t *testing.T) {
	r := NewRegistry()
	identity := models.Entity{ID: 7, Type: models.EntityUser}

	// Same user on two devices: two connections, two entries.
	r.Register("conn-a", identity)
	r.Register("conn-b", identity)

	if r.Len() != 2 {
		t.Fatalf("expected 2 connections, got %d", r.Len())
	}

	r.Unregister("conn-a")
	if _, ok := r.Lookup("conn-b"); !ok {
		t.Fatal("unregistering conn-a must not affect conn-b")
	}
}

func TestRegistryOrgIdentity(t *testing.T) {
	r := NewRegistry()
	org := models.Entity{ID: 3, Type: models.EntityOrg}

	r.Register("conn-org", org)

	got, ok := r.Lookup("conn-org")
	if !ok || got.Type != models.EntityOrg {
		t.Fatalf("expected org identity, got %v ok=%v", got, ok)
	}
}
