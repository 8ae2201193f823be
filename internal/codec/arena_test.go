package codec

import (
	"testing"
)

type testEntity struct {
	ID   string
	Name string
}

func TestArenaInsertionOrder(t *testing.T) {
	a := NewArena[*testEntity]()
	a.Put("c", &testEntity{ID: "c"})
	a.Put("a", &testEntity{ID: "a"})
	a.Put("b", &testEntity{ID: "b"})

	ids := a.IDs()
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Fatalf("expected insertion order [c a b], got %v", ids)
	}

	// Replacing keeps the original position.
	a.Put("a", &testEntity{ID: "a", Name: "replaced"})
	if a.Len() != 3 {
		t.Fatalf("expected 3 entities after replace, got %d", a.Len())
	}
	e, ok := a.Get("a")
	if !ok || e.Name != "replaced" {
		t.Fatalf("expected replaced entity, got %+v", e)
	}
	if got := a.IDs(); got[1] != "a" {
		t.Errorf("expected a to keep position 1, got %v", got)
	}

	a.Delete("a")
	if a.Len() != 2 {
		t.Fatalf("expected 2 entities after delete, got %d", a.Len())
	}
	if _, ok := a.Get("a"); ok {
		t.Errorf("expected a to be gone")
	}
}

func TestRefBindResolves(t *testing.T) {
	a := NewArena[*testEntity]()
	p1 := &testEntity{ID: "P1"}
	a.Put("P1", p1)

	ref := RefID[*testEntity]("P1")
	rep := &Report{}
	ref.Bind(a, rep, "player", "tile.owner")

	got, ok := ref.Resolved()
	if !ok || got != p1 {
		t.Fatalf("expected ref to resolve to P1")
	}
	if !rep.Clean() {
		t.Errorf("expected clean report, got %v", rep.Unresolved())
	}
}

func TestRefBindMissingTargetIsReportedNotFatal(t *testing.T) {
	a := NewArena[*testEntity]()
	a.Put("P1", &testEntity{ID: "P1"})

	resolved := RefID[*testEntity]("P1")
	missing := RefID[*testEntity]("P_missing")

	rep := &Report{}
	resolved.Bind(a, rep, "player", "tiles[0].owner")
	missing.Bind(a, rep, "player", "tiles[1].owner")

	if _, ok := resolved.Resolved(); !ok {
		t.Fatalf("expected first ref to resolve")
	}
	if _, ok := missing.Resolved(); ok {
		t.Fatalf("expected second ref to stay unbound")
	}
	// The identity string survives for diagnostics.
	if missing.ID != "P_missing" {
		t.Errorf("expected unresolved ref to keep its identity, got %q", missing.ID)
	}

	unresolved := rep.Unresolved()
	if len(unresolved) != 1 {
		t.Fatalf("expected exactly one unresolved marker, got %d", len(unresolved))
	}
	u := unresolved[0]
	if u.Kind != "player" || u.ID != "P_missing" || u.Field != "tiles[1].owner" {
		t.Errorf("unexpected marker: %+v", u)
	}
}

func TestRefEmptyIDBindsToNothing(t *testing.T) {
	a := NewArena[*testEntity]()
	ref := RefID[*testEntity]("")
	rep := &Report{}
	ref.Bind(a, rep, "player", "holder")

	if _, ok := ref.Resolved(); ok {
		t.Errorf("expected empty ref to stay unbound")
	}
	if !rep.Clean() {
		t.Errorf("expected empty ref to raise no condition")
	}
}
