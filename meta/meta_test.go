package meta

import (
	"errors"
	"testing"

	"github.com/dshills/beacon/identity"
)

type node struct {
	name string
}

func newStore() (*Store, *identity.Assigner) {
	ids := identity.NewAssigner()
	return NewStore(ids), ids
}

func TestStore_Lookup_Missing(t *testing.T) {
	s, _ := newStore()

	if m := s.Lookup(&node{}); m != nil {
		t.Errorf("Lookup on unseen object = %v, want nil", m)
	}
	if s.Len() != 0 {
		t.Error("Lookup must not materialize a record")
	}
}

func TestStore_Ensure_TagsOwner(t *testing.T) {
	s, ids := newStore()
	n := &node{name: "n"}

	m := s.Ensure(n)
	if m == nil {
		t.Fatal("Ensure returned nil")
	}
	if got, want := m.Owner(), ids.For(n); got != want {
		t.Errorf("Owner = %q, want %q", got, want)
	}
	if s.Ensure(n); s.Len() != 1 {
		t.Errorf("Len = %d after repeat Ensure, want 1", s.Len())
	}
}

func TestStore_Writable_CreatesOwnedLevels(t *testing.T) {
	s, ids := newStore()
	n := &node{name: "n"}

	leaf := s.Writable(n, "listeners", "save")
	leaf["h"] = 1

	if got, want := leaf.Owner(), ids.For(n); got != want {
		t.Errorf("leaf Owner = %q, want %q", got, want)
	}

	got, ok := s.Path(n, "listeners", "save").(Map)
	if !ok {
		t.Fatal("Path did not find the written level")
	}
	if got["h"] != 1 {
		t.Errorf("leaf entry = %v, want 1", got["h"])
	}
}

func TestStore_Path_Missing(t *testing.T) {
	s, _ := newStore()
	n := &node{}

	s.Writable(n, "listeners")

	if v := s.Path(n, "listeners", "save"); v != nil {
		t.Errorf("Path through missing level = %v, want nil", v)
	}
	if v := s.Path(n, "other", "deep", "deeper"); v != nil {
		t.Errorf("Path on absent branch = %v, want nil", v)
	}
}

func TestStore_Path_NulledEntry(t *testing.T) {
	s, _ := newStore()
	n := &node{}

	set := s.Writable(n, "listeners")
	set["save"] = nil

	if v := s.Path(n, "listeners", "save"); v != nil {
		t.Errorf("Path through nulled entry = %v, want nil", v)
	}
}

func TestStore_Writable_ReplacesNulledEntry(t *testing.T) {
	s, _ := newStore()
	n := &node{}

	s.Writable(n, "listeners")["save"] = nil

	leaf := s.Writable(n, "listeners", "save")
	if leaf == nil {
		t.Fatal("Writable did not replace the nulled entry")
	}
	leaf["h"] = 1
	if got, _ := s.Path(n, "listeners", "save").(Map); got["h"] != 1 {
		t.Error("replacement level not reachable")
	}
}

func TestStore_Derive_ReadThrough(t *testing.T) {
	s, ids := newStore()
	parent := &node{name: "parent"}
	child := &node{name: "child"}

	if err := s.Derive(child, parent); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	// Changes on the parent after the link stay visible until the child
	// writes for itself.
	s.Writable(parent, "cfg")["mode"] = "strict"

	if got := s.Path(child, "cfg", "mode"); got != "strict" {
		t.Errorf("child read = %v, want strict", got)
	}
	if got, want := s.Lookup(child).Owner(), ids.For(parent); got != want {
		t.Errorf("child resolves to record owned by %q, want %q", got, want)
	}
}

func TestStore_Derive_Chain(t *testing.T) {
	s, _ := newStore()
	a := &node{name: "a"}
	b := &node{name: "b"}
	c := &node{name: "c"}

	s.Writable(a, "cfg")["mode"] = "strict"
	if err := s.Derive(b, a); err != nil {
		t.Fatalf("Derive(b, a): %v", err)
	}
	if err := s.Derive(c, b); err != nil {
		t.Fatalf("Derive(c, b): %v", err)
	}

	if got := s.Path(c, "cfg", "mode"); got != "strict" {
		t.Errorf("grandchild read = %v, want strict", got)
	}
}

func TestStore_Derive_Cycle(t *testing.T) {
	s, _ := newStore()
	a := &node{name: "a"}
	b := &node{name: "b"}

	if err := s.Derive(a, a); !errors.Is(err, ErrCycle) {
		t.Errorf("self-derive error = %v, want ErrCycle", err)
	}
	if err := s.Derive(b, a); err != nil {
		t.Fatalf("Derive(b, a): %v", err)
	}
	if err := s.Derive(a, b); !errors.Is(err, ErrCycle) {
		t.Errorf("loop-closing derive error = %v, want ErrCycle", err)
	}
}

func TestStore_Writable_NeverMutatesAncestor(t *testing.T) {
	s, _ := newStore()
	parent := &node{name: "parent"}
	child := &node{name: "child"}

	s.Writable(parent, "cfg")["mode"] = "strict"
	if err := s.Derive(child, parent); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	cs := s.Writable(child, "cfg")
	cs["mode"] = "lax"
	cs["extra"] = true

	ps, _ := s.Path(parent, "cfg").(Map)
	if ps["mode"] != "strict" {
		t.Errorf("parent mode = %v after child write, want strict", ps["mode"])
	}
	if _, ok := ps["extra"]; ok {
		t.Error("child write leaked into the parent level")
	}
	if got := s.Path(child, "cfg", "mode"); got != "lax" {
		t.Errorf("child mode = %v, want lax", got)
	}
}

func TestStore_Writable_SnapshotStopsTopLevelReadThrough(t *testing.T) {
	s, _ := newStore()
	parent := &node{name: "parent"}
	child := &node{name: "child"}

	s.Writable(parent, "cfg")["mode"] = "strict"
	if err := s.Derive(child, parent); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	// First write snapshots the record; branches the parent adds
	// afterwards are no longer part of the child's view.
	s.Writable(child, "own")["k"] = 1
	s.Writable(parent, "late")["k"] = 2

	if got := s.Path(child, "cfg", "mode"); got != "strict" {
		t.Errorf("snapshotted branch read = %v, want strict", got)
	}
	if v := s.Path(child, "late", "k"); v != nil {
		t.Errorf("post-snapshot parent branch visible to child: %v", v)
	}
}

func TestStore_Writable_SiblingsIsolated(t *testing.T) {
	s, _ := newStore()
	parent := &node{name: "parent"}
	left := &node{name: "left"}
	right := &node{name: "right"}

	s.Writable(parent, "cfg")["mode"] = "strict"
	for _, c := range []*node{left, right} {
		if err := s.Derive(c, parent); err != nil {
			t.Fatalf("Derive: %v", err)
		}
	}

	s.Writable(left, "cfg")["mode"] = "left"
	s.Writable(right, "cfg")["mode"] = "right"

	if got := s.Path(left, "cfg", "mode"); got != "left" {
		t.Errorf("left mode = %v", got)
	}
	if got := s.Path(right, "cfg", "mode"); got != "right" {
		t.Errorf("right mode = %v", got)
	}
	if got := s.Path(parent, "cfg", "mode"); got != "strict" {
		t.Errorf("parent mode = %v", got)
	}
}

func TestStore_Release(t *testing.T) {
	s, _ := newStore()
	parent := &node{name: "parent"}
	child := &node{name: "child"}

	s.Writable(parent, "cfg")["mode"] = "strict"
	if err := s.Derive(child, parent); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	s.Release(parent)

	if s.Len() != 0 {
		t.Errorf("Len = %d after Release, want 0", s.Len())
	}
	if v := s.Path(child, "cfg", "mode"); v != nil {
		t.Errorf("child still reads released ancestor: %v", v)
	}

	// The object can come back with a clean slate.
	if m := s.Ensure(parent); len(m) != 1 {
		t.Errorf("re-ensured record has %d entries, want tag only", len(m))
	}
}

func TestMap_Range_SkipsTag(t *testing.T) {
	s, _ := newStore()
	n := &node{}

	m := s.Writable(n, "listeners")
	m["save"] = 1
	m["load"] = 2

	seen := map[identity.Token]bool{}
	m.Range(func(k identity.Token, v any) bool {
		seen[k] = true
		return true
	})

	if len(seen) != 2 {
		t.Errorf("Range visited %d entries, want 2", len(seen))
	}
	if seen[identity.MetaKey] {
		t.Error("Range visited the ownership tag")
	}
}

func TestMap_Range_EarlyExit(t *testing.T) {
	s, _ := newStore()
	n := &node{}

	m := s.Writable(n, "listeners")
	m["save"] = 1
	m["load"] = 2
	m["quit"] = 3

	visits := 0
	m.Range(func(identity.Token, any) bool {
		visits++
		return false
	})

	if visits != 1 {
		t.Errorf("Range visited %d entries after stop, want 1", visits)
	}
}
