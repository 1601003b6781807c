package meta

import (
	"errors"

	"github.com/dshills/beacon/identity"
)

// ErrCycle is returned by Derive when the requested link would make an
// object its own ancestor.
var ErrCycle = errors.New("cyclic derivation")

// Map is one level of a record: identity tokens to child levels or
// caller values. Every level carries its owner under identity.MetaKey.
type Map map[identity.Token]any

// Owner returns the token of the object that materialized this level.
func (m Map) Owner() identity.Token {
	t, _ := m[identity.MetaKey].(identity.Token)
	return t
}

// Range calls fn for each entry, skipping the ownership tag. Iteration
// stops when fn returns false.
func (m Map) Range(fn func(key identity.Token, v any) bool) {
	for k, v := range m {
		if k == identity.MetaKey {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

func (m Map) clone(owner identity.Token) Map {
	c := make(Map, len(m)+1)
	for k, v := range m {
		c[k] = v
	}
	c[identity.MetaKey] = owner
	return c
}

// Store holds one record per object, keyed by identity token.
type Store struct {
	ids     *identity.Assigner
	records map[identity.Token]Map
	parents map[identity.Token]identity.Token
}

// NewStore returns an empty store keyed by ids. A nil ids uses the
// process-wide default assigner.
func NewStore(ids *identity.Assigner) *Store {
	if ids == nil {
		ids = identity.Default()
	}
	return &Store{
		ids:     ids,
		records: make(map[identity.Token]Map),
		parents: make(map[identity.Token]identity.Token),
	}
}

// Lookup returns the record visible to obj: its own when it has one,
// otherwise the nearest ancestor's. It returns nil when no record exists
// anywhere on the chain, and never materializes one.
func (s *Store) Lookup(obj any) Map {
	return s.lookup(s.ids.For(obj))
}

func (s *Store) lookup(tok identity.Token) Map {
	for {
		if m, ok := s.records[tok]; ok {
			return m
		}
		parent, ok := s.parents[tok]
		if !ok {
			return nil
		}
		tok = parent
	}
}

// Ensure returns obj's own record, materializing it if needed. When an
// ancestor record exists the new record starts as a shallow snapshot of
// it; nested levels stay shared until Writable clones them.
func (s *Store) Ensure(obj any) Map {
	return s.ensure(s.ids.For(obj))
}

func (s *Store) ensure(tok identity.Token) Map {
	if m, ok := s.records[tok]; ok {
		return m
	}
	var m Map
	if parent, ok := s.parents[tok]; ok {
		if inherited := s.lookup(parent); inherited != nil {
			m = inherited.clone(tok)
		}
	}
	if m == nil {
		m = Map{identity.MetaKey: tok}
	}
	s.records[tok] = m
	return m
}

// Path walks the record visible to obj and returns the value at the end
// of path. It returns nil when any level is missing, nulled, or not a
// map. Path never materializes or clones.
func (s *Store) Path(obj any, path ...identity.Token) any {
	m := s.Lookup(obj)
	if m == nil {
		return nil
	}
	var cur any = m
	for _, key := range path {
		mm, ok := cur.(Map)
		if !ok || mm == nil {
			return nil
		}
		cur = mm[key]
	}
	return cur
}

// Writable walks obj's own record along path and returns the map at the
// end. The record is materialized if needed, and every level not yet
// owned by obj is cloned before it is entered, so writes through the
// result never reach an ancestor. A level that is missing, nulled, or
// holds a non-map value is replaced with a fresh map owned by obj.
func (s *Store) Writable(obj any, path ...identity.Token) Map {
	tok := s.ids.For(obj)
	m := s.ensure(tok)
	for _, key := range path {
		next, _ := m[key].(Map)
		if next == nil {
			next = Map{identity.MetaKey: tok}
			m[key] = next
		} else if next.Owner() != tok {
			next = next.clone(tok)
			m[key] = next
		}
		m = next
	}
	return m
}

// Derive links child's record resolution to parent. Until child
// materializes a record of its own, reads resolve through parent's
// chain. A child that already has a record keeps it; the link then only
// matters if that record is released. Derive returns ErrCycle when the
// link would make child its own ancestor.
func (s *Store) Derive(child, parent any) error {
	ct := s.ids.For(child)
	pt := s.ids.For(parent)
	for t := pt; ; {
		if t == ct {
			return ErrCycle
		}
		next, ok := s.parents[t]
		if !ok {
			break
		}
		t = next
	}
	s.parents[ct] = pt
	return nil
}

// Release drops obj's record, its derivation link, and its interned
// identity. Objects derived from obj keep their own records; ones that
// were still reading through obj lose the shared ancestor.
func (s *Store) Release(obj any) {
	tok := s.ids.For(obj)
	delete(s.records, tok)
	delete(s.parents, tok)
	s.ids.Release(obj)
}

// Len reports how many records the store holds.
func (s *Store) Len() int {
	return len(s.records)
}
