// Package meta provides the per-object metadata store that backs the
// dispatcher's listener registries.
//
// A Store associates any Go value with a record: nested maps keyed by
// identity tokens. Records hold whatever callers put in them; the
// dispatcher stores listener registrations under well-known paths, but
// the store itself is generic.
//
// # Records and Derivation
//
// Records are created lazily. Lookup returns the record visible to an
// object without creating anything: the object's own record when it has
// one, otherwise the nearest ancestor's along the derivation chain.
// Derive links one object's record resolution to another's, so a freshly
// derived object sees every change made through its ancestor until the
// moment it first writes.
//
// # Copy on Write
//
// Writable materializes the path it is given. The first write by a
// derived object snapshots the ancestor record level by level: each map
// along the path that is not yet owned by the writer is shallow-cloned
// and re-tagged before it is touched. Levels off the written path stay
// shared until a later write reaches them. The effect is one-directional
// isolation: writing through a derived record never mutates an
// ancestor's maps, and two objects derived from the same ancestor never
// share mutable state.
//
// # The Ownership Tag
//
// Every level carries its owner's token under identity.MetaKey. The tag
// is how Writable decides whether a level may be mutated in place or
// must be cloned first. Map.Range skips the tag, and callers that walk
// levels by hand must do the same.
//
// # Concurrency
//
// A Store performs no locking. Callers that share one across goroutines
// serialize access around it; the dispatcher does this with a single
// RWMutex. The identity assigner a store uses is independently safe for
// concurrent use.
package meta
