// Package identity assigns stable, unique tokens to arbitrary Go values.
//
// The dispatch layer keys its registries by value identity rather than by
// equality of wrapper records, so it needs a token that is stable for a
// value's lifetime, distinct between distinct values, and computable for
// anything a caller might pass: pointers, funcs, maps, slices, strings,
// numbers, and nil.
//
// # Token Classes
//
// Primitive values encode canonically and are never interned:
//
//	nil          (nil)
//	true         (true)
//	"save"       st:save
//	int(42)      nu:int:42
//	float64(1.5) nu:float64:1.5
//
// Reference and composite values are interned in a table on first sight
// and receive a generated token:
//
//	&Widget{}    ref:1
//	func(){}     ref:2
//	map[...]     ref:3
//
// # Interning and Lifetime
//
// Interned values are pinned by the table so their addresses stay valid
// for as long as the token must stay stable. Release drops the pin; a
// released value re-interns under a fresh token if it is seen again, so
// Release belongs in teardown paths only.
//
// # Limits
//
// Two closures created from the same function literal share a code
// pointer and therefore share a token. Callers that need to tell such
// closures apart should key them explicitly (the dispatch layer's Keyed
// method variant exists for exactly this). Non-comparable values that are
// not reference kinds, such as slice-bearing structs passed by value,
// have no stable identity in Go; For panics for those, matching the
// language's own map-key behavior.
//
// # Reserved Token
//
// MetaKey is reserved for internal bookkeeping by collaborating stores.
// It never collides with a generated or canonical token, and every
// registry iteration skips it.
package identity
