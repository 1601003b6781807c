package beacon

import (
	"fmt"
	"reflect"

	"github.com/dshills/beacon/identity"
)

// methodKind discriminates the Method variants.
type methodKind uint8

const (
	methodNone methodKind = iota
	methodDirect
	methodNamed
	methodKeyed
)

// Method identifies and invokes a listener's callable. Construct one
// with Direct, Named, or Keyed; the zero Method is not callable.
//
// Register also accepts raw values in the method position: a func value
// becomes Direct, a string becomes Named.
type Method struct {
	kind methodKind
	fn   any
	name string
}

// Direct wraps a func value invoked as-is. Identity follows the func's
// code pointer, so two closures built from the same literal share one
// identity; use Keyed when such closures must stay distinct listeners.
func Direct(fn any) Method {
	return Method{kind: methodDirect, fn: fn}
}

// Named refers to a method by name, resolved against the listener's
// target at each invocation: first as a real method, then as an
// exported func-typed field. Reassigning such a field between fires
// changes what the next fire runs.
func Named(name string) Method {
	return Method{kind: methodNamed, name: name}
}

// Keyed wraps a func value whose identity is the given key rather than
// the func itself. Keys share the identity namespace of Named, so
// callers should mint keys that cannot collide with method names, for
// example prefixed handles.
func Keyed(key string, fn any) Method {
	return Method{kind: methodKeyed, fn: fn, name: key}
}

// String returns a short display form used in errors and traces.
func (m Method) String() string {
	switch m.kind {
	case methodDirect:
		return fmt.Sprintf("direct %T", m.fn)
	case methodNamed:
		return "named " + m.name
	case methodKeyed:
		return "keyed " + m.name
	default:
		return "none"
	}
}

// token returns the identity key the method registers under.
func (m Method) token(ids *identity.Assigner) identity.Token {
	switch m.kind {
	case methodDirect:
		return ids.For(m.fn)
	case methodNamed, methodKeyed:
		return ids.For(m.name)
	default:
		return ids.For(nil)
	}
}

// action is one registered listener. Records are immutable once stored;
// re-registration replaces the record rather than mutating it, so a
// record shared with a derived registry or a deferred-fire snapshot is
// never written through.
type action struct {
	target    any
	method    Method
	transform Transform
}

// tombstone marks a removed slot. Removal never deletes, so a removal
// can never re-expose a dormant listener inherited from a prototype.
type tombstone struct{}

// liveAction reports whether a registry slot holds a live listener.
func liveAction(slot any) (*action, bool) {
	act, ok := slot.(*action)
	return act, ok
}

// Registration is one live (target, method) pair reported by
// ListenersFor. It is informational; transforms are not included.
type Registration struct {
	// Target is the listener's receiver, nil when none was given.
	Target any

	// Method identifies the listener's callable.
	Method Method
}

// normalize applies the target/method convention shared by Register,
// Unregister, and Suspend: a callable in the target position with no
// method is reinterpreted as the method with no target.
func normalize(target, method any) (any, Method) {
	if method == nil && callable(target) {
		method, target = target, nil
	}
	return target, asMethod(method)
}

// callable reports whether v can serve as a method: a Method value or
// any func.
func callable(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(Method); ok {
		return true
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}

// asMethod converts a raw method argument to its Method form.
func asMethod(m any) Method {
	switch x := m.(type) {
	case nil:
		return Method{}
	case Method:
		return x
	case string:
		return Named(x)
	default:
		return Direct(x)
	}
}
