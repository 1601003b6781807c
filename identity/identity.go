package identity

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Token is a stable identity key for a Go value.
type Token string

// String returns the token as a string.
func (t Token) String() string {
	return string(t)
}

// StringValue decodes a token produced for a plain string, reporting
// whether t encodes one.
func (t Token) StringValue() (string, bool) {
	return strings.CutPrefix(string(t), "st:")
}

// MetaKey is the reserved token used by collaborating stores for internal
// bookkeeping inside shared structures (for example ownership tags in
// copy-on-write metadata). It is never produced for a caller value, and
// all registry iteration must skip it.
const MetaKey Token = "__bcn_meta__"

// Canonical tokens for values that need no interning.
const (
	tokenNil   Token = "(nil)"
	tokenTrue  Token = "(true)"
	tokenFalse Token = "(false)"
)

// refKey identifies a non-internable-by-equality value: funcs by code
// pointer, maps by map pointer, slices by data pointer and length.
type refKey struct {
	ptr  uintptr
	n    int
	kind reflect.Kind
}

// Assigner hands out identity tokens. It is safe for concurrent use.
type Assigner struct {
	mu      sync.Mutex
	next    uint64
	byValue map[any]Token
	byRef   map[refKey]Token
	pins    map[refKey]any
}

// NewAssigner creates an empty identity table.
func NewAssigner() *Assigner {
	return &Assigner{
		byValue: make(map[any]Token),
		byRef:   make(map[refKey]Token),
		pins:    make(map[refKey]any),
	}
}

var (
	defaultAssigner     *Assigner
	defaultAssignerOnce sync.Once
)

// Default returns the process-wide assigner. Dispatchers share it unless
// configured otherwise, so a value carries one identity everywhere.
func Default() *Assigner {
	defaultAssignerOnce.Do(func() {
		defaultAssigner = NewAssigner()
	})
	return defaultAssigner
}

// For returns the identity token for v, assigning one on first sight.
// The same value always yields the same token for its lifetime; distinct
// values yield distinct tokens (see the package doc for the closure
// caveat). For panics if v is a non-comparable value with no reference
// identity, such as a slice-bearing struct passed by value.
func For(v any) Token {
	return Default().For(v)
}

// For returns the identity token for v, assigning one on first sight.
func (a *Assigner) For(v any) Token {
	switch x := v.(type) {
	case nil:
		return tokenNil
	case bool:
		if x {
			return tokenTrue
		}
		return tokenFalse
	case string:
		return Token("st:" + x)
	case Token:
		return Token("st:" + string(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return numToken(rv.Kind(), strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return numToken(rv.Kind(), strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return numToken(rv.Kind(), strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		return numToken(rv.Kind(), strconv.FormatComplex(rv.Complex(), 'g', -1, 128))
	case reflect.Func:
		return a.internRef(refKey{ptr: rv.Pointer(), kind: reflect.Func}, v)
	case reflect.Map:
		return a.internRef(refKey{ptr: rv.Pointer(), kind: reflect.Map}, v)
	case reflect.Slice:
		return a.internRef(refKey{ptr: rv.Pointer(), n: rv.Len(), kind: reflect.Slice}, v)
	}

	if !rv.Comparable() {
		panic(fmt.Sprintf("identity: value of type %T is not identifiable; pass a pointer", v))
	}
	return a.internValue(v)
}

// Release drops the interned entry and pin for v, if any. A released
// value seen again re-interns under a fresh token, so Release is only
// appropriate when the value is being torn down.
func (a *Assigner) Release(v any) {
	if v == nil {
		return
	}
	rv := reflect.ValueOf(v)
	a.mu.Lock()
	defer a.mu.Unlock()
	switch rv.Kind() {
	case reflect.Func:
		a.dropRef(refKey{ptr: rv.Pointer(), kind: reflect.Func})
	case reflect.Map:
		a.dropRef(refKey{ptr: rv.Pointer(), kind: reflect.Map})
	case reflect.Slice:
		a.dropRef(refKey{ptr: rv.Pointer(), n: rv.Len(), kind: reflect.Slice})
	default:
		if rv.Comparable() {
			delete(a.byValue, v)
		}
	}
}

// Len reports how many values are currently interned.
func (a *Assigner) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byValue) + len(a.byRef)
}

func (a *Assigner) internValue(v any) Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.byValue[v]; ok {
		return t
	}
	t := a.generate()
	a.byValue[v] = t
	return t
}

func (a *Assigner) internRef(k refKey, v any) Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.byRef[k]; ok {
		return t
	}
	t := a.generate()
	a.byRef[k] = t
	// Pin the value so the address the key is built from stays live.
	a.pins[k] = v
	return t
}

func (a *Assigner) dropRef(k refKey) {
	delete(a.byRef, k)
	delete(a.pins, k)
}

// generate mints the next table token. Caller holds the lock.
func (a *Assigner) generate() Token {
	a.next++
	return Token("ref:" + strconv.FormatUint(a.next, 10))
}

func numToken(k reflect.Kind, repr string) Token {
	return Token("nu:" + k.String() + ":" + repr)
}
