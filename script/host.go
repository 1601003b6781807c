package script

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spf13/cast"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/beacon"
)

// handlerAnchor is the global holding scripted handlers, keeping them
// out of the Lua collector's reach while a registration lives.
const handlerAnchor = "_beacon_handlers"

// Host owns a Lua state and a dispatcher and bridges between them.
//
// A Host is single-goroutine: the Lua state is not goroutine safe, and
// scripted listeners run on whatever goroutine fires their event, so
// all use of a Host and all dispatch on its objects must stay on the
// goroutine that created it.
type Host struct {
	// L is the underlying Lua state. Callers may set additional
	// globals or load libraries before running scripts.
	L *lua.LState

	d        *beacon.Dispatcher
	luaOpts  lua.Options
	handlers *lua.LTable

	mu      sync.Mutex
	objects map[string]*anchor
	replays map[string]func() error
	closed  bool

	nextID atomic.Uint64
}

// anchor is the stable Go value behind a script-side object name.
type anchor struct {
	name string
}

// Option configures a Host.
type Option func(*Host)

// WithDispatcher shares an existing dispatcher instead of creating one,
// letting scripts and Go code observe each other's listeners.
func WithDispatcher(d *beacon.Dispatcher) Option {
	return func(h *Host) {
		if d != nil {
			h.d = d
		}
	}
}

// WithConfig applies loosely typed interpreter settings, the shape a
// decoded manifest produces. Recognized keys: call_stack_size,
// registry_size, skip_stdlib.
func WithConfig(m map[string]any) Option {
	return func(h *Host) {
		if v, ok := m["call_stack_size"]; ok {
			h.luaOpts.CallStackSize = cast.ToInt(v)
		}
		if v, ok := m["registry_size"]; ok {
			h.luaOpts.RegistrySize = cast.ToInt(v)
		}
		if v, ok := m["skip_stdlib"]; ok {
			h.luaOpts.SkipOpenLibs = cast.ToBool(v)
		}
	}
}

// New creates a Host with a fresh Lua state and the beacon module
// installed.
func New(opts ...Option) *Host {
	h := &Host{
		objects: make(map[string]*anchor),
		replays: make(map[string]func() error),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.d == nil {
		h.d = beacon.NewDispatcher()
	}
	h.L = lua.NewState(h.luaOpts)
	h.install()
	return h
}

// Dispatcher returns the dispatcher backing the host.
func (h *Host) Dispatcher() *beacon.Dispatcher {
	return h.d
}

// Object returns the Go value scripts address by name, interning it on
// first use. Go code registers and fires on it like on any object.
func (h *Host) Object(name string) any {
	return h.object(name)
}

// Run executes a chunk of Lua source.
func (h *Host) Run(code string) error {
	if h.isClosed() {
		return ErrClosed
	}
	return h.L.DoString(code)
}

// RunFile executes a Lua file.
func (h *Host) RunFile(path string) error {
	if h.isClosed() {
		return ErrClosed
	}
	return h.L.DoFile(path)
}

// Close releases the Lua state and drops the host's objects from the
// dispatcher. Closing twice is a no-op.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	objects := h.objects
	h.objects = make(map[string]*anchor)
	h.replays = make(map[string]func() error)
	h.mu.Unlock()

	for _, a := range objects {
		h.d.Forget(a)
	}
	h.L.Close()
}

func (h *Host) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Host) object(name string) *anchor {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.objects[name]
	if !ok {
		a = &anchor{name: name}
		h.objects[name] = a
	}
	return a
}

func (h *Host) newHandle(prefix string) string {
	return fmt.Sprintf("%s:%d", prefix, h.nextID.Add(1))
}

// install builds the beacon module and the handler anchor table.
func (h *Host) install() {
	h.handlers = h.L.NewTable()
	h.L.SetGlobal(handlerAnchor, h.handlers)

	mod := h.L.NewTable()
	h.L.SetField(mod, "on", h.L.NewFunction(h.on))
	h.L.SetField(mod, "once", h.L.NewFunction(h.once))
	h.L.SetField(mod, "off", h.L.NewFunction(h.off))
	h.L.SetField(mod, "fire", h.L.NewFunction(h.fire))
	h.L.SetField(mod, "defer_fire", h.L.NewFunction(h.deferFire))
	h.L.SetField(mod, "replay", h.L.NewFunction(h.replay))
	h.L.SetField(mod, "discard", h.L.NewFunction(h.discard))
	h.L.SetField(mod, "suspend", h.L.NewFunction(h.suspend))
	h.L.SetField(mod, "has_listeners", h.L.NewFunction(h.hasListeners))
	h.L.SetField(mod, "watched", h.L.NewFunction(h.watched))
	h.L.SetField(mod, "listeners", h.L.NewFunction(h.listeners))
	h.L.SetField(mod, "stats", h.L.NewFunction(h.stats))
	h.L.SetField(mod, "dump", h.L.NewFunction(h.dump))
	h.L.SetGlobal("beacon", mod)
}

// callHandler invokes the pinned Lua handler for handle, if it still
// exists, with the firing arguments.
func (h *Host) callHandler(handle string, args []any) error {
	fn, ok := h.handlers.RawGetString(handle).(*lua.LFunction)
	if !ok {
		return nil
	}
	h.L.Push(fn)
	for _, a := range args {
		h.L.Push(toLua(h.L, a))
	}
	return h.L.PCall(len(args), 0, nil)
}
