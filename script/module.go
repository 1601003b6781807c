package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/beacon"
)

// on(object, event, handler) -> handle
// Registers a scripted listener. The handle is the listener's Keyed
// identity; pass it to off or suspend.
func (h *Host) on(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)
	fn := L.CheckFunction(3)

	handle := h.newHandle("script")
	h.handlers.RawSetString(handle, fn)

	listener := func(args ...any) error {
		return h.callHandler(handle, args)
	}
	if err := h.d.Register(h.object(objName), event, nil, beacon.Keyed(handle, listener), nil); err != nil {
		h.handlers.RawSetString(handle, lua.LNil)
		L.RaiseError("on: %s", err)
		return 0
	}
	L.Push(lua.LString(handle))
	return 1
}

// once(object, event, handler) -> handle
// Like on, but the listener removes itself after its first run, even
// a failed one.
func (h *Host) once(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)
	fn := L.CheckFunction(3)

	handle := h.newHandle("script")
	h.handlers.RawSetString(handle, fn)

	obj := h.object(objName)
	listener := func(args ...any) error {
		defer func() {
			h.handlers.RawSetString(handle, lua.LNil)
			_ = h.d.Unregister(obj, event, nil, beacon.Keyed(handle, nil))
		}()
		return h.callHandler(handle, args)
	}
	if err := h.d.Register(obj, event, nil, beacon.Keyed(handle, listener), nil); err != nil {
		h.handlers.RawSetString(handle, lua.LNil)
		L.RaiseError("once: %s", err)
		return 0
	}
	L.Push(lua.LString(handle))
	return 1
}

// off(object, event, handle) -> existed
// Removes a scripted listener and releases its handler.
func (h *Host) off(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)
	handle := L.CheckString(3)

	existed := h.handlers.RawGetString(handle) != lua.LNil
	h.handlers.RawSetString(handle, lua.LNil)
	if err := h.d.Unregister(h.object(objName), event, nil, beacon.Keyed(handle, nil)); err != nil {
		L.RaiseError("off: %s", err)
		return 0
	}
	L.Push(lua.LBool(existed))
	return 1
}

// fire(object, event, ...) -> ok [, err]
// Fires the event with the remaining arguments. On failure ok is false
// and err carries the message of the error that aborted the fire.
func (h *Host) fire(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)
	args := collectArgs(L, 3)

	ok, err := h.d.Fire(h.object(objName), event, args...)
	L.Push(lua.LBool(ok))
	if err != nil {
		L.Push(lua.LString(err.Error()))
		return 2
	}
	return 1
}

// defer_fire(object, event, ...) -> handle [, err]
// Captures the live listeners and arguments now; replay runs them
// later, any number of times.
func (h *Host) deferFire(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)
	args := collectArgs(L, 3)

	replay, err := h.d.DeferFire(h.object(objName), event, args...)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	handle := h.newHandle("replay")
	h.mu.Lock()
	h.replays[handle] = replay
	h.mu.Unlock()
	L.Push(lua.LString(handle))
	return 1
}

// replay(handle) -> ok [, err]
// Replays a deferred fire. The handle stays valid until discarded.
func (h *Host) replay(L *lua.LState) int {
	handle := L.CheckString(1)
	h.mu.Lock()
	fn := h.replays[handle]
	h.mu.Unlock()

	if fn == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("unknown replay handle"))
		return 2
	}
	if err := fn(); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// discard(handle) -> existed
// Drops a replay handle.
func (h *Host) discard(L *lua.LState) int {
	handle := L.CheckString(1)
	h.mu.Lock()
	_, ok := h.replays[handle]
	delete(h.replays, handle)
	h.mu.Unlock()

	L.Push(lua.LBool(ok))
	return 1
}

// suspend(object, event, handle, body) -> ok [, err]
// Runs body with the identified listener suspended, restoring it on
// every exit path.
func (h *Host) suspend(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)
	handle := L.CheckString(3)
	body := L.CheckFunction(4)

	err := h.d.Suspend(h.object(objName), event, nil, beacon.Keyed(handle, nil), func(any) error {
		h.L.Push(body)
		return h.L.PCall(0, 0, nil)
	})
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// has_listeners(object, event) -> bool
func (h *Host) hasListeners(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)
	L.Push(lua.LBool(h.d.HasListeners(h.object(objName), event)))
	return 1
}

// watched(object) -> {event, ...}
// Returns the object's watched event names, sorted.
func (h *Host) watched(L *lua.LState) int {
	names := h.d.WatchedEvents(h.object(L.CheckString(1)))
	t := L.NewTable()
	for i, name := range names {
		t.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(t)
	return 1
}

// listeners(object, event) -> {{method=..., target=...}, ...}
// Lists the live registrations. target is present only when the
// listener's target is one of the host's named objects.
func (h *Host) listeners(L *lua.LState) int {
	objName := L.CheckString(1)
	event := L.CheckString(2)

	regs := h.d.ListenersFor(h.object(objName), event)
	t := L.NewTable()
	for i, reg := range regs {
		e := L.NewTable()
		e.RawSetString("method", lua.LString(reg.Method.String()))
		if a, ok := reg.Target.(*anchor); ok {
			e.RawSetString("target", lua.LString(a.name))
		}
		t.RawSetInt(i+1, e)
	}
	L.Push(t)
	return 1
}

// stats() -> {registrations=..., fires=..., ...}
func (h *Host) stats(L *lua.LState) int {
	s := h.d.Stats()
	t := L.NewTable()
	t.RawSetString("registrations", lua.LNumber(s.Registrations))
	t.RawSetString("removals", lua.LNumber(s.Removals))
	t.RawSetString("suspensions", lua.LNumber(s.Suspensions))
	t.RawSetString("fires", lua.LNumber(s.Fires))
	t.RawSetString("invocations", lua.LNumber(s.Invocations))
	t.RawSetString("captures", lua.LNumber(s.Captures))
	t.RawSetString("replays", lua.LNumber(s.Replays))
	t.RawSetString("errors", lua.LNumber(s.Errors))
	L.Push(t)
	return 1
}

// dump(object) -> json
// Renders the object's listener registry as JSON.
func (h *Host) dump(L *lua.LState) int {
	doc, err := h.d.Dump(h.object(L.CheckString(1)))
	if err != nil {
		L.RaiseError("dump: %s", err)
		return 0
	}
	L.Push(lua.LString(doc))
	return 1
}

// collectArgs converts stack values from position first on into Go
// firing arguments.
func collectArgs(L *lua.LState, first int) []any {
	top := L.GetTop()
	if top < first {
		return nil
	}
	args := make([]any, 0, top-first+1)
	for i := first; i <= top; i++ {
		args = append(args, fromLua(L.Get(i)))
	}
	return args
}
