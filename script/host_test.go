package script

import (
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/beacon"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	h := New()
	t.Cleanup(h.Close)
	return h
}

func globalNumber(t *testing.T, h *Host, name string) float64 {
	t.Helper()
	v, ok := h.L.GetGlobal(name).(lua.LNumber)
	if !ok {
		t.Fatalf("global %s = %v, want a number", name, h.L.GetGlobal(name))
	}
	return float64(v)
}

func TestHost_OnFire(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		hits = 0
		beacon.on("doc", "saved", function(n)
			hits = hits + n
		end)
		ok = beacon.fire("doc", "saved", 2)
		beacon.fire("doc", "saved", 3)
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := globalNumber(t, h, "hits"); got != 5 {
		t.Errorf("hits = %v, want 5", got)
	}
	if h.L.GetGlobal("ok") != lua.LTrue {
		t.Error("fire did not report ok")
	}
}

func TestHost_Off(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		hits = 0
		local handle = beacon.on("doc", "saved", function() hits = hits + 1 end)
		beacon.fire("doc", "saved")
		removed = beacon.off("doc", "saved", handle)
		missing = beacon.off("doc", "saved", "script:999")
		beacon.fire("doc", "saved")
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := globalNumber(t, h, "hits"); got != 1 {
		t.Errorf("hits = %v, want the removed listener silent", got)
	}
	if h.L.GetGlobal("removed") != lua.LTrue {
		t.Error("off did not report the removal")
	}
	if h.L.GetGlobal("missing") != lua.LFalse {
		t.Error("off reported an unknown handle as removed")
	}
}

func TestHost_Once(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		hits = 0
		beacon.once("doc", "saved", function() hits = hits + 1 end)
		beacon.fire("doc", "saved")
		beacon.fire("doc", "saved")
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := globalNumber(t, h, "hits"); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
}

func TestHost_FireReportsHandlerError(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		beacon.on("doc", "saved", function() error("scripted failure") end)
		ok, msg = beacon.fire("doc", "saved")
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.L.GetGlobal("ok") != lua.LFalse {
		t.Error("fire reported ok despite the handler error")
	}
	msg, ok := h.L.GetGlobal("msg").(lua.LString)
	if !ok || !strings.Contains(string(msg), "scripted failure") {
		t.Errorf("msg = %v, want the handler's message", h.L.GetGlobal("msg"))
	}
}

func TestHost_DeferReplay(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		got = 0
		beacon.on("doc", "batch", function(n) got = got + n end)
		local handle = beacon.defer_fire("doc", "batch", 10)
		beacon.on("doc", "batch", function(n) got = got + 100 end)
		beacon.replay(handle)
		beacon.replay(handle)
		dropped = beacon.discard(handle)
		again = beacon.replay(handle)
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := globalNumber(t, h, "got"); got != 20 {
		t.Errorf("got = %v, want the capture replayed twice without the late listener", got)
	}
	if h.L.GetGlobal("dropped") != lua.LTrue {
		t.Error("discard did not report the handle")
	}
	if h.L.GetGlobal("again") != lua.LFalse {
		t.Error("replay succeeded on a discarded handle")
	}
}

func TestHost_Suspend(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		hits = 0
		local handle = beacon.on("doc", "changed", function() hits = hits + 1 end)
		ok = beacon.suspend("doc", "changed", handle, function()
			beacon.fire("doc", "changed")
		end)
		beacon.fire("doc", "changed")
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.L.GetGlobal("ok") != lua.LTrue {
		t.Error("suspend did not report ok")
	}
	if got := globalNumber(t, h, "hits"); got != 1 {
		t.Errorf("hits = %v, want the suspended fire skipped and the next one delivered", got)
	}
}

func TestHost_Introspection(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		beacon.on("doc", "saved", function() end)
		beacon.on("doc", "loaded", function() end)
		has = beacon.has_listeners("doc", "saved")
		none = beacon.has_listeners("doc", "missing")
		events = beacon.watched("doc")
		regs = beacon.listeners("doc", "saved")
		doc_json = beacon.dump("doc")
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.L.GetGlobal("has") != lua.LTrue || h.L.GetGlobal("none") != lua.LFalse {
		t.Error("has_listeners misreported")
	}

	events, ok := h.L.GetGlobal("events").(*lua.LTable)
	if !ok || events.Len() != 2 {
		t.Fatalf("events = %v, want two watched names", h.L.GetGlobal("events"))
	}
	if events.RawGetInt(1) != lua.LString("loaded") || events.RawGetInt(2) != lua.LString("saved") {
		t.Errorf("events = (%v, %v), want sorted names", events.RawGetInt(1), events.RawGetInt(2))
	}

	regs, ok := h.L.GetGlobal("regs").(*lua.LTable)
	if !ok || regs.Len() != 1 {
		t.Fatalf("regs = %v, want one registration", h.L.GetGlobal("regs"))
	}
	entry, ok := regs.RawGetInt(1).(*lua.LTable)
	if !ok {
		t.Fatalf("regs[1] = %v, want a table", regs.RawGetInt(1))
	}
	method, ok := entry.RawGetString("method").(lua.LString)
	if !ok || !strings.HasPrefix(string(method), "keyed script:") {
		t.Errorf("method = %v, want a keyed script handle", entry.RawGetString("method"))
	}

	docJSON, ok := h.L.GetGlobal("doc_json").(lua.LString)
	if !ok || !gjson.Valid(string(docJSON)) {
		t.Fatalf("dump produced %v", h.L.GetGlobal("doc_json"))
	}
	if !gjson.Get(string(docJSON), "listeners.saved").Exists() {
		t.Errorf("dump lacks the saved registry: %s", docJSON)
	}
	nulled := gjson.Get(string(docJSON), "listeners.missing")
	if !nulled.Exists() || nulled.Type != gjson.Null {
		t.Errorf("probed event = %s, want JSON null", nulled.Raw)
	}
}

func TestHost_Stats(t *testing.T) {
	h := newTestHost(t)

	err := h.Run(`
		beacon.on("doc", "saved", function() end)
		beacon.fire("doc", "saved")
		s = beacon.stats()
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s, ok := h.L.GetGlobal("s").(*lua.LTable)
	if !ok {
		t.Fatalf("stats = %v, want a table", h.L.GetGlobal("s"))
	}
	for field, want := range map[string]lua.LNumber{
		"registrations": 1,
		"fires":         1,
		"invocations":   1,
	} {
		if got := s.RawGetString(field); got != want {
			t.Errorf("stats.%s = %v, want %v", field, got, want)
		}
	}
}

func TestHost_GoInterop(t *testing.T) {
	h := newTestHost(t)

	var got []any
	err := h.Dispatcher().Register(h.Object("doc"), "saved", nil, func(args ...any) {
		got = append(got, args...)
	}, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := h.Run(`beacon.fire("doc", "saved", "rev", 7)`); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 || got[0] != "rev" || got[1] != int64(7) {
		t.Errorf("go listener got %v", got)
	}

	// The other direction: a scripted listener fired from Go.
	err = h.Run(`
		seen = ""
		beacon.on("doc", "renamed", function(name) seen = name end)
	`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := h.Dispatcher().Fire(h.Object("doc"), "renamed", "fresh"); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if h.L.GetGlobal("seen") != lua.LString("fresh") {
		t.Errorf("seen = %v, want fresh", h.L.GetGlobal("seen"))
	}
}

func TestHost_ObjectInterned(t *testing.T) {
	h := newTestHost(t)

	if h.Object("doc") != h.Object("doc") {
		t.Error("one name produced two objects")
	}
	if h.Object("doc") == h.Object("other") {
		t.Error("distinct names share an object")
	}
}

func TestHost_WithDispatcher(t *testing.T) {
	d := beacon.NewDispatcher()
	h := New(WithDispatcher(d))
	defer h.Close()

	if h.Dispatcher() != d {
		t.Error("host did not adopt the shared dispatcher")
	}
}

func TestHost_WithConfig(t *testing.T) {
	h := New(WithConfig(map[string]any{
		"call_stack_size": "64",
		"registry_size":   512,
	}))
	defer h.Close()

	if err := h.Run(`beacon.fire("doc", "ping")`); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestHost_Close(t *testing.T) {
	h := New()
	h.Close()
	h.Close()

	if err := h.Run("x = 1"); !errors.Is(err, ErrClosed) {
		t.Errorf("Run after Close = %v, want ErrClosed", err)
	}
}
