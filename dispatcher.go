package beacon

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/beacon/identity"
	"github.com/dshills/beacon/meta"
)

// keyListeners is the metadata branch listener registries live under.
var keyListeners = identity.For("listeners")

// Dispatcher is the listener registry and dispatcher. Objects register
// (target, method) listeners per named event; Fire invokes every live
// listener synchronously on the caller's stack.
//
// The registry lives in a per-object metadata store under the path
// ["listeners", event, target]: event name to target set, target token
// to action set, method token to slot. A slot holds a live action or a
// tombstone; iteration skips tombstones and the store's ownership tag.
//
// Listeners, transforms, and hooks always run outside the dispatcher's
// lock, so they may call back into any dispatch operation.
type Dispatcher struct {
	mu    sync.RWMutex
	ids   *identity.Assigner
	store *meta.Store
	trace TraceFunc
	stats counters
}

// NewDispatcher returns a dispatcher keyed by the process-wide identity
// assigner unless WithAssigner overrides it.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{ids: identity.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.store = meta.NewStore(d.ids)
	return d
}

// Register stores a listener for event on obj. target may be nil; a
// callable passed in the target position with a nil method is taken as
// the method itself. method may be a Method, a func value, or a string
// naming a late-bound method on the target. Registering the same
// (event, target, method) identity again refreshes the stored record,
// transform included, rather than adding a duplicate. The object's
// DidAddListener hook, when implemented, runs after the registration.
func (d *Dispatcher) Register(obj any, event string, target, method any, transform Transform) error {
	if err := validate(obj, event); err != nil {
		return err
	}
	target, m := normalize(target, method)

	d.mu.Lock()
	set := d.store.Writable(obj, keyListeners, d.ids.For(event), d.ids.For(target))
	set[m.token(d.ids)] = &action{target: target, method: m, transform: transform}
	d.mu.Unlock()

	d.stats.registrations.Add(1)
	d.emit(TraceRecord{
		Op:     TraceRegister,
		Object: d.ids.For(obj),
		Event:  event,
		Target: d.ids.For(target),
		Method: m.String(),
	})
	if n, ok := obj.(AddListenerNotifier); ok {
		n.DidAddListener(event, target, m)
	}
	return nil
}

// Unregister removes the listener with the exact (event, target,
// method) identity by tombstoning its slot. The slot itself stays, so a
// removal never re-exposes a listener inherited through Inherit.
// Removing a never-registered pair is a silent no-op. The object's
// DidRemoveListener hook, when implemented, runs after every attempt,
// matched or not.
func (d *Dispatcher) Unregister(obj any, event string, target, method any) error {
	if err := validate(obj, event); err != nil {
		return err
	}
	target, m := normalize(target, method)

	d.mu.Lock()
	set := d.store.Writable(obj, keyListeners, d.ids.For(event), d.ids.For(target))
	tok := m.token(d.ids)
	if _, live := liveAction(set[tok]); live {
		set[tok] = tombstone{}
	}
	d.mu.Unlock()

	d.stats.removals.Add(1)
	d.emit(TraceRecord{
		Op:     TraceUnregister,
		Object: d.ids.For(obj),
		Event:  event,
		Target: d.ids.For(target),
		Method: m.String(),
	})
	if n, ok := obj.(RemoveListenerNotifier); ok {
		n.DidRemoveListener(event, target, m)
	}
	return nil
}

// Suspend tombstones the one listener identified by (event, target,
// method), runs body with the normalized target, and restores the
// slot's prior state on every exit path, panics included. Suspending a
// listener that does not exist still runs body; the restore then leaves
// a tombstone behind, as does any registration body made on the
// suspended slot. Suspend returns body's error.
func (d *Dispatcher) Suspend(obj any, event string, target, method any, body func(target any) error) error {
	if err := validate(obj, event); err != nil {
		return err
	}
	target, m := normalize(target, method)

	d.mu.Lock()
	set := d.store.Writable(obj, keyListeners, d.ids.For(event), d.ids.For(target))
	tok := m.token(d.ids)
	prior, had := set[tok]
	set[tok] = tombstone{}
	d.mu.Unlock()

	d.stats.suspensions.Add(1)
	d.emit(TraceRecord{
		Op:     TraceSuspend,
		Object: d.ids.For(obj),
		Event:  event,
		Target: d.ids.For(target),
		Method: m.String(),
	})

	defer func() {
		d.mu.Lock()
		if had {
			set[tok] = prior
		} else {
			set[tok] = tombstone{}
		}
		d.mu.Unlock()
	}()
	return body(target)
}

// Fire invokes every live listener for event on obj, synchronously on
// the caller's stack. The object's SendEvent hook, when implemented and
// obj is not the dispatcher itself, runs first with the same arguments,
// in addition to standard dispatch. The listener list is snapshotted
// when the fire starts: listeners removed mid-fire still run if live at
// the start, and listeners added mid-fire wait for the next fire. The
// first error aborts the remainder and is returned unmodified. The bool
// is a legacy contract: true whenever the fire completed without error.
func (d *Dispatcher) Fire(obj any, event string, args ...any) (bool, error) {
	if err := validate(obj, event); err != nil {
		return false, err
	}
	d.stats.fires.Add(1)
	id := d.newFireID()
	d.emit(TraceRecord{Op: TraceFire, FireID: id, Object: d.ids.For(obj), Event: event, Args: len(args)})

	if err := d.sendHook(obj, event, args, id); err != nil {
		return false, err
	}
	for _, act := range d.snapshot(obj, event) {
		if err := d.invoke(act, obj, event, args, id); err != nil {
			return false, err
		}
	}
	return true, nil
}

// DeferFire snapshots the live listeners and arguments for (obj, event)
// now and returns a closure that replays them later: the object's
// SendEvent hook first, then each captured listener with the captured
// arguments. Listeners added or removed between capture and replay do
// not affect the replay. The closure may run more than once; every run
// replays the same capture.
func (d *Dispatcher) DeferFire(obj any, event string, args ...any) (func() error, error) {
	if err := validate(obj, event); err != nil {
		return nil, err
	}
	acts := d.snapshot(obj, event)
	captured := slices.Clone(args)
	id := d.newFireID()
	d.stats.captures.Add(1)
	d.emit(TraceRecord{Op: TraceCapture, FireID: id, Object: d.ids.For(obj), Event: event, Args: len(captured)})

	return func() error {
		d.stats.replays.Add(1)
		d.emit(TraceRecord{Op: TraceReplay, FireID: id, Object: d.ids.For(obj), Event: event, Args: len(captured)})
		if err := d.sendHook(obj, event, captured, id); err != nil {
			return err
		}
		for _, act := range acts {
			if err := d.invoke(act, obj, event, captured, id); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// HasListeners reports whether any live listener exists for (obj,
// event), stopping at the first one found. A miss nulls the event's
// target-set entry so later negative probes stop at the nulled entry;
// registering on the event afterwards still works.
func (d *Dispatcher) HasListeners(obj any, event string) bool {
	if obj == nil || event == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	ts, _ := d.store.Path(obj, keyListeners, d.ids.For(event)).(meta.Map)
	if anyLive(ts) {
		return true
	}
	d.store.Writable(obj, keyListeners)[d.ids.For(event)] = nil
	return false
}

// ListenersFor returns the live (target, method) pairs registered for
// (obj, event) at call time. Order is unspecified; transforms are not
// reported.
func (d *Dispatcher) ListenersFor(obj any, event string) []Registration {
	acts := d.snapshot(obj, event)
	if len(acts) == 0 {
		return nil
	}
	regs := make([]Registration, 0, len(acts))
	for _, act := range acts {
		regs = append(regs, Registration{Target: act.target, Method: act.method})
	}
	return regs
}

// WatchedEvents returns the event names on obj whose target set exists
// and has not been nulled by a negative probe, sorted for determinism.
func (d *Dispatcher) WatchedEvents(obj any) []string {
	d.mu.RLock()
	ls, _ := d.store.Path(obj, keyListeners).(meta.Map)
	var names []string
	ls.Range(func(k identity.Token, v any) bool {
		if v == nil {
			return true
		}
		if name, ok := k.StringValue(); ok {
			names = append(names, name)
		}
		return true
	})
	d.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Inherit makes child read parent's metadata, listener registry
// included, until child's first own mutation snapshots it copy on
// write. Mutating the child's registry never reaches parent, and
// siblings inheriting from one parent never share mutable state.
func (d *Dispatcher) Inherit(child, parent any) error {
	if child == nil || parent == nil {
		return ErrNilObject
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Derive(child, parent)
}

// Forget drops obj's metadata record, derivation link, and interned
// identity. A later registration starts the object from a clean slate.
func (d *Dispatcher) Forget(obj any) {
	if obj == nil {
		return
	}
	d.mu.Lock()
	d.store.Release(obj)
	d.mu.Unlock()
}

// Stats returns a snapshot of the dispatcher's activity counters.
func (d *Dispatcher) Stats() Stats {
	return d.stats.snapshot()
}

// validate enforces the minimum argument contract shared by the
// dispatch operations.
func validate(obj any, event string) error {
	if obj == nil {
		return ErrNilObject
	}
	if event == "" {
		return ErrEmptyEvent
	}
	return nil
}

// sendHook runs obj's custom Sender hook when present. The dispatcher
// never invokes the hook on itself.
func (d *Dispatcher) sendHook(obj any, event string, args []any, id uuid.UUID) error {
	s, ok := obj.(Sender)
	if !ok || obj == any(d) {
		return nil
	}
	if err := s.SendEvent(event, args...); err != nil {
		d.stats.errors.Add(1)
		d.emit(TraceRecord{
			Op:     TraceInvoke,
			FireID: id,
			Object: d.ids.For(obj),
			Event:  event,
			Method: "send hook",
			Args:   len(args),
			Err:    err,
		})
		return err
	}
	return nil
}

// snapshot copies the live actions for (obj, event) under the read
// lock. Invocation happens outside the lock, which is also what gives
// fires their snapshot-at-start behavior under re-entrant mutation.
func (d *Dispatcher) snapshot(obj any, event string) []*action {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ts, _ := d.store.Path(obj, keyListeners, d.ids.For(event)).(meta.Map)
	if ts == nil {
		return nil
	}
	var acts []*action
	ts.Range(func(_ identity.Token, v any) bool {
		set, ok := v.(meta.Map)
		if !ok {
			return true
		}
		set.Range(func(_ identity.Token, slot any) bool {
			if act, live := liveAction(slot); live {
				acts = append(acts, act)
			}
			return true
		})
		return true
	})
	return acts
}

// anyLive reports whether a target set holds at least one live action.
func anyLive(ts meta.Map) bool {
	found := false
	ts.Range(func(_ identity.Token, v any) bool {
		set, ok := v.(meta.Map)
		if !ok {
			return true
		}
		set.Range(func(_ identity.Token, slot any) bool {
			if _, live := liveAction(slot); live {
				found = true
			}
			return !found
		})
		return !found
	})
	return found
}

// invoke runs one action: default the target to the firing object,
// resolve the method, then hand off to the transform or call directly.
func (d *Dispatcher) invoke(act *action, obj any, event string, args []any, id uuid.UUID) error {
	target := act.target
	if target == nil {
		target = obj
	}
	call, err := bindMethod(event, target, act.method)
	if err == nil {
		d.stats.invocations.Add(1)
		if act.transform != nil {
			err = act.transform(target, call, args)
		} else {
			err = call(args...)
		}
	}
	if err != nil {
		d.stats.errors.Add(1)
	}
	d.emit(TraceRecord{
		Op:     TraceInvoke,
		FireID: id,
		Object: d.ids.For(obj),
		Event:  event,
		Target: d.ids.For(act.target),
		Method: act.method.String(),
		Args:   len(args),
		Err:    err,
	})
	return err
}
