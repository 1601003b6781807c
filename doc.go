// Package beacon provides object-scoped event dispatch: arbitrary Go
// values register listeners per named event, firing invokes every live
// listener synchronously on the caller's stack, and individual
// listeners can be suspended around re-entrant operations.
//
// Unlike a topic bus, the registry here is scoped to the object an
// event fires on. There is no delivery queue, no bubbling, no wildcard
// matching, and no priority ordering; the whole value is in the nested
// registry and its iteration and suspension protocol, which higher
// layers (an observer system, a script host) build on.
//
// # Architecture
//
//	             ┌──────────────────────────────────────────┐
//	             │                Dispatcher                 │
//	             │  Register / Unregister / Suspend          │
//	             │  Fire / DeferFire                         │
//	             │  HasListeners / ListenersFor / Watched    │
//	             └──────────────────────────────────────────┘
//	                   │                        │
//	                   ▼                        ▼
//	     ┌──────────────────────┐   ┌──────────────────────┐
//	     │      meta.Store      │   │  identity.Assigner   │
//	     │  per-object records  │   │  stable tokens for   │
//	     │  copy-on-write       │   │  any Go value        │
//	     │  inheritance         │   │                      │
//	     └──────────────────────┘   └──────────────────────┘
//
// Each object's registry lives in its metadata record under
// ["listeners", event, target]:
//
//	event name   → target set
//	target token → action set
//	method token → live action | tombstone
//
// Removal tombstones a slot instead of deleting it, so removing a
// listener on a derived object can never re-expose one inherited from
// its prototype.
//
// # Listeners
//
// A listener is a (target, method) pair, optionally with a transform
// that takes over invocation entirely:
//
//	d := beacon.NewDispatcher()
//
//	// A bare func; the target position may be skipped.
//	d.Register(doc, "saved", func() { fmt.Println("saved") }, nil, nil)
//
//	// A late-bound named method, resolved on the target at each fire.
//	d.Register(doc, "saved", logger, "RecordSave", nil)
//
//	// A transform that remaps arguments.
//	d.Register(doc, "saved", logger, "RecordSave",
//	    func(target any, method beacon.Call, args []any) error {
//	        return method(args[0])
//	    })
//
//	d.Fire(doc, "saved", time.Now())
//
// Method identity decides whether a registration is new or a refresh:
// funcs key by code pointer, names and keys by their string. Closures
// built from one literal share a code pointer; use Keyed to register
// several of them as distinct listeners.
//
// # Suspension
//
// Suspend tombstones exactly one listener, runs the body, and restores
// the prior slot state on every exit path, so an object can mutate
// itself without re-triggering its own listener:
//
//	err := d.Suspend(doc, "changed", doc, "DidChange", func(target any) error {
//	    return doc.apply(edit)
//	})
//
// # Deferred fires
//
// DeferFire freezes the listener list and arguments at capture time and
// returns a closure that replays them later in the same logical
// operation. Listeners added or removed after capture do not affect the
// replay:
//
//	replay, _ := d.DeferFire(doc, "changed", edit)
//	// ... batch more work ...
//	if err := replay(); err != nil { ... }
//
// # Inheritance
//
// Inherit links a derived object's registry to a prototype's. The child
// reads through until its first own mutation snapshots the registry
// copy-on-write; mutating either side afterwards never reaches the
// other:
//
//	d.Register(proto, "changed", nil, "DidChange", nil)
//	d.Inherit(doc, proto)
//	d.Fire(doc, "changed")   // runs proto's listener with doc as target
//
// # Error Handling
//
// Dispatch is fail-fast: the first error from a hook, the invocation
// protocol, or a listener aborts the remaining listeners of that fire
// and surfaces to the caller unmodified. There is no per-listener
// isolation and no recovery; a panicking listener unwinds through Fire.
// Fire's boolean is a legacy contract, true whenever no error occurred.
//
// # Hooks
//
// An object may implement AddListenerNotifier, RemoveListenerNotifier,
// or Sender to observe registrations, removals, and sends on itself.
// All hooks are optional and run outside the dispatcher's lock.
//
// # Concurrency
//
// The contract is single-threaded and cooperative; re-entrancy, not
// parallelism, is the design load. A listener may register, remove,
// suspend, or fire on the same object mid-fire: each fire iterates a
// snapshot taken at its start, so pre-existing listeners are never
// skipped or doubled and mid-fire additions wait for the next fire.
// The registry is nevertheless guarded by an RWMutex and all user code
// runs outside it, so concurrent use from several goroutines is safe.
//
// # Subpackages
//
//   - identity: stable identity tokens for any Go value
//   - meta: per-object metadata records with copy-on-write inheritance
//   - instrument: zerolog-backed tracing wired through WithTrace
//   - script: a Lua host that registers scripts as listeners
package beacon
