package beacon

import "sync/atomic"

// Stats is a snapshot of dispatcher activity counters.
type Stats struct {
	// Registrations is the total number of Register calls that stored
	// or refreshed a listener.
	Registrations uint64

	// Removals is the total number of Unregister calls.
	Removals uint64

	// Suspensions is the total number of Suspend calls.
	Suspensions uint64

	// Fires is the total number of Fire calls past argument validation.
	Fires uint64

	// Invocations is the total number of listener invocations attempted.
	Invocations uint64

	// Captures is the number of DeferFire snapshots taken.
	Captures uint64

	// Replays is the number of deferred closures invoked.
	Replays uint64

	// Errors is the number of dispatches aborted by a hook, protocol,
	// or listener error.
	Errors uint64
}

// counters backs Stats with atomics so dispatch paths never take a lock
// to count.
type counters struct {
	registrations atomic.Uint64
	removals      atomic.Uint64
	suspensions   atomic.Uint64
	fires         atomic.Uint64
	invocations   atomic.Uint64
	captures      atomic.Uint64
	replays       atomic.Uint64
	errors        atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Registrations: c.registrations.Load(),
		Removals:      c.removals.Load(),
		Suspensions:   c.suspensions.Load(),
		Fires:         c.fires.Load(),
		Invocations:   c.invocations.Load(),
		Captures:      c.captures.Load(),
		Replays:       c.replays.Load(),
		Errors:        c.errors.Load(),
	}
}
