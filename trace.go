package beacon

import (
	"github.com/google/uuid"

	"github.com/dshills/beacon/identity"
)

// TraceOp identifies the dispatch operation a TraceRecord describes.
type TraceOp uint8

const (
	// TraceRegister records a stored or refreshed listener.
	TraceRegister TraceOp = iota + 1

	// TraceUnregister records a removal attempt.
	TraceUnregister

	// TraceSuspend records a listener suspension.
	TraceSuspend

	// TraceFire records the start of a synchronous fire.
	TraceFire

	// TraceInvoke records one listener invocation, successful or not.
	TraceInvoke

	// TraceCapture records a DeferFire snapshot.
	TraceCapture

	// TraceReplay records a deferred closure starting its replay.
	TraceReplay
)

// String returns the operation name.
func (o TraceOp) String() string {
	switch o {
	case TraceRegister:
		return "register"
	case TraceUnregister:
		return "unregister"
	case TraceSuspend:
		return "suspend"
	case TraceFire:
		return "fire"
	case TraceInvoke:
		return "invoke"
	case TraceCapture:
		return "capture"
	case TraceReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// TraceRecord describes one dispatch operation. Records for the
// invocations of a fire carry the fire's ID; a deferred capture and
// every record of its replays share the capture's ID.
type TraceRecord struct {
	// Op is the operation being recorded.
	Op TraceOp

	// FireID correlates the records of one fire or deferred capture.
	// It is uuid.Nil for registration-side operations.
	FireID uuid.UUID

	// Object is the identity token of the object dispatched on.
	Object identity.Token

	// Event is the event name.
	Event string

	// Target is the identity token of the listener's target, when the
	// record concerns a single listener.
	Target identity.Token

	// Method is the display form of the listener's method, when the
	// record concerns a single listener.
	Method string

	// Args is the number of firing arguments.
	Args int

	// Err is the error that aborted the operation, if any.
	Err error
}

// TraceFunc receives trace records. It runs synchronously on the
// dispatching goroutine and must not call back into the dispatcher.
type TraceFunc func(TraceRecord)

// emit forwards a record to the configured tracer, if any.
func (d *Dispatcher) emit(r TraceRecord) {
	if d.trace != nil {
		d.trace(r)
	}
}

// newFireID mints a correlation ID, skipping the work when nothing is
// tracing.
func (d *Dispatcher) newFireID() uuid.UUID {
	if d.trace == nil {
		return uuid.Nil
	}
	return uuid.New()
}
