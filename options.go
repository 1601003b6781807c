package beacon

import "github.com/dshills/beacon/identity"

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAssigner sets the identity assigner the dispatcher keys objects,
// targets, and methods with. The default is the process-wide assigner,
// so tokens observed outside the dispatcher line up with its own.
func WithAssigner(ids *identity.Assigner) Option {
	return func(d *Dispatcher) {
		if ids != nil {
			d.ids = ids
		}
	}
}

// WithTrace sets a tracer that receives a TraceRecord for every
// dispatch operation. Tracing is off by default.
func WithTrace(fn TraceFunc) Option {
	return func(d *Dispatcher) {
		d.trace = fn
	}
}
