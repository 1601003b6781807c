package beacon

import "sync"

// defaultDispatcher is the process-wide dispatcher instance.
var (
	defaultDispatcher *Dispatcher
	dispatcherOnce    sync.Once
)

// Default returns the process-wide dispatcher, creating it on first
// use. It is keyed by the process-wide identity assigner.
func Default() *Dispatcher {
	dispatcherOnce.Do(func() {
		defaultDispatcher = NewDispatcher()
	})
	return defaultDispatcher
}

// Register stores a listener on the default dispatcher.
func Register(obj any, event string, target, method any, transform Transform) error {
	return Default().Register(obj, event, target, method, transform)
}

// Unregister removes a listener on the default dispatcher.
func Unregister(obj any, event string, target, method any) error {
	return Default().Unregister(obj, event, target, method)
}

// Suspend suspends one listener on the default dispatcher for the
// duration of body.
func Suspend(obj any, event string, target, method any, body func(target any) error) error {
	return Default().Suspend(obj, event, target, method, body)
}

// Fire dispatches an event on the default dispatcher.
func Fire(obj any, event string, args ...any) (bool, error) {
	return Default().Fire(obj, event, args...)
}

// DeferFire snapshots an event on the default dispatcher and returns
// the replay closure.
func DeferFire(obj any, event string, args ...any) (func() error, error) {
	return Default().DeferFire(obj, event, args...)
}

// HasListeners reports listener presence on the default dispatcher.
func HasListeners(obj any, event string) bool {
	return Default().HasListeners(obj, event)
}

// ListenersFor lists live registrations on the default dispatcher.
func ListenersFor(obj any, event string) []Registration {
	return Default().ListenersFor(obj, event)
}

// WatchedEvents lists watched event names on the default dispatcher.
func WatchedEvents(obj any) []string {
	return Default().WatchedEvents(obj)
}

// Inherit links child's registry resolution to parent on the default
// dispatcher.
func Inherit(child, parent any) error {
	return Default().Inherit(child, parent)
}

// Forget drops an object's registry state from the default dispatcher.
func Forget(obj any) {
	Default().Forget(obj)
}
