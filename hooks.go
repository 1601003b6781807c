package beacon

// Optional hooks an object may implement to observe its own dispatch
// traffic. Absence of any hook is not an error. Hooks receive the
// normalized target and method, and they run outside the dispatcher's
// lock, so a hook may call back into the dispatcher.

// AddListenerNotifier is notified after every registration against the
// object, including a re-registration that only refreshed a transform.
type AddListenerNotifier interface {
	DidAddListener(event string, target any, method Method)
}

// RemoveListenerNotifier is notified after every removal attempt
// against the object, whether or not a matching listener existed.
type RemoveListenerNotifier interface {
	DidRemoveListener(event string, target any, method Method)
}

// Sender intercepts event sends on the object. Fire and a deferred
// replay invoke SendEvent with the event and arguments before standard
// dispatch; a non-nil error aborts the dispatch and surfaces to the
// caller. The dispatcher never invokes the hook on itself.
type Sender interface {
	SendEvent(event string, args ...any) error
}
