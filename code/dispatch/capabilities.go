// Package dispatch resolves which consumer, among a heterogeneous set of
// candidates, handles a given event — the Go analog of the compile-time
// capability checks ("has_handler", "has_id", "has_target", "has_sender")
// this design is built around. Go has no template substitution-failure
// mechanism, so each capability is a small interface and the check is a
// type assertion performed once per dispatch call.
package dispatch

import "github.com/Voltaic314/eventbus/code/task"

// Identified is the capability checked in place of "has_id<T>": a consumer
// exposing a stable identifier usable for dynamic dispatch and, at the
// caller's discretion, for deterministic queue placement.
type Identified interface {
	ID() uint64
}

// Targeted is the capability checked in place of "has_target<E>": an event
// exposing the identifier of the consumer it is meant for.
type Targeted interface {
	Target() uint64
}

// canHandle reports whether c implements either Handler[E] or
// QueueAwareHandler[E] shape for the concrete event type E — the Go
// equivalent of "has_handler<T,E>".
func canHandle[E any](c any) bool {
	if _, ok := c.(task.Handler[E]); ok {
		return true
	}
	_, ok := c.(task.QueueAwareHandler[E])
	return ok
}
