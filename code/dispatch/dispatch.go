package dispatch

import (
	"github.com/Voltaic314/eventbus/code/task"
)

// Sendable is the only capability the resolver needs from a bus: the
// ability to place a constructed task onto one of its queues. Keeping this
// as a narrow interface (rather than importing the bus package directly)
// keeps dispatch free of a bus->dispatch/dispatch->bus import cycle, the
// same loose coupling the teacher's own QueuePublisher/Conductor pair uses
// via a small ConductorInterface.
type Sendable interface {
	Send(t task.Task, q int)
}

// StaticDispatch resolves, in argument order, the first consumer capable
// of handling event, builds a Task for it, and sends that task to bus at
// queue index q. Consumer identifiers are never consulted.
//
// If no candidate can handle E, StaticDispatch returns a *UsageError
// instead of failing to compile, since Go cannot enforce this at the call
// site the way a template-based resolver can.
func StaticDispatch[E any](bus Sendable, q int, event E, consumers ...any) error {
	for _, c := range consumers {
		if canHandle[E](c) {
			bus.Send(task.Of[any, E](c, event), q)
			return nil
		}
	}
	return &UsageError{Reason: "static dispatch found no handler-capable consumer"}
}

// DynamicDispatch requires event to implement Targeted. It resolves, in
// argument order, the first consumer that both can handle E and whose
// Identified.ID() equals event.Target(), builds a Task for it, and sends
// it to bus at queue index q. If no candidate matches, it returns
// *DispatchError carrying the unmatched target.
func DynamicDispatch[E any](bus Sendable, q int, event E, consumers ...any) error {
	targeted, ok := any(event).(Targeted)
	if !ok {
		return &UsageError{Reason: "dynamic dispatch requires an event implementing Target() uint64"}
	}
	target := targeted.Target()

	for _, c := range consumers {
		if !canHandle[E](c) {
			continue
		}
		id, ok := c.(Identified)
		if !ok {
			continue
		}
		if id.ID() == target {
			bus.Send(task.Of[any, E](c, event), q)
			return nil
		}
	}
	return &DispatchError{Target: target}
}
