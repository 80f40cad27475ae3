// Package task implements the bus's erased, one-shot unit of work: a
// consumer reference bound to an event value.
package task

import "fmt"

// Handler is the plain one-argument handler shape a consumer may expose to
// run a Task built by Of. The other shape, QueueAwareHandler, also
// receives the dispatching worker's primary queue index so the handler can
// re-enqueue follow-up work locally.
type Handler[E any] interface {
	Handle(E)
}

// QueueAwareHandler is the Handle(E, q int) variant of Handler.
type QueueAwareHandler[E any] interface {
	Handle(E, int)
}

// Task is the narrow interface the bus's queues store. Every boundTask[C, E]
// instantiation satisfies it; the queue never needs to know C or E.
type Task interface {
	// Run invokes the bound handler with the bound event. q is the primary
	// queue index of the worker running the task. Run must be called at
	// most once.
	Run(q int)
	// Valid reports whether this Task carries a payload. The zero value of
	// any Task implementation, and the Task interface's nil value, are both
	// invalid — TryDequeue returns one of these to signal "empty".
	Valid() bool
	// EventType names the bound event's concrete type, for an attached
	// audit sink's dispatch_log rows (§11 of the design this module
	// follows). It carries no behavior of its own.
	EventType() string
	// ConsumerID reports the bound consumer's identifier, if it has one.
	ConsumerID() (id uint64, ok bool)
}

// Of constructs a Task bound to consumer c and event e. Exactly one of the
// two handler shapes is used at Run time, chosen by which one c implements;
// construction does not require c to implement either yet, since some
// call sites (e.g. dispatch resolvers) verify the capability before calling
// Of and want the construction itself to be infallible.
func Of[C any, E any](c C, e E) Task {
	return &boundTask[C, E]{consumer: c, event: e, valid: true}
}

type boundTask[C any, E any] struct {
	consumer C
	event    E
	valid    bool
	ran      bool
}

func (t *boundTask[C, E]) Valid() bool { return t != nil && t.valid }

func (t *boundTask[C, E]) EventType() string {
	var e E
	return fmt.Sprintf("%T", e)
}

// identified is a structural duplicate of dispatch.Identified; task
// cannot import dispatch (dispatch already imports task), so the
// capability check is re-declared here rather than shared.
type identified interface {
	ID() uint64
}

func (t *boundTask[C, E]) ConsumerID() (uint64, bool) {
	if id, ok := any(t.consumer).(identified); ok {
		return id.ID(), true
	}
	return 0, false
}

// Run dispatches to whichever handler shape the consumer implements,
// preferring the queue-aware form. Calling Run twice is a programmer error;
// the second call is a silent no-op rather than a panic, since a worker
// that already ran this task has no way to observe a panic anyway once it
// has moved on to its next iteration.
func (t *boundTask[C, E]) Run(q int) {
	if t == nil || !t.valid || t.ran {
		return
	}
	t.ran = true

	if h, ok := any(t.consumer).(QueueAwareHandler[E]); ok {
		h.Handle(t.event, q)
		return
	}
	if h, ok := any(t.consumer).(Handler[E]); ok {
		h.Handle(t.event)
		return
	}
	// Unreachable for tasks constructed by the dispatch resolver, which
	// only builds a Task after confirming one of the two shapes above.
}
