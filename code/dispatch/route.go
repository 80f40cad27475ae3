package dispatch

import "math"

// RoundRobin is the sentinel queue index meaning "let the bus choose":
// any value >= a bus's N_Q is out of range for an explicit placement, so
// Bus.Send falls back to its rotating dispatch counter. math.MaxInt
// satisfies that ">= N_Q" test for every bus regardless of how many
// queues it was built with, so both Sender and direct StaticDispatch/
// DynamicDispatch callers can share one sentinel value rather than each
// defining their own.
const RoundRobin = math.MaxInt

// Route is a convenience wrapper, grounded on the source design's
// GlobalDispatcherBase::Route, for callers that don't want to decide
// between StaticDispatch and DynamicDispatch by hand: it checks whether
// event implements Targeted and picks the matching resolver.
func Route[E any](bus Sendable, q int, event E, consumers ...any) error {
	if _, ok := any(event).(Targeted); ok {
		return DynamicDispatch[E](bus, q, event, consumers...)
	}
	return StaticDispatch[E](bus, q, event, consumers...)
}
