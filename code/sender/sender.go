// Package sender implements the bus's per-consumer outbound emitter: a
// Sender lets a consumer publish events without knowing which concrete
// consumer types will receive them.
//
// The source design parameterizes Sender over a whole event-set
// (Sender<E1,...,Ek>) addressed through one erased vtable. Go's union type
// constraints can express "one of these types" as a compile-time bound on
// a single type parameter, but a union-constrained interface cannot itself
// be instantiated as a runtime value holding "any of E1..Ek" the way a
// std::variant can — so a Go Sender[E] carries exactly one declared event
// type. A consumer that emits more than one event type embeds one
// Sender[E] field per type; SetupDispatch initializes all of them in one
// pass. This is the direct rendition of "declared event set" available in
// a language without sum types baked into generics.
package sender

import "github.com/Voltaic314/eventbus/code/dispatch"

// Sender is an embeddable emitter for event type E. It holds the bus and
// the consumer set it was primed with by SetupDispatch (or by calling
// Init directly); Send resolves a target consumer among that set via
// dispatch.Route.
type Sender[E any] struct {
	bus       dispatch.Sendable
	consumers []any
	ready     bool
}

// Init primes the Sender with a bus and the full set of candidate
// downstream consumers. Calling Init more than once replaces the prior
// state; ordinary use calls it exactly once, from SetupDispatch.
func (s *Sender[E]) Init(bus dispatch.Sendable, consumers ...any) {
	s.bus = bus
	s.consumers = consumers
	s.ready = true
}

// RoundRobin re-exports dispatch.RoundRobin: Send's default queue
// argument must be the same sentinel value bus.RoundRobin names, or a
// caller comparing a dispatched queue index against bus.RoundRobin would
// never see it match what an un-indexed Send actually produced.
const RoundRobin = dispatch.RoundRobin

// Send resolves a consumer for event among the Sender's stored consumer
// set — DynamicDispatch when E implements Targeted, StaticDispatch
// otherwise — and enqueues the resulting task onto the stored bus at
// queue index q (defaulting to RoundRobin).
//
// A Sender that has never been Init'd is inert: Send is a documented
// no-op, so any consumer may uniformly declare an embedded Sender before
// SetupDispatch has run.
func (s *Sender[E]) Send(event E, q ...int) error {
	if !s.ready {
		return nil
	}
	idx := RoundRobin
	if len(q) > 0 {
		idx = q[0]
	}
	return dispatch.Route[E](s.bus, idx, event, s.consumers...)
}

// Ready reports whether Init has been called.
func (s *Sender[E]) Ready() bool { return s.ready }

// Holder is the capability SetupDispatch looks for on a consumer: a means
// to reach its embedded Sender(s) for initialization. A consumer with
// multiple Sender[E] fields returns all of them from its one Senders
// method.
type Holder interface {
	Senders() []Initializer
}

// Initializer is the narrow capability SetupDispatch needs from each of a
// consumer's embedded Senders, independent of their event type E.
type Initializer interface {
	Init(bus dispatch.Sendable, consumers ...any)
}

// SetupDispatch primes every Sender exposed by every consumer in the full
// set, so consumers can emit to each other without any manual wiring
// beyond this one call.
func SetupDispatch(bus dispatch.Sendable, consumers ...any) {
	for _, c := range consumers {
		holder, ok := c.(Holder)
		if !ok {
			continue
		}
		for _, s := range holder.Senders() {
			s.Init(bus, consumers...)
		}
	}
}
