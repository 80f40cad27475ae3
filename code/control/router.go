// Package control is a lightweight pub/sub signal layer, adapted from
// the teacher's code/signals/router.go topic/ack model. The bus uses one
// Router internally to fan out its shutdown signal to worker-adjacent
// goroutines that are not themselves workers — an attached audit.Sink's
// flush timer, for instance — so Bus.Close can optionally block until
// that subscriber has acknowledged before returning.
//
// The teacher's router supports an arbitrary number of subscribers per
// topic and aggregates their independent acks toward an AckAny/AckAll
// quorum. Every topic this module ever publishes to has exactly one
// subscriber (the audit sink's shutdown listener), so that aggregation
// has no caller here: Subscribe takes one mailbox per topic — a second
// Subscribe call for the same topic replaces the first rather than
// adding a second — and PublishWithAck waits on that one subscriber's
// ack directly instead of fanning out through a per-topic goroutine and
// aggregating N acks. AckMode keeps its three values for parity with the
// teacher's Signal shape (AckAny and AckAll are equivalent with exactly
// one subscriber), but neither branch carries the teacher's N-way
// aggregation.
//
// Unlike the teacher's package-level GlobalSR singleton, a Router here is
// owned by the Bus that creates it: the bus design requires no global
// mutable state (SPEC_FULL §9), and a control plane shared across
// unrelated buses in the same process would violate that.
package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AckMode selects whether PublishWithAck waits for its topic's
// subscriber to acknowledge a Signal before returning.
type AckMode int

const (
	AckNone AckMode = iota
	AckAny
	AckAll
)

// Signal is one message published to a topic.
type Signal struct {
	Topic     string
	Payload   any
	Ack       chan struct{}
	AckMode   AckMode
	Timestamp time.Time
	ID        string
}

// Router delivers Signals published to a topic to that topic's one
// subscriber mailbox.
type Router struct {
	mu     sync.RWMutex
	topics map[string]chan Signal
}

// NewRouter returns a Router with no topics yet; topics are registered
// lazily by the first Subscribe call.
func NewRouter() *Router {
	return &Router{topics: make(map[string]chan Signal)}
}

// Subscribe registers mailbox as topic's subscriber. A later Subscribe
// call for the same topic replaces the earlier mailbox.
func (r *Router) Subscribe(topic string, mailbox chan Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics[topic] = mailbox
}

// Publish delivers sig to sig.Topic's subscriber, if one is registered.
// A Signal published to a topic with no subscriber is silently dropped —
// there is nothing to deliver it to.
func (r *Router) Publish(sig Signal) {
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}

	r.mu.RLock()
	mailbox, ok := r.topics[sig.Topic]
	r.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case mailbox <- sig:
	default:
		// mailbox is full; drop rather than block the publisher.
	}
}

// PublishWithAck publishes sig and, unless sig.AckMode is AckNone, blocks
// until sig.Topic's subscriber acknowledges it or timeout elapses.
func (r *Router) PublishWithAck(sig Signal, timeout time.Duration) error {
	if sig.AckMode == AckNone {
		r.Publish(sig)
		return nil
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	sig.Ack = make(chan struct{}, 1)
	r.Publish(sig)

	select {
	case <-sig.Ack:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("eventbus/control: ack timed out: topic=%s id=%s", sig.Topic, sig.ID)
	}
}
