package bus_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Voltaic314/eventbus/code/audit"
	"github.com/Voltaic314/eventbus/code/bus"
	"github.com/Voltaic314/eventbus/code/dispatch"
	"github.com/Voltaic314/eventbus/code/sender"
)

func waitFor(t *testing.T, deadline time.Duration, cond func() bool) {
	t.Helper()
	start := time.Now()
	for time.Since(start) < deadline {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", deadline)
	}
}

type noTargetEvent struct{}

type targetEvent struct{ target uint64 }

func (e targetEvent) Target() uint64 { return e.target }

type counterConsumer struct {
	id    uint64
	count atomic.Int64
}

func (c *counterConsumer) Handle(noTargetEvent) { c.count.Add(1) }
func (c *counterConsumer) ID() uint64           { return c.id }

type targetConsumer struct {
	id    uint64
	count atomic.Int64
}

func (c *targetConsumer) Handle(targetEvent) { c.count.Add(1) }
func (c *targetConsumer) ID() uint64         { return c.id }

// Scenario 1: single-worker static dispatch selects the first handler
// capable consumer in argument order.
func TestSingleWorkerStaticDispatch(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 1, NumWorkers: 1})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	a := &counterConsumer{}
	bb := &targetConsumer{}

	if err := dispatch.StaticDispatch[noTargetEvent](b, 0, noTargetEvent{}, bb, a); err != nil {
		t.Fatalf("StaticDispatch: %v", err)
	}

	waitFor(t, time.Second, func() bool { return a.count.Load() == 1 })
	if bb.count.Load() != 0 {
		t.Fatalf("expected targetConsumer untouched, got %d", bb.count.Load())
	}
}

// Scenario 2: dynamic dispatch by identifier.
func TestDynamicDispatchByIdentifier(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 1, NumWorkers: 1})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	a := &targetConsumer{id: 1}
	bb := &targetConsumer{id: 2}

	if err := dispatch.DynamicDispatch[targetEvent](b, 0, targetEvent{target: 1}, a, bb); err != nil {
		t.Fatalf("DynamicDispatch: %v", err)
	}

	waitFor(t, time.Second, func() bool { return a.count.Load() == 1 })
	if bb.count.Load() != 0 {
		t.Fatalf("expected second consumer untouched, got %d", bb.count.Load())
	}
}

// Scenario 4: a dynamic dispatch miss (no consumer id equals the target)
// returns DispatchError without ever reaching a worker.
func TestDynamicDispatchMisses(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 1, NumWorkers: 1})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	a := &targetConsumer{id: 1}
	bb := &targetConsumer{id: 2}

	err = dispatch.DynamicDispatch[targetEvent](b, 0, targetEvent{target: 3}, a, bb)
	var de *dispatch.DispatchError
	if err == nil {
		t.Fatalf("expected DispatchError")
	}
	de, ok := err.(*dispatch.DispatchError)
	if !ok || de.Target != 3 {
		t.Fatalf("expected DispatchError{3}, got %v", err)
	}
}

// Scenario 7: an attached audit.Sink records exactly one dispatch_log row
// per successful Task.Run and zero rows for a DynamicDispatch miss, since
// the miss never reaches the bus.
func TestAuditSinkRecordsDispatchedTasksOnRealBus(t *testing.T) {
	// batchSize=1 so the one row this test writes flushes on its own
	// Add rather than waiting on the hour-long timer; the test queries
	// the sink before Bus.Close (which closes the sink's DB connection),
	// so the row must already be visible without relying on shutdown.
	sink, err := audit.NewSink(":memory:", 1, time.Hour)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}

	b, err := bus.NewBus(bus.Config{NumQueues: 1, NumWorkers: 1, Audit: sink})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	a := &counterConsumer{}
	if err := dispatch.StaticDispatch[noTargetEvent](b, 0, noTargetEvent{}, a); err != nil {
		t.Fatalf("StaticDispatch: %v", err)
	}

	c := &targetConsumer{id: 1}
	if err := dispatch.DynamicDispatch[targetEvent](b, 0, targetEvent{target: 9}, c); err == nil {
		t.Fatalf("expected DispatchError for unmatched target")
	}

	waitFor(t, time.Second, func() bool { return a.count.Load() == 1 })

	var count int
	waitFor(t, time.Second, func() bool {
		rows, err := sink.Query("SELECT event_type, outcome, queue FROM dispatch_log")
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		defer rows.Close()

		count = 0
		for rows.Next() {
			var eventType, outcome string
			var queue int
			if err := rows.Scan(&eventType, &outcome, &queue); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if outcome != "ran" {
				t.Fatalf("expected outcome=ran, got %q", outcome)
			}
			if queue != 0 {
				t.Fatalf("expected queue=0, got %d", queue)
			}
			count++
		}
		return count >= 1
	})
	if count != 1 {
		t.Fatalf("expected exactly 1 dispatch_log row (the DynamicDispatch miss must not be recorded), got %d", count)
	}
}

type blockerEvent struct{}

type blockerConsumer struct {
	received atomic.Int64
}

func (c *blockerConsumer) Handle(blockerEvent) {
	c.received.Add(1)
	time.Sleep(500 * time.Millisecond)
}

type noTargetCounter struct {
	handled atomic.Int64
}

func (c *noTargetCounter) Handle(noTargetEvent) { c.handled.Add(1) }

// Scenario 5: work-stealing keeps a second queue's items flowing while
// one worker is stuck inside a long-running handler.
func TestWorkStealingWithBlockingHandler(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 2, NumWorkers: 2})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	blocker := &blockerConsumer{}
	counter := &noTargetCounter{}

	if err := dispatch.StaticDispatch[blockerEvent](b, 0, blockerEvent{}, blocker); err != nil {
		t.Fatalf("static dispatch blocker: %v", err)
	}
	if err := dispatch.StaticDispatch[noTargetEvent](b, bus.RoundRobin, noTargetEvent{}, counter); err != nil {
		t.Fatalf("static dispatch counter 1: %v", err)
	}
	if err := dispatch.StaticDispatch[noTargetEvent](b, bus.RoundRobin, noTargetEvent{}, counter); err != nil {
		t.Fatalf("static dispatch counter 2: %v", err)
	}

	waitFor(t, 100*time.Millisecond, func() bool {
		return blocker.received.Load() == 1 && counter.handled.Load() == 2
	})
}

type initEvent struct{}

type request struct{}
type response struct{}

type requester struct {
	sendReq sender.Sender[request]
}

func (r *requester) Handle(initEvent) { r.sendReq.Send(request{}) }
func (r *requester) Senders() []sender.Initializer {
	return []sender.Initializer{&r.sendReq}
}

type receiver struct {
	sendResp sender.Sender[response]
	received atomic.Int64
}

func (r *receiver) Handle(request) {
	r.received.Add(1)
	r.sendResp.Send(response{})
}
func (r *receiver) Senders() []sender.Initializer {
	return []sender.Initializer{&r.sendResp}
}

type ackCounter struct {
	count atomic.Int64
}

func (c *ackCounter) Handle(response) { c.count.Add(1) }

// Scenario 6: sender-mediated emission across a real bus, wired purely
// through SetupDispatch.
func TestSenderMediatedEmissionOnRealBus(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 2, NumWorkers: 2})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	req := &requester{}
	recv := &receiver{}
	ack := &ackCounter{}

	sender.SetupDispatch(b, req, recv, ack)

	if err := dispatch.StaticDispatch[initEvent](b, bus.RoundRobin, initEvent{}, req); err != nil {
		t.Fatalf("kickoff: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return recv.received.Load() == 1 && ack.count.Load() == 1
	})
}

func TestQueueSizesHasOneEntryPerQueue(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 2, NumWorkers: 0 + 1})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	sizes := b.QueueSizes()
	if len(sizes) != 2 {
		t.Fatalf("expected 2 queue sizes, got %d", len(sizes))
	}
}

func TestNumQueues(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 3, NumWorkers: 1})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()
	if b.NumQueues() != 3 {
		t.Fatalf("expected NumQueues()==3, got %d", b.NumQueues())
	}
}

func TestNewBusRejectsNonPositiveShape(t *testing.T) {
	if _, err := bus.NewBus(bus.Config{NumQueues: 0, NumWorkers: 1}); err == nil {
		t.Fatalf("expected error for NumQueues=0")
	}
	if _, err := bus.NewBus(bus.Config{NumQueues: 1, NumWorkers: 0}); err == nil {
		t.Fatalf("expected error for NumWorkers=0")
	}
}

func TestCloseIsIdempotentAndWaits(t *testing.T) {
	b, err := bus.NewBus(bus.Config{NumQueues: 1, NumWorkers: 2})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Close()
	}()
	b.Stop()
	wg.Wait()
}
