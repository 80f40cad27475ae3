// Package bus implements the worker pool and queue array that the rest of
// this module's dispatch machinery enqueues tasks onto: a fixed array of
// N_Q queues fed by N_W workers, each worker owning a primary queue index
// and work-stealing the others round-robin when its primary is empty.
package bus

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Voltaic314/eventbus/code/audit"
	"github.com/Voltaic314/eventbus/code/control"
	"github.com/Voltaic314/eventbus/code/dispatch"
	"github.com/Voltaic314/eventbus/code/logging"
	"github.com/Voltaic314/eventbus/code/queue"
	"github.com/Voltaic314/eventbus/code/task"
)

// RoundRobin re-exports dispatch.RoundRobin so callers that only import
// bus (to hold a *Bus) can still name the sentinel without also pulling
// in the dispatch package. Send's own range check against q treats this
// identically to any other out-of-range index; the shared definition
// just guarantees Sender and direct dispatch callers agree on the value.
const RoundRobin = dispatch.RoundRobin

// QueueFactory builds one Queue instance; NewBus calls it N_Q times so
// every queue in a bus shares the same backing implementation.
type QueueFactory func() (queue.Queue, error)

// MutexQueueFactory returns a QueueFactory producing MutexQueues.
func MutexQueueFactory() QueueFactory {
	return func() (queue.Queue, error) { return queue.NewMutexQueue(), nil }
}

// RingQueueFactory returns a QueueFactory producing LockFreeRingQueues of
// the given size (must be a positive power of two).
func RingQueueFactory(size int) QueueFactory {
	return func() (queue.Queue, error) { return queue.NewLockFreeRingQueue(size) }
}

// Config describes a Bus's fixed shape at construction.
type Config struct {
	NumQueues  int
	NumWorkers int
	Queues     QueueFactory

	// Audit, if non-nil, receives one DispatchRecord per Task.Run. It is
	// entirely optional: a Bus built with no Audit sink never touches the
	// audit package's DuckDB dependency at runtime (SPEC_FULL §11).
	Audit *audit.Sink
}

// Bus owns N_Q queues and N_W workers. Once constructed it is safe for
// concurrent use by any number of producer goroutines calling Send; the
// workers it owns are started by NewBus and stopped by Stop/Close.
type Bus struct {
	queues    []queue.Queue
	workers   []*worker
	counter   atomic.Uint64
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	audit   *audit.Sink
	control *control.Router
}

// NewBus constructs a bus per cfg and immediately starts its workers.
func NewBus(cfg Config) (*Bus, error) {
	if cfg.NumQueues <= 0 {
		return nil, fmt.Errorf("eventbus: NumQueues must be positive, got %d", cfg.NumQueues)
	}
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("eventbus: NumWorkers must be positive, got %d", cfg.NumWorkers)
	}
	if cfg.Queues == nil {
		cfg.Queues = MutexQueueFactory()
	}

	b := &Bus{
		queues:  make([]queue.Queue, cfg.NumQueues),
		stop:    make(chan struct{}),
		audit:   cfg.Audit,
		control: control.NewRouter(),
	}
	for i := range b.queues {
		q, err := cfg.Queues()
		if err != nil {
			return nil, fmt.Errorf("eventbus: constructing queue %d: %w", i, err)
		}
		b.queues[i] = q
	}

	logging.GlobalLogger.Log("info", "bus", "", "starting bus", map[string]any{
		"numQueues":  cfg.NumQueues,
		"numWorkers": cfg.NumWorkers,
	}, "BUS_START", "")

	if b.audit != nil {
		b.subscribeAuditShutdown()
	}

	for w := 0; w < cfg.NumWorkers; w++ {
		wk := &worker{id: newWorkerID(), primary: w % cfg.NumQueues, bus: b}
		b.workers = append(b.workers, wk)
		b.wg.Add(1)
		go wk.run(&b.wg)
	}

	return b, nil
}

// subscribeAuditShutdown wires the attached audit.Sink's Close into the
// bus's control-plane shutdown signal, so Close can optionally wait for
// the sink to drain before returning (SPEC_FULL §12).
func (b *Bus) subscribeAuditShutdown() {
	mailbox := make(chan control.Signal, 1)
	b.control.Subscribe(shutdownTopic, mailbox)
	go func() {
		sig := <-mailbox
		b.audit.Close()
		if sig.Ack != nil {
			sig.Ack <- struct{}{}
		}
	}()
}

// shutdownTopic is the control-plane topic Bus.Close publishes to when
// an audit sink is attached.
const shutdownTopic = "bus.shutdown"

// Send places t onto queue q, or onto a rotating queue chosen by the
// bus's dispatch counter when q is RoundRobin or otherwise out of range.
func (b *Bus) Send(t task.Task, q int) {
	if q >= 0 && q < len(b.queues) {
		b.queues[q].Enqueue(t)
		return
	}
	idx := int(b.counter.Add(1)-1) % len(b.queues)
	b.queues[idx].Enqueue(t)
}

// QueueSizes returns a best-effort snapshot of pending-task counts, one
// per queue, in queue-index order.
func (b *Bus) QueueSizes() []int {
	sizes := make([]int, len(b.queues))
	for i, q := range b.queues {
		sizes[i] = q.Size()
	}
	return sizes
}

// NumQueues reports N_Q.
func (b *Bus) NumQueues() int { return len(b.queues) }

// Stop signals every worker to exit its loop after finishing any task it
// is currently running. It does not wait for them; call Close to do both.
func (b *Bus) Stop() {
	b.closeOnce.Do(func() {
		close(b.stop)
		for _, q := range b.queues {
			q.Close()
		}
	})
	logging.GlobalLogger.Log("info", "bus", "", "bus stop requested", nil, "BUS_STOP", "")
}

// Close stops the bus, blocks until every worker goroutine has exited,
// and — if an audit sink is attached — waits (up to 2s) for it to flush
// and close before returning.
func (b *Bus) Close() {
	b.Stop()
	b.wg.Wait()
	if b.audit != nil {
		if err := b.control.PublishWithAck(control.Signal{Topic: shutdownTopic, AckMode: control.AckAll}, 2*time.Second); err != nil {
			logging.GlobalLogger.Log("warning", "bus", "", "audit sink did not acknowledge shutdown in time", map[string]any{
				"error": err.Error(),
			}, "BUS_CLOSE", "")
		}
	}
	logging.GlobalLogger.Log("info", "bus", "", "bus closed", nil, "BUS_CLOSE", "")
}

// recordAudit persists a dispatch outcome for t if an audit sink is
// attached; otherwise it is a no-op, the common case.
func (b *Bus) recordAudit(t task.Task, q int) {
	if b.audit == nil {
		return
	}
	consumerID := ""
	if id, ok := t.ConsumerID(); ok {
		consumerID = strconv.FormatUint(id, 10)
	}
	b.audit.Record(audit.DispatchRecord{
		EventType:  t.EventType(),
		ConsumerID: consumerID,
		Queue:      q,
		Outcome:    "ran",
	})
}
