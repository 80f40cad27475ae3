package audit

import (
	"sync"
	"time"
)

// insertTable is a batched, insert-only write queue for a single table —
// the audit package's only Table shape, adapted from the teacher's
// LogWriteQueueTable (code/db/writequeue/write_queue_table.go). The
// teacher also carries a NodeWriteQueueTable that dedups writes by
// filesystem path; this module has no equivalent concept to dedup by
// (every row here is an independent log line or dispatch outcome), so
// that variant is dropped rather than adapted — see DESIGN.md.
type insertTable struct {
	mu         sync.Mutex
	name       string
	queue      []WriteOp
	batchSize  int
	flushTimer time.Duration
	resetTimer chan struct{}
	stopChan   chan struct{}
	flushFunc  func(table string, ops []WriteOp)
}

func newInsertTable(name string, batchSize int, flushTimer time.Duration, flushFunc func(string, []WriteOp)) *insertTable {
	t := &insertTable{
		name:       name,
		batchSize:  batchSize,
		flushTimer: flushTimer,
		resetTimer: make(chan struct{}),
		stopChan:   make(chan struct{}),
		flushFunc:  flushFunc,
	}
	go t.runFlushTimer()
	return t
}

func (t *insertTable) Name() string { return t.name }

// Add queues op and flushes immediately once the batch reaches batchSize.
func (t *insertTable) Add(op WriteOp) {
	t.mu.Lock()
	t.queue = append(t.queue, op)
	if len(t.queue) >= t.batchSize {
		snapshot := t.drain()
		t.mu.Unlock()
		t.flushFunc(t.name, snapshot)
		return
	}
	t.mu.Unlock()
}

func (t *insertTable) drain() []WriteOp {
	snapshot := t.queue
	t.queue = nil
	return snapshot
}

// Flush drains whatever is pending regardless of batch size and writes it
// through flushFunc immediately, for shutdown and for DB.Query's
// read-your-writes guarantee. The drained batch is also returned so
// callers that want the written ops without a second round-trip can use
// them directly.
func (t *insertTable) Flush() []Batch {
	t.mu.Lock()
	snapshot := t.drain()
	t.mu.Unlock()

	select {
	case t.resetTimer <- struct{}{}:
	case <-t.stopChan:
	default:
	}

	if len(snapshot) == 0 {
		return nil
	}
	t.flushFunc(t.name, snapshot)
	return []Batch{{Table: t.name, Ops: snapshot}}
}

func (t *insertTable) runFlushTimer() {
	timer := time.NewTimer(t.flushTimer)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			t.mu.Lock()
			snapshot := t.drain()
			t.mu.Unlock()
			if len(snapshot) > 0 {
				t.flushFunc(t.name, snapshot)
			}
			timer.Reset(t.flushTimer)
		case <-t.resetTimer:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(t.flushTimer)
		case <-t.stopChan:
			return
		}
	}
}

func (t *insertTable) StopTimer() {
	close(t.stopChan)
}
