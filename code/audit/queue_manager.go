package audit

import (
	"sync"
	"time"
)

// writeQueue manages one insertTable per registered table name, adapted
// from the teacher's WriteQueue (code/db/writequeue/write_queue.go).
type writeQueue struct {
	mu        sync.Mutex
	tables    map[string]Table
	batchSize int
	flushTime time.Duration
	flushFunc func(table string, ops []WriteOp)
}

func newWriteQueue(batchSize int, flushTime time.Duration, flushFunc func(string, []WriteOp)) *writeQueue {
	return &writeQueue{
		tables:    make(map[string]Table),
		batchSize: batchSize,
		flushTime: flushTime,
		flushFunc: flushFunc,
	}
}

func (wq *writeQueue) table(name string) Table {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	tbl, ok := wq.tables[name]
	if !ok {
		tbl = newInsertTable(name, wq.batchSize, wq.flushTime, wq.flushFunc)
		wq.tables[name] = tbl
	}
	return tbl
}

func (wq *writeQueue) add(table string, op WriteOp) {
	wq.table(table).Add(op)
}

func (wq *writeQueue) flush(table string) []Batch {
	wq.mu.Lock()
	tbl, ok := wq.tables[table]
	wq.mu.Unlock()
	if !ok {
		return nil
	}
	return tbl.Flush()
}

func (wq *writeQueue) flushAll() {
	wq.mu.Lock()
	names := make([]string, 0, len(wq.tables))
	for name := range wq.tables {
		names = append(names, name)
	}
	wq.mu.Unlock()

	for _, name := range names {
		wq.flush(name)
	}
}

func (wq *writeQueue) stop() {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	for _, tbl := range wq.tables {
		tbl.StopTimer()
	}
}

// tableHandle is a thin view of one table's queue, handed out by
// DB.GetWriteQueue so a caller (the logging package) can Add without
// knowing the table name again.
type tableHandle struct {
	wq    *writeQueue
	table string
}

func (h tableHandle) Add(op WriteOp) { h.wq.add(h.table, op) }
