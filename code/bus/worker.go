package bus

import (
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/Voltaic314/eventbus/code/logging"
)

// worker owns one primary queue index into its bus's queue array and
// cycles through the rest when the primary is empty, the Go rendition of
// the work-stealing pass described for the lock-free revision of this
// design (the mutex-queue WorkerUnit the teacher's source is grounded on
// instead parks on a condition variable per worker-per-queue; this bus
// shares N_Q queues across N_W workers, so a worker must probe rather
// than simply block on its own queue).
type worker struct {
	id      string
	primary int
	bus     *Bus
}

// run is the worker's goroutine body: probe primary, then the remaining
// queues round-robin from primary, running the first valid task found;
// when every queue comes up empty, yield once and restart the pass. It
// exits once the bus's stop channel is closed.
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logging.GlobalLogger.Log("debug", "worker", w.id, "worker started", map[string]any{
		"primary": w.primary,
	}, "WORKER_START", "")

	n := len(w.bus.queues)
	for {
		select {
		case <-w.bus.stop:
			logging.GlobalLogger.Log("debug", "worker", w.id, "worker stopped", nil, "WORKER_STOP", "")
			return
		default:
		}

		found := false
		for i := 0; i < n; i++ {
			idx := (w.primary + i) % n
			t := w.bus.queues[idx].TryDequeue()
			if t == nil || !t.Valid() {
				continue
			}
			t.Run(w.primary)
			w.bus.recordAudit(t, w.primary)
			found = true
			break
		}
		if !found {
			select {
			case <-w.bus.stop:
				logging.GlobalLogger.Log("debug", "worker", w.id, "worker stopped", nil, "WORKER_STOP", "")
				return
			default:
				runtime.Gosched()
			}
		}
	}
}

// newWorkerID mirrors the teacher's WorkerBase.GenerateID convention of a
// short opaque identifier per worker, but draws it from the shared UUID
// generator the rest of this module already depends on rather than
// hand-rolling a random-charset builder.
func newWorkerID() string {
	return uuid.NewString()
}
