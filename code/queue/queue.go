// Package queue provides the bus's two interchangeable task-holding
// implementations behind one contract: Enqueue, TryDequeue, Size.
package queue

import "github.com/Voltaic314/eventbus/code/task"

// Queue is the contract both MutexQueue and LockFreeRingQueue satisfy. A
// worker never knows which variant backs the queues in its bus.
type Queue interface {
	// Enqueue places t on the queue. It must not drop t; it may block
	// briefly under contention.
	Enqueue(t task.Task)
	// TryDequeue returns the next task, or an invalid Task if the queue is
	// empty or momentarily unavailable. It never blocks for long.
	TryDequeue() task.Task
	// Size is a best-effort snapshot of the number of pending tasks.
	Size() int
	// Close makes later Enqueue calls no-ops and wakes goroutines parked
	// inside TryDequeue/Enqueue so they can observe a stop signal.
	// MutexQueue also drops its pending tasks; LockFreeRingQueue leaves
	// them in their slots.
	Close()
}
