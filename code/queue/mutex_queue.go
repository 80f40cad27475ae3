package queue

import (
	"sync"

	"github.com/Voltaic314/eventbus/code/task"
)

// MutexQueue is an unbounded, mutex-protected FIFO. It never fails on
// Enqueue and never blocks TryDequeue for longer than the O(1) critical
// section needed to pop the head.
type MutexQueue struct {
	mu     sync.Mutex
	tasks  []task.Task
	closed bool
}

// NewMutexQueue returns an empty MutexQueue ready for use.
func NewMutexQueue() *MutexQueue {
	return &MutexQueue{}
}

func (q *MutexQueue) Enqueue(t task.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(q.tasks, t)
}

// TryDequeue pops the head of the FIFO, or returns nil (an invalid Task) if
// the queue is currently empty.
func (q *MutexQueue) TryDequeue() task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t
}

func (q *MutexQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close drops all pending tasks and marks the queue so further Enqueue
// calls are silently ignored. There is nothing to wake here — unlike the
// ring queue, TryDequeue never parks on this variant.
func (q *MutexQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.tasks = nil
}
