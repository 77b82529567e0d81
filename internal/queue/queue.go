// Package queue implements the single-consumer task queue (spec.md
// §4.6): a thread-safe FIFO of deferred work with a blocking dequeue.
//
// Grounded on _examples/original_source/include/tasks_queue.h (a mutex
// and condition variable guarding a std::list), translated into Go's
// sync.Mutex/sync.Cond. Tasks are opaque to the queue (spec.md §3); the
// queue only orders and hands them off.
package queue

import (
	"sync"

	"github.com/forgehouse/auctiond/internal/notify"
)

// Task is a deferred unit of work. Run executes it against whatever
// shared state it closes over and returns exactly one notification
// (spec.md §3). Task is implemented by internal/worker's CommandTask
// and settlement tasks.
type Task interface {
	Run() notify.Notification
}

// Queue is the process-wide task queue. Exactly one instance exists per
// server (spec.md §9); it is shared by reference, never through an
// ambient global.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []Task
	closed bool
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends task at the tail and wakes one waiting consumer.
// Multiple producers may call Enqueue concurrently; each producer's own
// enqueues remain ordered relative to each other (spec.md §4.6).
func (q *Queue) Enqueue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks = append(q.tasks, t)
	q.cond.Signal()
}

// Dequeue blocks until the queue is non-empty or Close has been called,
// then pops from the head. The ok return is false only after Close,
// once the queue has drained, signaling the consumer to stop.
func (q *Queue) Dequeue() (t Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.tasks) == 0 {
		return nil, false
	}

	t = q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// Close wakes any goroutine blocked in Dequeue and marks the queue
// closed, used during shutdown so the dispatcher can stop once drained
// instead of blocking forever.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// TaskFunc adapts a plain function to Task, letting callers enqueue a
// closure directly instead of declaring a named type per call site.
type TaskFunc func() notify.Notification

// Run calls f.
func (f TaskFunc) Run() notify.Notification { return f() }

// Len reports the number of tasks currently queued, for metrics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
