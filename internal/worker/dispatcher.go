// Package worker provides the two long-running workers the design
// requires beyond the network reactor (spec.md §4.7, §5): the
// dispatcher, which drains the task queue and routes notifications to
// connections, and the expiry worker, which drives the auction book's
// timed-wait loop.
//
// Grounded on the teacher's internal/node/retry_worker.go Start/Stop
// shape (a context.CancelFunc stored alongside the goroutine, a
// component logger, explicit config), adapted from a ticker-driven poll
// loop to the blocking-wait loops spec.md §4.7 specifies.
package worker

import (
	"context"

	"github.com/forgehouse/auctiond/internal/notify"
	"github.com/forgehouse/auctiond/internal/queue"
	"github.com/forgehouse/auctiond/internal/session"
	"github.com/forgehouse/auctiond/pkg/logging"
)

// Sender writes a notification's text to the connection backing a
// session. Implemented by internal/transport; abstracted here so the
// dispatcher does not import the transport package directly.
type Sender interface {
	Send(connID session.ConnectionID, text string) error
}

// Dispatcher is T_dispatch (spec.md §5): the single consumer of the
// task queue and the only writer to connections after startup.
type Dispatcher struct {
	queue    *queue.Queue
	sessions *session.Registry
	sender   Sender
	log      *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher constructs a dispatcher over q, resolving notification
// addressees through sessions and writing them out via sender.
func NewDispatcher(q *queue.Queue, sessions *session.Registry, sender Sender) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:    q,
		sessions: sessions,
		sender:   sender,
		log:      logging.GetDefault().Component("dispatcher"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start runs the dispatch loop in a new goroutine.
func (d *Dispatcher) Start() {
	go d.run()
	d.log.Info("dispatcher started")
}

// Stop signals the loop to stop and closes the underlying queue so a
// blocked Dequeue wakes up, then waits for the loop to exit.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.queue.Close()
	<-d.done
	d.log.Info("dispatcher stopped")
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		task, ok := d.queue.Dequeue()
		if !ok {
			return
		}

		n := d.execute(task)
		d.route(n)

		select {
		case <-d.ctx.Done():
			return
		default:
		}
	}
}

// execute runs one task, recovering from an unexpected panic the way
// spec.md §4.7 requires: the dispatcher logs the failure and continues,
// leaving the ledger/book as-is since tasks are expected to uphold
// their own invariants.
func (d *Dispatcher) execute(t queue.Task) (n notify.Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("task panicked", "recovered", r)
			n = notify.Dropped("")
		}
	}()
	return t.Run()
}

func (d *Dispatcher) route(n notify.Notification) {
	if !n.HasSession {
		return
	}
	connID, ok := d.sessions.GetConnectionID(n.SessionID)
	if !ok {
		return
	}
	if err := d.sender.Send(connID, n.Text); err != nil {
		d.log.Warn("failed to write notification", "error", err)
	}
}
