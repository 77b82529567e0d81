package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/forgehouse/auctiond/internal/auction"
	"github.com/forgehouse/auctiond/internal/ledger"
	"github.com/forgehouse/auctiond/internal/notify"
	"github.com/forgehouse/auctiond/internal/queue"
	"github.com/forgehouse/auctiond/internal/session"
)

type recordingSender struct {
	mu  sync.Mutex
	got []string
	err error
}

func (s *recordingSender) Send(connID session.ConnectionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, text)
	return s.err
}

func (s *recordingSender) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.got))
	copy(out, s.got)
	return out
}

type fakeTask struct {
	n notify.Notification
}

func (f fakeTask) Run() notify.Notification { return f.n }

type panickingTask struct{}

func (panickingTask) Run() notify.Notification { panic("boom") }

func TestDispatcherRoutesToConnection(t *testing.T) {
	sessions := session.New()
	id := sessions.NextID()
	sessions.StartSession(id, "conn-1")

	q := queue.New()
	sender := &recordingSender{}
	d := NewDispatcher(q, sessions, sender)
	d.Start()
	defer d.Stop()

	q.Enqueue(fakeTask{n: notify.To(id, "hello")})

	deadline := time.After(time.Second)
	for {
		if got := sender.snapshot(); len(got) == 1 && got[0] == "hello" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("dispatcher did not route notification in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatcherDropsNotificationWithNoSession(t *testing.T) {
	sessions := session.New()
	q := queue.New()
	sender := &recordingSender{}
	d := NewDispatcher(q, sessions, sender)
	d.Start()
	defer d.Stop()

	q.Enqueue(fakeTask{n: notify.Dropped("nobody home")})
	q.Enqueue(fakeTask{n: notify.Dropped("still nobody")})

	time.Sleep(50 * time.Millisecond)
	if got := sender.snapshot(); len(got) != 0 {
		t.Errorf("sender got %v, want nothing written for dropped notifications", got)
	}
}

func TestDispatcherSurvivesPanickingTask(t *testing.T) {
	sessions := session.New()
	id := sessions.NextID()
	sessions.StartSession(id, "conn-1")

	q := queue.New()
	sender := &recordingSender{}
	d := NewDispatcher(q, sessions, sender)
	d.Start()
	defer d.Stop()

	q.Enqueue(panickingTask{})
	q.Enqueue(fakeTask{n: notify.To(id, "still alive")})

	deadline := time.After(time.Second)
	for {
		if got := sender.snapshot(); len(got) == 1 && got[0] == "still alive" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("dispatcher should keep processing after a panicking task")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatcherSurvivesSendError(t *testing.T) {
	sessions := session.New()
	id := sessions.NextID()
	sessions.StartSession(id, "conn-1")

	q := queue.New()
	sender := &recordingSender{err: errors.New("write failed")}
	d := NewDispatcher(q, sessions, sender)
	d.Start()
	defer d.Stop()

	q.Enqueue(fakeTask{n: notify.To(id, "hi")})
	time.Sleep(50 * time.Millisecond) // should not panic or deadlock
}

func TestExpiryWorkerEnqueuesSettlementForDueAuctions(t *testing.T) {
	book := auction.New()
	l := ledger.New()
	sessions := session.New()
	q := queue.New()

	book.Add("alice", "hat", 5, time.Now().Add(5*time.Millisecond))

	w := NewExpiryWorker(book, l, sessions, q, nil, nil)
	w.Start()
	defer w.Stop()

	task, ok := q.Dequeue()
	if !ok {
		t.Fatal("expected a settlement task to be enqueued")
	}
	n := task.Run()
	if n.HasSession {
		t.Errorf("seller is not logged in, expected a dropped notification, got %+v", n)
	}
	if got := l.GetItemsList("alice"); len(got) != 1 || got[0] != "hat" {
		t.Errorf("unsold item should return to seller, got %v", got)
	}
}
