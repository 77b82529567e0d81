package worker

import (
	"context"
	"time"

	"github.com/forgehouse/auctiond/internal/audit"
	"github.com/forgehouse/auctiond/internal/auction"
	"github.com/forgehouse/auctiond/internal/ledger"
	"github.com/forgehouse/auctiond/internal/metrics"
	"github.com/forgehouse/auctiond/internal/notify"
	"github.com/forgehouse/auctiond/internal/queue"
	"github.com/forgehouse/auctiond/internal/session"
	"github.com/forgehouse/auctiond/internal/settlement"
	"github.com/forgehouse/auctiond/pkg/logging"
)

// ExpiryWorker is T_expire (spec.md §5): it blocks on the auction
// book's timed wait, collects whatever is due, and enqueues a
// settlement task per expired auction.
type ExpiryWorker struct {
	book     *auction.Book
	ledger   *ledger.Ledger
	sessions *session.Registry
	queue    *queue.Queue
	audit    *audit.Log
	metrics  *metrics.Registry
	log      *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewExpiryWorker constructs the expiry worker over the shared book,
// ledger, session registry, and task queue. auditLog and reg are
// optional (nil-safe) — either may be omitted.
func NewExpiryWorker(book *auction.Book, l *ledger.Ledger, sessions *session.Registry, q *queue.Queue, auditLog *audit.Log, reg *metrics.Registry) *ExpiryWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpiryWorker{
		book:     book,
		ledger:   l,
		sessions: sessions,
		queue:    q,
		audit:    auditLog,
		metrics:  reg,
		log:      logging.GetDefault().Component("expiry-worker"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start runs the expiry loop in a new goroutine.
func (w *ExpiryWorker) Start() {
	go w.run()
	w.log.Info("expiry worker started")
}

// Stop signals the loop to stop and wakes the book's blocked waiter,
// then waits for the loop to exit.
func (w *ExpiryWorker) Stop() {
	w.cancel()
	w.book.Stop()
	<-w.done
	w.log.Info("expiry worker stopped")
}

func (w *ExpiryWorker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.book.WaitForExpired()

		select {
		case <-w.ctx.Done():
			return
		default:
		}

		expired := w.book.CollectExpired(time.Now())
		for _, a := range expired {
			w.log.Debug("auction expired", "auction", a.ID, "owner", a.Owner, "item", a.Item)
			if w.metrics != nil {
				w.metrics.AuctionsActive.Dec()
			}
			w.queue.Enqueue(settlementTask{
				ledger: w.ledger, sessions: w.sessions, auction: a,
				audit: w.audit, metrics: w.metrics,
			})
		}
	}
}

// settlementTask adapts settlement.SettleDetailed to queue.Task,
// recording the outcome to the audit log and metrics alongside
// producing the notification.
type settlementTask struct {
	ledger   *ledger.Ledger
	sessions *session.Registry
	auction  auction.Auction
	audit    *audit.Log
	metrics  *metrics.Registry
}

func (t settlementTask) Run() notify.Notification {
	n, outcome := settlement.SettleDetailed(t.ledger, t.sessions, t.auction)

	if t.audit != nil {
		auditOutcome := audit.OutcomeUnsold
		if outcome == settlement.Sold {
			auditOutcome = audit.OutcomeSold
		}
		t.audit.RecordSettlement(t.auction.ID, t.auction.Owner, t.auction.Buyer, t.auction.Price, t.auction.Item, auditOutcome)
	}
	if t.metrics != nil {
		t.metrics.SettlementsTotal.WithLabelValues(string(outcome)).Inc()
	}

	return n
}
