// Package settlement implements the expired-auction settlement saga
// (spec.md §4.4): a pure function over (ledger, auction) that mutates
// the ledger atomically across both parties and produces exactly one
// notification addressed to the seller.
//
// Grounded on the teacher's internal/swap/coordinator_complete.go
// compensating-action shape: each step is conditional on the one
// before it, and every successful step has an explicit undo on the
// step that follows it failing. The ledger here offers only total,
// non-transactional primitives, so this is a small hand-rolled saga
// rather than a database transaction.
package settlement

import (
	"fmt"

	"github.com/forgehouse/auctiond/internal/auction"
	"github.com/forgehouse/auctiond/internal/ledger"
	"github.com/forgehouse/auctiond/internal/notify"
	"github.com/forgehouse/auctiond/internal/session"
	"github.com/forgehouse/auctiond/pkg/logging"
)

const (
	soldTemplate   = "Your item: %s, has been sold for %d!"
	unsoldTemplate = "Your item: %s, hasn't been sold!"
)

// Outcome classifies a settlement's result, for callers (the expiry
// worker's audit log and metrics) that need more than the notification
// text.
type Outcome string

const (
	Sold   Outcome = "sold"
	Unsold Outcome = "unsold"
)

// Settle finalizes one expired auction. It always produces exactly one
// notification addressed to a.Owner's current session, or a dropped
// notification if the owner is not currently logged in.
func Settle(l *ledger.Ledger, sessions *session.Registry, a auction.Auction) notify.Notification {
	n, _ := SettleDetailed(l, sessions, a)
	return n
}

// SettleDetailed is Settle plus the settlement's Outcome, used by
// callers that record audit/metrics data alongside the notification.
func SettleDetailed(l *ledger.Ledger, sessions *session.Registry, a auction.Auction) (notify.Notification, Outcome) {
	text, outcome := run(l, a)
	return addressTo(sessions, a.Owner, text), outcome
}

// run executes the settlement steps and returns the response text that
// would be sent to the seller. It is separated from Settle so tests can
// exercise the ledger outcome without a session registry.
func run(l *ledger.Ledger, a auction.Auction) (string, Outcome) {
	// Step 1: no buyer at all.
	if a.Buyer == "" {
		l.DepositItem(a.Owner, a.Item)
		return fmt.Sprintf(unsoldTemplate, a.Item), Unsold
	}

	// Step 2: collect payment from the buyer.
	if !l.WithdrawFunds(a.Buyer, a.Price) {
		l.DepositItem(a.Owner, a.Item)
		return fmt.Sprintf(unsoldTemplate, a.Item), Unsold
	}

	// Step 3: pay the seller.
	if !l.DepositFunds(a.Owner, a.Price) {
		// Compensate step 2: refund the buyer. This is the inverse of a
		// withdrawal that just succeeded against an unchanged balance, so
		// it cannot fail in practice; if it somehow did, there would be no
		// safe compensating action left and the discrepancy is a
		// server-side bug rather than a recoverable outcome.
		if !l.DepositFunds(a.Buyer, a.Price) {
			logging.GetDefault().Component("settlement").Error(
				"failed to refund buyer after seller deposit overflow",
				"auction", a.ID, "buyer", a.Buyer, "price", a.Price)
		}
		l.DepositItem(a.Owner, a.Item)
		return fmt.Sprintf(unsoldTemplate, a.Item), Unsold
	}

	// Step 4: hand over the item.
	l.DepositItem(a.Buyer, a.Item)
	return fmt.Sprintf(soldTemplate, a.Item, a.Price), Sold
}

func addressTo(sessions *session.Registry, username, text string) notify.Notification {
	id, ok := sessions.GetSessionID(username)
	if !ok {
		return notify.Dropped(text)
	}
	return notify.To(id, text)
}
