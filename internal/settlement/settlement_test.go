package settlement

import (
	"math"
	"testing"
	"time"

	"github.com/forgehouse/auctiond/internal/auction"
	"github.com/forgehouse/auctiond/internal/ledger"
	"github.com/forgehouse/auctiond/internal/session"
)

func TestSettleSoldHappyPath(t *testing.T) {
	l := ledger.New()
	l.DepositFunds("bob", 10)

	a := auction.Auction{ID: 0, Owner: "alice", Buyer: "bob", Price: 7, Item: "book", Expiration: time.Now()}

	got, _ := run(l, a)
	want := "Your item: book, has been sold for 7!"
	if got != want {
		t.Errorf("run() = %q, want %q", got, want)
	}

	if got := l.GetFunds("bob"); got != 3 {
		t.Errorf("buyer funds = %d, want 3", got)
	}
	if got := l.GetFunds("alice"); got != 7 {
		t.Errorf("seller funds = %d, want 7", got)
	}
	if got := l.GetItemsList("bob"); len(got) != 1 || got[0] != "book" {
		t.Errorf("buyer items = %v, want [book]", got)
	}
	if got := l.GetItemsList("alice"); len(got) != 0 {
		t.Errorf("seller items = %v, want empty", got)
	}
}

func TestSettleUnsoldNoBuyer(t *testing.T) {
	l := ledger.New()

	a := auction.Auction{ID: 0, Owner: "alice", Buyer: "", Price: 5, Item: "hat", Expiration: time.Now()}

	got, _ := run(l, a)
	want := "Your item: hat, hasn't been sold!"
	if got != want {
		t.Errorf("run() = %q, want %q", got, want)
	}
	if got := l.GetItemsList("alice"); len(got) != 1 || got[0] != "hat" {
		t.Errorf("seller items = %v, want [hat]", got)
	}
}

func TestSettleUnsoldBuyerCannotPay(t *testing.T) {
	l := ledger.New()
	l.DepositFunds("bob", 2) // less than the price

	a := auction.Auction{ID: 0, Owner: "alice", Buyer: "bob", Price: 7, Item: "book", Expiration: time.Now()}

	got, _ := run(l, a)
	if got != "Your item: book, hasn't been sold!" {
		t.Errorf("run() = %q", got)
	}
	if got := l.GetFunds("bob"); got != 2 {
		t.Errorf("buyer funds should be unchanged, got %d", got)
	}
	if got := l.GetItemsList("alice"); len(got) != 1 || got[0] != "book" {
		t.Errorf("item should return to seller, got %v", got)
	}
}

func TestSettleUnsoldSellerOverflow(t *testing.T) {
	l := ledger.New()
	l.DepositFunds("bob", 10)
	l.DepositFunds("alice", math.MaxUint64) // any deposit to alice will overflow

	a := auction.Auction{ID: 0, Owner: "alice", Buyer: "bob", Price: 7, Item: "book", Expiration: time.Now()}

	got, _ := run(l, a)
	if got != "Your item: book, hasn't been sold!" {
		t.Errorf("run() = %q", got)
	}
	if got := l.GetFunds("bob"); got != 10 {
		t.Errorf("buyer should be refunded back to original balance, got %d", got)
	}
	if got := l.GetFunds("alice"); got != math.MaxUint64 {
		t.Errorf("seller balance should be unchanged, got %d", got)
	}
	if got := l.GetItemsList("alice"); len(got) != 1 || got[0] != "book" {
		t.Errorf("item should return to seller, got %v", got)
	}
}

func TestSettleAddressesNotificationToLoggedInSeller(t *testing.T) {
	l := ledger.New()
	l.DepositFunds("bob", 10)

	sessions := session.New()
	id := sessions.NextID()
	sessions.StartSession(id, "conn-1")
	sessions.Login(id, "alice")

	a := auction.Auction{ID: 0, Owner: "alice", Buyer: "bob", Price: 7, Item: "book", Expiration: time.Now()}
	n := Settle(l, sessions, a)

	if !n.HasSession || n.SessionID != id {
		t.Errorf("notification should be addressed to alice's session, got %+v", n)
	}
}

func TestSettleDetailedReportsOutcome(t *testing.T) {
	l := ledger.New()
	l.DepositFunds("bob", 10)
	sessions := session.New()

	sold := auction.Auction{ID: 0, Owner: "alice", Buyer: "bob", Price: 7, Item: "book", Expiration: time.Now()}
	if _, outcome := SettleDetailed(l, sessions, sold); outcome != Sold {
		t.Errorf("outcome = %v, want Sold", outcome)
	}

	unsold := auction.Auction{ID: 1, Owner: "alice", Buyer: "", Price: 5, Item: "hat", Expiration: time.Now()}
	if _, outcome := SettleDetailed(l, sessions, unsold); outcome != Unsold {
		t.Errorf("outcome = %v, want Unsold", outcome)
	}
}

func TestSettleDropsNotificationWhenSellerOffline(t *testing.T) {
	l := ledger.New()
	sessions := session.New()

	a := auction.Auction{ID: 0, Owner: "alice", Buyer: "", Price: 5, Item: "hat", Expiration: time.Now()}
	n := Settle(l, sessions, a)

	if n.HasSession {
		t.Errorf("notification should have no session when seller is offline, got %+v", n)
	}
}
