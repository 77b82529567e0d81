package command

import (
	"testing"

	"github.com/forgehouse/auctiond/internal/auction"
	"github.com/forgehouse/auctiond/internal/ledger"
	"github.com/forgehouse/auctiond/internal/session"
)

func newContext() (Context, session.ID) {
	sessions := session.New()
	id := sessions.NextID()
	sessions.StartSession(id, "conn-1")
	return Context{
		Ledger:     ledger.New(),
		Sessions:   sessions,
		Book:       auction.New(),
		ListingFee: 1,
	}, id
}

func TestParseVerbCaseInsensitiveAndWhitespaceTolerant(t *testing.T) {
	cmd := Parse("  login   alice  ")
	l, ok := cmd.(Login)
	if !ok || l.Username != "alice" {
		t.Fatalf("Parse() = %#v, want Login{alice}", cmd)
	}
}

func TestParseUnknownVerb(t *testing.T) {
	cmd := Parse("FOO")
	u, ok := cmd.(Unknown)
	if !ok || u.Raw != "FOO" {
		t.Fatalf("Parse() = %#v, want Unknown{FOO}", cmd)
	}
}

func TestUnknownCommandEchoed(t *testing.T) {
	ctx, sid := newContext()
	n := Execute(ctx, sid, Parse("FOO"))
	if n.Text != "WRONG COMMAND: FOO" {
		t.Errorf("got %q", n.Text)
	}
}

func TestAuthGateBlocksUnauthenticatedDeposit(t *testing.T) {
	ctx, sid := newContext()
	n := Execute(ctx, sid, DepositFunds{Amount: 100, ArgsOK: true})
	if n.Text != "You are not logged in!" {
		t.Errorf("got %q", n.Text)
	}
	if ctx.Ledger.GetFunds("") != 0 {
		t.Errorf("deposit should not have happened")
	}
}

func TestLoginThenDepositThenSell(t *testing.T) {
	ctx, sid := newContext()

	n := Execute(ctx, sid, Login{Username: "alice", ArgsOK: true})
	if n.Text != "Welcome alice!" {
		t.Fatalf("login got %q", n.Text)
	}

	n = Execute(ctx, sid, DepositFunds{Amount: 10, ArgsOK: true})
	if n.Text != "Successful deposition of funds: 10!" {
		t.Errorf("deposit funds got %q", n.Text)
	}

	n = Execute(ctx, sid, DepositItem{Item: "book"})
	if n.Text != "Successful deposition of item: book!" {
		t.Errorf("deposit item got %q", n.Text)
	}

	n = Execute(ctx, sid, Sell{Item: "book", Price: 5, DurationSec: 1, HasDuration: true, ArgsOK: true})
	if n.Text != "Your item book is being auctioned off!" {
		t.Errorf("sell got %q", n.Text)
	}
	if got := ctx.Ledger.GetFunds("alice"); got != 9 {
		t.Errorf("funds after fee = %d, want 9", got)
	}
}

func TestSellNoSuchItem(t *testing.T) {
	ctx, sid := newContext()
	Execute(ctx, sid, Login{Username: "alice", ArgsOK: true})

	n := Execute(ctx, sid, Sell{Item: "book", Price: 5, ArgsOK: true})
	if n.Text != "You can't sell your item, there is no book!" {
		t.Errorf("got %q", n.Text)
	}
}

func TestSellInsufficientFeeRollsBackItem(t *testing.T) {
	ctx, sid := newContext()
	Execute(ctx, sid, Login{Username: "alice", ArgsOK: true})
	Execute(ctx, sid, DepositItem{Item: "book"})

	n := Execute(ctx, sid, Sell{Item: "book", Price: 5, ArgsOK: true})
	if n.Text != "You can't sell your item, you don't have funds to cover the fee!" {
		t.Errorf("got %q", n.Text)
	}
	if got := ctx.Ledger.GetItemsList("alice"); len(got) != 1 || got[0] != "book" {
		t.Errorf("item should be returned to seller, got %v", got)
	}
}

func TestSelfBidRejected(t *testing.T) {
	ctx, sid := newContext()
	Execute(ctx, sid, Login{Username: "alice", ArgsOK: true})
	Execute(ctx, sid, DepositItem{Item: "book"})
	Execute(ctx, sid, DepositFunds{Amount: 10, ArgsOK: true})
	Execute(ctx, sid, Sell{Item: "book", Price: 5, ArgsOK: true})

	n := Execute(ctx, sid, Bid{AuctionID: 0, Price: 100, ArgsOK: true})
	if n.Text != "You can't bid on the auction 0, you are the seller!" {
		t.Errorf("got %q", n.Text)
	}
}

func TestLoginConflictLeavesFirstSessionAuthenticated(t *testing.T) {
	ctx, sid1 := newContext()
	sid2 := ctx.Sessions.NextID()
	ctx.Sessions.StartSession(sid2, "conn-2")

	Execute(ctx, sid1, Login{Username: "alice", ArgsOK: true})
	n := Execute(ctx, sid2, Login{Username: "alice", ArgsOK: true})

	if n.Text != "Couldn't login as alice!" {
		t.Errorf("got %q", n.Text)
	}
	if !ctx.Sessions.IsAuthenticated(sid1) {
		t.Error("first session should remain authenticated")
	}
}

func TestLoginRejectsEmptyUsername(t *testing.T) {
	ctx, sid := newContext()
	n := Execute(ctx, sid, Parse("LOGIN"))
	if n.Text != "Couldn't login as !" {
		t.Errorf("got %q", n.Text)
	}
	if ctx.Sessions.IsAuthenticated(sid) {
		t.Error("session should not be authenticated after an empty-username login")
	}
}

func TestShowSalesDoesNotRequireAuth(t *testing.T) {
	ctx, sid := newContext()
	n := Execute(ctx, sid, ShowSales{})
	if n.Text != "" {
		t.Errorf("got %q, want empty sales list", n.Text)
	}
}
