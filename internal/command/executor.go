// Executor turns one parsed Command into exactly one notification
// addressed back to the invoking session (spec.md §4.5, §6).
//
// Grounded on the teacher's internal/rpc/handlers.go dispatch table,
// adapted from a per-method map to a type switch over the tagged-sum
// Command, with the authentication gate applied once via the
// Authenticated marker interface rather than repeated per handler.
package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/forgehouse/auctiond/internal/audit"
	"github.com/forgehouse/auctiond/internal/auction"
	"github.com/forgehouse/auctiond/internal/ledger"
	"github.com/forgehouse/auctiond/internal/metrics"
	"github.com/forgehouse/auctiond/internal/notify"
	"github.com/forgehouse/auctiond/internal/session"
)

// Context bundles the collaborators the executor mutates. It is
// constructed once at process bootstrap and passed by reference into
// every task (spec.md §9, "Global state": shared singletons, never
// reached through ambient globals). Audit and Metrics are optional:
// either may be left nil (e.g. in tests), in which case the executor
// simply skips recording.
type Context struct {
	Ledger     *ledger.Ledger
	Sessions   *session.Registry
	Book       *auction.Book
	ListingFee uint64
	Audit      *audit.Log
	Metrics    *metrics.Registry
}

const helpText = "HELP - show this text\n" +
	"LOGIN <user> - authenticate this connection as <user>\n" +
	"LOGOUT - end the authenticated session\n" +
	"DEPOSIT FUNDS <n> - add n to your balance\n" +
	"DEPOSIT ITEM <item> - add item to your inventory\n" +
	"WITHDRAW FUNDS <n> - subtract n from your balance\n" +
	"WITHDRAW ITEM <item> - remove one matching item from your inventory\n" +
	"SELL <item> <price> [<seconds>] - list item for auction at price, expiring in seconds (default 300)\n" +
	"BID <auction-id> <price> - offer price on a running auction\n" +
	"SHOW FUNDS - print your balance\n" +
	"SHOW ITEMS - print your inventory\n" +
	"SHOW SALES - print every running auction"

// Execute runs cmd on behalf of sid and returns the one notification it
// produces, always addressed to sid.
func Execute(ctx Context, sid session.ID, cmd Command) notify.Notification {
	if _, needsAuth := cmd.(Authenticated); needsAuth && !ctx.Sessions.IsAuthenticated(sid) {
		return notify.To(sid, "You are not logged in!")
	}

	switch c := cmd.(type) {
	case Help:
		return notify.To(sid, helpText)
	case Login:
		return notify.To(sid, execLogin(ctx, sid, c))
	case Logout:
		return notify.To(sid, execLogout(ctx, sid))
	case DepositFunds:
		return notify.To(sid, execDepositFunds(ctx, sid, c))
	case DepositItem:
		return notify.To(sid, execDepositItem(ctx, sid, c))
	case WithdrawFunds:
		return notify.To(sid, execWithdrawFunds(ctx, sid, c))
	case WithdrawItem:
		return notify.To(sid, execWithdrawItem(ctx, sid, c))
	case Sell:
		return notify.To(sid, execSell(ctx, sid, c))
	case Bid:
		return notify.To(sid, execBid(ctx, sid, c))
	case ShowFunds:
		return notify.To(sid, execShowFunds(ctx, sid))
	case ShowItems:
		return notify.To(sid, execShowItems(ctx, sid))
	case ShowSales:
		return notify.To(sid, execShowSales(ctx))
	case Unknown:
		return notify.To(sid, "WRONG COMMAND: "+c.Raw)
	}
	return notify.To(sid, "WRONG COMMAND: ")
}

func execLogin(ctx Context, sid session.ID, c Login) string {
	if !c.ArgsOK || !ctx.Sessions.Login(sid, c.Username) {
		ctx.recordLoginOutcome("rejected")
		return fmt.Sprintf("Couldn't login as %s!", c.Username)
	}
	ctx.recordLoginOutcome("accepted")
	if ctx.Audit != nil {
		ctx.Audit.RecordLogin(c.Username)
	}
	return fmt.Sprintf("Welcome %s!", c.Username)
}

func execLogout(ctx Context, sid session.ID) string {
	username, _ := ctx.Sessions.GetUsername(sid)
	if !ctx.Sessions.Logout(sid) {
		return "You are not logged in!"
	}
	if ctx.Audit != nil {
		ctx.Audit.RecordLogout(username)
	}
	return fmt.Sprintf("Good bay, %s!", username)
}

func (ctx Context) recordLoginOutcome(outcome string) {
	if ctx.Metrics != nil {
		ctx.Metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func execDepositFunds(ctx Context, sid session.ID, c DepositFunds) string {
	username, _ := ctx.Sessions.GetUsername(sid)
	if !c.ArgsOK {
		return "Deposition of funds has failed! Invalid amount!"
	}
	if !ctx.Ledger.DepositFunds(username, c.Amount) {
		return "Deposition of funds has failed! Invalid amount!"
	}
	return fmt.Sprintf("Successful deposition of funds: %d!", c.Amount)
}

func execDepositItem(ctx Context, sid session.ID, c DepositItem) string {
	username, _ := ctx.Sessions.GetUsername(sid)
	ctx.Ledger.DepositItem(username, c.Item)
	return fmt.Sprintf("Successful deposition of item: %s!", c.Item)
}

func execWithdrawFunds(ctx Context, sid session.ID, c WithdrawFunds) string {
	username, _ := ctx.Sessions.GetUsername(sid)
	if !c.ArgsOK {
		return "Withdrawal of funds has failed! Insufficient funds!"
	}
	if !ctx.Ledger.WithdrawFunds(username, c.Amount) {
		return "Withdrawal of funds has failed! Insufficient funds!"
	}
	return fmt.Sprintf("Successfully withdrawn: %d!", c.Amount)
}

func execWithdrawItem(ctx Context, sid session.ID, c WithdrawItem) string {
	username, _ := ctx.Sessions.GetUsername(sid)
	if !ctx.Ledger.WithdrawItem(username, c.Item) {
		return fmt.Sprintf("Withdrawal of an item has failed! No such item: %s!", c.Item)
	}
	return fmt.Sprintf("Successfully withdrawn item: %s!", c.Item)
}

// execSell implements the SELL rollback saga of spec.md §4.5: each step
// compensates the one before it on failure, symmetric to
// internal/settlement's settlement saga.
func execSell(ctx Context, sid session.ID, c Sell) string {
	username, _ := ctx.Sessions.GetUsername(sid)

	if !c.ArgsOK {
		return fmt.Sprintf("You can't sell your item, there is no %s!", c.Item)
	}

	if !ctx.Ledger.WithdrawItem(username, c.Item) {
		return fmt.Sprintf("You can't sell your item, there is no %s!", c.Item)
	}

	if !ctx.Ledger.WithdrawFunds(username, ctx.ListingFee) {
		ctx.Ledger.DepositItem(username, c.Item)
		return "You can't sell your item, you don't have funds to cover the fee!"
	}

	duration := time.Duration(c.DurationSec) * time.Second
	ctx.Book.Add(username, c.Item, c.Price, time.Now().Add(duration))
	if ctx.Metrics != nil {
		ctx.Metrics.AuctionsActive.Inc()
	}

	return fmt.Sprintf("Your item %s is being auctioned off!", c.Item)
}

func execBid(ctx Context, sid session.ID, c Bid) string {
	username, _ := ctx.Sessions.GetUsername(sid)

	if !c.ArgsOK {
		return "There is no such auction!"
	}

	if ctx.Metrics != nil {
		ctx.Metrics.BidsTotal.Inc()
	}

	switch ctx.Book.Bid(c.AuctionID, c.Price, username) {
	case auction.Successful:
		return fmt.Sprintf("You are winning the auction %d!", c.AuctionID)
	case auction.TooLowPrice:
		return fmt.Sprintf("Your offer for the auction %d was too low!", c.AuctionID)
	case auction.OwnerBid:
		return fmt.Sprintf("You can't bid on the auction %d, you are the seller!", c.AuctionID)
	default:
		return "There is no such auction!"
	}
}

func execShowFunds(ctx Context, sid session.ID) string {
	username, _ := ctx.Sessions.GetUsername(sid)
	return fmt.Sprintf("%d", ctx.Ledger.GetFunds(username))
}

func execShowItems(ctx Context, sid session.ID) string {
	username, _ := ctx.Sessions.GetUsername(sid)
	return ctx.Ledger.GetItems(username)
}

func execShowSales(ctx Context) string {
	rows := ctx.Book.PrintableList()
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("ID: %d; ITEM: %s; OWNER: %s; PRICE: %d; BUYER: %s", r.ID, r.Item, r.Owner, r.Price, r.Buyer)
	}
	return strings.Join(lines, "\n")
}
