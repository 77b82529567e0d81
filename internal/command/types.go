// Package command implements the command taxonomy and executor
// (spec.md §4.5): parsed request in, one notification out.
//
// Grounded on the teacher's internal/rpc/handlers.go per-verb dispatch,
// adapted from JSON-RPC method lookup to the tagged-sum representation
// spec.md §9 calls for: one concrete type per verb, dispatched with a
// type switch rather than a virtual table. Commands that require an
// authenticated session implement Authenticated; the executor checks
// that marker once, in one place, instead of every handler repeating
// the "are you logged in" check.
package command

// Command is the tagged-sum of every request the executor can act on.
type Command interface {
	commandTag()
}

// Authenticated is implemented by every command that spec.md §4.5
// requires a logged-in session for. The executor gates on this
// interface rather than on a per-command flag.
type Authenticated interface {
	Command
	requiresAuth()
}

type base struct{}

func (base) commandTag() {}

type authBase struct{ base }

func (authBase) requiresAuth() {}

// Help is the HELP command.
type Help struct{ base }

// Login is the LOGIN <user> command. ArgsOK is false when Username is
// empty or not a word-character token (spec.md §3's Username shape).
type Login struct {
	base
	Username string
	ArgsOK   bool
}

// Logout is the LOGOUT command.
type Logout struct{ authBase }

// DepositFunds is the DEPOSIT FUNDS <n> command.
type DepositFunds struct {
	authBase
	Amount  uint64
	ArgsOK  bool
}

// DepositItem is the DEPOSIT ITEM <i> command.
type DepositItem struct {
	authBase
	Item string
}

// WithdrawFunds is the WITHDRAW FUNDS <n> command.
type WithdrawFunds struct {
	authBase
	Amount uint64
	ArgsOK bool
}

// WithdrawItem is the WITHDRAW ITEM <i> command.
type WithdrawItem struct {
	authBase
	Item string
}

// Sell is the SELL <item> <price> [<secs>] command.
type Sell struct {
	authBase
	Item        string
	Price       uint64
	DurationSec uint64
	HasDuration bool
	ArgsOK      bool
}

// Bid is the BID <auction-id> <price> command.
type Bid struct {
	authBase
	AuctionID uint64
	Price     uint64
	ArgsOK    bool
}

// ShowFunds is the SHOW FUNDS command.
type ShowFunds struct{ authBase }

// ShowItems is the SHOW ITEMS command.
type ShowItems struct{ authBase }

// ShowSales is the SHOW SALES command. It does not require
// authentication (SPEC_FULL.md, Supplemented Features #2): it names no
// specific user's state.
type ShowSales struct{ base }

// Unknown is any line that does not match a recognized verb. It is
// echoed back per spec.md §4.5 / §6 regardless of authentication state.
type Unknown struct {
	base
	Raw string
}
