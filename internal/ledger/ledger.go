// Package ledger provides the per-user funds and inventory ledger.
//
// Grounded on the teacher's internal/wallet.Service: a single
// mutex-guarded map of per-user state, constructed lazily on first
// reference and never torn down for the life of the process.
package ledger

import (
	"strings"
	"sync"

	"github.com/forgehouse/auctiond/pkg/helpers"
)

// Funds is a non-negative integer balance, wide enough for aggregate
// balances (spec.md §3).
type Funds = uint64

// account holds one user's funds and inventory.
type account struct {
	funds Funds
	items []string
}

// Ledger is the process-wide account ledger. Exactly one instance
// exists per server; it is passed explicitly to every collaborator
// that needs it, never reached through a package-level global (spec.md
// §9, "Global state").
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*account
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{accounts: make(map[string]*account)}
}

// get returns the account for user, creating it on first reference.
// Caller must hold l.mu.
func (l *Ledger) get(user string) *account {
	a, ok := l.accounts[user]
	if !ok {
		a = &account{}
		l.accounts[user] = a
	}
	return a
}

// DepositItem appends item to user's inventory. Item lists preserve
// insertion order and allow duplicates (spec.md §3).
func (l *Ledger) DepositItem(user, item string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.get(user)
	a.items = append(a.items, item)
}

// DepositFunds adds amount to user's balance. It fails without
// mutating state if the result would overflow Funds.
func (l *Ledger) DepositFunds(user string, amount Funds) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.get(user)
	if helpers.AddOverflows(a.funds, amount) {
		return false
	}
	a.funds += amount
	return true
}

// WithdrawItem removes the first occurrence of item from user's
// inventory. Returns false if no such item is present.
func (l *Ledger) WithdrawItem(user, item string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.get(user)
	for i, it := range a.items {
		if it == item {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return true
		}
	}
	return false
}

// WithdrawFunds subtracts amount from user's balance. Returns false,
// leaving the balance unchanged, if the balance is insufficient.
func (l *Ledger) WithdrawFunds(user string, amount Funds) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.get(user)
	if a.funds < amount {
		return false
	}
	a.funds -= amount
	return true
}

// GetFunds returns user's current balance.
func (l *Ledger) GetFunds(user string) Funds {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.get(user).funds
}

// GetItems returns user's inventory as a newline-joined string
// (spec.md §4.1).
func (l *Ledger) GetItems(user string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return strings.Join(l.get(user).items, "\n")
}

// GetItemsList returns user's inventory as a slice, preserving
// insertion order. Used by callers that need the raw list rather than
// the newline-joined display form.
func (l *Ledger) GetItemsList(user string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := l.get(user).items
	out := make([]string, len(items))
	copy(out, items)
	return out
}
