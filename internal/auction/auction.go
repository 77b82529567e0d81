// Package auction provides the auction book: the indexed collection of
// currently-live auctions (spec.md §4.3).
//
// Grounded directly on _examples/original_source/include/auctions.h
// (AuctionList: an unordered_map guarded by a shared_mutex, plus a pair
// of condition variables for "list went non-empty" and "nearest
// expiration changed"), translated into Go's sync.Mutex/sync.Cond. A
// single Cond is sufficient here because the design has exactly one
// waiter (the expiry worker, spec.md §5).
package auction

import (
	"sort"
	"sync"
	"time"
)

// ID is an opaque, monotonically assigned auction identifier
// (spec.md §3). Ids are never reused.
type ID = uint64

// BidResult is the outcome of a bid attempt (spec.md §4.3).
type BidResult int

const (
	Successful BidResult = iota
	TooLowPrice
	OwnerBid
	DoesNotExist
)

func (r BidResult) String() string {
	switch r {
	case Successful:
		return "Successful"
	case TooLowPrice:
		return "TooLowPrice"
	case OwnerBid:
		return "OwnerBid"
	case DoesNotExist:
		return "DoesNotExist"
	default:
		return "Unknown"
	}
}

// Auction is a single listing (spec.md §3). Buyer is empty until a
// successful bid.
type Auction struct {
	ID         ID
	Owner      string
	Buyer      string
	Price      uint64
	Item       string
	Expiration time.Time
}

// Book is the process-wide auction book.
type Book struct {
	mu            sync.Mutex
	cond          *sync.Cond
	auctions      map[ID]*Auction
	nextID        ID
	nearestExpire time.Time // zero value treated as +infinity when len(auctions) == 0
	closed        bool
}

// New creates an empty auction book.
func New() *Book {
	b := &Book{auctions: make(map[ID]*Auction)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Add builds an auction from its arguments, assigns it the next id and
// inserts it; a copy of the inserted auction is returned. Add never fails in
// this implementation (the only teacher-documented failure mode,
// allocator exhaustion, is not representable in Go's garbage-collected
// maps).
func (b *Book) Add(owner, item string, price uint64, expiration time.Time) Auction {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := &Auction{
		ID:         b.nextID,
		Owner:      owner,
		Price:      price,
		Item:       item,
		Expiration: expiration,
	}
	b.nextID++
	b.auctions[a.ID] = a

	wasEmpty := len(b.auctions) == 1
	lowered := wasEmpty || expiration.Before(b.nearestExpire)
	if lowered {
		b.nearestExpire = earliestExpiration(b.nearestExpire, expiration, wasEmpty)
	}
	if wasEmpty || lowered {
		b.cond.Broadcast()
	}

	return *a
}

func earliestExpiration(cur, candidate time.Time, wasEmpty bool) time.Time {
	if wasEmpty {
		return candidate
	}
	if candidate.Before(cur) {
		return candidate
	}
	return cur
}

// Bid attempts to place new_price on auction id for new_buyer. Tie
// breaks per spec.md §4.3: existence is checked first, then ownership,
// then strict price comparison.
func (b *Book) Bid(id ID, newPrice uint64, newBuyer string) BidResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.auctions[id]
	if !ok {
		return DoesNotExist
	}
	if a.Owner == newBuyer {
		return OwnerBid
	}
	if newPrice <= a.Price {
		return TooLowPrice
	}

	a.Buyer = newBuyer
	a.Price = newPrice
	return Successful
}

// Get returns a snapshot of auction id, for read-only inspection (e.g.
// tests checking that a rejected bid left the price unchanged).
func (b *Book) Get(id ID) (Auction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.auctions[id]
	if !ok {
		return Auction{}, false
	}
	return *a, true
}

// CollectExpired removes and returns every auction whose expiration is
// at or before now, recomputing the nearest-expiration cache from the
// remaining set.
func (b *Book) CollectExpired(now time.Time) []Auction {
	b.mu.Lock()
	defer b.mu.Unlock()

	var expired []Auction
	for id, a := range b.auctions {
		if !a.Expiration.After(now) {
			expired = append(expired, *a)
			delete(b.auctions, id)
		}
	}

	b.recomputeNearest()
	return expired
}

// recomputeNearest re-derives nearestExpire from the live set so the
// cache cannot drift from reality. Caller must hold b.mu.
func (b *Book) recomputeNearest() {
	var nearest time.Time
	first := true
	for _, a := range b.auctions {
		if first || a.Expiration.Before(nearest) {
			nearest = a.Expiration
			first = false
		}
	}
	b.nearestExpire = nearest
}

// WaitForExpired blocks until the book is non-empty and the nearest
// expiration is at or before now, re-checking after every wakeup
// (spurious or real) per spec.md §4.3. It returns early, with no
// expired auctions necessarily ready, if Stop has been called — the
// caller (the expiry worker) is expected to check its own shutdown
// signal immediately afterward rather than loop back in.
func (b *Book) WaitForExpired() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		if b.closed {
			return
		}
		if len(b.auctions) > 0 && !b.nearestExpire.After(time.Now()) {
			return
		}

		if len(b.auctions) == 0 {
			b.cond.Wait()
			continue
		}

		remaining := time.Until(b.nearestExpire)
		if remaining <= 0 {
			return
		}

		timer := time.AfterFunc(remaining, func() {
			b.mu.Lock()
			b.cond.Broadcast()
			b.mu.Unlock()
		})
		b.cond.Wait()
		timer.Stop()
	}
}

// Stop wakes any goroutine blocked in WaitForExpired and marks the book
// closed, used during shutdown so the expiry worker can observe its
// context being done instead of blocking forever on an empty book.
func (b *Book) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}

// SalesRow is one printable row of the SHOW SALES snapshot.
type SalesRow struct {
	ID    ID
	Item  string
	Owner string
	Price uint64
	Buyer string
}

// PrintableList returns a snapshot of every active auction, ordered by
// id, for SHOW SALES (spec.md §4.3, §6).
func (b *Book) PrintableList() []SalesRow {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := make([]SalesRow, 0, len(b.auctions))
	for _, a := range b.auctions {
		rows = append(rows, SalesRow{
			ID:    a.ID,
			Item:  a.Item,
			Owner: a.Owner,
			Price: a.Price,
			Buyer: a.Buyer,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}
