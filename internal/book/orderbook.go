// Package book implements the Book Store: the in-memory two-sided
// order book with O(log L) level access and O(1) order handle lookup.
//
// Bids and asks are each keyed with github.com/tidwall/btree.BTreeG[*PriceLevel]
// over fixed-scale model.Price keys. Each level is a doubly-linked queue
// rather than a slice, so cancel-by-handle is O(1) instead of
// O(level depth).
package book

import (
	"fmt"

	"github.com/tidwall/btree"

	"lobmm/internal/model"
)

type levels = btree.BTreeG[*PriceLevel]

// handle locates a live order for O(1) cancel/find.
type handle struct {
	side  model.Side
	price model.Price
	node  *orderNode
}

// OrderBook is the two-sided book: two sorted maps (bids
// descending, asks ascending) plus an order_id -> handle index.
type OrderBook struct {
	bids *levels
	asks *levels
	// index is the order_id -> (side, price, queue-position-handle) map
	// giving O(1) cancel.
	index map[string]handle
	seq   uint64
}

// New creates an empty OrderBook.
func New() *OrderBook {
	return &OrderBook{
		bids: btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.Price > b.Price }),
		asks: btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.Price < b.Price }),
		index: make(map[string]handle),
	}
}

func (b *OrderBook) levelsFor(side model.Side) *levels {
	if side == model.Buy {
		return b.bids
	}
	return b.asks
}

// InsertResting places an Order into its side's PriceLevel at the back
//. The caller (the Matching Engine) must have already confirmed the
// order does not cross; InsertResting does not check for crossing.
//
// Fails with model.ErrInvalidOrder on empty id, non-positive size,
// non-positive price, or a duplicate id, leaving the book unchanged.
func (b *OrderBook) InsertResting(o model.Order) (*model.Order, error) {
	if o.ID == "" || o.Price <= 0 || o.RemainingSize <= 0 {
		return nil, fmt.Errorf("%w: id=%q price=%d size=%d", model.ErrInvalidOrder, o.ID, o.Price, o.RemainingSize)
	}
	if _, exists := b.index[o.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate id %q", model.ErrInvalidOrder, o.ID)
	}

	b.seq++
	o.ArrivalSeq = b.seq

	lv := b.levelsFor(o.Side)
	lookup := &PriceLevel{Price: o.Price}
	level, ok := lv.GetMut(lookup)
	if !ok {
		level = newPriceLevel(o.Price)
		lv.Set(level)
	}
	node := level.pushBack(o)
	b.index[o.ID] = handle{side: o.Side, price: o.Price, node: node}
	return &node.order, nil
}

// Cancel removes a resting order by id. Returns true iff the id was
// present and removed; idempotent, a second call on the same id returns
// false rather than an error.
func (b *OrderBook) Cancel(orderID string) bool {
	h, ok := b.index[orderID]
	if !ok {
		return false
	}
	b.removeByHandle(h)
	delete(b.index, orderID)
	return true
}

// ReduceResting shrinks a resting order's size by amount, removing it
// entirely if that exhausts its remaining size. Used by ExchangeLiquidity
// to absorb shrinking DepthDelta events against EXCHANGE-origin orders,
// and by the Matching Engine for partial maker fills. Returns an
// model.ErrEngineFault error if the id is not resting.
func (b *OrderBook) ReduceResting(orderID string, amount model.Size) (fullyRemoved bool, err error) {
	h, ok := b.index[orderID]
	if !ok {
		return false, fmt.Errorf("%w: reduce of unknown id %q", model.ErrEngineFault, orderID)
	}
	lv := b.levelsFor(h.side)
	level, ok := lv.GetMut(&PriceLevel{Price: h.price})
	if !ok {
		return false, fmt.Errorf("%w: index points to missing level", model.ErrEngineFault)
	}
	if amount >= h.node.order.RemainingSize {
		level.remove(h.node)
		delete(b.index, orderID)
		b.dropLevelIfEmpty(lv, level)
		return true, nil
	}
	level.reduce(h.node, amount)
	return false, nil
}

func (b *OrderBook) removeByHandle(h handle) {
	lv := b.levelsFor(h.side)
	level, ok := lv.GetMut(&PriceLevel{Price: h.price})
	if !ok {
		return
	}
	level.remove(h.node)
	b.dropLevelIfEmpty(lv, level)
}

// dropLevelIfEmpty enforces I2: no PriceLevel is empty, emptied levels are
// removed atomically with the last erase.
func (b *OrderBook) dropLevelIfEmpty(lv *levels, level *PriceLevel) {
	if level.empty() {
		lv.Delete(level)
	}
}

// BestBid returns the highest resting bid price and its aggregate size.
func (b *OrderBook) BestBid() (price model.Price, aggregate model.Size, ok bool) {
	lvl, ok := b.bids.Min()
	if !ok {
		return 0, 0, false
	}
	return lvl.Price, lvl.Total, true
}

// BestAsk returns the lowest resting ask price and its aggregate size.
func (b *OrderBook) BestAsk() (price model.Price, aggregate model.Size, ok bool) {
	lvl, ok := b.asks.Min()
	if !ok {
		return 0, 0, false
	}
	return lvl.Price, lvl.Total, true
}

// LevelView is one (price, aggregate size) entry as returned by Depth.
type LevelView struct {
	Price     model.Price
	Aggregate model.Size
}

// Depth returns the top-n levels on side, order-preserving (best price
// first).
func (b *OrderBook) Depth(side model.Side, n int) []LevelView {
	lv := b.levelsFor(side)
	if n <= 0 {
		return nil
	}
	out := make([]LevelView, 0, n)
	lv.Scan(func(level *PriceLevel) bool {
		out = append(out, LevelView{Price: level.Price, Aggregate: level.Total})
		return len(out) < n
	})
	return out
}

// FrontOrderAt returns a pointer to the earliest-arrived resident order at
// (side, price), or nil if that level has no orders (or does not exist).
// The matching engine uses this to walk FIFO queue position without the
// Book Store exposing its internal queue representation.
func (b *OrderBook) FrontOrderAt(side model.Side, price model.Price) *model.Order {
	lv := b.levelsFor(side)
	level, ok := lv.GetMut(&PriceLevel{Price: price})
	if !ok {
		return nil
	}
	n := level.front()
	if n == nil {
		return nil
	}
	return &n.order
}

// Find returns a pointer to the live resident Order for id, or nil if not
// resident. The returned pointer aliases the book's own storage; size
// changes go through ReduceResting or Cancel so level totals stay consistent.
func (b *OrderBook) Find(orderID string) *model.Order {
	h, ok := b.index[orderID]
	if !ok {
		return nil
	}
	return &h.node.order
}

// CheckInvariants validates the book's structural invariants. Intended for property tests,
// not the matching hot path.
func (b *OrderBook) CheckInvariants() error {
	if err := checkSide(b.bids, b.index, model.Buy); err != nil {
		return err
	}
	if err := checkSide(b.asks, b.index, model.Sell); err != nil {
		return err
	}
	bestBid, _, bidOK := b.BestBid()
	bestAsk, _, askOK := b.BestAsk()
	if bidOK && askOK && bestBid >= bestAsk {
		return fmt.Errorf("%w: book crossed, bid=%d ask=%d", model.ErrEngineFault, bestBid, bestAsk)
	}
	return nil
}

func checkSide(lv *levels, index map[string]handle, side model.Side) error {
	var err error
	lv.Scan(func(level *PriceLevel) bool {
		if level.empty() {
			err = fmt.Errorf("%w: empty level resident at price %d", model.ErrEngineFault, level.Price)
			return false
		}
		var lastSeq uint64
		first := true
		for n := level.front(); n != nil; n = n.next {
			o := n.order
			if o.RemainingSize <= 0 {
				err = fmt.Errorf("%w: non-positive remaining size for %q", model.ErrEngineFault, o.ID)
				return false
			}
			if !first && o.ArrivalSeq <= lastSeq {
				err = fmt.Errorf("%w: arrival_seq not strictly increasing at price %d", model.ErrEngineFault, level.Price)
				return false
			}
			lastSeq, first = o.ArrivalSeq, false

			h, ok := index[o.ID]
			if !ok || h.side != side || h.price != level.Price {
				err = fmt.Errorf("%w: index mismatch for %q", model.ErrEngineFault, o.ID)
				return false
			}
		}
		return true
	})
	return err
}
