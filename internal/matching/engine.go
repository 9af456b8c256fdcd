// Package matching implements the Matching Engine: the single
// authority that mutates the Book Store's contents via matches, under
// strict price-time priority.
//
// Sweeps the opposite side while crossing, ascending or descending as
// appropriate, matching FIFO within a level, and removing exhausted
// makers and emptied levels. Kept separate from the Book Store itself so
// storage and matching don't share one type; adds fixed-scale price
// comparisons, the origin tag, and IOC handling.
package matching

import (
	"fmt"

	"lobmm/internal/book"
	"lobmm/internal/model"
)

// Engine is the sole mutator of an OrderBook's contents via matches.
type Engine struct {
	book *book.OrderBook
}

// New creates a Matching Engine bound to the given Book Store.
func New(b *book.OrderBook) *Engine {
	return &Engine{book: b}
}

// Submit matches an incoming order greedily against the opposite side under
// price-time priority, then rests any remainder (unless the order is IOC,
// in which case the remainder is discarded).
//
// Submit is atomic relative to its own returned fills: on an internal
// precondition violation it returns model.ErrEngineFault and the caller
// must treat the book state as undefined.
func (e *Engine) Submit(order model.Order) ([]model.Fill, error) {
	if order.ID == "" || order.Price <= 0 || order.RemainingSize <= 0 {
		return nil, fmt.Errorf("%w: id=%q price=%d size=%d", model.ErrInvalidOrder, order.ID, order.Price, order.RemainingSize)
	}

	var fills []model.Fill
	var err error
	switch order.Side {
	case model.Buy:
		fills, err = e.sweep(&order, model.Sell, func(levelPrice model.Price) bool { return levelPrice <= order.Price })
	case model.Sell:
		fills, err = e.sweep(&order, model.Buy, func(levelPrice model.Price) bool { return levelPrice >= order.Price })
	default:
		return nil, fmt.Errorf("%w: unknown side %d", model.ErrInvalidOrder, order.Side)
	}
	if err != nil {
		return fills, err
	}

	if order.RemainingSize > 0 {
		if order.TimeInForce == model.IOC {
			return fills, nil
		}
		if _, insertErr := e.book.InsertResting(order); insertErr != nil {
			return fills, fmt.Errorf("matching: resting remainder: %w", insertErr)
		}
	}
	return fills, nil
}

// sweep walks the opposite side's price levels (ascending for a buy against
// asks, descending for a sell against bids — the btree's own ordering
// already gives us that direction) while gate(levelPrice) holds, matching
// FIFO within each level. It mutates order.RemainingSize in place and
// returns the fills generated.
func (e *Engine) sweep(order *model.Order, oppositeSide model.Side, gate func(model.Price) bool) ([]model.Fill, error) {
	var fills []model.Fill

	for order.RemainingSize > 0 {
		levelPrice, _, ok := e.bestOf(oppositeSide)
		if !ok || !gate(levelPrice) {
			break
		}

		levelFills, err := e.matchLevel(order, oppositeSide, levelPrice)
		if err != nil {
			return fills, err
		}
		fills = append(fills, levelFills...)
	}
	return fills, nil
}

func (e *Engine) bestOf(side model.Side) (model.Price, model.Size, bool) {
	if side == model.Buy {
		return e.book.BestBid()
	}
	return e.book.BestAsk()
}

// matchLevel consumes front-to-back FIFO makers at levelPrice until either
// the level empties or the taker's remaining size reaches zero (the matching steps
// 1-6). Makers whose size has already been driven to zero or below by data
// corruption are skipped and purged defensively; under I5 this must not
// occur in practice.
func (e *Engine) matchLevel(taker *model.Order, makerSide model.Side, levelPrice model.Price) ([]model.Fill, error) {
	var fills []model.Fill

	for taker.RemainingSize > 0 {
		price, _, ok := e.bestOf(makerSide)
		if !ok || price != levelPrice {
			break
		}
		maker := e.book.FrontOrderAt(makerSide, levelPrice)
		if maker == nil {
			// Level reported non-empty but front id missing: I1 broken.
			return fills, fmt.Errorf("%w: level at %d has no resolvable front order", model.ErrEngineFault, levelPrice)
		}
		if maker.RemainingSize <= 0 {
			e.book.Cancel(maker.ID)
			continue
		}

		matchSize := min64(taker.RemainingSize, maker.RemainingSize)
		fill := model.Fill{
			TakerOrderID: taker.ID,
			MakerOrderID: maker.ID,
			Price:        levelPrice,
			Size:         matchSize,
			Timestamp:    taker.Timestamp,
			TakerOrigin:  taker.Origin,
			MakerOrigin:  maker.Origin,
		}

		taker.RemainingSize -= matchSize
		if matchSize == maker.RemainingSize {
			e.book.Cancel(maker.ID)
		} else if _, err := e.book.ReduceResting(maker.ID, matchSize); err != nil {
			return fills, err
		}

		fills = append(fills, fill)
	}
	return fills, nil
}

func min64(a, b model.Size) model.Size {
	if a < b {
		return a
	}
	return b
}
