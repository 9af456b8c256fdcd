package book

import (
	"fmt"
	"time"

	"lobmm/internal/model"
)

type levelKey struct {
	side  model.Side
	price model.Price
}

// ExchangeLiquidity reconciles depth-feed aggregate-size updates against
// synthetic EXCHANGE-origin resting orders in a Book Store. Both the
// replay simulator and the live loop mirror the same depth-feed shape
// into a local book and need the same reconciliation: grow the tracked
// liquidity FIFO when the reported aggregate increases, shrink it FIFO
// when it decreases, and never touch MAKER orders resting at the same
// level.
type ExchangeLiquidity struct {
	agg   map[levelKey]model.Size
	queue map[levelKey][]string
}

// NewExchangeLiquidity returns an empty tracker.
func NewExchangeLiquidity() *ExchangeLiquidity {
	return &ExchangeLiquidity{
		agg:   make(map[levelKey]model.Size),
		queue: make(map[levelKey][]string),
	}
}

// Apply adjusts b's EXCHANGE-origin resting size at (side, price) by the
// difference between aggregate and the aggregate last reported there. Size
// consumed by trades in between is not counted in that difference; a shrink
// larger than the EXCHANGE liquidity still resting returns
// model.ErrProtocolError. newID mints an id for a freshly inserted order
// when the level grows; it is never called on a shrink.
func (e *ExchangeLiquidity) Apply(b *OrderBook, side model.Side, price model.Price, aggregate model.Size, timestamp time.Time, newID func() string) error {
	key := levelKey{side: side, price: price}
	prev := e.agg[key]
	delta := aggregate - prev

	switch {
	case delta > 0:
		id := newID()
		order := model.Order{
			ID:            id,
			Side:          side,
			Price:         price,
			RemainingSize: delta,
			Origin:        model.Exchange,
			TimeInForce:   model.GTC,
			Timestamp:     timestamp,
		}
		if _, err := b.InsertResting(order); err != nil {
			return fmt.Errorf("book: exchange liquidity insert: %w", err)
		}
		e.queue[key] = append(e.queue[key], id)

	case delta < 0:
		need := -delta
		queue := e.queue[key]
		for need > 0 {
			if len(queue) == 0 {
				return fmt.Errorf("%w: depth delta shrink at (%v,%d) exceeds tracked exchange liquidity", model.ErrProtocolError, side, price)
			}
			id := queue[0]
			resting := b.Find(id)
			if resting == nil {
				queue = queue[1:]
				continue
			}
			take := need
			if resting.RemainingSize < take {
				take = resting.RemainingSize
			}
			fullyRemoved, err := b.ReduceResting(id, take)
			if err != nil {
				return fmt.Errorf("book: exchange liquidity reduce: %w", err)
			}
			need -= take
			if fullyRemoved {
				queue = queue[1:]
			}
		}
		e.queue[key] = queue
	}

	if aggregate <= 0 {
		delete(e.agg, key)
		delete(e.queue, key)
	} else {
		e.agg[key] = aggregate
	}
	return nil
}
