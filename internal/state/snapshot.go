// Package state writes optional point-in-time snapshots of the live loop's
// book/inventory/open-quote state to Redis, so an operator can inspect a
// running instance without pausing it. Write-only: nothing in the core
// reads this back (the live loop works the same
// whether or not a snapshot sink is configured).
//
// Built on redis.ParseURL + redis.Client wiring, scoped to a single JSON
// snapshot key plus an append-only stream of fills.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lobmm/internal/book"
	"lobmm/internal/model"
	"lobmm/internal/strategy"
)

// Snapshot is the serialized shape written to Redis.
type Snapshot struct {
	Ts          time.Time            `json:"ts"`
	Inventory   model.Size           `json:"inventory"`
	OpenQuotes  []strategy.OpenQuote  `json:"open_quotes"`
	BestBid     *model.Price          `json:"best_bid,omitempty"`
	BestAsk     *model.Price          `json:"best_ask,omitempty"`
}

// Writer snapshots live state to a Redis key and appends fills to a Redis
// stream.
type Writer struct {
	client    *redis.Client
	key       string
	fillsKey  string
}

// NewWriter parses url (a standard redis:// connection string) and returns
// a Writer keyed under keyPrefix.
func NewWriter(url, keyPrefix string) (*Writer, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("state: parse redis url: %w", err)
	}
	return &Writer{
		client:   redis.NewClient(opt),
		key:      keyPrefix + ":snapshot",
		fillsKey: keyPrefix + ":fills",
	}, nil
}

// WriteSnapshot overwrites the current state snapshot.
func (w *Writer) WriteSnapshot(ctx context.Context, b *book.OrderBook, inventory model.Size, openQuotes []strategy.OpenQuote, ts time.Time) error {
	snap := Snapshot{Ts: ts, Inventory: inventory, OpenQuotes: openQuotes}
	if p, _, ok := b.BestBid(); ok {
		snap.BestBid = &p
	}
	if p, _, ok := b.BestAsk(); ok {
		snap.BestAsk = &p
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("state: marshal snapshot: %w", err)
	}
	if err := w.client.Set(ctx, w.key, data, 0).Err(); err != nil {
		return fmt.Errorf("state: write snapshot: %w", err)
	}
	return nil
}

// AppendFill pushes one fill onto the fills stream for external tailing.
func (w *Writer) AppendFill(ctx context.Context, f model.Fill) error {
	_, err := w.client.XAdd(ctx, &redis.XAddArgs{
		Stream: w.fillsKey,
		Values: map[string]interface{}{
			"taker_id":     f.TakerOrderID,
			"maker_id":     f.MakerOrderID,
			"price":        f.Price.String(),
			"size":         f.Size.String(),
			"taker_origin": f.TakerOrigin.String(),
			"maker_origin": f.MakerOrigin.String(),
			"ts":           f.Timestamp.UnixNano(),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("state: append fill: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (w *Writer) Close() error { return w.client.Close() }
