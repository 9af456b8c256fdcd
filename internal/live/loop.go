// Package live implements the live trading loop: two cooperating
// tasks under a single tomb.Tomb — an ingress reader that mirrors exchange
// depth/trade events into a local Book Store and drives the Quoting
// Strategy, and a fill poller that reconciles confirmed fills from the
// Gateway back into inventory and open-quote bookkeeping.
//
// Built on tomb.Tomb + t.Go + t.Dying() cooperative shutdown, the same
// pattern a TCP accept loop and worker pool would use, scaled down to the
// two fixed long-lived tasks a market maker actually needs.
package live

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"lobmm/internal/book"
	"lobmm/internal/feature"
	"lobmm/internal/matching"
	"lobmm/internal/model"
	"lobmm/internal/replay"
	"lobmm/internal/state"
	"lobmm/internal/strategy"
)

// Loop is the live counterpart to replay.Simulator: it keeps the same
// Book Store / Matching Engine / Feature Extractor / Quoting Strategy
// pipeline, but strategy actions are realized against a real Gateway
// instead of an in-process match, and fills arrive asynchronously from
// PollFills rather than from Engine.Submit's return value.
type Loop struct {
	book      *book.OrderBook
	engine    *matching.Engine
	extractor *feature.Extractor
	strat     strategy.Strategy
	volWindow int
	gateway   Gateway

	// exchange tracks the EXCHANGE-origin liquidity mirrored from depth
	// deltas, so repeated updates at a price grow/shrink the existing
	// synthetic orders FIFO instead of drifting from the exchange's
	// reported aggregate (the same reconciliation replay.Simulator uses).
	exchange *book.ExchangeLiquidity

	openQuotes     map[string]strategy.OpenQuote
	openQuoteOrder []string
	inventory      strategy.Inventory

	events     <-chan replay.Event
	fillPollCh <-chan struct{}
	Observer   replay.Observer

	// State optionally mirrors book/inventory/open-quote state to an
	// external sink after every step, and every confirmed fill. Nil
	// disables snapshotting entirely.
	State *state.Writer

	t tomb.Tomb
}

// Config bundles what NewLoop needs beyond the strategy/gateway pair.
type Config struct {
	RingCapacity int
	Events       <-chan replay.Event
	// FillPoll is ticked by the caller (typically fed from a time.Ticker)
	// each time the loop should ask the Gateway for new fills.
	FillPoll <-chan struct{}
}

// NewLoop constructs a Loop over an empty book.
func NewLoop(strat strategy.Strategy, gateway Gateway, cfg Config) *Loop {
	b := book.New()
	return &Loop{
		book:       b,
		engine:     matching.New(b),
		extractor:  feature.New(cfg.RingCapacity),
		strat:      strat,
		volWindow:  cfg.RingCapacity,
		gateway:    gateway,
		exchange:   book.NewExchangeLiquidity(),
		openQuotes: make(map[string]strategy.OpenQuote),
		events:     cfg.Events,
		fillPollCh: cfg.FillPoll,
	}
}

// Run starts the ingress and fill-poll tasks and blocks until ctx is
// cancelled or either task returns an error, then waits for both to exit
// (the "cancel-all then exit" shutdown contract is the caller's
// responsibility, via CancelAll).
func (l *Loop) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	l.t = *t

	l.t.Go(func() error { return l.ingress(ctx) })
	l.t.Go(func() error { return l.pollFills(ctx) })

	return l.t.Wait()
}

// Kill requests cooperative shutdown; Run's Wait returns once both tasks
// observe Dying().
func (l *Loop) Kill(err error) { l.t.Kill(err) }

// Book exposes the live mirror book for read-only inspection. The
// strategy's own quotes go to the Gateway and are not in this book.
func (l *Loop) Book() *book.OrderBook { return l.book }

// CancelAll cancels every open quote through the Gateway. Callers invoke
// this on shutdown, before Kill, to satisfy the "cancel-all then exit"
// contract.
func (l *Loop) CancelAll(ctx context.Context) {
	for _, q := range l.openQuotesSnapshot() {
		if err := l.gateway.CancelOrder(ctx, q.ID); err != nil {
			log.Error().Err(err).Str("order_id", q.ID).Msg("live: shutdown cancel failed")
			continue
		}
		l.forgetOpenQuote(q.ID)
	}
}

func (l *Loop) ingress(ctx context.Context) error {
	for {
		select {
		case <-l.t.Dying():
			return nil
		case ev, ok := <-l.events:
			if !ok {
				return nil
			}
			if err := l.step(ctx, ev); err != nil {
				log.Error().Err(err).Msg("live: step failed")
				return err
			}
		}
	}
}

func (l *Loop) step(ctx context.Context, ev replay.Event) error {
	switch ev.Kind {
	case replay.KindDepthDelta:
		newID := func() string { return uuid.New().String() }
		if err := l.exchange.Apply(l.book, ev.Side, ev.Price, ev.Aggregate, ev.Ts, newID); err != nil {
			return fmt.Errorf("live: mirror depth delta: %w", err)
		}
	case replay.KindTrade:
		order := model.Order{
			ID:            uuid.New().String(),
			Side:          ev.Side,
			Price:         ev.Price,
			RemainingSize: ev.Size,
			Origin:        model.Exchange,
			TimeInForce:   model.IOC,
			Timestamp:     ev.Ts,
		}
		if _, err := l.engine.Submit(order); err != nil {
			return fmt.Errorf("live: mirror trade: %w", err)
		}
	case replay.KindTick:
		// clock-only, no book mutation
	default:
		return fmt.Errorf("%w: unknown event kind %d", model.ErrProtocolError, ev.Kind)
	}

	feats := l.extractor.Sample(l.book, l.volWindow)
	if l.Observer != nil {
		l.Observer.OnStep(ev, feats)
	}

	action := l.strat.OnStep(feats, l.inventory, l.openQuotesSnapshot(), ev.Ts)
	if err := l.applyAction(ctx, action); err != nil {
		return err
	}

	if l.State != nil {
		if err := l.State.WriteSnapshot(ctx, l.book, model.Size(l.inventory), l.openQuotesSnapshot(), ev.Ts); err != nil {
			log.Error().Err(err).Msg("live: write state snapshot failed")
		}
	}
	return nil
}

func (l *Loop) applyAction(ctx context.Context, action strategy.QuoteAction) error {
	for _, id := range action.Cancel {
		if err := l.gateway.CancelOrder(ctx, id); err != nil {
			log.Error().Err(err).Str("order_id", id).Msg("live: cancel failed")
			continue
		}
		l.forgetOpenQuote(id)
	}

	for _, intent := range action.Place {
		// time.Now() is fine here: the Gateway is a live, non-deterministic
		// collaborator. replay.Simulator must never take this path — it
		// stamps orders with the event clock instead.
		order := model.Order{
			ID:            uuid.New().String(),
			Side:          intent.Side,
			Price:         intent.Price,
			RemainingSize: intent.Size,
			Origin:        model.Maker,
			TimeInForce:   model.GTC,
			Timestamp:     time.Now().UTC(),
		}
		if err := l.gateway.PlaceOrder(ctx, order); err != nil {
			log.Error().Err(err).Str("order_id", order.ID).Msg("live: place failed")
			continue
		}
		l.rememberOpenQuote(strategy.OpenQuote{ID: order.ID, Side: intent.Side, Price: intent.Price, Size: intent.Size})
	}
	return nil
}

func (l *Loop) pollFills(ctx context.Context) error {
	for {
		select {
		case <-l.t.Dying():
			return nil
		case _, ok := <-l.fillPollCh:
			if !ok {
				return nil
			}
			fills, err := l.gateway.PollFills(ctx)
			if err != nil {
				log.Error().Err(err).Msg("live: poll fills failed")
				continue
			}
			for _, f := range fills {
				l.onFill(ctx, f)
			}
		}
	}
}

func (l *Loop) onFill(ctx context.Context, f model.Fill) {
	if q, ok := l.openQuotes[f.MakerOrderID]; ok {
		l.adjustInventory(q.Side, f.Size)
		q.Size -= f.Size
		if q.Size <= 0 {
			l.forgetOpenQuote(f.MakerOrderID)
		} else {
			l.openQuotes[f.MakerOrderID] = q
		}
	}
	if l.Observer != nil {
		l.Observer.OnFill(f)
	}
	if l.State != nil {
		if err := l.State.AppendFill(ctx, f); err != nil {
			log.Error().Err(err).Msg("live: append fill to state failed")
		}
	}
}

func (l *Loop) adjustInventory(side model.Side, size model.Size) {
	if side == model.Buy {
		l.inventory += strategy.Inventory(size)
	} else {
		l.inventory -= strategy.Inventory(size)
	}
}

func (l *Loop) rememberOpenQuote(q strategy.OpenQuote) {
	if _, exists := l.openQuotes[q.ID]; !exists {
		l.openQuoteOrder = append(l.openQuoteOrder, q.ID)
	}
	l.openQuotes[q.ID] = q
}

func (l *Loop) forgetOpenQuote(id string) {
	if _, ok := l.openQuotes[id]; !ok {
		return
	}
	delete(l.openQuotes, id)
	for i, existing := range l.openQuoteOrder {
		if existing == id {
			l.openQuoteOrder = append(l.openQuoteOrder[:i], l.openQuoteOrder[i+1:]...)
			break
		}
	}
}

func (l *Loop) openQuotesSnapshot() []strategy.OpenQuote {
	out := make([]strategy.OpenQuote, 0, len(l.openQuoteOrder))
	for _, id := range l.openQuoteOrder {
		out = append(out, l.openQuotes[id])
	}
	return out
}
