package replay

import (
	"fmt"
	"time"

	"lobmm/internal/book"
	"lobmm/internal/feature"
	"lobmm/internal/matching"
	"lobmm/internal/model"
	"lobmm/internal/strategy"
)

// Observer receives notifications as the simulator steps. It is the
// boundary the host (CLI, live loop) uses to log, emit metrics, or persist
// state — the core itself logs nothing. A nil Observer is valid; all
// methods are no-ops in that case.
type Observer interface {
	OnFill(model.Fill)
	OnStep(Event, feature.Features)
}

// Simulator drives the Book Store, Matching Engine, Feature Extractor, and
// Quoting Strategy over a Source of recorded events. Its Fills log
// and final book state are deterministic for a given (Source, Strategy,
// parameters) triple.
type Simulator struct {
	book      *book.OrderBook
	engine    *matching.Engine
	extractor *feature.Extractor
	strat     strategy.Strategy
	volWindow int

	clock     time.Time
	haveClock bool

	// exchange tracks the EXCHANGE-origin liquidity the simulator itself
	// synthesized per (side, price), so DepthDelta events can be
	// reconciled without ever touching MAKER orders at that level
	// (origin tagging lets it distinguish the two).
	exchange *book.ExchangeLiquidity

	openQuotes     map[string]strategy.OpenQuote
	openQuoteOrder []string // insertion order, kept explicit: map iteration is not deterministic
	inventory      strategy.Inventory

	// nextExchangeID/nextMakerID mint synthetic order ids via a monotonic
	// counter rather than a random source, so Fills and the final book
	// state are byte-identical across repeated runs over the same Source.
	nextExchangeID int64
	nextMakerID    int64

	// Fills is the append-only log of every fill produced, in matching
	// order — the observable contract tests compare against.
	Fills []model.Fill

	Observer Observer
}

// New creates a Simulator over an empty book.
func New(strat strategy.Strategy, ringCapacity int) *Simulator {
	b := book.New()
	return &Simulator{
		book:       b,
		engine:     matching.New(b),
		extractor:  feature.New(ringCapacity),
		strat:      strat,
		volWindow:  ringCapacity,
		exchange:   book.NewExchangeLiquidity(),
		openQuotes: make(map[string]strategy.OpenQuote),
	}
}

// Book exposes the underlying Book Store for read-only inspection (final
// state hashing, depth queries at the CLI boundary).
func (s *Simulator) Book() *book.OrderBook { return s.book }

// Inventory returns the strategy's current net position.
func (s *Simulator) Inventory() strategy.Inventory { return s.inventory }

// nextExchangeOrderID mints a deterministic id for synthetic EXCHANGE
// liquidity (depth deltas, trades).
func (s *Simulator) nextExchangeOrderID() string {
	s.nextExchangeID++
	return fmt.Sprintf("X-%d", s.nextExchangeID)
}

// nextMakerOrderID mints a deterministic id for a fresh MAKER quote.
func (s *Simulator) nextMakerOrderID() string {
	s.nextMakerID++
	return fmt.Sprintf("M-%d", s.nextMakerID)
}

// Run drives the simulator to exhaustion of source, in timestamp order.
// Returns model.ErrProtocolError if source ever reports a record out of
// non-decreasing ts order, or any error surfaced by the core during a
// step — at which point the caller must treat the book as undefined.
func (s *Simulator) Run(source Source) error {
	for {
		ev, ok := source.Next()
		if !ok {
			break
		}
		if err := s.Step(ev); err != nil {
			return err
		}
	}
	return source.Err()
}

// Step applies exactly one event through the full per-tick ordering:
// advance the clock, apply the event, extract features, invoke the
// strategy, cancels before inserts, fills recorded in matching order.
func (s *Simulator) Step(ev Event) error {
	if s.haveClock && ev.Ts.Before(s.clock) {
		return fmt.Errorf("%w: event ts %s precedes clock %s", model.ErrProtocolError, ev.Ts, s.clock)
	}
	s.clock = ev.Ts
	s.haveClock = true

	switch ev.Kind {
	case KindDepthDelta:
		if err := s.applyDepthDelta(ev); err != nil {
			return err
		}
	case KindTrade:
		if err := s.applyTrade(ev); err != nil {
			return err
		}
	case KindTick:
		// Pure clock advance: no book mutation.
	default:
		return fmt.Errorf("%w: unknown event kind %d", model.ErrProtocolError, ev.Kind)
	}

	feats := s.extractor.Sample(s.book, s.volWindow)
	if s.Observer != nil {
		s.Observer.OnStep(ev, feats)
	}

	action := s.strat.OnStep(feats, s.inventory, s.openQuotesSnapshot(), s.clock)
	return s.applyAction(action)
}

func (s *Simulator) applyDepthDelta(ev Event) error {
	if err := s.exchange.Apply(s.book, ev.Side, ev.Price, ev.Aggregate, s.clock, s.nextExchangeOrderID); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	return nil
}

func (s *Simulator) applyTrade(ev Event) error {
	order := model.Order{
		ID:            s.nextExchangeOrderID(),
		Side:          ev.Side,
		Price:         ev.Price,
		RemainingSize: ev.Size,
		Origin:        model.Exchange,
		TimeInForce:   model.IOC,
		Timestamp:     s.clock,
	}
	fills, err := s.engine.Submit(order)
	if err != nil {
		return fmt.Errorf("replay: trade submit: %w", err)
	}
	for _, f := range fills {
		s.onFill(f)
	}
	return nil
}

func (s *Simulator) applyAction(action strategy.QuoteAction) error {
	for _, id := range action.Cancel {
		s.book.Cancel(id)
		s.forgetOpenQuote(id)
	}

	for _, intent := range action.Place {
		order := model.Order{
			ID:            s.nextMakerOrderID(),
			Side:          intent.Side,
			Price:         intent.Price,
			RemainingSize: intent.Size,
			Origin:        model.Maker,
			TimeInForce:   model.GTC,
			Timestamp:     s.clock,
		}
		fills, err := s.engine.Submit(order)
		if err != nil {
			return fmt.Errorf("replay: quote submit: %w", err)
		}
		for _, f := range fills {
			if f.TakerOrigin == model.Maker && f.TakerOrderID == order.ID {
				s.adjustInventory(intent.Side, f.Size)
			}
			s.onFill(f)
		}
		if resting := s.book.Find(order.ID); resting != nil {
			s.rememberOpenQuote(strategy.OpenQuote{
				ID:    order.ID,
				Side:  intent.Side,
				Price: intent.Price,
				Size:  resting.RemainingSize,
			})
		}
	}
	return nil
}

// onFill records a fill into the log, updates inventory/open-quote
// bookkeeping when our own resting quote was the maker side, and notifies
// the Observer. Taker-side maker fills (our own fresh insert crossing the
// book) are handled by the caller in applyAction, since only that call
// site knows the inserted order's side.
func (s *Simulator) onFill(f model.Fill) {
	s.Fills = append(s.Fills, f)

	if f.MakerOrigin == model.Maker {
		if q, ok := s.openQuotes[f.MakerOrderID]; ok {
			s.adjustInventory(q.Side, f.Size)
			if s.book.Find(f.MakerOrderID) == nil {
				s.forgetOpenQuote(f.MakerOrderID)
			} else {
				q.Size -= f.Size
				s.openQuotes[f.MakerOrderID] = q
			}
		}
	}

	if s.Observer != nil {
		s.Observer.OnFill(f)
	}
}

func (s *Simulator) adjustInventory(side model.Side, size model.Size) {
	if side == model.Buy {
		s.inventory += strategy.Inventory(size)
	} else {
		s.inventory -= strategy.Inventory(size)
	}
}

func (s *Simulator) rememberOpenQuote(q strategy.OpenQuote) {
	if _, exists := s.openQuotes[q.ID]; !exists {
		s.openQuoteOrder = append(s.openQuoteOrder, q.ID)
	}
	s.openQuotes[q.ID] = q
}

func (s *Simulator) forgetOpenQuote(id string) {
	if _, ok := s.openQuotes[id]; !ok {
		return
	}
	delete(s.openQuotes, id)
	for i, existing := range s.openQuoteOrder {
		if existing == id {
			s.openQuoteOrder = append(s.openQuoteOrder[:i], s.openQuoteOrder[i+1:]...)
			break
		}
	}
}

// openQuotesSnapshot returns the strategy's open quotes in stable
// insertion order — never by ranging a map, which Go deliberately
// randomizes, to preserve the determinism contract.
func (s *Simulator) openQuotesSnapshot() []strategy.OpenQuote {
	out := make([]strategy.OpenQuote, 0, len(s.openQuoteOrder))
	for _, id := range s.openQuoteOrder {
		out = append(out, s.openQuotes[id])
	}
	return out
}
