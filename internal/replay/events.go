// Package replay implements the Replay Simulator: it drives the
// Book Store, Matching Engine, Feature Extractor, and Quoting Strategy
// deterministically over a sequence of recorded depth-update ticks.
package replay

import (
	"time"

	"lobmm/internal/model"
)

// Kind distinguishes the three event variants consumed by the simulator
//.
type Kind int

const (
	KindDepthDelta Kind = iota
	KindTrade
	KindTick
)

// Event is one record from the book-event stream (the external event
// schema, already decoded to fixed-point by internal/ingest). Fields not
// relevant to Kind are zero.
type Event struct {
	Kind Kind
	Ts   time.Time

	// DepthDelta fields.
	Side      model.Side
	Price     model.Price
	Aggregate model.Size

	// Trade fields (Side/Price shared with DepthDelta; Size is the
	// trade's own field, distinct from Aggregate).
	Size model.Size
}

// Source is an iterator of timestamped events delivered in non-decreasing
// Ts. Next returns false once exhausted; Err reports any terminal
// error (including model.ErrProtocolError for out-of-order records).
type Source interface {
	Next() (Event, bool)
	Err() error
}

// SliceSource adapts a pre-built, already-validated []Event (e.g. a parsed
// historical log) to Source. Used by backtest and by the simulator's own
// tests.
type SliceSource struct {
	events []Event
	pos    int
}

// NewSliceSource creates a Source over events, in order.
func NewSliceSource(events []Event) *SliceSource {
	return &SliceSource{events: events}
}

func (s *SliceSource) Next() (Event, bool) {
	if s.pos >= len(s.events) {
		return Event{}, false
	}
	e := s.events[s.pos]
	s.pos++
	return e, true
}

func (s *SliceSource) Err() error { return nil }
