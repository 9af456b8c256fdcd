// Package strategy implements the Quoting Strategy capability: a
// pluggable component that, given features, inventory, and risk
// parameters, emits a pair of (bid, ask) quote intents.
//
// Drives an Avellaneda-Stoikov-flavored reservation-price/spread
// computation off a features+inventory snapshot every tick and reconciles
// against the list of open quotes. Simpler than a full exchange integration
// (no USD notional, no round-trip to a venue) but keeps the same
// on_step/reconcile shape.
package strategy

import (
	"time"

	"lobmm/internal/feature"
	"lobmm/internal/model"
)

// OpenQuote is one of the strategy's own resting orders, as known to the
// replay/live loop driving it.
type OpenQuote struct {
	ID    string
	Side  model.Side
	Price model.Price
	Size  model.Size
}

// Intent describes a new order the strategy wants resting in the book.
type Intent struct {
	Side  model.Side
	Price model.Price
	Size  model.Size
}

// QuoteAction is a Strategy's response to one on_step call: cancel
// any subset of its open quotes and/or submit new ones. Cancels are applied
// before inserts within a single replay step.
type QuoteAction struct {
	Cancel []string // order ids to cancel
	Place  []Intent
}

// Empty reports whether the action is a no-op pass.
func (a QuoteAction) Empty() bool { return len(a.Cancel) == 0 && len(a.Place) == 0 }

// Inventory is the strategy's current net position, in base-asset Size
// units (positive == long, negative == short).
type Inventory model.Size

// Strategy is a capability, not a concrete class:
// implementations are interchangeable without book-layer knowledge.
type Strategy interface {
	OnStep(f feature.Features, inventory Inventory, openQuotes []OpenQuote, clock time.Time) QuoteAction
}
