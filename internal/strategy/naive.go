package strategy

import (
	"time"

	"lobmm/internal/feature"
	"lobmm/internal/model"
)

// NaiveFixedSpread quotes mid +/- spread/2 for a configured size, cancelling
// any previously open quote before placing the fresh pair.
type NaiveFixedSpread struct {
	// SpreadTicks is the full bid-ask spread, in price ticks (fixed-scale
	// model.Price units).
	SpreadTicks model.Price
	// Size is the quote size for both sides.
	Size model.Size
}

var _ Strategy = (*NaiveFixedSpread)(nil)

// OnStep implements Strategy.
func (s *NaiveFixedSpread) OnStep(f feature.Features, _ Inventory, openQuotes []OpenQuote, _ time.Time) QuoteAction {
	if !f.MicropriceOk {
		return cancelAll(openQuotes)
	}

	mid := model.Price(f.Microprice)
	half := s.SpreadTicks / 2
	bidPrice := mid - half
	askPrice := mid + half
	if bidPrice <= 0 {
		bidPrice = 1
	}

	action := cancelAll(openQuotes)
	action.Place = []Intent{
		{Side: model.Buy, Price: bidPrice, Size: s.Size},
		{Side: model.Sell, Price: askPrice, Size: s.Size},
	}
	return action
}

func cancelAll(openQuotes []OpenQuote) QuoteAction {
	if len(openQuotes) == 0 {
		return QuoteAction{}
	}
	ids := make([]string, len(openQuotes))
	for i, q := range openQuotes {
		ids[i] = q.ID
	}
	return QuoteAction{Cancel: ids}
}
