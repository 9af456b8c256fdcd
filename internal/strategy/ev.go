package strategy

import (
	"time"

	"lobmm/internal/feature"
	"lobmm/internal/model"
)

// FillProbTable maps a quote distance from mid (in price ticks) to the
// probability that quote fills before being cancelled or requoted. Its
// training is not part of the core; it is supplied fully formed by
// the caller. TablePoints gives a simple piecewise-linear implementation.
type FillProbTable interface {
	ProbabilityAt(distanceTicks float64) float64
}

// TablePoints is a sorted-by-distance piecewise-linear FillProbTable,
// the shape an offline fill-probability model would hand to the core.
type TablePoints []struct {
	DistanceTicks float64
	Probability   float64
}

// ProbabilityAt linearly interpolates between the two bracketing points,
// clamping to the table's first/last probability outside its range.
func (t TablePoints) ProbabilityAt(d float64) float64 {
	if len(t) == 0 {
		return 0
	}
	if d <= t[0].DistanceTicks {
		return t[0].Probability
	}
	last := t[len(t)-1]
	if d >= last.DistanceTicks {
		return last.Probability
	}
	for i := 1; i < len(t); i++ {
		if d <= t[i].DistanceTicks {
			lo, hi := t[i-1], t[i]
			span := hi.DistanceTicks - lo.DistanceTicks
			if span <= 0 {
				return hi.Probability
			}
			frac := (d - lo.DistanceTicks) / span
			return lo.Probability + frac*(hi.Probability-lo.Probability)
		}
	}
	return last.Probability
}

// SizeFunc computes the quote size to use given the current inventory.
type SizeFunc func(inventory Inventory) model.Size

// EVMakerSkew chooses bid/ask distances that maximize expected edge
//
//	expected_edge = p(distance) * distance - |inventory| * skew_k
//
// subject to a configured max half-spread, then shifts both quotes by an
// inventory-proportional skew to pull the book back toward flat.
type EVMakerSkew struct {
	MaxHalfSpreadTicks float64
	SkewK              float64
	SizeFn             SizeFunc
	FillProb           FillProbTable
	// TickSearchStep is the grid resolution (in ticks) used to search for
	// the edge-maximizing half-spread. Defaults to 1 tick if <= 0.
	TickSearchStep float64
	// MaxAbsInventory is a risk guard rail: once |inventory| reaches this,
	// the strategy stops quoting the side that would grow the position
	// further (it keeps quoting the reducing side). Zero disables the
	// guard rail.
	MaxAbsInventory model.Size
}

var _ Strategy = (*EVMakerSkew)(nil)

// OnStep implements Strategy.
func (s *EVMakerSkew) OnStep(f feature.Features, inventory Inventory, openQuotes []OpenQuote, _ time.Time) QuoteAction {
	if !f.MicropriceOk {
		return cancelAll(openQuotes)
	}
	mid := f.Microprice

	halfSpread := s.bestHalfSpread()
	skew := float64(inventory) * s.SkewK

	bidDistance := clamp(halfSpread+skew, 1, s.MaxHalfSpreadTicks)
	askDistance := clamp(halfSpread-skew, 1, s.MaxHalfSpreadTicks)

	bidPrice := model.Price(mid - bidDistance)
	askPrice := model.Price(mid + askDistance)
	if bidPrice <= 0 {
		bidPrice = 1
	}
	if askPrice <= bidPrice {
		askPrice = bidPrice + 1
	}

	size := model.Size(0)
	if s.SizeFn != nil {
		size = s.SizeFn(inventory)
	}

	quoteBid := size > 0 && !(s.MaxAbsInventory > 0 && inventory >= Inventory(s.MaxAbsInventory))
	quoteAsk := size > 0 && !(s.MaxAbsInventory > 0 && inventory <= -Inventory(s.MaxAbsInventory))

	action := cancelAll(openQuotes)
	if quoteBid {
		action.Place = append(action.Place, Intent{Side: model.Buy, Price: bidPrice, Size: size})
	}
	if quoteAsk {
		action.Place = append(action.Place, Intent{Side: model.Sell, Price: askPrice, Size: size})
	}
	return action
}

// bestHalfSpread searches the configured grid for the distance maximizing
// p(d) * d, capped at MaxHalfSpreadTicks.
func (s *EVMakerSkew) bestHalfSpread() float64 {
	step := s.TickSearchStep
	if step <= 0 {
		step = 1
	}
	if s.FillProb == nil || s.MaxHalfSpreadTicks <= 0 {
		return s.MaxHalfSpreadTicks
	}

	bestDistance := step
	bestEdge := s.FillProb.ProbabilityAt(step) * step
	for d := step * 2; d <= s.MaxHalfSpreadTicks; d += step {
		edge := s.FillProb.ProbabilityAt(d) * d
		if edge > bestEdge {
			bestEdge = edge
			bestDistance = d
		}
	}
	return bestDistance
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
