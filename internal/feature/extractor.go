// Package feature implements the Feature Extractor: pure functions
// of the current Book Store state plus a bounded mid-price history ring.
//
// Mid-price and best bid/ask are read as views over a local order book
// (OrderBook.BestBid/BestAsk/Depth), extended here to fixed-point
// price/size types and the full microprice/imbalance/volatility trio.
package feature

import (
	"math"

	"lobmm/internal/book"
	"lobmm/internal/model"
)

// Extractor derives microprice, top-of-book imbalance, and short-window
// mid-price volatility from an OrderBook's observable state. It holds no
// reference to the book itself — Sample is called once per replay step
// with the book's current top-of-book and levels.
type Extractor struct {
	window []float64 // fixed-capacity ring of mid-price samples
	cap    int
	next   int
	filled int
}

// New creates an Extractor with a ring buffer of the given capacity for
// Volatility's window.
func New(ringCapacity int) *Extractor {
	if ringCapacity < 1 {
		ringCapacity = 1
	}
	return &Extractor{window: make([]float64, ringCapacity), cap: ringCapacity}
}

// Features is the bundle of derived values for one replay step. Fields are
// paired with an Ok flag because microprice/imbalance are undefined when a
// side of the book is empty.
type Features struct {
	Microprice   float64
	MicropriceOk bool
	Imbalance1   float64
	Imbalance2   float64
	Imbalance5   float64
	Volatility   float64
}

// Sample computes Features from the book's current state and records a new
// mid-price sample into the ring (one sample per event step, taken only when
// both sides of the book are non-empty).
func (e *Extractor) Sample(b *book.OrderBook, volWindow int) Features {
	bidPrice, bidSize, bidOk := b.BestBid()
	askPrice, askSize, askOk := b.BestAsk()

	var f Features
	if bidOk && askOk {
		f.Microprice, f.MicropriceOk = microprice(bidPrice, bidSize, askPrice, askSize)
		mid := (float64(bidPrice) + float64(askPrice)) / 2
		e.push(mid)
	}

	f.Imbalance1 = imbalance(b, 1)
	f.Imbalance2 = imbalance(b, 2)
	f.Imbalance5 = imbalance(b, 5)
	f.Volatility = e.volatility(volWindow)
	return f
}

func microprice(bidPrice model.Price, bidSize model.Size, askPrice model.Price, askSize model.Size) (float64, bool) {
	denom := float64(bidSize + askSize)
	if denom == 0 {
		return 0, false
	}
	num := float64(bidPrice)*float64(askSize) + float64(askPrice)*float64(bidSize)
	return num / denom, true
}

// imbalance computes (sum(bid sizes) - sum(ask sizes)) / sum over the top n
// levels of each side; returns 0 when the combined sum is 0.
func imbalance(b *book.OrderBook, n int) float64 {
	bidLevels := b.Depth(model.Buy, n)
	askLevels := b.Depth(model.Sell, n)

	var bidSum, askSum float64
	for _, l := range bidLevels {
		bidSum += float64(l.Aggregate)
	}
	for _, l := range askLevels {
		askSum += float64(l.Aggregate)
	}

	sum := bidSum + askSum
	if sum == 0 {
		return 0
	}
	return (bidSum - askSum) / sum
}

// push records a new mid-price sample into the fixed-capacity ring,
// overwriting the oldest sample once full.
func (e *Extractor) push(mid float64) {
	e.window[e.next] = mid
	e.next = (e.next + 1) % e.cap
	if e.filled < e.cap {
		e.filled++
	}
}

// volatility returns the standard deviation of the last `window` mid-price
// samples (capped at the ring's capacity and at how many samples have
// actually been recorded); returns 0 with fewer than 2 samples.
func (e *Extractor) volatility(window int) float64 {
	n := window
	if n > e.filled {
		n = e.filled
	}
	if n > e.cap {
		n = e.cap
	}
	if n < 2 {
		return 0
	}

	samples := make([]float64, 0, n)
	idx := e.next - 1
	for i := 0; i < n; i++ {
		if idx < 0 {
			idx += e.cap
		}
		samples = append(samples, e.window[idx])
		idx--
	}

	var mean float64
	for _, s := range samples {
		mean += s
	}
	mean /= float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	return math.Sqrt(variance)
}
