// Package model holds the data types shared by the book, matching, feature,
// and strategy packages: fixed-scale prices and sizes, orders, and fills.
package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of implied decimal places carried by Price and Size.
// A venue-reported decimal price of "100.25" becomes Price(10025000000) at
// Scale == 8, eliminating the float comparison/epsilon problems the source
// system had at its book boundary.
const Scale = 8

var scaleFactor = decimal.New(1, Scale)

// Price is a fixed-scale integer: the real price times 10^Scale. Comparisons
// are plain integer comparisons, never float equality.
type Price int64

// Size is a fixed-scale integer quantity in base-asset units, same scale as
// Price.
type Size int64

// ParsePrice converts a decimal (as received from the external event schema)
// into a fixed-scale Price. Returns an error if the decimal does not fit
// the configured scale cleanly enough to round-trip, or is non-positive.
func ParsePrice(d decimal.Decimal) (Price, error) {
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("model: non-positive price %s", d.String())
	}
	exact := d.Mul(scaleFactor)
	scaled := exact.Round(0)
	if !scaled.Equal(exact) {
		return 0, fmt.Errorf("model: price %s has more than %d decimal places", d.String(), Scale)
	}
	return Price(scaled.IntPart()), nil
}

// ParseSize converts a decimal size into a fixed-scale Size. Zero is
// rejected by callers that require strictly positive resting size (I5);
// ParseSize itself only rejects negative input.
func ParseSize(d decimal.Decimal) (Size, error) {
	if d.Sign() < 0 {
		return 0, fmt.Errorf("model: negative size %s", d.String())
	}
	scaled := d.Mul(scaleFactor).Round(0)
	return Size(scaled.IntPart()), nil
}

// Decimal converts a Price back to a decimal.Decimal for reporting at the
// boundary (fill logs, CLI output, metrics labels).
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -Scale)
}

// Decimal converts a Size back to a decimal.Decimal.
func (s Size) Decimal() decimal.Decimal {
	return decimal.New(int64(s), -Scale)
}

func (p Price) String() string { return p.Decimal().String() }
func (s Size) String() string  { return s.Decimal().String() }
