package model

import "time"

// Fill is emitted atomically when matching reduces a maker's remaining
// size. Price is always the maker's resting price — price improvement
// flows to the taker, never the reverse.
type Fill struct {
	TakerOrderID string
	MakerOrderID string
	Price        Price
	Size         Size
	Timestamp    time.Time
	TakerOrigin  Origin
	MakerOrigin  Origin
}
