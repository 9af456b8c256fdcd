// Package ingest is the external event stream's decode boundary: it
// parses the collaborator-supplied record schema — decimal prices/sizes,
// string side/kind tags — into the fixed-point lobmm/internal/replay.Event
// the core consumes, and enforces the non-decreasing-timestamp contract.
//
// Follows the usual parse-a-tagged-record, validate-its-shape, return-a-
// typed-error-on-malformed-input idiom, applied to a JSON record instead
// of a binary frame, and uses shopspring/decimal for external price/size
// fields the way the rest of this codebase does.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lobmm/internal/model"
	"lobmm/internal/replay"
)

// Record is the wire shape of an external event record:
// { ts, kind, side?, price?, size?, aggregate? }.
type Record struct {
	Ts        int64           `json:"ts"`
	Kind      string          `json:"kind"`
	Side      string          `json:"side,omitempty"`
	Price     decimal.Decimal `json:"price,omitempty"`
	Size      decimal.Decimal `json:"size,omitempty"`
	Aggregate decimal.Decimal `json:"aggregate,omitempty"`
}

// Decoder converts Records into replay.Events, tracking the last-seen
// timestamp to reject out-of-order input as early as possible —
// before it ever reaches the simulator.
type Decoder struct {
	lastTs    int64
	haveLast  bool
}

// NewDecoder creates a Decoder with no prior timestamp state.
func NewDecoder() *Decoder { return &Decoder{} }

// DecodeLine parses one JSON-encoded Record line (the natural unit for a
// file-backed or streamed event source) and converts it to a replay.Event.
func (d *Decoder) DecodeLine(line []byte) (replay.Event, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return replay.Event{}, fmt.Errorf("%w: malformed record: %v", model.ErrProtocolError, err)
	}
	return d.Decode(rec)
}

// Decode converts a single Record to a replay.Event, validating timestamp
// order and the kind-specific required fields.
func (d *Decoder) Decode(rec Record) (replay.Event, error) {
	if d.haveLast && rec.Ts < d.lastTs {
		return replay.Event{}, fmt.Errorf("%w: record ts %d precedes prior ts %d", model.ErrProtocolError, rec.Ts, d.lastTs)
	}
	d.lastTs = rec.Ts
	d.haveLast = true

	ts := time.Unix(0, rec.Ts).UTC()

	switch rec.Kind {
	case "depth":
		side, err := parseSide(rec.Side)
		if err != nil {
			return replay.Event{}, err
		}
		aggregate, err := model.ParseSize(rec.Aggregate)
		if err != nil {
			return replay.Event{}, fmt.Errorf("%w: depth aggregate: %v", model.ErrProtocolError, err)
		}
		price, err := model.ParsePrice(rec.Price)
		if err != nil {
			return replay.Event{}, fmt.Errorf("%w: depth price: %v", model.ErrProtocolError, err)
		}
		return replay.Event{Kind: replay.KindDepthDelta, Ts: ts, Side: side, Price: price, Aggregate: aggregate}, nil

	case "trade":
		side, err := parseSide(rec.Side)
		if err != nil {
			return replay.Event{}, err
		}
		price, err := model.ParsePrice(rec.Price)
		if err != nil {
			return replay.Event{}, fmt.Errorf("%w: trade price: %v", model.ErrProtocolError, err)
		}
		size, err := model.ParseSize(rec.Size)
		if err != nil {
			return replay.Event{}, fmt.Errorf("%w: trade size: %v", model.ErrProtocolError, err)
		}
		if size <= 0 {
			return replay.Event{}, fmt.Errorf("%w: trade with non-positive size", model.ErrProtocolError)
		}
		return replay.Event{Kind: replay.KindTrade, Ts: ts, Side: side, Price: price, Size: size}, nil

	case "tick":
		return replay.Event{Kind: replay.KindTick, Ts: ts}, nil

	default:
		return replay.Event{}, fmt.Errorf("%w: unknown record kind %q", model.ErrProtocolError, rec.Kind)
	}
}

func parseSide(s string) (model.Side, error) {
	switch s {
	case "buy":
		return model.Buy, nil
	case "sell":
		return model.Sell, nil
	default:
		return 0, fmt.Errorf("%w: unknown side %q", model.ErrProtocolError, s)
	}
}
