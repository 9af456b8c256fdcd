package ingest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobmm/internal/model"
	"lobmm/internal/replay"
)

func TestDecoder_DecodesDepthRecord(t *testing.T) {
	d := NewDecoder()
	ev, err := d.Decode(Record{
		Ts: 1000, Kind: "depth", Side: "buy",
		Price:     decimal.NewFromFloat(100.5),
		Aggregate: decimal.NewFromFloat(12),
	})
	require.NoError(t, err)
	assert.Equal(t, replay.KindDepthDelta, ev.Kind)
	assert.Equal(t, model.Buy, ev.Side)
}

func TestDecoder_DecodesTradeRecord(t *testing.T) {
	d := NewDecoder()
	ev, err := d.Decode(Record{
		Ts: 1000, Kind: "trade", Side: "sell",
		Price: decimal.NewFromFloat(99.0),
		Size:  decimal.NewFromFloat(3),
	})
	require.NoError(t, err)
	assert.Equal(t, replay.KindTrade, ev.Kind)
	assert.Equal(t, model.Size(3*1e8), ev.Size)
}

func TestDecoder_RejectsOutOfOrderTimestamps(t *testing.T) {
	d := NewDecoder()
	_, err := d.Decode(Record{Ts: 1000, Kind: "tick"})
	require.NoError(t, err)

	_, err = d.Decode(Record{Ts: 999, Kind: "tick"})
	assert.ErrorIs(t, err, model.ErrProtocolError)
}

func TestDecoder_RejectsUnknownKind(t *testing.T) {
	d := NewDecoder()
	_, err := d.Decode(Record{Ts: 1, Kind: "bogus"})
	assert.ErrorIs(t, err, model.ErrProtocolError)
}

func TestDecoder_DecodeLineParsesJSON(t *testing.T) {
	d := NewDecoder()
	line := []byte(`{"ts":1,"kind":"tick"}`)
	ev, err := d.DecodeLine(line)
	require.NoError(t, err)
	assert.Equal(t, replay.KindTick, ev.Kind)
}

func TestDecoder_RejectsMalformedJSON(t *testing.T) {
	d := NewDecoder()
	_, err := d.DecodeLine([]byte(`not json`))
	assert.ErrorIs(t, err, model.ErrProtocolError)
}
