package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobmm/internal/book"
	"lobmm/internal/model"
)

func order(id string, side model.Side, price model.Price, size model.Size, tif model.TimeInForce) model.Order {
	return model.Order{
		ID:            id,
		Side:          side,
		Price:         price,
		RemainingSize: size,
		Origin:        model.Maker,
		TimeInForce:   tif,
		Timestamp:     time.Unix(0, 0),
	}
}

func TestSubmit_RestsWhenBookEmpty(t *testing.T) {
	b := book.New()
	e := New(b)

	fills, err := e.Submit(order("resting", model.Buy, 100, 10, model.GTC))
	require.NoError(t, err)
	assert.Empty(t, fills)

	price, _, ok := b.BestBid()
	assert.True(t, ok)
	assert.Equal(t, model.Price(100), price)
}

func TestSubmit_MatchesAtRestingMakerPrice(t *testing.T) {
	b := book.New()
	e := New(b)

	_, err := e.Submit(order("maker", model.Sell, 105, 10, model.GTC))
	require.NoError(t, err)

	fills, err := e.Submit(order("taker", model.Buy, 110, 10, model.GTC))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, model.Price(105), fills[0].Price, "fill executes at the resting maker price, not the taker's limit")
	assert.Equal(t, model.Size(10), fills[0].Size)
}

func TestSubmit_FIFOAcrossTwoMakersAtSameLevel(t *testing.T) {
	b := book.New()
	e := New(b)

	_, err := e.Submit(order("m1", model.Sell, 100, 5, model.GTC))
	require.NoError(t, err)
	_, err = e.Submit(order("m2", model.Sell, 100, 5, model.GTC))
	require.NoError(t, err)

	fills, err := e.Submit(order("taker", model.Buy, 100, 5, model.GTC))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "m1", fills[0].MakerOrderID, "earlier-arrived maker at a level fills first")
}

func TestSubmit_SweepsMultipleLevels(t *testing.T) {
	b := book.New()
	e := New(b)

	_, err := e.Submit(order("near", model.Sell, 100, 5, model.GTC))
	require.NoError(t, err)
	_, err = e.Submit(order("far", model.Sell, 101, 5, model.GTC))
	require.NoError(t, err)

	fills, err := e.Submit(order("sweeper", model.Buy, 101, 8, model.GTC))
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, model.Price(100), fills[0].Price)
	assert.Equal(t, model.Size(5), fills[0].Size)
	assert.Equal(t, model.Price(101), fills[1].Price)
	assert.Equal(t, model.Size(3), fills[1].Size)

	remaining := b.Find("far")
	require.NotNil(t, remaining)
	assert.Equal(t, model.Size(2), remaining.RemainingSize)
}

func TestSubmit_NeverCrossesBook(t *testing.T) {
	b := book.New()
	e := New(b)

	_, err := e.Submit(order("ask", model.Sell, 100, 5, model.GTC))
	require.NoError(t, err)

	_, err = e.Submit(order("bid", model.Buy, 99, 5, model.GTC))
	require.NoError(t, err)

	assert.NoError(t, b.CheckInvariants())
	bestBid, _, _ := b.BestBid()
	bestAsk, _, _ := b.BestAsk()
	assert.Less(t, bestBid, bestAsk)
}

func TestSubmit_IOCDiscardsUnfilledRemainder(t *testing.T) {
	b := book.New()
	e := New(b)

	_, err := e.Submit(order("maker", model.Sell, 100, 3, model.GTC))
	require.NoError(t, err)

	fills, err := e.Submit(order("ioc", model.Buy, 100, 10, model.IOC))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, model.Size(3), fills[0].Size)

	assert.Nil(t, b.Find("ioc"), "IOC remainder must not rest")
}

func TestSubmit_RejectsInvalidOrder(t *testing.T) {
	b := book.New()
	e := New(b)

	_, err := e.Submit(order("bad", model.Buy, 0, 10, model.GTC))
	assert.ErrorIs(t, err, model.ErrInvalidOrder)
}
