package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobmm/internal/model"
)

func testOrder(id string, side model.Side, price model.Price, size model.Size) model.Order {
	return model.Order{
		ID:            id,
		Side:          side,
		Price:         price,
		RemainingSize: size,
		Origin:        model.Maker,
		TimeInForce:   model.GTC,
		Timestamp:     time.Unix(0, 0),
	}
}

func TestInsertResting_AggregatesAtLevel(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b, testOrder("a", model.Buy, 100, 10), testOrder("b", model.Buy, 100, 5)))

	price, aggregate, ok := b.BestBid()
	assert.True(t, ok)
	assert.Equal(t, model.Price(100), price)
	assert.Equal(t, model.Size(15), aggregate)
}

func TestInsertResting_FIFOWithinLevel(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b, testOrder("first", model.Sell, 50, 10), testOrder("second", model.Sell, 50, 10)))

	front := b.FrontOrderAt(model.Sell, 50)
	require.NotNil(t, front)
	assert.Equal(t, "first", front.ID)
}

func TestInsertResting_RejectsDuplicateID(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b, testOrder("dup", model.Buy, 10, 1)))
	_, err := b.InsertResting(testOrder("dup", model.Buy, 10, 1))
	assert.ErrorIs(t, err, model.ErrInvalidOrder)
}

func TestCancel_RemovesOrderAndDropsEmptyLevel(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b, testOrder("only", model.Buy, 42, 3)))

	assert.True(t, b.Cancel("only"))
	_, _, ok := b.BestBid()
	assert.False(t, ok)
}

func TestCancel_IsIdempotent(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b, testOrder("once", model.Sell, 42, 3)))

	assert.True(t, b.Cancel("once"))
	assert.False(t, b.Cancel("once"))
}

func TestReduceResting_PartialLeavesOrderResident(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b, testOrder("partial", model.Buy, 10, 10)))

	fullyRemoved, err := b.ReduceResting("partial", 4)
	require.NoError(t, err)
	assert.False(t, fullyRemoved)
	assert.Equal(t, model.Size(6), b.Find("partial").RemainingSize)
}

func TestReduceResting_FullRemovesOrder(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b, testOrder("gone", model.Buy, 10, 4)))

	fullyRemoved, err := b.ReduceResting("gone", 4)
	require.NoError(t, err)
	assert.True(t, fullyRemoved)
	assert.Nil(t, b.Find("gone"))
}

func TestDepth_ReturnsBestPriceFirst(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b,
		testOrder("a", model.Sell, 102, 1),
		testOrder("b", model.Sell, 101, 1),
		testOrder("c", model.Sell, 103, 1),
	))

	levels := b.Depth(model.Sell, 2)
	require.Len(t, levels, 2)
	assert.Equal(t, model.Price(101), levels[0].Price)
	assert.Equal(t, model.Price(102), levels[1].Price)
}

func TestCheckInvariants_DetectsNothingWrongOnCleanBook(t *testing.T) {
	b := New()
	require.NoError(t, insertAll(b,
		testOrder("a", model.Buy, 99, 1),
		testOrder("b", model.Sell, 101, 1),
	))
	assert.NoError(t, b.CheckInvariants())
}

func insertAll(b *OrderBook, orders ...model.Order) error {
	for _, o := range orders {
		if _, err := b.InsertResting(o); err != nil {
			return err
		}
	}
	return nil
}
