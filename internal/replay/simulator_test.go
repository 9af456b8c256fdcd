package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobmm/internal/feature"
	"lobmm/internal/model"
	"lobmm/internal/strategy"
)

// flatStrategy never quotes; used where a test cares only about event
// reconciliation, not the quoting side-effects.
type flatStrategy struct{}

func (flatStrategy) OnStep(feature.Features, strategy.Inventory, []strategy.OpenQuote, time.Time) strategy.QuoteAction {
	return strategy.QuoteAction{}
}

func depthEvent(ts int, side model.Side, price, aggregate model.Size) Event {
	return Event{Kind: KindDepthDelta, Ts: time.Unix(int64(ts), 0), Side: side, Price: model.Price(price), Aggregate: aggregate}
}

func tradeEvent(ts int, side model.Side, price, size model.Size) Event {
	return Event{Kind: KindTrade, Ts: time.Unix(int64(ts), 0), Side: side, Price: model.Price(price), Size: size}
}

func TestSimulator_DepthDeltaGrowsThenShrinksExchangeLiquidity(t *testing.T) {
	sim := New(flatStrategy{}, 8)

	require.NoError(t, sim.Step(depthEvent(1, model.Buy, 100, 10)))
	price, aggregate, ok := sim.Book().BestBid()
	require.True(t, ok)
	assert.Equal(t, model.Price(100), price)
	assert.Equal(t, model.Size(10), aggregate)

	require.NoError(t, sim.Step(depthEvent(2, model.Buy, 100, 4)))
	_, aggregate, ok = sim.Book().BestBid()
	require.True(t, ok)
	assert.Equal(t, model.Size(4), aggregate)

	require.NoError(t, sim.Step(depthEvent(3, model.Buy, 100, 0)))
	_, _, ok = sim.Book().BestBid()
	assert.False(t, ok)
}

func TestSimulator_TradeEventProducesFillAgainstExchangeLiquidity(t *testing.T) {
	sim := New(flatStrategy{}, 8)

	require.NoError(t, sim.Step(depthEvent(1, model.Sell, 100, 10)))
	require.NoError(t, sim.Step(tradeEvent(2, model.Buy, 100, 5)))

	require.Len(t, sim.Fills, 1)
	assert.Equal(t, model.Size(5), sim.Fills[0].Size)
}

func TestSimulator_RejectsOutOfOrderEvents(t *testing.T) {
	sim := New(flatStrategy{}, 8)

	require.NoError(t, sim.Step(depthEvent(5, model.Buy, 100, 10)))
	err := sim.Step(depthEvent(1, model.Buy, 100, 11))
	assert.ErrorIs(t, err, model.ErrProtocolError)
}

func TestSimulator_RunIsDeterministicAcrossRepeatedRuns(t *testing.T) {
	events := []Event{
		depthEvent(1, model.Buy, 100, 10),
		depthEvent(1, model.Sell, 102, 10),
		depthEvent(2, model.Buy, 100, 15),
		tradeEvent(3, model.Sell, 102, 4),
	}

	strat := &strategy.NaiveFixedSpread{SpreadTicks: 2, Size: 3}
	sim1 := New(strat, 8)
	require.NoError(t, sim1.Run(NewSliceSource(append([]Event{}, events...))))

	strat2 := &strategy.NaiveFixedSpread{SpreadTicks: 2, Size: 3}
	sim2 := New(strat2, 8)
	require.NoError(t, sim2.Run(NewSliceSource(append([]Event{}, events...))))

	require.Equal(t, sim1.Fills, sim2.Fills)
	assert.Equal(t, sim1.Inventory(), sim2.Inventory())
}

func TestSimulator_MakerQuoteFillUpdatesInventory(t *testing.T) {
	strat := &strategy.NaiveFixedSpread{SpreadTicks: 2, Size: 5}
	sim := New(strat, 8)

	require.NoError(t, sim.Step(depthEvent(1, model.Buy, 98, 10)))
	require.NoError(t, sim.Step(depthEvent(1, model.Sell, 102, 10)))

	// Incoming sell trade at our resting bid price should hit our maker quote.
	require.NoError(t, sim.Step(tradeEvent(2, model.Sell, 99, 5)))

	assert.NotZero(t, len(sim.Fills))
	assert.Equal(t, strategy.Inventory(5), sim.Inventory())
}
