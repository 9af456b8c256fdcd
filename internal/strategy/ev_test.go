package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobmm/internal/feature"
	"lobmm/internal/model"
)

func TestTablePoints_ProbabilityAt_Interpolates(t *testing.T) {
	table := TablePoints{
		{DistanceTicks: 0, Probability: 1.0},
		{DistanceTicks: 10, Probability: 0.0},
	}
	assert.InDelta(t, 0.5, table.ProbabilityAt(5), 1e-9)
	assert.Equal(t, 1.0, table.ProbabilityAt(-5))
	assert.Equal(t, 0.0, table.ProbabilityAt(50))
}

func TestEVMakerSkew_SkewsQuotesWithInventory(t *testing.T) {
	s := &EVMakerSkew{
		MaxHalfSpreadTicks: 20,
		SkewK:              1,
		TickSearchStep:     1,
		SizeFn:             func(Inventory) model.Size { return 1 },
		FillProb: TablePoints{
			{DistanceTicks: 1, Probability: 0.9},
			{DistanceTicks: 20, Probability: 0.1},
		},
	}
	f := feature.Features{Microprice: 1000, MicropriceOk: true}

	flat := s.OnStep(f, 0, nil, time.Time{})
	require.Len(t, flat.Place, 2)

	long := s.OnStep(f, 10, nil, time.Time{})
	require.Len(t, long.Place, 2)

	// Long inventory should push the ask closer (skew narrows the offer) and
	// the bid further (skew widens the bid) relative to the flat case.
	assert.Less(t, long.Place[1].Price-model.Price(f.Microprice), flat.Place[1].Price-model.Price(f.Microprice))
}

func TestEVMakerSkew_GuardRailStopsGrowingSide(t *testing.T) {
	s := &EVMakerSkew{
		MaxHalfSpreadTicks: 20,
		SkewK:              0,
		TickSearchStep:     1,
		SizeFn:             func(Inventory) model.Size { return 1 },
		FillProb:           TablePoints{{DistanceTicks: 1, Probability: 1}},
		MaxAbsInventory:    5,
	}
	f := feature.Features{Microprice: 1000, MicropriceOk: true}

	action := s.OnStep(f, 5, nil, time.Time{})
	require.Len(t, action.Place, 1)
	assert.Equal(t, model.Sell, action.Place[0].Side, "at the long guard rail, only the reducing (ask) side quotes")
}

func TestEVMakerSkew_NoQuotesWhenMicropriceUndefined(t *testing.T) {
	s := &EVMakerSkew{MaxHalfSpreadTicks: 20, SizeFn: func(Inventory) model.Size { return 1 }}
	open := []OpenQuote{{ID: "stale"}}

	action := s.OnStep(feature.Features{MicropriceOk: false}, 0, open, time.Time{})
	assert.Equal(t, []string{"stale"}, action.Cancel)
	assert.Empty(t, action.Place)
}
