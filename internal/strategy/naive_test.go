package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobmm/internal/feature"
	"lobmm/internal/model"
)

func TestNaiveFixedSpread_QuotesAroundMicroprice(t *testing.T) {
	s := &NaiveFixedSpread{SpreadTicks: 10, Size: 5}
	f := feature.Features{Microprice: 1000, MicropriceOk: true}

	action := s.OnStep(f, 0, nil, time.Time{})
	require.Len(t, action.Place, 2)
	assert.Equal(t, model.Price(995), action.Place[0].Price)
	assert.Equal(t, model.Price(1005), action.Place[1].Price)
	assert.Empty(t, action.Cancel)
}

func TestNaiveFixedSpread_CancelsPriorQuotesEachStep(t *testing.T) {
	s := &NaiveFixedSpread{SpreadTicks: 10, Size: 5}
	f := feature.Features{Microprice: 1000, MicropriceOk: true}
	open := []OpenQuote{{ID: "old-bid"}, {ID: "old-ask"}}

	action := s.OnStep(f, 0, open, time.Time{})
	assert.ElementsMatch(t, []string{"old-bid", "old-ask"}, action.Cancel)
}

func TestNaiveFixedSpread_OnlyCancelsWhenMicropriceUndefined(t *testing.T) {
	s := &NaiveFixedSpread{SpreadTicks: 10, Size: 5}
	open := []OpenQuote{{ID: "stale"}}

	action := s.OnStep(feature.Features{MicropriceOk: false}, 0, open, time.Time{})
	assert.Equal(t, []string{"stale"}, action.Cancel)
	assert.Empty(t, action.Place)
}
