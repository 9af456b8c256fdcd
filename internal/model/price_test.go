package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice_RoundTripsThroughDecimal(t *testing.T) {
	p, err := ParsePrice(decimal.NewFromFloat(123.45))
	require.NoError(t, err)
	assert.True(t, p.Decimal().Equal(decimal.NewFromFloat(123.45)))
}

func TestParsePrice_RejectsNonPositive(t *testing.T) {
	_, err := ParsePrice(decimal.Zero)
	assert.Error(t, err)

	_, err = ParsePrice(decimal.NewFromFloat(-1))
	assert.Error(t, err)
}

func TestParseSize_RejectsNegative(t *testing.T) {
	_, err := ParseSize(decimal.NewFromFloat(-0.5))
	assert.Error(t, err)
}

func TestParseSize_AllowsZero(t *testing.T) {
	s, err := ParseSize(decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, Size(0), s)
}
