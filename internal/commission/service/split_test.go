package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SumIsAlwaysExact(t *testing.T) {
	grosses := []int64{1, 3, 99, 100, 5000, 12345, 999999, 1000001}

	for pct := 0; pct <= 1000; pct++ {
		share := decimal.NewFromInt(int64(pct)).Div(decimal.NewFromInt(10)) // 0.0 .. 100.0
		for _, gross := range grosses {
			result := Split(gross, share)
			require.Equal(t, gross, result.SubRepShare+result.ParentShare,
				"gross=%d share=%s", gross, share)
			assert.GreaterOrEqual(t, result.ParentShare, int64(0))
			assert.GreaterOrEqual(t, result.SubRepShare, int64(0))
		}
	}
}

func TestSplit_ThirtyPercentScenario(t *testing.T) {
	// $50.00 gross, 30% parent share -> $35.00 sub-rep, $15.00 parent.
	result := Split(5000, decimal.NewFromInt(30))
	assert.Equal(t, int64(3500), result.SubRepShare)
	assert.Equal(t, int64(1500), result.ParentShare)
}

func TestSplit_ParentLegRoundsHalfUp(t *testing.T) {
	// 33.3333% of $1.00 = 33.3333 cents -> parent 33, sub 67.
	result := Split(100, decimal.RequireFromString("33.3333"))
	assert.Equal(t, int64(33), result.ParentShare)
	assert.Equal(t, int64(67), result.SubRepShare)

	// 50% of 3 cents = 1.5 cents -> parent 2, sub 1.
	result = Split(3, decimal.NewFromInt(50))
	assert.Equal(t, int64(2), result.ParentShare)
	assert.Equal(t, int64(1), result.SubRepShare)
}

func TestSplit_BoundaryPercentages(t *testing.T) {
	result := Split(5000, decimal.Zero)
	assert.Equal(t, int64(5000), result.SubRepShare)
	assert.Equal(t, int64(0), result.ParentShare)

	result = Split(5000, decimal.NewFromInt(100))
	assert.Equal(t, int64(0), result.SubRepShare)
	assert.Equal(t, int64(5000), result.ParentShare)
}

func TestCommissionAmount(t *testing.T) {
	// $500.00 at 10% -> $50.00.
	assert.Equal(t, int64(5000), commissionAmount(50000, decimal.NewFromInt(10)))
	// 4dp rate: $123.45 at 7.1255% -> 879.64... cents -> 880.
	assert.Equal(t, int64(880), commissionAmount(12345, decimal.RequireFromString("7.1255")))
}
