package service

import (
	"github.com/apexmed/commission/internal/commission/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Split divides a gross commission (cents) between a sub-rep and its
// parent. The parent leg is rounded half-up to the cent; the sub-rep
// leg is the remainder and is never independently rounded, so the two
// legs always sum to the gross amount exactly.
func Split(grossCents int64, parentSharePercentage decimal.Decimal) domain.SplitResult {
	parent := decimal.NewFromInt(grossCents).
		Mul(parentSharePercentage).
		Div(hundred).
		Round(0).
		IntPart()

	return domain.SplitResult{
		SubRepShare: grossCents - parent,
		ParentShare: parent,
	}
}

// commissionAmount applies a percentage rate to a line total (cents),
// rounding half-up to the cent.
func commissionAmount(lineTotalCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(lineTotalCents).
		Mul(rate).
		Div(hundred).
		Round(0).
		IntPart()
}
