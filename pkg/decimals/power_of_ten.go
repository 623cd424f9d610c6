package decimals

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

const (
	minPowerOfTen = -DefaultDivPrecision
	maxPowerOfTen = DefaultDivPrecision
)

// powerOfTen caches 10^n for every exponent the division precision
// allows, so hot conversion paths never call Pow.
var powerOfTen = func() map[int64]decimal.Decimal {
	table := make(map[int64]decimal.Decimal, maxPowerOfTen-minPowerOfTen+1)
	for n := int64(minPowerOfTen); n <= maxPowerOfTen; n++ {
		table[n] = decimal.New(1, int32(n))
	}
	return table
}()

// PowerOfTen returns 10^n, from cache when |n| <= DefaultDivPrecision.
func PowerOfTen[T constraints.Integer](n T) decimal.Decimal {
	if val, ok := powerOfTen[int64(n)]; ok {
		return val
	}
	return powerOfTen[1].Pow(decimal.NewFromInt(int64(n)))
}
