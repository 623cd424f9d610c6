// Package decimals converts between integer base-unit amounts and
// exact human-readable decimals.
package decimals

import (
	"math"
	"math/big"
	"reflect"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
	"github.com/gaze-network/uint128"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// DefaultDivPrecision is the package-wide division precision, enough
// for any protocol amount at base-unit resolution.
const DefaultDivPrecision = 36

func init() {
	decimal.DivisionPrecision = DefaultDivPrecision
}

// MustFromString parses a decimal literal, panicking on malformed input.
func MustFromString(s string) decimal.Decimal {
	return utils.Must(decimal.NewFromString(s))
}

// ToDecimal renders an integer amount as the exact decimal
// value*10^-decimals. Accepted values: Go integers, integer strings,
// *big.Int, []byte (big-endian magnitude) and uint128.Uint128.
func ToDecimal[T constraints.Integer](ivalue any, decimals T) decimal.Decimal {
	if int64(decimals) > math.MaxInt32 || int64(decimals) <= math.MinInt32 {
		logger.Panic("ToDecimal: decimals out of int32 range", slogx.Any("decimals", decimals))
	}
	return decimal.NewFromBigInt(bigIntOf(ivalue), -int32(decimals))
}

func bigIntOf(v any) *big.Int {
	out := new(big.Int)
	switch v := v.(type) {
	case string:
		out.SetString(v, 10)
	case *big.Int:
		return v
	case uint128.Uint128:
		return v.Big()
	case int64:
		out.SetInt64(v)
	case uint64:
		out.SetUint64(v)
	case int, int8, int16, int32:
		out.SetInt64(reflect.ValueOf(v).Int())
	case uint, uint8, uint16, uint32:
		out.SetUint64(reflect.ValueOf(v).Uint())
	case []byte:
		out.SetBytes(v)
	}
	return out
}

// ToBigInt scales a possibly fractional amount by 10^decimals and
// truncates the result to an integer.
func ToBigInt(iamount any, decimals uint16) *big.Int {
	var amount decimal.Decimal
	switch v := iamount.(type) {
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		amount = *v
	case string:
		amount, _ = decimal.NewFromString(v)
	case float64:
		amount = decimal.NewFromFloat(v)
	case float32:
		amount = decimal.NewFromFloat32(v)
	case int64:
		amount = decimal.NewFromInt(v)
	case int, int8, int16, int32:
		amount = decimal.NewFromInt(reflect.ValueOf(v).Int())
	case big.Float:
		amount, _ = decimal.NewFromString(v.String())
	case *big.Float:
		amount, _ = decimal.NewFromString(v.String())
	}
	return amount.Mul(PowerOfTen(decimals)).BigInt()
}

// ToUint128 scales an amount by 10^decimals into a uint128, panicking
// on negative values and overflow.
func ToUint128(iamount any, decimals uint16) uint128.Uint128 {
	value := ToBigInt(iamount, decimals)
	if value.Sign() < 0 {
		logger.Panic("ToUint128: negative value", slogx.Any("amount", iamount), slogx.Uint64("decimals", uint64(decimals)))
	}
	result, err := uint128.FromBig(value)
	if err != nil {
		logger.Panic("ToUint128: overflow", slogx.Any("amount", iamount), slogx.Uint64("decimals", uint64(decimals)))
	}
	return result
}
