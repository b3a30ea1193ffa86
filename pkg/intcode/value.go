package intcode

import (
	"cmp"
	"math"
	"math/big"
	"strconv"
)

// value is a machine word. Values that fit in int64 stay in small; big is
// set only for values outside that range and is never mutated once built.
type value struct {
	small int64
	big   *big.Int
}

func wideValue(b *big.Int) value {
	if b.IsInt64() {
		return value{small: b.Int64()}
	}
	return value{big: b}
}

func (v value) bigInt() *big.Int {
	if v.big != nil {
		return v.big
	}
	return big.NewInt(v.small)
}

func (v value) isZero() bool {
	return v.big == nil && v.small == 0
}

func (v value) String() string {
	if v.big != nil {
		return v.big.String()
	}
	return strconv.FormatInt(v.small, 10)
}

func addValues(a, b value) value {
	if a.big == nil && b.big == nil {
		if r, ok := addInt64(a.small, b.small); ok {
			return value{small: r}
		}
	}
	return wideValue(new(big.Int).Add(a.bigInt(), b.bigInt()))
}

func mulValues(a, b value) value {
	if a.big == nil && b.big == nil {
		if r, ok := mulInt64(a.small, b.small); ok {
			return value{small: r}
		}
	}
	return wideValue(new(big.Int).Mul(a.bigInt(), b.bigInt()))
}

func compareValues(a, b value) int {
	if a.big == nil && b.big == nil {
		return cmp.Compare(a.small, b.small)
	}
	return a.bigInt().Cmp(b.bigInt())
}

func addInt64(a, b int64) (int64, bool) {
	r := a + b
	if (a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r >= 0) {
		return 0, false
	}
	return r, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

func boolValue(b bool) value {
	if b {
		return value{small: 1}
	}
	return value{}
}
