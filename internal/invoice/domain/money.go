package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a money value from form input. Anything non-numeric becomes zero.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var (
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
	minQuantity = decimal.NewFromInt(math.MinInt64)
)

// ParseQuantity reads an item quantity. Fractions are truncated. Non-numeric input and
// values outside the int64 range become zero.
func ParseQuantity(raw string) int64 {
	q := ParseAmount(raw).Truncate(0)
	if q.GreaterThan(maxQuantity) || q.LessThan(minQuantity) {
		return 0
	}
	return q.IntPart()
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders d as US dollars with thousands separators, e.g. $1,234.50.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := RoundMoney(d).StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
