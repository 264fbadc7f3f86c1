// Package format renders prices, rates and volumes for the presentations.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// KRW formats a won amount with a currency sign, e.g. "₩95,123,000".
func KRW(v float64) string {
	return "₩" + Price(v)
}

// Price groups thousands and keeps decimals only for small prices:
// none from 100 up, two from 1 up, four below 1.
func Price(v float64) string {
	d := decimal.NewFromFloat(v)
	return grouped(d.StringFixed(pricePlaces(d.Abs())))
}

func pricePlaces(abs decimal.Decimal) int32 {
	switch {
	case abs.IsZero(), abs.GreaterThanOrEqual(decimal.NewFromInt(100)):
		return 0
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return 2
	default:
		return 4
	}
}

// Percent formats a signed rate (0.05 == 5%) as "+5.00%".
func Percent(rate float64) string {
	d := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).Round(2)
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s + "%"
	}
	return s + "%"
}

// Volume floors v and groups thousands, e.g. "1,234".
func Volume(v float64) string {
	return humanize.Comma(decimal.NewFromFloat(v).Floor().IntPart())
}

// Ago renders a publish time relative to now, e.g. "3 minutes ago".
func Ago(t time.Time) string {
	if t.IsZero() || t.Unix() == 0 {
		return ""
	}
	return humanize.Time(t)
}

func grouped(fixed string) string {
	intPart, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return fixed
	}
	out := humanize.Comma(n)
	if n == 0 && strings.HasPrefix(intPart, "-") {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}
