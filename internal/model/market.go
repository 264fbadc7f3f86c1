package model

import (
	"strings"
	"time"
)

// Market is a tradable symbol paired against the quote currency.
type Market struct {
	Code        string // quote-prefixed code, e.g. "KRW-BTC"
	DisplayName string // localized name shown to the user
	Symbol      string // canonical base symbol, e.g. "BTC"
}

// Direction is the sign of the 24h change.
type Direction string

const (
	DirectionUp        Direction = "RISE"
	DirectionDown      Direction = "FALL"
	DirectionUnchanged Direction = "EVEN"
)

// DirectionOf derives the direction flag from a signed change rate.
func DirectionOf(rate float64) Direction {
	switch {
	case rate > 0:
		return DirectionUp
	case rate < 0:
		return DirectionDown
	default:
		return DirectionUnchanged
	}
}

// Ticker is a point-in-time quote for one market. It is replaced, never merged.
type Ticker struct {
	Market      string
	Price       float64
	Open24h     float64
	High24h     float64
	Low24h      float64
	ChangePrice float64 // signed
	ChangeRate  float64 // signed, 0.05 == +5%
	Change      Direction
	Volume24h   float64 // base units traded
	Value24h    float64 // quote currency traded
	Timestamp   time.Time
}

// Candle is one OHLCV bar.
type Candle struct {
	Market    string
	Time      time.Time // bar start, UTC
	LocalTime string    // bar start in the display location, "2006-01-02T15:04:05"
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64 // base units
	Value     float64 // quote currency
	Unit      int     // aggregation factor
}

// LocalTimeLayout is the format of Candle.LocalTime.
const LocalTimeLayout = "2006-01-02T15:04:05"

// MarketCode builds the quote-prefixed market code for a base symbol.
func MarketCode(quote, symbol string) string {
	return quote + "-" + symbol
}

// SymbolOf strips the quote prefix from a market code.
func SymbolOf(code string) string {
	if i := strings.IndexByte(code, '-'); i >= 0 {
		return code[i+1:]
	}
	return code
}
