package calculator

import (
	"github.com/rs/zerolog/log"

	"CoinLens/internal/model"
)

// Summarize computes the indicator block for a candle series. Individual
// failures fall back to neutral values rather than failing the whole set.
func Summarize(candles []model.Candle) model.Indicators {
	var ind model.Indicators
	if len(candles) == 0 {
		ind.RSI14 = 50
		ind.Position = 0.5
		return ind
	}
	closes := Closes(candles)
	last := closes[len(closes)-1]

	if sma, err := SMA(closes, 20); err != nil {
		log.Debug().Err(err).Msg("SMA20 unavailable, using last close")
		ind.SMA20 = last
	} else {
		ind.SMA20 = sma
	}

	if rsi, err := RSI(closes, 14); err != nil {
		log.Debug().Err(err).Msg("RSI14 unavailable, using neutral")
		ind.RSI14 = 50
	} else {
		ind.RSI14 = rsi
	}

	if h, l, err := Range(candles, 0); err != nil {
		ind.RangeHigh, ind.RangeLow = last, last
	} else {
		ind.RangeHigh, ind.RangeLow = h, l
	}

	if pos, err := Position(last, ind.RangeHigh, ind.RangeLow); err != nil {
		ind.Position = 0.5
	} else {
		ind.Position = pos
	}
	return ind
}
