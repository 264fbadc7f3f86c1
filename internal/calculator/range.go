package calculator

import (
	"fmt"

	"CoinLens/internal/model"
)

// Range returns the highest high and lowest low over the trailing bars
// candles, or over the whole series when bars is not positive.
func Range(candles []model.Candle, bars int) (high, low float64, err error) {
	if len(candles) == 0 {
		return 0, 0, fmt.Errorf("range: %w", ErrShort)
	}
	if bars > 0 && len(candles) > bars {
		candles = candles[len(candles)-bars:]
	}
	high, low = candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		high = max(high, c.High)
		low = min(low, c.Low)
	}
	return high, low, nil
}

// Position places price within [low, high] as a fraction clamped to 0..1.
// A zero-width range reports the midpoint.
func Position(price, high, low float64) (float64, error) {
	switch {
	case high < low:
		return 0, fmt.Errorf("position: high %v below low %v", high, low)
	case high == low:
		return 0.5, nil
	}
	return min(max((price-low)/(high-low), 0), 1), nil
}
