package calculator

import (
	"errors"
	"fmt"

	"CoinLens/internal/model"
)

var (
	ErrBadPeriod = errors.New("period must be positive")
	ErrShort     = errors.New("not enough candles")
)

// Closes extracts close prices, oldest first.
func Closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

// SMA averages the trailing window of values.
func SMA(values []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, ErrBadPeriod
	}
	if len(values) < window {
		return 0, fmt.Errorf("sma(%d) over %d values: %w", window, len(values), ErrShort)
	}
	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window), nil
}

// RSI is the Wilder-smoothed relative strength index of values. It needs
// window+1 values; a flat series reports 50.
func RSI(values []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, ErrBadPeriod
	}
	if len(values) <= window {
		return 0, fmt.Errorf("rsi(%d) over %d values: %w", window, len(values), ErrShort)
	}

	w := float64(window)
	var up, down float64
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		gain, loss := max(d, 0), max(-d, 0)
		if i <= window {
			up += gain / w
			down += loss / w
			continue
		}
		up = (up*(w-1) + gain) / w
		down = (down*(w-1) + loss) / w
	}

	switch {
	case up == 0 && down == 0:
		return 50, nil
	case down == 0:
		return 100, nil
	}
	return 100 - 100/(1+up/down), nil
}
