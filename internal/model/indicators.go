package model

// Indicators summarizes a candle series for prompting and display.
type Indicators struct {
	SMA20     float64
	RSI14     float64
	RangeHigh float64
	RangeLow  float64
	Position  float64 // 0.0 ~ 1.0 within [RangeLow, RangeHigh]
}
