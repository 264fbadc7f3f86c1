package model

import "strings"

// Timeframe selects the bar granularity for candle queries.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
	Timeframe1M  Timeframe = "1M"
)

// Timeframes lists the selectable timeframes in display order.
var Timeframes = []Timeframe{Timeframe1m, Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d, Timeframe1w}

// Label returns the Korean label used by the presentations.
func (tf Timeframe) Label() string {
	switch tf {
	case Timeframe1m:
		return "1분"
	case Timeframe15m:
		return "15분"
	case Timeframe1h:
		return "1시간"
	case Timeframe4h:
		return "4시간"
	case Timeframe1d:
		return "1일"
	case Timeframe1w:
		return "1주"
	case Timeframe1M:
		return "1개월"
	default:
		return string(tf)
	}
}

// ParseTimeframe accepts the short codes above plus a few aliases.
// Month stays case-sensitive ("1M") so it does not collide with "1m".
func ParseTimeframe(s string) (Timeframe, bool) {
	s = strings.TrimSpace(s)
	if s == string(Timeframe1M) {
		return Timeframe1M, true
	}
	switch strings.ToLower(s) {
	case "1m", "1min", "minutes/1":
		return Timeframe1m, true
	case "15m", "15min", "minutes/15":
		return Timeframe15m, true
	case "1h", "60m", "minutes/60":
		return Timeframe1h, true
	case "4h", "240m", "minutes/240":
		return Timeframe4h, true
	case "1d", "d", "days":
		return Timeframe1d, true
	case "1w", "w", "weeks":
		return Timeframe1w, true
	case "months":
		return Timeframe1M, true
	}
	return "", false
}
