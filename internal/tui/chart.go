package tui

import (
	"strings"

	"CoinLens/internal/format"
	"CoinLens/internal/model"
)

const priceAxisWidth = 14

// renderChart draws the most recent candles that fit in width columns.
func renderChart(candles []model.Candle, width, height int) string {
	if len(candles) == 0 {
		return mutedStyle.Render("차트 데이터가 없습니다.")
	}
	if height < 4 {
		height = 4
	}
	cols := width - priceAxisWidth - 2
	if cols < 1 {
		cols = 1
	}
	if len(candles) > cols {
		candles = candles[len(candles)-cols:]
	}

	lo, hi := candles[0].Low, candles[0].High
	for _, c := range candles {
		if c.Low < lo {
			lo = c.Low
		}
		if c.High > hi {
			hi = c.High
		}
	}
	if hi == lo {
		pad := hi * 0.001
		if pad == 0 {
			pad = 1
		}
		hi, lo = hi+pad, lo-pad
	}

	var b strings.Builder
	for row := 0; row < height; row++ {
		// row 0 is the top of the band
		top := hi - (hi-lo)*float64(row)/float64(height)
		bottom := hi - (hi-lo)*float64(row+1)/float64(height)

		label := ""
		if row == 0 || row == height-1 || row == height/2 {
			label = format.Price((top + bottom) / 2)
		}
		b.WriteString(mutedStyle.Render(padLeft(label, priceAxisWidth) + " │"))

		for _, c := range candles {
			b.WriteString(candleCell(c, top, bottom))
		}
		b.WriteString("\n")
	}

	first, last := candles[0].LocalTime, candles[len(candles)-1].LocalTime
	axis := strings.Repeat(" ", priceAxisWidth+2) + shortTime(first)
	if gap := priceAxisWidth + 2 + len(candles) - len(shortTime(last)) - len(axis); gap > 0 {
		axis += strings.Repeat(" ", gap) + shortTime(last)
	}
	b.WriteString(mutedStyle.Render(axis))
	return b.String()
}

func candleCell(c model.Candle, top, bottom float64) string {
	bodyHi, bodyLo := c.Open, c.Close
	if c.Close > c.Open {
		bodyHi, bodyLo = c.Close, c.Open
	}
	style := riseStyle
	if c.Close < c.Open {
		style = fallStyle
	}
	switch {
	case bodyHi >= bottom && bodyLo <= top:
		return style.Render("┃")
	case c.High >= bottom && c.Low <= top:
		return style.Render("│")
	default:
		return " "
	}
}

func shortTime(s string) string {
	if len(s) >= 16 {
		return s[5:16]
	}
	return s
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(" ", n-len(s)) + s
}
