package collector

import (
	"context"

	"CoinLens/internal/model"
)

// DefaultCandleCount is the number of bars requested when the caller passes none.
const DefaultCandleCount = 200

// Fetcher defines the interface for fetching market data.
// Implementations return errors wrapping ErrTransport, ErrParse or ErrEmpty.
type Fetcher interface {
	FetchMarkets(ctx context.Context, limit int) ([]model.Market, error)
	FetchTicker(ctx context.Context, market string) (*model.Ticker, error)
	FetchCandles(ctx context.Context, market string, tf model.Timeframe, count int) ([]model.Candle, error)
	FetchNews(ctx context.Context, market string) ([]model.NewsArticle, error)
	Name() string
}

// Granularity maps a timeframe to the upstream history endpoint and aggregation factor.
// Unknown timeframes fall back to daily bars.
func Granularity(tf model.Timeframe) (endpoint string, aggregate int) {
	switch tf {
	case model.Timeframe1m:
		return "v2/histominute", 1
	case model.Timeframe15m:
		return "v2/histominute", 15
	case model.Timeframe1h:
		return "v2/histohour", 1
	case model.Timeframe4h:
		return "v2/histohour", 4
	case model.Timeframe1d:
		return "v2/histoday", 1
	case model.Timeframe1w:
		return "v2/histoday", 7
	default:
		return "v2/histoday", 1
	}
}
