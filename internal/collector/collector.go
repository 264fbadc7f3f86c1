package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"CoinLens/internal/model"
)

// MockFetcher returns controllable fixed data for offline runs and testing.
type MockFetcher struct {
	Quote   string
	Price   float64
	Markets []model.Market
	News    []model.NewsArticle
	Err     error // when set, every call fails with it

	Location *time.Location // used for Candle.LocalTime; nil means local
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) quote() string {
	if m.Quote == "" {
		return "KRW"
	}
	return m.Quote
}

func (m *MockFetcher) FetchMarkets(_ context.Context, limit int) ([]model.Market, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Markets != nil {
		return m.Markets, nil
	}
	syms := []string{"BTC", "ETH", "XRP", "SOL", "DOGE"}
	if limit > 0 && limit < len(syms) {
		syms = syms[:limit]
	}
	out := make([]model.Market, len(syms))
	for i, s := range syms {
		out[i] = model.Market{Code: model.MarketCode(m.quote(), s), DisplayName: DisplayName(s, ""), Symbol: s}
	}
	return out, nil
}

func (m *MockFetcher) FetchTicker(_ context.Context, market string) (*model.Ticker, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	open := m.Price * 0.98
	rate := (m.Price - open) / open
	return &model.Ticker{
		Market:      market,
		Price:       m.Price,
		Open24h:     open,
		High24h:     m.Price * 1.01,
		Low24h:      open * 0.99,
		ChangePrice: m.Price - open,
		ChangeRate:  rate,
		Change:      model.DirectionOf(rate),
		Volume24h:   1234.5,
		Value24h:    1234.5 * m.Price,
		Timestamp:   time.Now(),
	}, nil
}

func (m *MockFetcher) FetchCandles(_ context.Context, market string, tf model.Timeframe, count int) ([]model.Candle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if count <= 0 {
		count = DefaultCandleCount
	}
	loc := m.Location
	if loc == nil {
		loc = time.Local
	}
	return generateMockCandles(market, tf, m.Price, count, loc), nil
}

func (m *MockFetcher) FetchNews(_ context.Context, market string) ([]model.NewsArticle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.News != nil {
		return m.News, nil
	}
	sym := model.SymbolOf(market)
	now := time.Now().Unix()
	return []model.NewsArticle{
		{ID: "mock-1", Title: sym + " holds key support as volumes climb", Source: "MockWire", PublishedOn: now - 600},
		{ID: "mock-2", Title: "Crypto markets mixed ahead of macro data", Source: "MockWire", PublishedOn: now - 3600},
	}, nil
}

func generateMockCandles(market string, tf model.Timeframe, basePrice float64, count int, loc *time.Location) []model.Candle {
	_, unit := Granularity(tf)
	step := time.Hour
	switch tf {
	case model.Timeframe1m, model.Timeframe15m:
		step = time.Minute
	case model.Timeframe1d, model.Timeframe1w, model.Timeframe1M:
		step = 24 * time.Hour
	}
	step *= time.Duration(unit)

	candles := make([]model.Candle, count)
	start := time.Now().Truncate(step).Add(-step * time.Duration(count))
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		t := start.Add(step * time.Duration(i))
		candles[i] = model.Candle{
			Market:    market,
			Time:      t.UTC(),
			LocalTime: t.In(loc).Format(model.LocalTimeLayout),
			Open:      p * 0.999,
			High:      p * 1.005,
			Low:       p * 0.995,
			Close:     p,
			Volume:    100,
			Value:     100 * p,
			Unit:      unit,
		}
	}
	return candles
}

// Collector exposes fail-soft market data operations over a Fetcher.
// No method returns an error: failures are logged and replaced by an empty value.
type Collector struct {
	Fetcher     Fetcher
	MarketLimit int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, marketLimit int) *Collector {
	if marketLimit <= 0 {
		marketLimit = 50
	}
	return &Collector{Fetcher: fetcher, MarketLimit: marketLimit}
}

// ListMarkets returns the top-N markets, or an empty slice on failure.
func (c *Collector) ListMarkets(ctx context.Context) []model.Market {
	markets, err := c.Fetcher.FetchMarkets(ctx, c.MarketLimit)
	if err != nil {
		c.warn(err, "markets", "")
		return []model.Market{}
	}
	return markets
}

// GetTicker returns the current quote, or nil on failure or missing data.
func (c *Collector) GetTicker(ctx context.Context, market string) *model.Ticker {
	t, err := c.Fetcher.FetchTicker(ctx, market)
	if err != nil {
		c.warn(err, "ticker", market)
		return nil
	}
	return t
}

// GetCandles returns the candle series, or an empty slice on failure.
func (c *Collector) GetCandles(ctx context.Context, market string, tf model.Timeframe, count int) []model.Candle {
	if count <= 0 {
		count = DefaultCandleCount
	}
	candles, err := c.Fetcher.FetchCandles(ctx, market, tf, count)
	if err != nil {
		c.warn(err, fmt.Sprintf("candles/%s", tf), market)
		return []model.Candle{}
	}
	return candles
}

// GetNews returns the news feed in upstream order, or an empty slice on failure.
func (c *Collector) GetNews(ctx context.Context, market string) []model.NewsArticle {
	news, err := c.Fetcher.FetchNews(ctx, market)
	if err != nil {
		c.warn(err, "news", market)
		return []model.NewsArticle{}
	}
	return news
}

func (c *Collector) warn(err error, op, market string) {
	log.Warn().
		Err(err).
		Str("error_kind", ErrorKind(err)).
		Str("source", c.Fetcher.Name()).
		Str("op", op).
		Str("market", market).
		Msg("market data fetch failed")
}
