package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"CoinLens/internal/model"
)

// DefaultBaseURL is the public CryptoCompare data API.
const DefaultBaseURL = "https://min-api.cryptocompare.com/data"

// CryptoCompareFetcher implements Fetcher using the CryptoCompare REST API.
type CryptoCompareFetcher struct {
	BaseURL  string
	APIKey   string
	Quote    string         // quote currency, e.g. "KRW"
	Location *time.Location // used for Candle.LocalTime
	Client   *http.Client
}

// NewCryptoCompareFetcher creates a fetcher with optional proxy support.
func NewCryptoCompareFetcher(baseURL, apiKey, quote, proxyURL string, loc *time.Location) *CryptoCompareFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if quote == "" {
		quote = "KRW"
	}
	if loc == nil {
		loc = time.Local
	}
	return &CryptoCompareFetcher{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		Quote:    quote,
		Location: loc,
		Client:   NewHTTPClient(proxyURL, 30*time.Second),
	}
}

// NewHTTPClient builds an http.Client that honours an optional proxy URL.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (f *CryptoCompareFetcher) Name() string { return "cryptocompare" }

// ccStatus is present on every CryptoCompare payload. "Error" arrives with
// HTTP 200 for unknown symbols, so it is classed as an empty result.
type ccStatus struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
}

func (s ccStatus) err() error {
	if s.Response == "Error" {
		return fmt.Errorf("%w: api error: %s", ErrEmpty, s.Message)
	}
	return nil
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type ccTopList struct {
	ccStatus
	Data []struct {
		CoinInfo struct {
			Name     string `json:"Name"`
			FullName string `json:"FullName"`
		} `json:"CoinInfo"`
	} `json:"Data"`
}

type ccRawQuote struct {
	Price         float64 `json:"PRICE"`
	Open24h       float64 `json:"OPEN24HOUR"`
	High24h       float64 `json:"HIGH24HOUR"`
	Low24h        float64 `json:"LOW24HOUR"`
	Change24h     float64 `json:"CHANGE24HOUR"`
	ChangePct24h  float64 `json:"CHANGEPCT24HOUR"`
	Volume24h     float64 `json:"VOLUME24HOUR"`
	Volume24hTo   float64 `json:"VOLUME24HOURTO"`
	LastUpdateSec int64   `json:"LASTUPDATE"`
}

type ccPriceMulti struct {
	ccStatus
	Raw map[string]map[string]*ccRawQuote `json:"RAW"`
}

type ccHisto struct {
	ccStatus
	Data struct {
		Data []struct {
			Time       int64   `json:"time"`
			Open       float64 `json:"open"`
			High       float64 `json:"high"`
			Low        float64 `json:"low"`
			Close      float64 `json:"close"`
			VolumeFrom float64 `json:"volumefrom"`
			VolumeTo   float64 `json:"volumeto"`
		} `json:"Data"`
	} `json:"Data"`
}

type ccNewsList struct {
	ccStatus
	Data []struct {
		ID          flexString `json:"id"`
		PublishedOn int64      `json:"published_on"`
		ImageURL    string     `json:"imageurl"`
		Title       string     `json:"title"`
		URL         string     `json:"url"`
		Source      string     `json:"source"`
		Body        string     `json:"body"`
		Tags        string     `json:"tags"`
		Categories  string     `json:"categories"`
		SourceInfo  *struct {
			Name string `json:"name"`
		} `json:"source_info"`
	} `json:"Data"`
}

// FetchMarkets returns the top-volume symbols quoted in f.Quote.
func (f *CryptoCompareFetcher) FetchMarkets(ctx context.Context, limit int) ([]model.Market, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("tsym", f.Quote)
	var resp ccTopList
	if err := f.getJSON(ctx, "top/totalvolfull", q, &resp); err != nil {
		return nil, err
	}
	markets := make([]model.Market, 0, len(resp.Data))
	for _, coin := range resp.Data {
		sym := coin.CoinInfo.Name
		if sym == "" {
			continue
		}
		markets = append(markets, model.Market{
			Code:        model.MarketCode(f.Quote, sym),
			DisplayName: DisplayName(sym, coin.CoinInfo.FullName),
			Symbol:      sym,
		})
	}
	return markets, nil
}

// FetchTicker returns the current quote, or ErrEmpty when the payload lacks the symbol.
func (f *CryptoCompareFetcher) FetchTicker(ctx context.Context, market string) (*model.Ticker, error) {
	sym := model.SymbolOf(market)
	q := url.Values{}
	q.Set("fsyms", sym)
	q.Set("tsyms", f.Quote)
	var resp ccPriceMulti
	if err := f.getJSON(ctx, "pricemultifull", q, &resp); err != nil {
		return nil, err
	}
	raw := resp.Raw[sym][f.Quote]
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, market)
	}
	ts := time.Now()
	if raw.LastUpdateSec > 0 {
		ts = time.Unix(raw.LastUpdateSec, 0)
	}
	rate := raw.ChangePct24h / 100
	return &model.Ticker{
		Market:      market,
		Price:       raw.Price,
		Open24h:     raw.Open24h,
		High24h:     raw.High24h,
		Low24h:      raw.Low24h,
		ChangePrice: raw.Change24h,
		ChangeRate:  rate,
		Change:      model.DirectionOf(rate),
		Volume24h:   raw.Volume24h,
		Value24h:    raw.Volume24hTo,
		Timestamp:   ts,
	}, nil
}

// FetchCandles returns up to count bars, oldest first.
func (f *CryptoCompareFetcher) FetchCandles(ctx context.Context, market string, tf model.Timeframe, count int) ([]model.Candle, error) {
	if count <= 0 {
		count = DefaultCandleCount
	}
	endpoint, aggregate := Granularity(tf)
	q := url.Values{}
	q.Set("fsym", model.SymbolOf(market))
	q.Set("tsym", f.Quote)
	q.Set("limit", strconv.Itoa(count))
	q.Set("aggregate", strconv.Itoa(aggregate))
	var resp ccHisto
	if err := f.getJSON(ctx, endpoint, q, &resp); err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(resp.Data.Data))
	for _, b := range resp.Data.Data {
		if b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 {
			continue // bars before listing
		}
		t := time.Unix(b.Time, 0)
		candles = append(candles, model.Candle{
			Market:    market,
			Time:      t.UTC(),
			LocalTime: t.In(f.Location).Format(model.LocalTimeLayout),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.VolumeFrom,
			Value:     b.VolumeTo,
			Unit:      aggregate,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

// FetchNews returns articles for the market's symbol plus the general category.
func (f *CryptoCompareFetcher) FetchNews(ctx context.Context, market string) ([]model.NewsArticle, error) {
	q := url.Values{}
	q.Set("lang", "EN")
	q.Set("categories", model.SymbolOf(market)+",General")
	var resp ccNewsList
	if err := f.getJSON(ctx, "v2/news/", q, &resp); err != nil {
		return nil, err
	}
	articles := make([]model.NewsArticle, 0, len(resp.Data))
	for _, n := range resp.Data {
		source := n.Source
		if n.SourceInfo != nil && n.SourceInfo.Name != "" {
			source = n.SourceInfo.Name
		}
		articles = append(articles, model.NewsArticle{
			ID:          string(n.ID),
			Title:       n.Title,
			Body:        n.Body,
			Source:      source,
			PublishedOn: n.PublishedOn,
			ImageURL:    n.ImageURL,
			URL:         n.URL,
			Tags:        n.Tags,
			Categories:  n.Categories,
		})
	}
	return articles, nil
}

// statusCarrier lets getJSON check the embedded ccStatus after decoding.
type statusCarrier interface {
	err() error
}

func (f *CryptoCompareFetcher) getJSON(ctx context.Context, path string, q url.Values, out statusCarrier) error {
	endpoint := fmt.Sprintf("%s/%s?%s", f.BaseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Apikey "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d, body: %s", ErrTransport, path, resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return out.err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
