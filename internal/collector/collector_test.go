package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CoinLens/internal/model"
)

var kst = time.FixedZone("KST", 9*3600)

func newTestCollector(t *testing.T, h http.HandlerFunc) (*Collector, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	f := NewCryptoCompareFetcher(srv.URL, "", "KRW", "", kst)
	return NewCollector(f, 50), srv
}

func TestGranularity_AllTimeframes(t *testing.T) {
	tests := []struct {
		tf        model.Timeframe
		endpoint  string
		aggregate int
	}{
		{model.Timeframe1m, "v2/histominute", 1},
		{model.Timeframe15m, "v2/histominute", 15},
		{model.Timeframe1h, "v2/histohour", 1},
		{model.Timeframe4h, "v2/histohour", 4},
		{model.Timeframe1d, "v2/histoday", 1},
		{model.Timeframe1w, "v2/histoday", 7},
		{model.Timeframe1M, "v2/histoday", 1},
		{model.Timeframe("bogus"), "v2/histoday", 1},
		{model.Timeframe(""), "v2/histoday", 1},
	}
	for _, tt := range tests {
		ep, agg := Granularity(tt.tf)
		if ep != tt.endpoint || agg != tt.aggregate {
			t.Errorf("%q: expected %s×%d, got %s×%d", tt.tf, tt.endpoint, tt.aggregate, ep, agg)
		}
	}
}

func TestListMarkets_NameFallbacks(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/top/totalvolfull" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("tsym") != "KRW" || r.URL.Query().Get("limit") != "50" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"Data":[
			{"CoinInfo":{"Name":"BTC","FullName":"Bitcoin"}},
			{"CoinInfo":{"Name":"FOO","FullName":"Foo Coin"}},
			{"CoinInfo":{"Name":"BAR","FullName":""}},
			{"CoinInfo":{"Name":"","FullName":"Nameless"}}
		]}`))
	})

	markets := c.ListMarkets(context.Background())
	if len(markets) != 3 {
		t.Fatalf("expected 3 markets, got %d", len(markets))
	}
	want := []model.Market{
		{Code: "KRW-BTC", DisplayName: "비트코인", Symbol: "BTC"},
		{Code: "KRW-FOO", DisplayName: "Foo Coin", Symbol: "FOO"},
		{Code: "KRW-BAR", DisplayName: "BAR", Symbol: "BAR"},
	}
	for i, m := range want {
		if markets[i] != m {
			t.Errorf("market %d: expected %+v, got %+v", i, m, markets[i])
		}
	}
}

func TestGetTicker_DirectionAndRate(t *testing.T) {
	tests := []struct {
		pct  string
		dir  model.Direction
		rate float64
	}{
		{"5", model.DirectionUp, 0.05},
		{"-2.5", model.DirectionDown, -0.025},
		{"0", model.DirectionUnchanged, 0},
	}
	for _, tt := range tests {
		c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"RAW":{"BTC":{"KRW":{"PRICE":100,"OPEN24HOUR":95,"HIGH24HOUR":110,"LOW24HOUR":90,
				"CHANGE24HOUR":5,"CHANGEPCT24HOUR":` + tt.pct + `,"VOLUME24HOUR":12.5,"VOLUME24HOURTO":1250,"LASTUPDATE":1700000000}}}}`))
		})
		tk := c.GetTicker(context.Background(), "KRW-BTC")
		if tk == nil {
			t.Fatalf("pct %s: expected ticker, got nil", tt.pct)
		}
		if tk.Change != tt.dir {
			t.Errorf("pct %s: expected %s, got %s", tt.pct, tt.dir, tk.Change)
		}
		if tk.ChangeRate != tt.rate {
			t.Errorf("pct %s: expected rate %v, got %v", tt.pct, tt.rate, tk.ChangeRate)
		}
		if tk.Price != 100 || tk.Value24h != 1250 || tk.Market != "KRW-BTC" {
			t.Errorf("unexpected ticker %+v", tk)
		}
		if !tk.Timestamp.Equal(time.Unix(1700000000, 0)) {
			t.Errorf("unexpected timestamp %v", tk.Timestamp)
		}
	}
}

func TestGetTicker_MissingSymbolReturnsNil(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RAW":{"ETH":{"KRW":{"PRICE":1}}}}`))
	})
	if tk := c.GetTicker(context.Background(), "KRW-BTC"); tk != nil {
		t.Errorf("expected nil ticker, got %+v", tk)
	}

	_, err := c.Fetcher.FetchTicker(context.Background(), "KRW-BTC")
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestFailuresReturnEmpty(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	ctx := context.Background()

	if m := c.ListMarkets(ctx); m == nil || len(m) != 0 {
		t.Errorf("expected empty markets, got %v", m)
	}
	if tk := c.GetTicker(ctx, "KRW-BTC"); tk != nil {
		t.Errorf("expected nil ticker, got %+v", tk)
	}
	if cs := c.GetCandles(ctx, "KRW-BTC", model.Timeframe1h, 10); cs == nil || len(cs) != 0 {
		t.Errorf("expected empty candles, got %v", cs)
	}
	if n := c.GetNews(ctx, "KRW-BTC"); n == nil || len(n) != 0 {
		t.Errorf("expected empty news, got %v", n)
	}
}

func TestFailuresReturnEmpty_ServerDown(t *testing.T) {
	c, srv := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()
	ctx := context.Background()

	if m := c.ListMarkets(ctx); len(m) != 0 {
		t.Errorf("expected empty markets, got %v", m)
	}
	if cs := c.GetCandles(ctx, "KRW-BTC", model.Timeframe1d, 10); len(cs) != 0 {
		t.Errorf("expected empty candles, got %v", cs)
	}
	if n := c.GetNews(ctx, "KRW-BTC"); len(n) != 0 {
		t.Errorf("expected empty news, got %v", n)
	}

	_, err := c.Fetcher.FetchNews(ctx, "KRW-BTC")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestFailuresReturnEmpty_APIErrorAndGarbage(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/news/" {
			w.Write([]byte(`not json`))
			return
		}
		w.Write([]byte(`{"Response":"Error","Message":"rate limit"}`))
	})
	ctx := context.Background()

	if m := c.ListMarkets(ctx); len(m) != 0 {
		t.Errorf("expected empty markets, got %v", m)
	}
	if tk := c.GetTicker(ctx, "KRW-NOPE"); tk != nil {
		t.Errorf("expected nil ticker, got %+v", tk)
	}
	_, err := c.Fetcher.FetchTicker(ctx, "KRW-NOPE")
	if !errors.Is(err, ErrEmpty) || errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrEmpty for an api error payload, got %v", err)
	}
	if ErrorKind(err) != "empty" {
		t.Errorf("expected empty kind, got %s", ErrorKind(err))
	}

	_, err = c.Fetcher.FetchNews(ctx, "KRW-BTC")
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
	if ErrorKind(err) != "parse" {
		t.Errorf("expected parse kind, got %s", ErrorKind(err))
	}
}

func TestGetCandles_MapsBars(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/histominute" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("aggregate") != "15" || q.Get("limit") != "2" || q.Get("fsym") != "ETH" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"Data":{"Data":[
			{"time":1699999000,"open":0,"high":0,"low":0,"close":0},
			{"time":1700000900,"open":2,"high":3,"low":1,"close":2.5,"volumefrom":7,"volumeto":17.5},
			{"time":1700000000,"open":1,"high":2,"low":0.5,"close":1.5,"volumefrom":3,"volumeto":4.5},
			{"time":1700001800,"open":2.5,"high":4,"low":2,"close":3,"volumefrom":1,"volumeto":3}
		]}}`))
	})

	candles := c.GetCandles(context.Background(), "KRW-ETH", model.Timeframe15m, 2)
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.Time.Unix() != 1700000900 || first.Close != 2.5 || first.Volume != 7 || first.Value != 17.5 {
		t.Errorf("unexpected first candle %+v", first)
	}
	if first.Unit != 15 || first.Market != "KRW-ETH" {
		t.Errorf("unexpected unit/market %+v", first)
	}
	if first.LocalTime != "2023-11-15T07:28:20" {
		t.Errorf("unexpected local time %s", first.LocalTime)
	}
	if first.Time.Location() != time.UTC {
		t.Errorf("expected UTC time, got %v", first.Time.Location())
	}
	if !candles[0].Time.Before(candles[1].Time) {
		t.Error("expected oldest-first ordering")
	}
}

func TestGetNews_MapsArticles(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("categories"); got != "SOL,General" {
			t.Errorf("unexpected categories %q", got)
		}
		w.Write([]byte(`{"Type":100,"Message":"News list successfully returned","Data":[
			{"id":"42","published_on":1700000000,"title":"A","url":"https://a","source":"coindesk","body":"x",
			 "source_info":{"name":"CoinDesk"}},
			{"id":43,"published_on":1700000100,"title":"B","url":"https://b","source":"decrypt"}
		]}`))
	})

	news := c.GetNews(context.Background(), "KRW-SOL")
	if len(news) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(news))
	}
	if news[0].ID != "42" || news[0].Source != "CoinDesk" || news[0].Title != "A" {
		t.Errorf("unexpected first article %+v", news[0])
	}
	if news[1].ID != "43" || news[1].Source != "decrypt" {
		t.Errorf("unexpected second article %+v", news[1])
	}
}

func TestMockFetcher_Failing(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100, Err: ErrTransport}, 5)
	if tk := c.GetTicker(context.Background(), "KRW-BTC"); tk != nil {
		t.Errorf("expected nil ticker, got %+v", tk)
	}
	if cs := c.GetCandles(context.Background(), "KRW-BTC", model.Timeframe1h, 0); len(cs) != 0 {
		t.Errorf("expected empty candles, got %d", len(cs))
	}
}

func TestMockFetcher_Defaults(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, 3)
	ctx := context.Background()
	if m := c.ListMarkets(ctx); len(m) != 3 || m[0].Code != "KRW-BTC" {
		t.Errorf("unexpected markets %+v", m)
	}
	if cs := c.GetCandles(ctx, "KRW-BTC", model.Timeframe4h, 0); len(cs) != DefaultCandleCount {
		t.Errorf("expected %d candles, got %d", DefaultCandleCount, len(cs))
	}
	if tk := c.GetTicker(ctx, "KRW-BTC"); tk == nil || tk.Change != model.DirectionUp {
		t.Errorf("unexpected ticker %+v", tk)
	}
}

func TestMockFetcher_UsesLocation(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	f := &MockFetcher{Price: 100, Location: kst}
	candles, err := f.FetchCandles(context.Background(), "KRW-BTC", model.Timeframe1h, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range candles {
		if want := c.Time.In(kst).Format(model.LocalTimeLayout); c.LocalTime != want {
			t.Errorf("expected local time %s, got %s", want, c.LocalTime)
		}
		if c.Time.Location() != time.UTC {
			t.Errorf("expected UTC time, got %v", c.Time.Location())
		}
	}
}
