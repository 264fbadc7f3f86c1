package dashboard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"CoinLens/internal/collector"
	"CoinLens/internal/model"
	"CoinLens/internal/recorder"
)

// MarketData is the fail-soft market data source. Implementations never
// return errors; failures surface as nil or empty values.
type MarketData interface {
	ListMarkets(ctx context.Context) []model.Market
	GetTicker(ctx context.Context, market string) *model.Ticker
	GetCandles(ctx context.Context, market string, tf model.Timeframe, count int) []model.Candle
	GetNews(ctx context.Context, market string) []model.NewsArticle
}

// Narrator produces AI narratives. Implementations never return errors.
type Narrator interface {
	Analyze(ctx context.Context, name string, ticker *model.Ticker, candles []model.Candle) model.Analysis
	Briefing(ctx context.Context, news []model.NewsArticle) string
}

// Options configures an Orchestrator.
type Options struct {
	DefaultMarket    string
	DefaultTimeframe model.Timeframe
	CandleCount      int
	NewsLimit        int
	RequestTimeout   time.Duration // zero disables the per-call bound
}

const (
	DefaultMarket    = "KRW-BTC"
	DefaultNewsLimit = 10
)

// Orchestrator owns the current selection and drives every fetch for it.
//
// Each selection change bumps a generation counter. Work started under an
// older generation still runs to completion but its result is dropped.
type Orchestrator struct {
	data MarketData
	narr Narrator
	rec  recorder.Recorder
	opts Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	gen     uint64
	closed  bool
	wg      sync.WaitGroup
	flight  singleflight.Group
	changed chan struct{}
}

// New creates an Orchestrator. Nothing is fetched until Start.
func New(ctx context.Context, data MarketData, narr Narrator, rec recorder.Recorder, opts Options) *Orchestrator {
	if opts.DefaultMarket == "" {
		opts.DefaultMarket = DefaultMarket
	}
	if opts.DefaultTimeframe == "" {
		opts.DefaultTimeframe = model.Timeframe1h
	}
	if opts.CandleCount <= 0 {
		opts.CandleCount = collector.DefaultCandleCount
	}
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = DefaultNewsLimit
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Orchestrator{
		data:   data,
		narr:   narr,
		rec:    rec,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		state: State{
			Market:         opts.DefaultMarket,
			Timeframe:      opts.DefaultTimeframe,
			LoadingMarkets: true,
		},
		changed: make(chan struct{}, 1),
	}
}

// Start loads the market list and the default selection.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	gen, market, tf := o.gen, o.state.Market, o.state.Timeframe
	o.state.LoadingChart = true
	o.state.LoadingNews = true
	o.spawnLocked(o.loadMarkets)
	o.spawnLocked(func() { o.load(gen, market, tf) })
	o.mu.Unlock()

	log.Info().Str("market", market).Str("timeframe", string(tf)).Msg("dashboard started")
	o.notify()
}

// SelectMarket switches the selected market. Re-selecting the current market is a no-op.
func (o *Orchestrator) SelectMarket(code string) {
	o.mu.Lock()
	if code == "" || code == o.state.Market {
		o.mu.Unlock()
		return
	}
	o.state.Market = code
	o.selectionChangedLocked()
	o.mu.Unlock()

	log.Info().Str("market", code).Msg("market selected")
	o.notify()
}

// SelectTimeframe switches the candle granularity. Re-selecting is a no-op.
func (o *Orchestrator) SelectTimeframe(tf model.Timeframe) {
	o.mu.Lock()
	if tf == "" || tf == o.state.Timeframe {
		o.mu.Unlock()
		return
	}
	o.state.Timeframe = tf
	o.state.Candles = nil
	o.selectionChangedLocked()
	o.mu.Unlock()

	log.Info().Str("timeframe", string(tf)).Msg("timeframe selected")
	o.notify()
}

// selectionChangedLocked evicts derived state and refetches for the new selection.
func (o *Orchestrator) selectionChangedLocked() {
	o.gen++
	o.state.Analysis = nil
	o.state.Briefing = nil
	o.state.Analyzing = false
	o.state.LoadingBriefing = false
	o.state.LoadingChart = true
	o.state.LoadingNews = true

	gen, market, tf := o.gen, o.state.Market, o.state.Timeframe
	o.spawnLocked(func() { o.load(gen, market, tf) })
}

// RefreshTicker refetches the ticker for whatever market is selected now.
// A failed fetch keeps the previous ticker.
func (o *Orchestrator) RefreshTicker() {
	o.mu.Lock()
	market := o.state.Market
	o.mu.Unlock()

	ctx, cancel := o.requestContext()
	defer cancel()
	t := o.data.GetTicker(ctx, market)
	if t == nil {
		return
	}

	o.mu.Lock()
	if o.closed || o.state.Market != market {
		o.mu.Unlock()
		log.Debug().Str("market", market).Msg("discarding ticker for deselected market")
		return
	}
	o.state.Ticker = t
	o.mu.Unlock()
	o.notify()
}

type analysisResult struct {
	analysis model.Analysis
	applied  bool
}

// Analyze requests an AI analysis for the current selection and waits for it.
// It returns false when there is no ticker or candle data to analyze, when
// ctx ends first, or when the selection changed before the result arrived.
// Concurrent requests for the same selection share a single provider call.
func (o *Orchestrator) Analyze(ctx context.Context) (model.Analysis, bool) {
	o.mu.Lock()
	if o.closed || !o.state.CanAnalyze() {
		o.mu.Unlock()
		return model.Analysis{}, false
	}
	gen := o.gen
	ticker := o.state.Ticker
	candles := o.state.Candles
	tf := o.state.Timeframe
	name := o.displayNameLocked()
	o.state.Analyzing = true

	done := make(chan analysisResult, 1)
	o.spawnLocked(func() {
		v, _, _ := o.flight.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
			return o.runAnalysis(gen, name, tf, ticker, candles), nil
		})
		done <- v.(analysisResult)
	})
	o.mu.Unlock()
	o.notify()

	select {
	case res := <-done:
		return res.analysis, res.applied
	case <-ctx.Done():
		return model.Analysis{}, false
	}
}

func (o *Orchestrator) runAnalysis(gen uint64, name string, tf model.Timeframe, ticker *model.Ticker, candles []model.Candle) analysisResult {
	ctx, cancel := o.requestContext()
	defer cancel()

	start := time.Now()
	a := o.narr.Analyze(ctx, name, ticker, candles)

	o.mu.Lock()
	applied := gen == o.gen
	if applied {
		o.state.Analysis = &a
		o.state.Analyzing = false
	}
	o.mu.Unlock()

	if !applied {
		log.Debug().Str("market", ticker.Market).Msg("discarding analysis for stale selection")
		return analysisResult{analysis: a}
	}
	log.Info().
		Str("market", ticker.Market).
		Str("sentiment", string(a.Sentiment)).
		Int("sources", len(a.Sources)).
		Dur("took", time.Since(start)).
		Msg("analysis ready")
	o.notify()

	if err := o.rec.RecordAnalysis(&recorder.AnalysisEntry{
		Market:      ticker.Market,
		DisplayName: name,
		Timeframe:   tf,
		Price:       ticker.Price,
		ChangeRate:  ticker.ChangeRate,
		Candles:     len(candles),
		Analysis:    a,
	}); err != nil {
		log.Error().Err(err).Msg("record analysis")
	}
	return analysisResult{analysis: a, applied: true}
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Changed signals that the state may have changed since the last receive.
// Signals coalesce; read Snapshot after each one.
func (o *Orchestrator) Changed() <-chan struct{} {
	return o.changed
}

// Close cancels in-flight work and waits for it to return.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) loadMarkets() {
	ctx, cancel := o.requestContext()
	defer cancel()
	markets := o.data.ListMarkets(ctx)

	o.mu.Lock()
	o.state.Markets = markets
	o.state.LoadingMarkets = false
	o.mu.Unlock()

	log.Info().Int("count", len(markets)).Msg("market list loaded")
	o.notify()
}

// load fetches ticker, candles and news in parallel for one selection.
func (o *Orchestrator) load(gen uint64, market string, tf model.Timeframe) {
	ctx, cancel := o.requestContext()
	defer cancel()

	var (
		ticker  *model.Ticker
		candles []model.Candle
		news    []model.NewsArticle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker = o.data.GetTicker(gctx, market)
		return nil
	})
	g.Go(func() error {
		candles = o.data.GetCandles(gctx, market, tf, o.opts.CandleCount)
		return nil
	})
	g.Go(func() error {
		news = o.data.GetNews(gctx, market)
		return nil
	})
	_ = g.Wait()

	if len(news) > o.opts.NewsLimit {
		news = news[:o.opts.NewsLimit]
	}

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		log.Debug().Str("market", market).Str("timeframe", string(tf)).Msg("discarding fetch for stale selection")
		return
	}
	o.state.Ticker = ticker
	o.state.Candles = candles
	o.state.News = news
	o.state.LoadingChart = false
	o.state.LoadingNews = false
	if len(news) > 0 {
		o.state.LoadingBriefing = o.spawnLocked(func() { o.brief(gen, market, news) })
	}
	o.mu.Unlock()

	log.Debug().
		Str("market", market).
		Str("timeframe", string(tf)).
		Bool("ticker", ticker != nil).
		Int("candles", len(candles)).
		Int("news", len(news)).
		Msg("selection loaded")
	o.notify()
}

func (o *Orchestrator) brief(gen uint64, market string, news []model.NewsArticle) {
	ctx, cancel := o.requestContext()
	defer cancel()
	text := o.narr.Briefing(ctx, news)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		log.Debug().Str("market", market).Msg("discarding briefing for stale selection")
		return
	}
	o.state.Briefing = &text
	o.state.LoadingBriefing = false
	o.mu.Unlock()
	o.notify()

	if err := o.rec.RecordBriefing(&recorder.BriefingEntry{Market: market, Headlines: len(news), Text: text}); err != nil {
		log.Error().Err(err).Msg("record briefing")
	}
}

// spawnLocked runs fn on a tracked goroutine unless the orchestrator is closed.
// The caller holds o.mu.
func (o *Orchestrator) spawnLocked(fn func()) bool {
	if o.closed {
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
	return true
}

func (o *Orchestrator) requestContext() (context.Context, context.CancelFunc) {
	if o.opts.RequestTimeout > 0 {
		return context.WithTimeout(o.ctx, o.opts.RequestTimeout)
	}
	return context.WithCancel(o.ctx)
}

func (o *Orchestrator) displayNameLocked() string {
	if m, ok := o.state.SelectedMarket(); ok && m.DisplayName != "" {
		return m.DisplayName
	}
	return collector.DisplayName(model.SymbolOf(o.state.Market), "")
}

func (o *Orchestrator) notify() {
	select {
	case o.changed <- struct{}{}:
	default:
	}
}
