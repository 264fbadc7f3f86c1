package dashboard

import "CoinLens/internal/model"

// State is a point-in-time copy of everything the presentations render.
// Slices and pointers are shared with the orchestrator and must be treated
// as read-only; the orchestrator replaces them, it never mutates them.
type State struct {
	Markets   []model.Market
	Market    string
	Timeframe model.Timeframe

	Ticker   *model.Ticker
	Candles  []model.Candle
	News     []model.NewsArticle
	Briefing *string
	Analysis *model.Analysis

	LoadingMarkets  bool
	LoadingChart    bool
	LoadingNews     bool
	LoadingBriefing bool
	Analyzing       bool
}

// SelectedMarket returns the list entry for the current selection, if loaded.
func (s State) SelectedMarket() (model.Market, bool) {
	for _, m := range s.Markets {
		if m.Code == s.Market {
			return m, true
		}
	}
	return model.Market{}, false
}

// CanAnalyze reports whether an analysis request would be acted on.
func (s State) CanAnalyze() bool {
	return s.Ticker != nil && len(s.Candles) > 0
}
