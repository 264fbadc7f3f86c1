package recorder

import "CoinLens/internal/model"

// AnalysisEntry is one completed AI analysis and the quote it was based on.
type AnalysisEntry struct {
	Market      string
	DisplayName string
	Timeframe   model.Timeframe
	Price       float64
	ChangeRate  float64
	Candles     int
	Analysis    model.Analysis
}

// BriefingEntry is one generated news briefing.
type BriefingEntry struct {
	Market    string
	Headlines int
	Text      string
}

// Recorder journals generated narratives. It is write-only: nothing is
// read back into dashboard state.
type Recorder interface {
	RecordAnalysis(entry *AnalysisEntry) error
	RecordBriefing(entry *BriefingEntry) error
	Close() error
}
