package recorder

// NoopRecorder is used when no journal database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ *AnalysisEntry) error { return nil }
func (n *NoopRecorder) RecordBriefing(_ *BriefingEntry) error { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
