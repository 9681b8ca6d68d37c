package stats

// NewNoop returns a Collector that drops every observation. Components
// fall back to it when the caller configures no collector.
func NewNoop() Collector { return discard{} }

type discard struct{}

func (discard) IncCounter(string, int64)         {}
func (discard) SetGauge(string, int64)           {}
func (discard) ObserveHistogram(string, float64) {}
