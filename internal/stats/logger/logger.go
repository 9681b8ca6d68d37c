// Package logger reports analyzer metrics through zap. It is the
// collector used when no Prometheus endpoint is configured.
package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/stats"
)

var _ stats.Collector = (*Collector)(nil)

// Collector writes each observation as a debug entry and sums counters so
// a run can report them once with Flush.
type Collector struct {
	log *zap.Logger

	mu     sync.Mutex
	totals map[string]int64
}

// New returns a collector logging to log. A nil log discards entries but
// still keeps totals.
func New(log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{log: log, totals: map[string]int64{}}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.totals[name] += delta
	c.mu.Unlock()
	c.log.Debug("counter", zap.String("metric", name), zap.Int64("delta", delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.log.Debug("gauge", zap.String("metric", name), zap.Int64("value", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.log.Debug("histogram", zap.String("metric", name), zap.Float64("value", value))
}

// Total is the sum of every IncCounter delta for name so far.
func (c *Collector) Total(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[name]
}

// Flush logs all counter totals in one info entry, sorted by name.
func (c *Collector) Flush() {
	c.mu.Lock()
	fields := make([]zap.Field, 0, len(c.totals))
	for name, total := range c.totals {
		fields = append(fields, zap.Int64(name, total))
	}
	c.mu.Unlock()

	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	c.log.Info("metric totals", fields...)
}
