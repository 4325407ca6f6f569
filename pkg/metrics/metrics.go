package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't
// match the labels the metric was declared with.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// Type is the Prometheus metric type.
type Type string

const (
	TypeCounter   Type = "counter"
	TypeGauge     Type = "gauge"
	TypeHistogram Type = "histogram"
)

// Metric is implemented by every metric kind.
type Metric interface {
	Name() string
	Help() string
	Type() Type
	Collect() []Sample
}

// Sample is one exposed value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// atomicFloat stores a float64 as bits for lock-free updates.
type atomicFloat struct{ bits atomic.Uint64 }

func (a *atomicFloat) Load() float64 { return math.Float64frombits(a.bits.Load()) }

func (a *atomicFloat) Store(v float64) { a.bits.Store(math.Float64bits(v)) }

func (a *atomicFloat) Add(delta float64) {
	for {
		old := a.bits.Load()
		if a.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+delta)) {
			return
		}
	}
}

// family holds the labelled series of one metric.
type family[S any] struct {
	name       string
	help       string
	labelNames []string
	newSeries  func(labels map[string]string) *S

	mu     sync.RWMutex
	series map[string]*S
	order  []string
}

func (f *family[S]) lookup(values []string) (*S, error) {
	if len(values) != len(f.labelNames) {
		return nil, fmt.Errorf("%w: %s expects %d labels, got %d", ErrLabelCountMismatch, f.name, len(f.labelNames), len(values))
	}
	key := strings.Join(values, "\x00")

	f.mu.RLock()
	s, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok = f.series[key]; ok {
		return s, nil
	}
	labels := make(map[string]string, len(values))
	for i, name := range f.labelNames {
		labels[name] = values[i]
	}
	s = f.newSeries(labels)
	f.series[key] = s
	f.order = append(f.order, key)
	return s, nil
}

// each visits the series in creation order.
func (f *family[S]) each(fn func(*S)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, key := range f.order {
		fn(f.series[key])
	}
}

func (f *family[S]) init(name, help string, labelNames []string, newSeries func(map[string]string) *S) {
	f.name = name
	f.help = help
	f.labelNames = labelNames
	f.newSeries = newSeries
	f.series = make(map[string]*S)
}

// Counter is a monotonically increasing metric.
type Counter struct {
	family[CounterSeries]
}

// CounterSeries is a Counter bound to one label combination.
type CounterSeries struct {
	labels map[string]string
	value  atomicFloat
}

// Inc adds one.
func (s *CounterSeries) Inc() { s.value.Add(1) }

// Add adds delta; negative deltas are ignored.
func (s *CounterSeries) Add(delta float64) {
	if delta > 0 {
		s.value.Add(delta)
	}
}

// Value returns the current count.
func (s *CounterSeries) Value() float64 { return s.value.Load() }

func (c *Counter) Name() string { return c.name }
func (c *Counter) Help() string { return c.help }
func (c *Counter) Type() Type   { return TypeCounter }

// WithLabels returns the series for the given label values.
func (c *Counter) WithLabels(values ...string) (*CounterSeries, error) {
	return c.lookup(values)
}

// With is WithLabels for call sites whose label count is fixed at compile
// time. It panics on a label count mismatch.
func (c *Counter) With(values ...string) *CounterSeries {
	s, err := c.lookup(values)
	if err != nil {
		panic(err)
	}
	return s
}

// Collect implements Metric.
func (c *Counter) Collect() []Sample {
	var out []Sample
	c.each(func(s *CounterSeries) {
		out = append(out, Sample{Name: c.name, Labels: s.labels, Value: s.value.Load()})
	})
	return out
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	family[GaugeSeries]
}

// GaugeSeries is a Gauge bound to one label combination.
type GaugeSeries struct {
	labels map[string]string
	value  atomicFloat
}

func (s *GaugeSeries) Set(v float64)     { s.value.Store(v) }
func (s *GaugeSeries) Add(delta float64) { s.value.Add(delta) }
func (s *GaugeSeries) Value() float64    { return s.value.Load() }

func (g *Gauge) Name() string { return g.name }
func (g *Gauge) Help() string { return g.help }
func (g *Gauge) Type() Type   { return TypeGauge }

// WithLabels returns the series for the given label values.
func (g *Gauge) WithLabels(values ...string) (*GaugeSeries, error) {
	return g.lookup(values)
}

// With panics on a label count mismatch; see Counter.With.
func (g *Gauge) With(values ...string) *GaugeSeries {
	s, err := g.lookup(values)
	if err != nil {
		panic(err)
	}
	return s
}

// Collect implements Metric.
func (g *Gauge) Collect() []Sample {
	var out []Sample
	g.each(func(s *GaugeSeries) {
		out = append(out, Sample{Name: g.name, Labels: s.labels, Value: s.value.Load()})
	})
	return out
}

// Histogram tracks the distribution of observed values in cumulative
// buckets.
type Histogram struct {
	family[HistogramSeries]
	buckets []float64
}

// HistogramSeries is a Histogram bound to one label combination.
type HistogramSeries struct {
	labels  map[string]string
	buckets []float64
	counts  []atomic.Uint64
	sum     atomicFloat
	count   atomic.Uint64
}

// Observe records v.
func (s *HistogramSeries) Observe(v float64) {
	for i, bound := range s.buckets {
		if v <= bound {
			s.counts[i].Add(1)
			break
		}
	}
	s.sum.Add(v)
	s.count.Add(1)
}

// Count returns the number of observations.
func (s *HistogramSeries) Count() uint64 { return s.count.Load() }

func (h *Histogram) Name() string { return h.name }
func (h *Histogram) Help() string { return h.help }
func (h *Histogram) Type() Type   { return TypeHistogram }

// WithLabels returns the series for the given label values.
func (h *Histogram) WithLabels(values ...string) (*HistogramSeries, error) {
	return h.lookup(values)
}

// With panics on a label count mismatch; see Counter.With.
func (h *Histogram) With(values ...string) *HistogramSeries {
	s, err := h.lookup(values)
	if err != nil {
		panic(err)
	}
	return s
}

// Collect implements Metric, emitting _bucket, _sum and _count samples.
func (h *Histogram) Collect() []Sample {
	var out []Sample
	h.each(func(s *HistogramSeries) {
		var cumulative uint64
		for i, bound := range s.buckets {
			cumulative += s.counts[i].Load()
			labels := make(map[string]string, len(s.labels)+1)
			for k, v := range s.labels {
				labels[k] = v
			}
			labels["le"] = formatFloat(bound)
			out = append(out, Sample{Name: h.name + "_bucket", Labels: labels, Value: float64(cumulative)})
		}
		out = append(out,
			Sample{Name: h.name + "_sum", Labels: s.labels, Value: s.sum.Load()},
			Sample{Name: h.name + "_count", Labels: s.labels, Value: float64(s.count.Load())},
		)
	})
	return out
}

func newHistogram(name, help string, buckets []float64, labelNames []string) *Histogram {
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	if len(sorted) == 0 || !math.IsInf(sorted[len(sorted)-1], 1) {
		sorted = append(sorted, math.Inf(1))
	}
	h := &Histogram{buckets: sorted}
	h.init(name, help, labelNames, func(labels map[string]string) *HistogramSeries {
		return &HistogramSeries{
			labels:  labels,
			buckets: sorted,
			counts:  make([]atomic.Uint64, len(sorted)),
		}
	})
	return h
}

// DefaultBuckets are request-duration buckets in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
