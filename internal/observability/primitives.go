package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// family is one named metric with labelled float series, written in the
// Prometheus text format. Counters and gauges differ only in their TYPE line.
type family struct {
	name   string
	help   string
	kind   string
	labels []string

	mu     sync.RWMutex
	series map[string]float64
}

func newFamily(name, help, kind string, labels []string) *family {
	return &family{name: name, help: help, kind: kind, labels: labels, series: map[string]float64{}}
}

func (f *family) update(values []string, fn func(float64) float64) {
	key := labelString(f.labels, values)
	f.mu.Lock()
	f.series[key] = fn(f.series[key])
	f.mu.Unlock()
}

func (f *family) get(values []string) float64 {
	key := labelString(f.labels, values)
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.series[key]
}

func (f *family) WritePrometheus(w io.Writer) error {
	if err := writeHeader(w, f.name, f.help, f.kind); err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.labels) == 0 && len(f.series) == 0 {
		_, err := fmt.Fprintf(w, "%s %f\n", f.name, 0.0)
		return err
	}
	for _, k := range sortedKeys(f.series) {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", f.name, k, f.series[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

func add(d float64) func(float64) float64 { return func(v float64) float64 { return v + d } }
func set(d float64) func(float64) float64 { return func(float64) float64 { return d } }

type CounterVec struct{ f *family }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{f: newFamily(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	c.f.update(values, add(v))
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.f.WritePrometheus(w)
}

type Counter struct{ f *family }

func NewCounter(name, help string) *Counter {
	return &Counter{f: newFamily(name, help, "counter", nil)}
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.f.update(nil, add(v))
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.f.get(nil)
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.f.WritePrometheus(w)
}

type Gauge struct{ f *family }

func NewGauge(name, help string) *Gauge {
	return &Gauge{f: newFamily(name, help, "gauge", nil)}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.f.update(nil, set(v))
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.f.update(nil, add(1))
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.f.update(nil, add(-1))
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.f.WritePrometheus(w)
}

type GaugeVec struct{ f *family }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{f: newFamily(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.f.update(values, set(v))
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.f.WritePrometheus(w)
}

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type HistogramVec struct {
	name    string
	help    string
	labels  []string
	buckets []float64

	mu     sync.RWMutex
	series map[string]*histogram
}

// histogram keeps cumulative bucket counts; the last slot is +Inf.
type histogram struct {
	counts []uint64
	sum    float64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	return &HistogramVec{name: name, help: help, labels: labels, buckets: buckets, series: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labels, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist := h.series[key]
	if hist == nil {
		hist = &histogram{counts: make([]uint64, len(h.buckets)+1)}
		h.series[key] = hist
	}
	hist.sum += v
	for i, b := range h.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(h.buckets)]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, k := range sortedKeys(h.series) {
		hist := h.series[k]
		for i, count := range hist.counts {
			le := "+Inf"
			if i < len(h.buckets) {
				le = strconv.FormatFloat(h.buckets[i], 'g', -1, 64)
			}
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, le), count); err != nil {
				return err
			}
		}
		total := hist.counts[len(h.buckets)]
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n%s_count%s %d\n", h.name, k, hist.sum, h.name, k, total); err != nil {
			return err
		}
	}
	return nil
}

// labelString renders {a="x",b="y"}; missing values become "unknown".
func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + labelEscaper.Replace(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func withLe(labels, le string) string {
	pair := `le="` + labelEscaper.Replace(le) + `"`
	if !strings.HasSuffix(labels, "}") || labels == "{}" {
		return "{" + pair + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + pair + "}"
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	return len(status) == 3 && status[0] == '5'
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
