package core

import (
	"io"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metrics is a small registry of monotonic counters exposed in the
// Prometheus text format. It is safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	help  string
	value float64
}

// NewMetrics creates an empty counter registry
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]*counter)}
}

// Register declares a counter with its help text. Registering twice is a no-op.
func (m *Metrics) Register(name, help string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.counters[name]; !exists {
		m.counters[name] = &counter{help: help}
	}
}

// Add increments the named counter by delta, creating it if needed
func (m *Metrics) Add(name string, delta float64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, exists := m.counters[name]
	if !exists {
		c = &counter{}
		m.counters[name] = c
	}
	c.value += delta
}

// Inc increments the named counter by one
func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

// Value returns the current value of the named counter
func (m *Metrics) Value(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, exists := m.counters[name]; exists {
		return c.value
	}
	return 0
}

// Families snapshots every counter as a Prometheus metric family, sorted by name
func (m *Metrics) Families() []*dto.MetricFamily {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.counters))
	for name := range m.counters {
		names = append(names, name)
	}
	sort.Strings(names)

	families := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		c := m.counters[name]
		mf := &dto.MetricFamily{
			Name: proto.String(name),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: proto.Float64(c.value)},
			}},
		}
		if c.help != "" {
			mf.Help = proto.String(c.help)
		}
		families = append(families, mf)
	}

	return families
}

// WriteText writes all counters to w in the Prometheus text format
func (m *Metrics) WriteText(w io.Writer) error {
	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range m.Families() {
		if err := encoder.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the counters for scraping
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		if err := m.WriteText(w); err != nil {
			HandleError(w, NewInternalError("failed to encode metrics", err))
		}
	}
}
