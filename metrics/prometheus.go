package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusClient exposes the stats as Prometheus collectors registered on
// first use. Tags are folded into a single "tags" label.
type PrometheusClient struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	gauges     map[string]*prometheus.GaugeVec
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusClient returns a client registering its collectors on r, or on
// the default registerer when r is nil.
func NewPrometheusClient(r prometheus.Registerer) *PrometheusClient {
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	return &PrometheusClient{
		registerer: r,
		gauges:     make(map[string]*prometheus.GaugeVec),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func tagLabel(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Gauge implements StatsClient.
func (c *PrometheusClient) Gauge(name string, value float64, tags []string, _ float64) error {
	c.mu.Lock()
	g, ok := c.gauges[name]
	if !ok {
		g = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: metricName(name), Help: name}, []string{"tags"})
		if err := c.registerer.Register(g); err != nil {
			c.mu.Unlock()
			return err
		}
		c.gauges[name] = g
	}
	c.mu.Unlock()
	g.WithLabelValues(tagLabel(tags)).Set(value)
	return nil
}

// Count implements StatsClient.
func (c *PrometheusClient) Count(name string, value int64, tags []string, _ float64) error {
	c.mu.Lock()
	cnt, ok := c.counters[name]
	if !ok {
		cnt = prometheus.NewCounterVec(prometheus.CounterOpts{Name: metricName(name), Help: name}, []string{"tags"})
		if err := c.registerer.Register(cnt); err != nil {
			c.mu.Unlock()
			return err
		}
		c.counters[name] = cnt
	}
	c.mu.Unlock()
	if value > 0 {
		cnt.WithLabelValues(tagLabel(tags)).Add(float64(value))
	}
	return nil
}

// Histogram implements StatsClient.
func (c *PrometheusClient) Histogram(name string, value float64, tags []string, _ float64) error {
	c.mu.Lock()
	h, ok := c.histograms[name]
	if !ok {
		h = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: metricName(name), Help: name}, []string{"tags"})
		if err := c.registerer.Register(h); err != nil {
			c.mu.Unlock()
			return err
		}
		c.histograms[name] = h
	}
	c.mu.Unlock()
	h.WithLabelValues(tagLabel(tags)).Observe(value)
	return nil
}
