// Package metrics provides the stats clients the agent reports its internal
// telemetry to. Clients are injected into every component; there is no global.
package metrics

import (
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
)

// StatsClient represents a client capable of sending stats to some stat endpoint.
type StatsClient interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
}

// NewStatsdClient returns a DogStatsD client sending to host:port.
func NewStatsdClient(host string, port int) (StatsClient, error) {
	client, err := statsd.New(fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NoopClient drops everything.
type NoopClient struct{}

// Gauge implements StatsClient.
func (NoopClient) Gauge(string, float64, []string, float64) error { return nil }

// Count implements StatsClient.
func (NoopClient) Count(string, int64, []string, float64) error { return nil }

// Histogram implements StatsClient.
func (NoopClient) Histogram(string, float64, []string, float64) error { return nil }

// OrNoop returns c, or a NoopClient when c is nil.
func OrNoop(c StatsClient) StatsClient {
	if c == nil {
		return NoopClient{}
	}
	return c
}
