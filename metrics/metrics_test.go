package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusClient(t *testing.T) {
	assert := assert.New(t)

	reg := prometheus.NewRegistry()
	c := NewPrometheusClient(reg)

	assert.NoError(c.Count("profiling_agent.capture.started", 2, []string{"policy:memory"}, 1))
	assert.NoError(c.Count("profiling_agent.capture.started", 1, []string{"policy:memory"}, 1))
	assert.NoError(c.Gauge("profiling_agent.resource.usage", 0.42, nil, 1))
	assert.NoError(c.Histogram("profiling_agent.validation.samples", 12, nil, 1))

	assert.Equal(3.0, testutil.ToFloat64(c.counters["profiling_agent.capture.started"].WithLabelValues("policy:memory")))
	assert.Equal(0.42, testutil.ToFloat64(c.gauges["profiling_agent.resource.usage"].WithLabelValues("")))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(err)
	assert.Equal(3, n)
}

func TestTagLabelSorted(t *testing.T) {
	assert.Equal(t, "a:1,b:2", tagLabel([]string{"b:2", "a:1"}))
	assert.Equal(t, "", tagLabel(nil))
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, NoopClient{}, OrNoop(nil))
	c := NewPrometheusClient(prometheus.NewRegistry())
	assert.Equal(t, c, OrNoop(c))
}
