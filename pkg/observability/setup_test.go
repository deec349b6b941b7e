package observability

import (
	"testing"

	"github.com/raywall/fast-counter/pkg/config"
	"github.com/raywall/fast-counter/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStatsd struct {
	mock.Mock
}

func (m *mockStatsd) Count(name string, value int64, tags []string, rate float64) error {
	return m.Called(name, value, tags, rate).Error(0)
}

func (m *mockStatsd) Gauge(name string, value float64, tags []string, rate float64) error {
	return m.Called(name, value, tags, rate).Error(0)
}

func (m *mockStatsd) Histogram(name string, value float64, tags []string, rate float64) error {
	return m.Called(name, value, tags, rate).Error(0)
}

func TestSetupMetrics(t *testing.T) {
	t.Run("Disabled returns Noop", func(t *testing.T) {
		provider, err := SetupMetrics(config.MetricsConf{})
		require.NoError(t, err)
		assert.IsType(t, &NoopProvider{}, provider)
		assert.NoError(t, provider.Count(metrics.Increment, 1, nil))
	})

	t.Run("Enabled returns Datadog", func(t *testing.T) {
		cfg := config.MetricsConf{
			Datadog: config.DatadogConf{
				Enabled:   true,
				Addr:      "localhost:8125",
				Namespace: "counter.",
				Tags:      []string{"env:test"},
			},
		}

		// statsd sobre UDP não exige agente escutando para criar o client
		provider, err := SetupMetrics(cfg, "service:counter-service")
		require.NoError(t, err)
		assert.IsType(t, &DatadogProvider{}, provider)
	})
}

func TestDatadogProvider(t *testing.T) {
	client := &mockStatsd{}
	tags := []string{"table:counters"}
	client.On("Count", metrics.Increment, int64(-3), tags, float64(1)).Return(nil)
	client.On("Histogram", metrics.AddLatency, float64(12), tags, float64(1)).Return(nil)
	client.On("Gauge", "counter.value", float64(7), tags, float64(1)).Return(nil)

	p := NewDatadogProvider(client)
	assert.NoError(t, p.Count(metrics.Increment, -3, tags))
	assert.NoError(t, p.Histogram(metrics.AddLatency, 12, tags))
	assert.NoError(t, p.Gauge("counter.value", 7, tags))

	client.AssertExpectations(t)
}
