// Package metrics exposes Prometheus instrumentation for the render
// queue and the generation client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the studio collectors. It satisfies the queue observer
// contract and the retry hook of the generation client.
type Metrics struct {
	rendersTotal  *prometheus.CounterVec
	retriesTotal  prometheus.Counter
	activeRenders prometheus.Gauge
	queueDepth    prometheus.Gauge
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_renders_total",
			Help: "Completed renders by terminal status.",
		}, []string{"status"}),
		retriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_provider_retries_total",
			Help: "Rate-limit retries against the generation provider.",
		}),
		activeRenders: factory.NewGauge(prometheus.GaugeOpts{
			Name: "studio_active_renders",
			Help: "Renders currently in flight.",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "studio_queue_depth",
			Help: "Items waiting in the render queue.",
		}),
	}
}

// RenderStarted records a render entering flight.
func (m *Metrics) RenderStarted() {
	m.activeRenders.Inc()
}

// RenderFinished records a terminal render outcome.
func (m *Metrics) RenderFinished(success bool) {
	m.activeRenders.Dec()
	if success {
		m.rendersTotal.WithLabelValues("completed").Inc()
	} else {
		m.rendersTotal.WithLabelValues("error").Inc()
	}
}

// QueueDepth records the current queue length.
func (m *Metrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// ProviderRetry records one rate-limit retry.
func (m *Metrics) ProviderRetry() {
	m.retriesTotal.Inc()
}
