package transform

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is optional; a nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	upstream *prometheus.HistogramVec
}

// NewMetrics registers the transform collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibeshift",
			Name:      "transform_total",
			Help:      "Transform requests by lens and outcome kind.",
		}, []string{"lens", "kind"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vibeshift",
			Name:      "upstream_seconds",
			Help:      "Latency of upstream generation calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
	}
	reg.MustRegister(m.requests, m.upstream)
	return m
}

func (m *Metrics) observe(lensID string, kind Kind) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(lensID, string(kind)).Inc()
}

func (m *Metrics) observeUpstream(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(provider).Observe(d.Seconds())
}
