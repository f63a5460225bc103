package conformance

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "kemcheck"

// Metrics counts round trips by outcome and times them.
type Metrics struct {
	roundTrips *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		roundTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "roundtrips_total",
				Help:      "Number of KEM round trips by algorithm and result",
			},
			[]string{"algorithm", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "roundtrip_duration_seconds",
				Help:      "Duration of a keygen, encapsulation and decapsulation round trip",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"algorithm"},
		),
	}
	reg.MustRegister(m.roundTrips, m.duration)
	return m
}

func (m *Metrics) observe(r Result) {
	if m == nil {
		return
	}
	m.roundTrips.WithLabelValues(r.Name, r.Status()).Inc()
	m.duration.WithLabelValues(r.Name).Observe(r.Duration.Seconds())
}
