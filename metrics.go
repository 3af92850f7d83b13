package hxstore

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is an Observer that records dispatch counts and durations.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the dispatch collectors and registers them with reg.
//
//	m, err := hxstore.NewMetrics(prometheus.DefaultRegisterer)
//	store, err := hxstore.New(models, hxstore.WithObserver(m))
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hxstore_dispatch_total",
				Help: "Total number of dispatched actions",
			},
			[]string{"domain", "action", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hxstore_dispatch_duration_seconds",
				Help:    "Time spent in reducers per dispatch",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"domain"},
		),
	}
	for _, c := range []prometheus.Collector{m.dispatches, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records t.
func (m *Metrics) Observe(t Transition) {
	domain, action, result := t.Action.Domain, t.Action.Name, "ok"
	switch {
	case t.Err == nil:
	case IsNotFound(t.Err):
		// Unregistered names come from clients; keep them out of label values.
		domain, action, result = "", "", "unknown"
	default:
		result = "error"
	}
	m.dispatches.WithLabelValues(domain, action, result).Inc()
	if t.Err == nil {
		m.duration.WithLabelValues(t.Action.Domain).Observe(t.Duration.Seconds())
	}
}
