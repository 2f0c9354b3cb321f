package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records client-side API calls and purchase outcomes. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	purchases *prometheus.CounterVec
}

// New registers the collectors with reg. Collectors already registered by
// an earlier New on the same registry are reused, so several clients can
// share one registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dotbuy",
		Name:      "api_requests_total",
		Help:      "API calls by endpoint and outcome code.",
	}, []string{"endpoint", "outcome"}))
	if err != nil {
		return nil, err
	}
	latency, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dotbuy",
		Name:      "api_request_duration_seconds",
		Help:      "API call latency, including any payment round trip.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"}))
	if err != nil {
		return nil, err
	}
	purchases, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dotbuy",
		Name:      "purchases_total",
		Help:      "BuyDomain calls by outcome (submitted, recovered, rejected, failed).",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, latency: latency, purchases: purchases}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("metrics: %w", err)
	}
	return c, nil
}

func (m *Metrics) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObservePurchase(outcome string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(outcome).Inc()
}
