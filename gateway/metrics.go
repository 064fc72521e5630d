package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeNetworkError = "network_error"
	outcomeAuthFailed   = "auth_failed"
	outcomeCanceled     = "canceled"
)

func outcomeForStatus(status int) string {
	return strconv.Itoa(status)
}

// Metrics holds the gateway's prometheus counters. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	refreshes       prometheus.Counter
	refreshFailures prometheus.Counter
	replays         prometheus.Counter
}

// NewMetrics creates and registers the gateway counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wanderinn",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound API requests by outcome (HTTP status or failure class).",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wanderinn",
			Subsystem: "gateway",
			Name:      "token_refreshes_total",
			Help:      "Refresh cycles started.",
		}),
		refreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wanderinn",
			Subsystem: "gateway",
			Name:      "token_refresh_failures_total",
			Help:      "Refresh cycles that ended the session.",
		}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wanderinn",
			Subsystem: "gateway",
			Name:      "replayed_requests_total",
			Help:      "Requests replayed after a successful refresh.",
		}),
	}
	reg.MustRegister(m.requests, m.refreshes, m.refreshFailures, m.replays)
	return m
}

func (m *Metrics) observeRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRefresh() {
	if m == nil {
		return
	}
	m.refreshes.Inc()
}

func (m *Metrics) observeRefreshFailure() {
	if m == nil {
		return
	}
	m.refreshFailures.Inc()
}

func (m *Metrics) observeReplay() {
	if m == nil {
		return
	}
	m.replays.Inc()
}
