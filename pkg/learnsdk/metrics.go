package learnsdk

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the SDK's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	replays         prometheus.Counter
	decisions       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "learnhub",
			Subsystem: "sdk",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound API calls, including any refresh and replay.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "code"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "sdk",
			Name:      "token_refreshes_total",
			Help:      "Refresh exchanges by result.",
		}, []string{"result"}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "sdk",
			Name:      "request_replays_total",
			Help:      "Requests replayed once after a 401.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "sdk",
			Name:      "access_decisions_total",
			Help:      "Course access decisions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requestDuration, m.refreshes, m.replays, m.decisions)
	return m
}

// Refresh results.
const (
	refreshSuccess = "success"
	refreshFailure = "failure"
	refreshReused  = "reused"
)

// Access outcomes.
const (
	outcomeOwner     = "owner"
	outcomePurchased = "purchased"
	outcomeLocked    = "locked"
	outcomeError     = "error"
)

func (m *Metrics) observeRequest(op string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestDuration.WithLabelValues(op, code).Observe(d.Seconds())
}

func (m *Metrics) refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) replay() {
	if m == nil {
		return
	}
	m.replays.Inc()
}

func (m *Metrics) decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}
