package http

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts requests per method, exact path and whether an
// Authorization header was sent, on a registry owned by one Router.
type Metrics struct {
	Registry *prometheus.Registry
	Requests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "mockapi",
			Name:      "requests_total",
			Help:      "Requests received by method, path and presence of a bearer token.",
		}, []string{"method", "path", "auth"}),
	}
	m.Registry.MustRegister(m.Requests)
	return m
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := strconv.FormatBool(r.Header.Get("Authorization") != "")
		m.Requests.WithLabelValues(r.Method, r.URL.Path, auth).Inc()
		next.ServeHTTP(w, r)
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
