package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "httpkom"

// Login outcomes.
const (
	LoginSuccess  = "success"
	LoginRejected = "rejected"
	LoginError    = "error"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	LoginsTotal         *prometheus.CounterVec
	SessionsClosedTotal *prometheus.CounterVec
	SessionBusyTotal    prometheus.Counter
	RateLimitedTotal    prometheus.Counter

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with the application metrics and the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"result"}),
		SessionsClosedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Destroyed sessions by reason.",
		}, []string{"reason"}),
		SessionBusyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_busy_total",
			Help:      "Requests rejected because the session lock was not acquired in time.",
		}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the login rate limiter.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.reg.MustRegister(
		r.LoginsTotal,
		r.SessionsClosedTotal,
		r.SessionBusyTotal,
		r.RateLimitedTotal,
		r.RequestsTotal,
		r.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Register adds an extra collector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the /metrics handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveLogin counts a login attempt.
func (r *Registry) ObserveLogin(result string) {
	if r == nil {
		return
	}
	r.LoginsTotal.WithLabelValues(result).Inc()
}

// ObserveSessionClosed counts a destroyed session.
func (r *Registry) ObserveSessionClosed(reason string) {
	if r == nil {
		return
	}
	r.SessionsClosedTotal.WithLabelValues(reason).Inc()
}

// ObserveBusy counts a lock acquisition timeout.
func (r *Registry) ObserveBusy() {
	if r == nil {
		return
	}
	r.SessionBusyTotal.Inc()
}

// ObserveRateLimited counts a throttled request.
func (r *Registry) ObserveRateLimited() {
	if r == nil {
		return
	}
	r.RateLimitedTotal.Inc()
}

// ObserveRequest records one served HTTP request. route is the mux
// pattern, never the raw path, to keep label cardinality bounded.
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
