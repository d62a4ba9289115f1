// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Reconnects       prometheus.Counter
	TokenRefreshes   prometheus.Counter
	PushEvents       prometheus.Counter
	InFlightRequests prometheus.Gauge
	RequestLatency   prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Number of realtime reconnections performed",
		}),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Number of refresh-token exchanges performed",
		}),
		PushEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_events_total",
			Help:      "Number of server push events received",
		}),
		InFlightRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "Number of HTTP requests currently in flight",
		}),
		RequestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.Reconnects,
		m.TokenRefreshes,
		m.PushEvents,
		m.InFlightRequests,
		m.RequestLatency,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

// StartServer exposes /metrics plus an expvar uptime gauge. Intended for a
// long-running headless client; the interactive client leaves it off.
func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncReconnects() {
	m.metrics.Reconnects.Inc()
}

func (m *Monitor) IncTokenRefreshes() {
	m.metrics.TokenRefreshes.Inc()
}

func (m *Monitor) IncPushEvents() {
	m.metrics.PushEvents.Inc()
}

func (m *Monitor) IncInFlight() {
	m.metrics.InFlightRequests.Inc()
}

func (m *Monitor) DecInFlight() {
	m.metrics.InFlightRequests.Dec()
}

func (m *Monitor) ObserveRequestLatency(duration time.Duration) {
	m.metrics.RequestLatency.Observe(duration.Seconds())
}
