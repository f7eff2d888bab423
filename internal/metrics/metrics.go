// Package metrics defines the Prometheus collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cryptoview"

// Metrics holds every collector the app records to.
type Metrics struct {
	ChartBuilds      *prometheus.CounterVec
	ChartBuildDur    *prometheus.HistogramVec
	CandleCache      *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDur      *prometheus.HistogramVec
	CandlesStored    prometheus.Counter
	PollerErrors     *prometheus.CounterVec
	Sessions         *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChartBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_builds_total",
			Help:      "Chart geometries built, by chart kind.",
		}, []string{"kind"}),
		ChartBuildDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_build_duration_seconds",
			Help:      "Time spent reducing, scaling and laying out a chart.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"kind"}),
		CandleCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candle_cache_lookups_total",
			Help:      "Candle cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests to the market data API by endpoint and HTTP status.",
		}, []string{"endpoint", "status"}),
		UpstreamDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Market data API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CandlesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candles_stored_total",
			Help:      "Candles upserted into Postgres.",
		}),
		PollerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poller_errors_total",
			Help:      "Failed background refreshes by task.",
		}, []string{"task"}),
		Sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Open interactive sessions by transport.",
		}, []string{"transport"}),
	}
	reg.MustRegister(
		m.ChartBuilds, m.ChartBuildDur, m.CandleCache,
		m.UpstreamRequests, m.UpstreamDur, m.CandlesStored,
		m.PollerErrors, m.Sessions,
	)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveBuild records one chart build.
func (m *Metrics) ObserveBuild(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ChartBuilds.WithLabelValues(kind).Inc()
	m.ChartBuildDur.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// CacheLookup records a candle cache hit, miss or error.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CandleCache.WithLabelValues(result).Inc()
}

// ObserveUpstream records one market data request. Status 0 means the
// request failed before a response arrived.
func (m *Metrics) ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(endpoint, code).Inc()
	m.UpstreamDur.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Stored records upserted candles.
func (m *Metrics) Stored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CandlesStored.Add(float64(n))
}

// PollerError records a failed background task.
func (m *Metrics) PollerError(task string) {
	if m == nil {
		return
	}
	m.PollerErrors.WithLabelValues(task).Inc()
}

// SessionOpened increments the open session gauge and returns a func that
// decrements it.
func (m *Metrics) SessionOpened(transport string) func() {
	if m == nil {
		return func() {}
	}
	g := m.Sessions.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}
