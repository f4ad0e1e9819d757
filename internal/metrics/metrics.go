// Package metrics exposes Prometheus collectors for the scrape pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal     *prometheus.CounterVec
	fetchErrorsTotal      prometheus.Counter
	pagesBlockedTotal     *prometheus.CounterVec
	gateVerdictsTotal     *prometheus.CounterVec
	modelCallsTotal       *prometheus.CounterVec
	entitiesUpsertedTotal *prometheus.CounterVec
	pagesInsertedTotal    prometheus.Counter
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. Safe to call
// more than once; every Observe function calls it.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_pages_fetched_total",
				Help: "Pages fetched, labeled by HTTP status.",
			},
			[]string{"status"},
		)

		fetchErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scout_fetch_errors_total",
				Help: "Fetches that failed at the transport or parse level.",
			},
		)

		pagesBlockedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_pages_blocked_total",
				Help: "Fetched pages that look like an anti-bot or JS shell, labeled by kind.",
			},
			[]string{"kind"},
		)

		gateVerdictsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_gate_verdicts_total",
				Help: "Classification gate outcomes, labeled by verdict.",
			},
			[]string{"verdict"},
		)

		modelCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_model_calls_total",
				Help: "Model service attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		entitiesUpsertedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_entities_upserted_total",
				Help: "Entity upserts, labeled by insert or merge.",
			},
			[]string{"op"},
		)

		pagesInsertedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scout_pages_inserted_total",
				Help: "New page rows persisted.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_http_requests_total",
				Help: "API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_http_request_duration_seconds",
				Help:    "API request latency, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObservePageFetched counts a completed fetch by status code.
func ObservePageFetched(status int) {
	Init()
	pagesFetchedTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveFetchError counts a failed fetch.
func ObserveFetchError() {
	Init()
	fetchErrorsTotal.Inc()
}

// ObserveBlocked counts a page flagged by block detection.
func ObserveBlocked(kind string) {
	Init()
	pagesBlockedTotal.WithLabelValues(kind).Inc()
}

// ObserveGateVerdict counts a classification outcome ("real" or "scam").
func ObserveGateVerdict(verdict string) {
	Init()
	gateVerdictsTotal.WithLabelValues(verdict).Inc()
}

// ObserveModelCall counts one model attempt. Outcomes: ok, error,
// bad_json, exhausted.
func ObserveModelCall(outcome string) {
	Init()
	modelCallsTotal.WithLabelValues(outcome).Inc()
}

// ObserveEntityUpsert counts an upsert; op is "insert" or "merge".
func ObserveEntityUpsert(op string) {
	Init()
	entitiesUpsertedTotal.WithLabelValues(op).Inc()
}

// ObservePagesInserted adds n newly stored pages.
func ObservePagesInserted(n int) {
	Init()
	if n > 0 {
		pagesInsertedTotal.Add(float64(n))
	}
}

// ObserveHTTPRequest records one API request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
