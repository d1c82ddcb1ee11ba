package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

const metricsNamespace = "nleaderboard"

// Metrics records pipeline measurements as Prometheus series.
type Metrics struct {
	registry        *prometheus.Registry
	refreshDuration *prometheus.HistogramVec
	filtered        *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	decodeFailures  *prometheus.CounterVec
	goldWarnings    prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	breakerMoves    *prometheus.CounterVec
}

// NewMetrics registers every series on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent refreshing one board from the game server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "outcome"}),
		filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "filtered_scores_total",
			Help:      "Scores dropped while cleaning a board.",
		}, []string{"reason"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mappack_submissions_total",
			Help:      "Mappack score submissions by outcome.",
		}, []string{"outcome"}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decode_failures_total",
			Help:      "Payloads a codec could not parse.",
		}, []string{"codec"}),
		goldWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "gold_warnings_total",
			Help:      "Submissions whose implied gold count is implausible.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_lookups_total",
			Help:      "Repository cache lookups by key namespace and result.",
		}, []string{"namespace", "result"}),
		breakerMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes by breaker and new state.",
		}, []string{"breaker", "state"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.refreshDuration,
		m.filtered,
		m.submissions,
		m.decodeFailures,
		m.goldWarnings,
		m.cacheLookups,
		m.breakerMoves,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRefresh(kind highscoreable.Kind, outcome string, elapsed time.Duration) {
	m.refreshDuration.WithLabelValues(string(kind), outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) CountFiltered(reason string, n int) {
	if n <= 0 {
		return
	}
	m.filtered.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) CountSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountDecodeFailure(codec string) {
	m.decodeFailures.WithLabelValues(codec).Inc()
}

func (m *Metrics) CountGoldWarning() {
	m.goldWarnings.Inc()
}

func (m *Metrics) CountCacheLookup(namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(namespace, result).Inc()
}

func (m *Metrics) CountBreakerTransition(breaker, state string) {
	m.breakerMoves.WithLabelValues(breaker, state).Inc()
}
