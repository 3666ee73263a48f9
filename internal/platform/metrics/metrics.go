package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ganado",
		Name:      "upstream_requests_total",
		Help:      "Requests al API remoto por método y status (0 = error de red).",
	}, []string{"method", "status"})

	upstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ganado",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latencia de requests al API remoto.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	birthSagas = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ganado",
		Name:      "birth_sagas_total",
		Help:      "Registros de nacimiento por resultado.",
	}, []string{"outcome"})

	failedSources = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ganado",
		Name:      "history_source_failures_total",
		Help:      "Fuentes del historial reproductivo que fallaron y se degradaron a vacío.",
	}, []string{"source"})
)

// Saga outcomes.
const (
	OutcomeCompleted      = "completed"
	OutcomeInvalid        = "invalid"
	OutcomeNothingCreated = "nothing_created"
	OutcomeIncomplete     = "incomplete"
)

// ObserveUpstream registra un request saliente. status 0 = sin respuesta.
func ObserveUpstream(method string, status int, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	upstreamLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func BirthSaga(outcome string) {
	birthSagas.WithLabelValues(outcome).Inc()
}

func HistorySourceFailed(source string) {
	failedSources.WithLabelValues(source).Inc()
}

// Handler expone el registry por defecto.
func Handler() http.Handler {
	return promhttp.Handler()
}
