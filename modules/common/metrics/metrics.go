package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	generationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studio",
		Name:      "generation_outcomes_total",
		Help:      "Generation pipeline outcomes by kind and failure reason.",
	}, []string{"kind", "reason", "model"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studio",
		Name:      "generation_duration_seconds",
		Help:      "Time from request to resolved outcome.",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 12, 15, 20, 30},
	}, []string{"kind"})

	proxyResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studio",
		Name:      "proxy_responses_total",
		Help:      "Proxy endpoint responses by status code.",
	}, []string{"code"})

	auxiliaryCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studio",
		Name:      "auxiliary_calls_total",
		Help:      "Tag inference and consult calls by result.",
	}, []string{"call", "result"})

	consultSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "studio",
		Name:      "consult_sessions_active",
		Help:      "In-memory consult sessions currently held.",
	})
)

// ObserveGeneration - 생성 결과 기록
func ObserveGeneration(kind, reason, model string, elapsed time.Duration) {
	generationOutcomes.WithLabelValues(kind, reason, model).Inc()
	generationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveProxyResponse - 프록시 응답 코드 기록
func ObserveProxyResponse(code string) {
	proxyResponses.WithLabelValues(code).Inc()
}

// ObserveAuxiliaryCall - call: "tags" | "consult", result: "ok" | "fallback"
func ObserveAuxiliaryCall(call, result string) {
	auxiliaryCalls.WithLabelValues(call, result).Inc()
}

// SetConsultSessions - 메모리 세션 수
func SetConsultSessions(n int) {
	consultSessions.Set(float64(n))
}

// Handler - /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
