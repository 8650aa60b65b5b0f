package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(aiTokensTotal, aiCallsLatencyMs) }

var (
	aiTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Tokens spent running generated prompts, per provider/model/direction.",
		},
		[]string{"provider", "model", "direction"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		},
		[]string{"provider", "model", "success"},
	)
)

func ObserveAICall(provider, model string, promptTokens, completionTokens int, latencyMs int64, success bool) {
	p, m := norm(provider), norm(model)
	aiTokensTotal.WithLabelValues(p, m, "in").Add(float64(promptTokens))
	aiTokensTotal.WithLabelValues(p, m, "out").Add(float64(completionTokens))
	aiCallsLatencyMs.WithLabelValues(p, m, strconv.FormatBool(success)).Observe(float64(latencyMs))
}
