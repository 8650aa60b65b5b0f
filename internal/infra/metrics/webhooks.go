package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webhookEventsTotal) }

var webhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Incoming payment webhook events by type and result (handled/ignored/duplicate/invalid/error).",
	},
	[]string{"type", "result"},
)

func IncWebhookEvent(eventType, result string) {
	if eventType == "" {
		eventType = "unknown"
	}
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(result)).Inc()
}
