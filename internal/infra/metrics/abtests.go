package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(abAssignmentsTotal, abConversionsTotal) }

var (
	abAssignmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ab_assignments_total",
			Help: "Visitor assignment requests served.",
		},
	)

	abConversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ab_conversions_total",
			Help: "Tracked conversions by event name.",
		},
		[]string{"event"},
	)
)

func IncABAssignment() { abAssignmentsTotal.Inc() }

func IncABConversion(event string) {
	abConversionsTotal.WithLabelValues(norm(event)).Inc()
}
