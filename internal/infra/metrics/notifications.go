package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal, jobsTotal) }

var (
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification deliveries by channel and result (queued/sent/failed/dropped).",
		},
		[]string{"channel", "result"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_jobs_total",
			Help: "Background jobs by type and result.",
		},
		[]string{"type", "result"},
	)
)

func IncNotification(channel, result string) {
	notificationsTotal.WithLabelValues(norm(channel), norm(result)).Inc()
}

func IncJob(jobType, result string) {
	jobsTotal.WithLabelValues(norm(jobType), norm(result)).Inc()
}
