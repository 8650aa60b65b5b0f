package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConnections) }

// dbPoolConnections is sampled by sched.PoolStatsCollector from pgxpool.Stat.
var dbPoolConnections = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_pool_connections",
		Help: "Postgres pool connections by state (total, idle, acquired).",
	},
	[]string{"state"},
)

func SetDBPoolStats(total, idle, acquired int32) {
	dbPoolConnections.WithLabelValues("total").Set(float64(total))
	dbPoolConnections.WithLabelValues("idle").Set(float64(idle))
	dbPoolConnections.WithLabelValues("acquired").Set(float64(acquired))
}
