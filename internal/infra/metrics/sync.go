package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(productSyncRunsTotal, productSyncItemsTotal, productSyncLastSuccess)
}

var (
	productSyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_sync_runs_total",
			Help: "Product sync runs by result (ok/partial/error/locked).",
		},
		[]string{"result"},
	)

	productSyncItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_sync_items_total",
			Help: "Products touched by sync runs (upserted/deactivated/failed).",
		},
		[]string{"result"},
	)

	productSyncLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "product_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last sync run without failures.",
		},
	)
)

func ObserveProductSync(result string, upserted, deactivated, failed int, finishedUnix int64) {
	productSyncRunsTotal.WithLabelValues(norm(result)).Inc()
	productSyncItemsTotal.WithLabelValues("upserted").Add(float64(upserted))
	productSyncItemsTotal.WithLabelValues("deactivated").Add(float64(deactivated))
	productSyncItemsTotal.WithLabelValues("failed").Add(float64(failed))
	if result == "ok" {
		productSyncLastSuccess.Set(float64(finishedUnix))
	}
}

func IncProductSync(result string) {
	productSyncRunsTotal.WithLabelValues(norm(result)).Inc()
}
