package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(productCacheTotal) }

var productCacheTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "product_cache_requests_total",
		Help: "Storefront catalog reads served from redis (hit) or postgres (miss).",
	},
	[]string{"result"},
)

func IncProductCache(result string) {
	productCacheTotal.WithLabelValues(norm(result)).Inc()
}
