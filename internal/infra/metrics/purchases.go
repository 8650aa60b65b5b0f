package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		purchasesTotal,
		purchaseRevenueTotal,
		checkoutSessionsTotal,
		dashboardRevenue,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase status transitions (paid/failed/expired/refunded).",
		},
		[]string{"status"},
	)

	purchaseRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_revenue_cents_total",
			Help: "The total value of paid purchases in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions opened, by outcome.",
		},
		[]string{"result"},
	)

	dashboardRevenue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_window_revenue_cents",
			Help: "Paid revenue of the last admin dashboard window.",
		},
	)
)

func IncPurchase(status string) {
	purchasesTotal.WithLabelValues(norm(status)).Inc()
}

func AddPurchases(status string, n int) {
	if n > 0 {
		purchasesTotal.WithLabelValues(norm(status)).Add(float64(n))
	}
}

func AddPurchaseRevenue(currency string, cents int64) {
	purchaseRevenueTotal.WithLabelValues(norm(currency)).Add(float64(cents))
}

func IncCheckout(result string) {
	checkoutSessionsTotal.WithLabelValues(norm(result)).Inc()
}

func SetDashboardRevenue(cents int64) {
	dashboardRevenue.Set(float64(cents))
}
