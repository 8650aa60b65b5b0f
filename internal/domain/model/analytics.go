package model

import "time"

type RevenuePoint struct {
	Day          time.Time `json:"day"`
	RevenueCents int64     `json:"revenue_cents"`
	Purchases    int64     `json:"purchases"`
}

// DashboardStats is the admin analytics overview for a time window.
type DashboardStats struct {
	From              time.Time      `json:"from"`
	To                time.Time      `json:"to"`
	RevenueCents      int64          `json:"revenue_cents"`
	PaidPurchases     int64          `json:"paid_purchases"`
	PendingPurchases  int64          `json:"pending_purchases"`
	FailedPurchases   int64          `json:"failed_purchases"`
	ExpiredPurchases  int64          `json:"expired_purchases"`
	RefundedPurchases int64          `json:"refunded_purchases"`
	Conversions       int64          `json:"conversions"`
	RunningTests      int64          `json:"running_tests"`
	ActivePartners    int64          `json:"active_partners"`
	Daily             []RevenuePoint `json:"daily"`
}

// ConversionRate is paid purchases over all resolved and pending checkouts.
func (s DashboardStats) ConversionRate() float64 {
	total := s.PaidPurchases + s.PendingPurchases + s.FailedPurchases + s.ExpiredPurchases + s.RefundedPurchases
	if total == 0 {
		return 0
	}
	return float64(s.PaidPurchases+s.RefundedPurchases) / float64(total)
}
