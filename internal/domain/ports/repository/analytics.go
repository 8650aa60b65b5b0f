package repository

import (
	"context"
	"time"

	"adtopia/internal/domain/model"
)

// AnalyticsRepository runs the read-only aggregations behind the admin dashboard.
type AnalyticsRepository interface {
	PurchaseCounts(ctx context.Context, tx Tx, from, to time.Time) (map[model.PurchaseStatus]int64, error)
	Revenue(ctx context.Context, tx Tx, from, to time.Time) (int64, error)
	DailyRevenue(ctx context.Context, tx Tx, from, to time.Time) ([]model.RevenuePoint, error)
	ConversionCount(ctx context.Context, tx Tx, from, to time.Time) (int64, error)
	RunningTests(ctx context.Context, tx Tx) (int64, error)
	ActivePartners(ctx context.Context, tx Tx) (int64, error)
}
