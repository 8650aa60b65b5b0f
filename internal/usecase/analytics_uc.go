package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/infra/metrics"
)

const defaultDashboardWindow = 30 * 24 * time.Hour

// Compile-time check
var _ AnalyticsUseCase = (*analyticsUC)(nil)

type AnalyticsUseCase interface {
	// Dashboard aggregates the admin overview for [from, to). Zero bounds
	// default to the last 30 days.
	Dashboard(ctx context.Context, from, to time.Time) (*model.DashboardStats, error)
}

type analyticsUC struct {
	repo repository.AnalyticsRepository
	log  *zerolog.Logger
	now  func() time.Time
}

func NewAnalyticsUseCase(repo repository.AnalyticsRepository, logger *zerolog.Logger) *analyticsUC {
	return &analyticsUC{repo: repo, log: logger, now: time.Now}
}

func (u *analyticsUC) Dashboard(ctx context.Context, from, to time.Time) (*model.DashboardStats, error) {
	if to.IsZero() {
		to = u.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultDashboardWindow)
	}
	from, to = from.UTC(), to.UTC()
	if !from.Before(to) {
		return nil, domain.ErrInvalidArgument
	}

	stats := &model.DashboardStats{From: from, To: to}

	byStatus, err := u.repo.PurchaseCounts(ctx, repository.NoTX, from, to)
	if err != nil {
		return nil, err
	}
	stats.PaidPurchases = byStatus[model.PurchaseStatusPaid]
	stats.PendingPurchases = byStatus[model.PurchaseStatusPending]
	stats.FailedPurchases = byStatus[model.PurchaseStatusFailed]
	stats.ExpiredPurchases = byStatus[model.PurchaseStatusExpired]
	stats.RefundedPurchases = byStatus[model.PurchaseStatusRefunded]

	if stats.RevenueCents, err = u.repo.Revenue(ctx, repository.NoTX, from, to); err != nil {
		return nil, err
	}
	if stats.Daily, err = u.repo.DailyRevenue(ctx, repository.NoTX, from, to); err != nil {
		return nil, err
	}
	if stats.Daily == nil {
		stats.Daily = []model.RevenuePoint{}
	}
	if stats.Conversions, err = u.repo.ConversionCount(ctx, repository.NoTX, from, to); err != nil {
		return nil, err
	}
	if stats.RunningTests, err = u.repo.RunningTests(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if stats.ActivePartners, err = u.repo.ActivePartners(ctx, repository.NoTX); err != nil {
		return nil, err
	}

	metrics.SetDashboardRevenue(stats.RevenueCents)
	return stats, nil
}
