package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.AnalyticsRepository = (*analyticsRepo)(nil)

type analyticsRepo struct{ pool *pgxpool.Pool }

func NewAnalyticsRepo(pool *pgxpool.Pool) *analyticsRepo {
	return &analyticsRepo{pool: pool}
}

func (r *analyticsRepo) PurchaseCounts(ctx context.Context, tx repository.Tx, from, to time.Time) (map[model.PurchaseStatus]int64, error) {
	const q = `SELECT status, COUNT(*)::bigint FROM purchases WHERE created_at >= $1 AND created_at < $2 GROUP BY status`
	rows, err := queryRows(ctx, r.pool, tx, q, from, to)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	out := make(map[model.PurchaseStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, mapScanErr(err)
		}
		out[model.PurchaseStatus(status)] = n
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// Revenue sums paid purchases by paid_at, the moment money actually moved.
func (r *analyticsRepo) Revenue(ctx context.Context, tx repository.Tx, from, to time.Time) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM purchases WHERE status='paid' AND paid_at >= $1 AND paid_at < $2`
	return r.scalar(ctx, tx, q, from, to)
}

func (r *analyticsRepo) DailyRevenue(ctx context.Context, tx repository.Tx, from, to time.Time) ([]model.RevenuePoint, error) {
	const q = `
SELECT date_trunc('day', paid_at AT TIME ZONE 'UTC') AS day,
       COALESCE(SUM(amount_cents), 0)::bigint,
       COUNT(*)::bigint
  FROM purchases
 WHERE status='paid' AND paid_at >= $1 AND paid_at < $2
 GROUP BY day
 ORDER BY day`
	rows, err := queryRows(ctx, r.pool, tx, q, from, to)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []model.RevenuePoint
	for rows.Next() {
		var p model.RevenuePoint
		if err := rows.Scan(&p.Day, &p.RevenueCents, &p.Purchases); err != nil {
			return nil, mapScanErr(err)
		}
		p.Day = time.Date(p.Day.Year(), p.Day.Month(), p.Day.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *analyticsRepo) ConversionCount(ctx context.Context, tx repository.Tx, from, to time.Time) (int64, error) {
	return r.scalar(ctx, tx, `SELECT COUNT(*)::bigint FROM ab_conversions WHERE created_at >= $1 AND created_at < $2`, from, to)
}

func (r *analyticsRepo) RunningTests(ctx context.Context, tx repository.Tx) (int64, error) {
	return r.scalar(ctx, tx, `SELECT COUNT(*)::bigint FROM ab_tests WHERE status='running'`)
}

func (r *analyticsRepo) ActivePartners(ctx context.Context, tx repository.Tx) (int64, error) {
	return r.scalar(ctx, tx, `SELECT COUNT(*)::bigint FROM agency_partners WHERE status='active'`)
}

func (r *analyticsRepo) scalar(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (int64, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, mapScanErr(err)
	}
	return n, nil
}
