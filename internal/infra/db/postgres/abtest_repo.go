package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.ABTestRepository = (*abTestRepo)(nil)

type abTestRepo struct{ pool *pgxpool.Pool }

func NewABTestRepo(pool *pgxpool.Pool) *abTestRepo {
	return &abTestRepo{pool: pool}
}

const abTestColumns = `id, name, description, status, variants, created_at, updated_at, ended_at`

func scanABTest(row pgx.Row) (*model.ABTest, error) {
	t := &model.ABTest{}
	var variants []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &variants, &t.CreatedAt, &t.UpdatedAt, &t.EndedAt); err != nil {
		return nil, mapScanErr(err)
	}
	if err := json.Unmarshal(variants, &t.Variants); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func (r *abTestRepo) Save(ctx context.Context, tx repository.Tx, t *model.ABTest) error {
	variants, err := json.Marshal(t.Variants)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO ab_tests (id, name, description, status, variants, created_at, updated_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = execSQL(ctx, r.pool, tx, q, t.ID, t.Name, t.Description, string(t.Status), variants, t.CreatedAt, t.UpdatedAt, t.EndedAt)
	return mapWriteErr(err)
}

func (r *abTestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ABTest, error) {
	q := forUpdate(`SELECT `+abTestColumns+` FROM ab_tests WHERE id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanABTest(row)
}

func (r *abTestRepo) List(ctx context.Context, tx repository.Tx) ([]*model.ABTest, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+abTestColumns+` FROM ab_tests ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []*model.ABTest
	for rows.Next() {
		t, err := scanABTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *abTestRepo) UpdateStatus(ctx context.Context, tx repository.Tx, t *model.ABTest) error {
	const q = `UPDATE ab_tests SET status=$2, updated_at=$3, ended_at=$4 WHERE id=$1`
	cmd, err := execSQL(ctx, r.pool, tx, q, t.ID, string(t.Status), t.UpdatedAt, t.EndedAt)
	if err != nil {
		return mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Assign inserts the assignment if the visitor has none and always returns the
// stored row, so concurrent first visits agree on one variant.
func (r *abTestRepo) Assign(ctx context.Context, tx repository.Tx, a *model.Assignment) (*model.Assignment, error) {
	at := a.AssignedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	const q = `
INSERT INTO ab_assignments (test_id, visitor_id, variant_key, assigned_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (test_id, visitor_id) DO NOTHING`
	if _, err := execSQL(ctx, r.pool, tx, q, a.TestID, a.VisitorID, a.VariantKey, at); err != nil {
		return nil, mapWriteErr(err)
	}
	return r.FindAssignment(ctx, tx, a.TestID, a.VisitorID)
}

func (r *abTestRepo) FindAssignment(ctx context.Context, tx repository.Tx, testID, visitorID string) (*model.Assignment, error) {
	const q = `SELECT test_id, visitor_id, variant_key, assigned_at FROM ab_assignments WHERE test_id=$1 AND visitor_id=$2`
	row, err := pickRow(ctx, r.pool, tx, q, testID, visitorID)
	if err != nil {
		return nil, err
	}
	a := &model.Assignment{}
	if err := row.Scan(&a.TestID, &a.VisitorID, &a.VariantKey, &a.AssignedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return a, nil
}

func (r *abTestRepo) SaveConversion(ctx context.Context, tx repository.Tx, c *model.Conversion) error {
	const q = `
INSERT INTO ab_conversions (id, test_id, variant_key, visitor_id, event_name, value_cents, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.TestID, c.VariantKey, c.VisitorID, c.EventName, c.ValueCents, c.CreatedAt)
	return mapWriteErr(err)
}

// VariantCounts aggregates assignments and conversions per variant. Variants with
// no assignments yet are absent; the caller fills them from the test definition.
func (r *abTestRepo) VariantCounts(ctx context.Context, tx repository.Tx, testID string) ([]model.VariantCounts, error) {
	const q = `
SELECT a.variant_key,
       COUNT(DISTINCT a.visitor_id)::bigint AS visitors,
       COUNT(DISTINCT c.visitor_id)::bigint AS converted,
       COALESCE((SELECT SUM(value_cents) FROM ab_conversions x WHERE x.test_id = $1 AND x.variant_key = a.variant_key), 0)::bigint AS revenue
  FROM ab_assignments a
  LEFT JOIN ab_conversions c
    ON c.test_id = a.test_id AND c.visitor_id = a.visitor_id AND c.variant_key = a.variant_key
 WHERE a.test_id = $1
 GROUP BY a.variant_key`
	rows, err := queryRows(ctx, r.pool, tx, q, testID)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []model.VariantCounts
	for rows.Next() {
		var vc model.VariantCounts
		if err := rows.Scan(&vc.VariantKey, &vc.Visitors, &vc.Converted, &vc.RevenueCents); err != nil {
			return nil, mapScanErr(err)
		}
		out = append(out, vc)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
