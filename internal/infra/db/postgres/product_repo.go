package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

const productColumns = `id, stripe_product_id, stripe_price_id, name, description, price_cents, currency, active, metadata, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.StripeProductID, &p.StripePriceID, &p.Name, &p.Description,
		&p.PriceCents, &p.Currency, &p.Active, &p.Metadata, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return p, nil
}

// Upsert keys on stripe_product_id so that re-running a sync converges on the same rows.
func (r *productRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Product) (*model.Product, error) {
	const q = `
INSERT INTO products (id, stripe_product_id, stripe_price_id, name, description, price_cents, currency, active, metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
ON CONFLICT (stripe_product_id) DO UPDATE SET
  stripe_price_id = EXCLUDED.stripe_price_id,
  name            = EXCLUDED.name,
  description     = EXCLUDED.description,
  price_cents     = EXCLUDED.price_cents,
  currency        = EXCLUDED.currency,
  active          = EXCLUDED.active,
  metadata        = EXCLUDED.metadata,
  updated_at      = EXCLUDED.updated_at
RETURNING ` + productColumns

	meta := p.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	row, err := pickRow(ctx, r.pool, tx, q, p.ID, p.StripeProductID, p.StripePriceID, p.Name, p.Description,
		p.PriceCents, p.Currency, p.Active, meta, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	out, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, domain.ErrReadDatabaseRow) {
			return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
		}
		return nil, err
	}
	return out, nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *productRepo) FindByStripeID(ctx context.Context, tx repository.Tx, stripeProductID string) (*model.Product, error) {
	q := forUpdate(`SELECT `+productColumns+` FROM products WHERE stripe_product_id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, stripeProductID)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *productRepo) List(ctx context.Context, tx repository.Tx, includeInactive bool) ([]*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if !includeInactive {
		q += ` WHERE active`
	}
	q += ` ORDER BY price_cents ASC, name ASC`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *productRepo) Update(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `UPDATE products SET name=$2, description=$3, active=$4, updated_at=NOW() WHERE id=$1`
	cmd, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Description, p.Active)
	if err != nil {
		return mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *productRepo) DeactivateMissing(ctx context.Context, tx repository.Tx, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}
	const q = `UPDATE products SET active=FALSE, updated_at=NOW() WHERE active AND NOT (stripe_product_id = ANY($1))`
	cmd, err := execSQL(ctx, r.pool, tx, q, keep)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return int(cmd.RowsAffected()), nil
}

func (r *productRepo) SetActiveByStripeID(ctx context.Context, tx repository.Tx, stripeProductID string, active bool) error {
	const q = `UPDATE products SET active=$2, updated_at=NOW() WHERE stripe_product_id=$1`
	_, err := execSQL(ctx, r.pool, tx, q, stripeProductID, active)
	return mapWriteErr(err)
}
