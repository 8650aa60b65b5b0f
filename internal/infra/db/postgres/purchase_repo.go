package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, product_id, stripe_session_id, stripe_payment_intent_id, customer_email, customer_phone,
  amount_cents, currency, status, visitor_id, ab_test_id, agency_partner_id, created_at, updated_at, paid_at`

func scanPurchase(row pgx.Row, extra ...interface{}) (*model.Purchase, error) {
	p := &model.Purchase{}
	var productID, testID, partnerID *string
	dest := []interface{}{&p.ID, &productID, &p.StripeSessionID, &p.StripePaymentIntentID, &p.CustomerEmail, &p.CustomerPhone,
		&p.AmountCents, &p.Currency, &p.Status, &p.VisitorID, &testID, &partnerID, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, mapScanErr(err)
	}
	p.ProductID, p.ABTestID, p.AgencyPartnerID = deref(productID), deref(testID), deref(partnerID)
	return p, nil
}

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	const q = `
INSERT INTO purchases (` + purchaseColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
  stripe_payment_intent_id=$4, customer_email=$5, customer_phone=$6, amount_cents=$7, currency=$8,
  status=$9, updated_at=$14, paid_at=$15;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, nullable(p.ProductID), p.StripeSessionID, p.StripePaymentIntentID,
		p.CustomerEmail, p.CustomerPhone, p.AmountCents, p.Currency, string(p.Status), p.VisitorID,
		nullable(p.ABTestID), nullable(p.AgencyPartnerID), p.CreatedAt, p.UpdatedAt, p.PaidAt)
	return mapWriteErr(err)
}

func (r *purchaseRepo) findOne(ctx context.Context, tx repository.Tx, where string, arg interface{}) (*model.Purchase, error) {
	q := forUpdate(`SELECT `+purchaseColumns+` FROM purchases WHERE `+where+` LIMIT 1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	return r.findOne(ctx, tx, `id=$1`, id)
}

func (r *purchaseRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Purchase, error) {
	return r.findOne(ctx, tx, `stripe_session_id=$1`, sessionID)
}

func (r *purchaseRepo) FindByPaymentIntent(ctx context.Context, tx repository.Tx, paymentIntentID string) (*model.Purchase, error) {
	if paymentIntentID == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, tx, `stripe_payment_intent_id=$1`, paymentIntentID)
}

func (r *purchaseRepo) List(ctx context.Context, tx repository.Tx, f model.PurchaseFilter) ([]*model.Purchase, int, error) {
	const q = `SELECT ` + purchaseColumns + `, COUNT(*) OVER() AS total
FROM purchases
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := queryRows(ctx, r.pool, tx, q, string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, mapWriteErr(err)
	}
	defer rows.Close()

	var (
		out   []*model.Purchase
		total int64
	)
	for rows.Next() {
		p, err := scanPurchase(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, int(total), nil
}

func statusStrings(ss []model.PurchaseStatus) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// TransitionBySession is the compare-and-set used by webhook handling: a replayed
// or out-of-order event finds the row in a later status and changes nothing.
func (r *purchaseRepo) TransitionBySession(ctx context.Context, tx repository.Tx, sessionID string, from []model.PurchaseStatus, to model.PurchaseStatus, paymentIntentID string, at time.Time) (bool, error) {
	const q = `
UPDATE purchases
   SET status = $3::text,
       stripe_payment_intent_id = COALESCE(NULLIF($4, ''), stripe_payment_intent_id),
       paid_at = CASE WHEN $3::text = 'paid' THEN $5 ELSE paid_at END,
       updated_at = $5
 WHERE stripe_session_id = $1
   AND status = ANY($2)`
	cmd, err := execSQL(ctx, r.pool, tx, q, sessionID, statusStrings(from), string(to), paymentIntentID, at)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) TransitionByPaymentIntent(ctx context.Context, tx repository.Tx, paymentIntentID string, from []model.PurchaseStatus, to model.PurchaseStatus, at time.Time) (bool, error) {
	if paymentIntentID == "" {
		return false, nil
	}
	const q = `
UPDATE purchases
   SET status = $3::text,
       paid_at = CASE WHEN $3::text = 'paid' THEN $4 ELSE paid_at END,
       updated_at = $4
 WHERE stripe_payment_intent_id = $1
   AND status = ANY($2)`
	cmd, err := execSQL(ctx, r.pool, tx, q, paymentIntentID, statusStrings(from), string(to), at)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) ExpirePendingBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	const q = `UPDATE purchases SET status='expired', updated_at=NOW() WHERE status='pending' AND created_at < $1`
	cmd, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return int(cmd.RowsAffected()), nil
}
