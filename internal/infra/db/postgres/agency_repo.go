package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.AgencyPartnerRepository = (*agencyRepo)(nil)

type agencyRepo struct{ pool *pgxpool.Pool }

func NewAgencyRepo(pool *pgxpool.Pool) *agencyRepo {
	return &agencyRepo{pool: pool}
}

const agencyColumns = `id, name, email, website, tier, commission_bps, status, created_at, updated_at`

func scanPartner(row pgx.Row) (*model.AgencyPartner, error) {
	p := &model.AgencyPartner{}
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Website, &p.Tier, &p.CommissionBps, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return p, nil
}

func (r *agencyRepo) Save(ctx context.Context, tx repository.Tx, p *model.AgencyPartner) error {
	const q = `INSERT INTO agency_partners (` + agencyColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Email, p.Website, string(p.Tier), p.CommissionBps,
		string(p.Status), p.CreatedAt, p.UpdatedAt)
	return mapWriteErr(err)
}

func (r *agencyRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AgencyPartner, error) {
	q := forUpdate(`SELECT `+agencyColumns+` FROM agency_partners WHERE id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPartner(row)
}

func (r *agencyRepo) List(ctx context.Context, tx repository.Tx, status model.PartnerStatus) ([]*model.AgencyPartner, error) {
	const q = `SELECT ` + agencyColumns + ` FROM agency_partners WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := queryRows(ctx, r.pool, tx, q, string(status))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []*model.AgencyPartner
	for rows.Next() {
		p, err := scanPartner(rows)
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

func (r *agencyRepo) Update(ctx context.Context, tx repository.Tx, p *model.AgencyPartner) error {
	const q = `
UPDATE agency_partners
   SET name=$2, website=$3, tier=$4, commission_bps=$5, status=$6, updated_at=$7
 WHERE id=$1`
	cmd, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Website, string(p.Tier), p.CommissionBps, string(p.Status), p.UpdatedAt)
	if err != nil {
		return mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
