package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.AdminUserRepository = (*adminRepo)(nil)

type adminRepo struct{ pool *pgxpool.Pool }

func NewAdminRepo(pool *pgxpool.Pool) *adminRepo {
	return &adminRepo{pool: pool}
}

func scanAdmin(row pgx.Row) (*model.AdminUser, error) {
	u := &model.AdminUser{}
	if err := row.Scan(&u.ID, &u.UserID, &u.Email, &u.Role, &u.CreatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return u, nil
}

func (r *adminRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.AdminUser, error) {
	q := forUpdate(`SELECT id, user_id, email, role, created_at FROM admin_users WHERE user_id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanAdmin(row)
}

func (r *adminRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AdminUser, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT id, user_id, email, role, created_at FROM admin_users ORDER BY created_at ASC`)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []*model.AdminUser
	for rows.Next() {
		u, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *adminRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.AdminUser) error {
	const q = `
INSERT INTO admin_users (id, user_id, email, role, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id) DO UPDATE SET email=EXCLUDED.email, role=EXCLUDED.role`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.UserID, u.Email, string(u.Role), u.CreatedAt)
	return mapWriteErr(err)
}

func (r *adminRepo) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `DELETE FROM admin_users WHERE user_id=$1`, userID)
	if err != nil {
		return mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *adminRepo) CountByRole(ctx context.Context, tx repository.Tx, role model.Role) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM admin_users WHERE role=$1`, string(role))
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapScanErr(err)
	}
	return n, nil
}
