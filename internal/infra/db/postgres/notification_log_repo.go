package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct{ pool *pgxpool.Pool }

func NewNotificationLogRepo(pool *pgxpool.Pool) *notificationLogRepo {
	return &notificationLogRepo{pool: pool}
}

func (r *notificationLogRepo) Save(ctx context.Context, tx repository.Tx, e *model.NotificationLog) error {
	const q = `
INSERT INTO notification_log (id, channel, recipient, template, status, error, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, string(e.Channel), e.Recipient, e.Template, string(e.Status), e.Error, e.CreatedAt)
	return mapWriteErr(err)
}

func (r *notificationLogRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, channel, recipient, template, status, error, created_at
  FROM notification_log
 ORDER BY created_at DESC
 LIMIT $1`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []*model.NotificationLog
	for rows.Next() {
		e := &model.NotificationLog{}
		if err := rows.Scan(&e.ID, &e.Channel, &e.Recipient, &e.Template, &e.Status, &e.Error, &e.CreatedAt); err != nil {
			return nil, mapScanErr(err)
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
