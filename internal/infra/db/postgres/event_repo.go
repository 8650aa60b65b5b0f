package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

var _ repository.ProcessedEventRepository = (*processedEventRepo)(nil)

type processedEventRepo struct{ pool *pgxpool.Pool }

func NewProcessedEventRepo(pool *pgxpool.Pool) *processedEventRepo {
	return &processedEventRepo{pool: pool}
}

// MarkProcessed relies on the primary key on event_id: a concurrent or replayed
// delivery of the same event inserts nothing and reports false.
func (r *processedEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, ev *model.ProcessedEvent) (bool, error) {
	const q = `INSERT INTO processed_events (event_id, event_type, received_at) VALUES ($1,$2,$3) ON CONFLICT (event_id) DO NOTHING`
	at := ev.ReceivedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	cmd, err := execSQL(ctx, r.pool, tx, q, ev.EventID, ev.EventType, at)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}
