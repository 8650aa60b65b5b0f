package repository

import (
	"context"

	"adtopia/internal/domain/model"
)

// -----------------------------
// Notifications Log
// -----------------------------

type NotificationLogRepository interface {
	// Save records the outcome of one delivery attempt.
	Save(ctx context.Context, tx Tx, entry *model.NotificationLog) error
	// ListRecent returns the newest entries first.
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.NotificationLog, error)
}
