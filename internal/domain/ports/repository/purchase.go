package repository

import (
	"context"
	"time"

	"adtopia/internal/domain/model"
)

// -----------------------------
// Purchases
// -----------------------------

type PurchaseRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Purchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Purchase, error)
	FindByPaymentIntent(ctx context.Context, tx Tx, paymentIntentID string) (*model.Purchase, error)
	List(ctx context.Context, tx Tx, f model.PurchaseFilter) ([]*model.Purchase, int, error)

	// TransitionBySession moves a purchase to `to` only when its current status is one of
	// `from`. It reports whether a row changed; a false result is not an error.
	TransitionBySession(ctx context.Context, tx Tx, sessionID string, from []model.PurchaseStatus, to model.PurchaseStatus, paymentIntentID string, at time.Time) (bool, error)
	TransitionByPaymentIntent(ctx context.Context, tx Tx, paymentIntentID string, from []model.PurchaseStatus, to model.PurchaseStatus, at time.Time) (bool, error)

	// ExpirePendingBefore expires pending purchases created before cutoff.
	ExpirePendingBefore(ctx context.Context, tx Tx, cutoff time.Time) (int, error)
}

// -----------------------------
// Processed webhook events
// -----------------------------

type ProcessedEventRepository interface {
	// MarkProcessed inserts the idempotency marker. It returns false when the
	// event id already exists.
	MarkProcessed(ctx context.Context, tx Tx, ev *model.ProcessedEvent) (bool, error)
}
