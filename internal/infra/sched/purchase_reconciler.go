package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"adtopia/internal/usecase"
)

// PurchaseReconciler expires checkouts that stayed pending past the TTL,
// covering sessions whose checkout.session.expired event never arrived.
type PurchaseReconciler struct {
	checkout   usecase.CheckoutUseCase
	interval   time.Duration
	pendingTTL time.Duration
	log        *zerolog.Logger
}

func NewPurchaseReconciler(checkout usecase.CheckoutUseCase, interval, pendingTTL time.Duration, logger *zerolog.Logger) *PurchaseReconciler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if pendingTTL <= 0 {
		pendingTTL = 24 * time.Hour
	}
	compLog := logger.With().Str("component", "PurchaseReconciler").Logger()
	return &PurchaseReconciler{checkout: checkout, interval: interval, pendingTTL: pendingTTL, log: &compLog}
}

func (w *PurchaseReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("pending_ttl", w.pendingTTL).Msg("Starting purchase reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping purchase reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PurchaseReconciler) tick(ctx context.Context) {
	n, err := w.checkout.ExpireStale(ctx, w.pendingTTL)
	if err != nil {
		w.log.Error().Err(err).Msg("expire stale purchases")
		return
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("stale purchases expired")
	}
}
