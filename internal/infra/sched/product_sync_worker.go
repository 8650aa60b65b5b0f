package sched

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/usecase"
)

// maxAlertFailures bounds how many failed products one alert lists.
const maxAlertFailures = 5

// ProductSyncWorker mirrors the Stripe catalog on a fixed interval and
// alerts the team when a run fails or skips products.
type ProductSyncWorker struct {
	interval time.Duration
	products usecase.ProductUseCase
	alerts   adapter.AlertNotifier
	log      *zerolog.Logger
}

func NewProductSyncWorker(interval time.Duration, products usecase.ProductUseCase, alerts adapter.AlertNotifier, logger *zerolog.Logger) *ProductSyncWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	compLog := logger.With().Str("component", "ProductSyncWorker").Logger()
	return &ProductSyncWorker{interval: interval, products: products, alerts: alerts, log: &compLog}
}

func (w *ProductSyncWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting product sync worker")
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping product sync worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ProductSyncWorker) runOnce(ctx context.Context) {
	report, err := w.products.Sync(ctx)
	switch {
	case errors.Is(err, domain.ErrConflict):
		// another replica holds the lock
		w.log.Debug().Msg("product sync skipped, lock held elsewhere")
		return
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		w.log.Error().Err(err).Msg("product sync failed")
		w.alert(ctx, "Product sync failed: "+err.Error())
		return
	case !report.OK():
		w.alert(ctx, failureText(report))
	}
}

func (w *ProductSyncWorker) alert(ctx context.Context, text string) {
	if w.alerts == nil {
		return
	}
	if err := w.alerts.Alert(ctx, text); err != nil {
		w.log.Warn().Err(err).Msg("send sync alert")
	}
}

func failureText(r model.SyncReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product sync finished with %d failure(s): %d seen, %d upserted, %d deactivated.",
		len(r.Failures), r.Seen, r.Upserted, r.Deactivated)
	for i, f := range r.Failures {
		if i == maxAlertFailures {
			fmt.Fprintf(&b, "\n... and %d more", len(r.Failures)-i)
			break
		}
		id := f.StripeProductID
		if id == "" {
			id = "(no id)"
		}
		fmt.Fprintf(&b, "\n- %s: %s", id, f.Error)
	}
	return b.String()
}
