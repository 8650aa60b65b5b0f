package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/infra/logging"
	"adtopia/internal/infra/metrics"
)

const productSyncLockKey = "lock:product-sync"

// Compile-time check
var _ ProductUseCase = (*productUC)(nil)

type ProductUseCase interface {
	// Sync mirrors the Stripe catalog into products. Per-product failures are
	// collected in the report; the error is reserved for failures of the run itself.
	Sync(ctx context.Context) (model.SyncReport, error)
	ListActive(ctx context.Context) ([]*model.Product, error)
	List(ctx context.Context, includeInactive bool) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
}

type productUC struct {
	products repository.ProductRepository
	gateway  adapter.PaymentGateway
	locker   adapter.Locker
	lockTTL  time.Duration
	log      *zerolog.Logger
}

func NewProductUseCase(
	products repository.ProductRepository,
	gateway adapter.PaymentGateway,
	locker adapter.Locker,
	lockTTL time.Duration,
	logger *zerolog.Logger,
) *productUC {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &productUC{products: products, gateway: gateway, locker: locker, lockTTL: lockTTL, log: logger}
}

func (u *productUC) Sync(ctx context.Context) (model.SyncReport, error) {
	defer logging.TraceDuration(u.log, "ProductUC.Sync")()

	report := model.SyncReport{StartedAt: time.Now().UTC(), Failures: []model.SyncFailure{}}

	token, err := u.locker.TryLock(ctx, productSyncLockKey, u.lockTTL)
	if err != nil {
		metrics.IncProductSync("lock_error")
		return report, fmt.Errorf("acquire sync lock: %w", err)
	}
	if token == "" {
		metrics.IncProductSync("locked")
		return report, fmt.Errorf("%w: product sync already running", domain.ErrConflict)
	}
	defer func() {
		// the run's ctx may be cancelled by now; release on a fresh one
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := u.locker.Unlock(unlockCtx, productSyncLockKey, token); err != nil {
			u.log.Warn().Err(err).Msg("release product sync lock")
		}
	}()

	catalog, err := u.gateway.ListCatalog(ctx)
	if err != nil {
		report.FinishedAt = time.Now().UTC()
		metrics.ObserveProductSync("error", 0, 0, 0, report.FinishedAt.Unix())
		return report, fmt.Errorf("list catalog: %w", err)
	}

	keep := make([]string, 0, len(catalog))
	for _, cp := range catalog {
		report.Seen++
		if cp.StripeProductID == "" {
			report.Failures = append(report.Failures, model.SyncFailure{Error: "missing product id"})
			continue
		}
		// a failed write keeps its id so the row is not deactivated below
		keep = append(keep, cp.StripeProductID)
		if strings.TrimSpace(cp.Name) == "" {
			report.Failures = append(report.Failures, model.SyncFailure{StripeProductID: cp.StripeProductID, Error: "missing name"})
			continue
		}
		if _, err := u.products.Upsert(ctx, repository.NoTX, productFromCatalog(cp)); err != nil {
			report.Failures = append(report.Failures, model.SyncFailure{StripeProductID: cp.StripeProductID, Error: err.Error()})
			u.log.Warn().Err(err).Str("stripe_product_id", cp.StripeProductID).Msg("product upsert failed")
			continue
		}
		report.Upserted++
	}

	n, err := u.products.DeactivateMissing(ctx, repository.NoTX, keep)
	if err != nil {
		report.Failures = append(report.Failures, model.SyncFailure{Error: "deactivate missing: " + err.Error()})
	}
	report.Deactivated = n
	report.FinishedAt = time.Now().UTC()

	result := "ok"
	if !report.OK() {
		result = "partial"
	}
	metrics.ObserveProductSync(result, report.Upserted, report.Deactivated, len(report.Failures), report.FinishedAt.Unix())
	u.log.Info().
		Int("seen", report.Seen).
		Int("upserted", report.Upserted).
		Int("deactivated", report.Deactivated).
		Int("failed", len(report.Failures)).
		Msg("product sync finished")
	return report, nil
}

func (u *productUC) ListActive(ctx context.Context) ([]*model.Product, error) {
	return u.products.List(ctx, repository.NoTX, false)
}

func (u *productUC) List(ctx context.Context, includeInactive bool) ([]*model.Product, error) {
	return u.products.List(ctx, repository.NoTX, includeInactive)
}

func (u *productUC) Get(ctx context.Context, id string) (*model.Product, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	return u.products.FindByID(ctx, repository.NoTX, id)
}

func (u *productUC) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrInvalidArgument
	}
	current, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := patch.Apply(*current)
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()
	if err := u.products.Update(ctx, repository.NoTX, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
