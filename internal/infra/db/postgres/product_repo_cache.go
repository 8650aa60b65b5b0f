package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/infra/metrics"
	red "adtopia/internal/infra/redis"
)

var _ repository.ProductRepository = (*productRepoCacheDecorator)(nil)

const activeProductsKey = "products:active"

// productRepoCacheDecorator caches the public catalog. Every write drops the key,
// transactional writes only once the transaction commits.
type productRepoCacheDecorator struct {
	inner repository.ProductRepository
	cache red.RedisClient
	ttl   time.Duration
	log   zerolog.Logger
}

func NewProductRepoCacheDecorator(inner repository.ProductRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ProductRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &productRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger.With().Str("component", "product_cache").Logger(),
	}
}

func (d *productRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, includeInactive bool) ([]*model.Product, error) {
	if includeInactive {
		return d.inner.List(ctx, tx, true)
	}

	val, err := d.cache.Get(ctx, activeProductsKey)
	if err == nil {
		var products []*model.Product
		if json.Unmarshal([]byte(val), &products) == nil {
			metrics.IncProductCache("hit")
			return products, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Msg("cache read failed")
	}

	metrics.IncProductCache("miss")
	products, err := d.inner.List(ctx, tx, false)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(products); err == nil {
		if err := d.cache.Set(ctx, activeProductsKey, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return products, nil
}

func (d *productRepoCacheDecorator) drop(ctx context.Context) {
	if err := d.cache.Del(ctx, activeProductsKey); err != nil {
		d.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}

// invalidate drops the key now, or after commit when the write ran in tx,
// so a read racing the open transaction cannot re-cache the old rows.
func (d *productRepoCacheDecorator) invalidate(ctx context.Context, tx repository.Tx) {
	if tx == repository.NoTX {
		d.drop(ctx)
		return
	}
	repository.AfterCommit(ctx, d.drop)
}

func (d *productRepoCacheDecorator) Upsert(ctx context.Context, tx repository.Tx, p *model.Product) (*model.Product, error) {
	out, err := d.inner.Upsert(ctx, tx, p)
	d.invalidate(ctx, tx)
	return out, err
}

func (d *productRepoCacheDecorator) Update(ctx context.Context, tx repository.Tx, p *model.Product) error {
	err := d.inner.Update(ctx, tx, p)
	d.invalidate(ctx, tx)
	return err
}

func (d *productRepoCacheDecorator) DeactivateMissing(ctx context.Context, tx repository.Tx, keep []string) (int, error) {
	n, err := d.inner.DeactivateMissing(ctx, tx, keep)
	d.invalidate(ctx, tx)
	return n, err
}

func (d *productRepoCacheDecorator) SetActiveByStripeID(ctx context.Context, tx repository.Tx, stripeProductID string, active bool) error {
	err := d.inner.SetActiveByStripeID(ctx, tx, stripeProductID, active)
	d.invalidate(ctx, tx)
	return err
}

func (d *productRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	return d.inner.FindByID(ctx, tx, id)
}

func (d *productRepoCacheDecorator) FindByStripeID(ctx context.Context, tx repository.Tx, stripeProductID string) (*model.Product, error) {
	return d.inner.FindByStripeID(ctx, tx, stripeProductID)
}
