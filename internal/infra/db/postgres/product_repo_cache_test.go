//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
	red "adtopia/internal/infra/redis"
)

func TestProductRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	nop := zerolog.Nop()
	products := []*model.Product{{ID: "p-1", Name: "Starter", PriceCents: 4900, Active: true}}
	cached, _ := json.Marshal(products)

	t.Run("List returns from cache on hit", func(t *testing.T) {
		innerCalled := false
		d := NewProductRepoCacheDecorator(&mockInnerProductRepo{
			ListFunc: func(context.Context, repository.Tx, bool) ([]*model.Product, error) {
				innerCalled = true
				return nil, nil
			},
		}, &mockRedisClient{
			GetFunc: func(_ context.Context, key string) (string, error) {
				if key != activeProductsKey {
					t.Errorf("unexpected key %q", key)
				}
				return string(cached), nil
			},
		}, time.Minute, &nop)

		got, err := d.List(ctx, repository.NoTX, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if innerCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if len(got) != 1 || got[0].ID != "p-1" {
			t.Errorf("unexpected products %+v", got)
		}
	})

	t.Run("List fills the cache on miss", func(t *testing.T) {
		var setKey string
		var setTTL time.Duration
		d := NewProductRepoCacheDecorator(&mockInnerProductRepo{
			ListFunc: func(context.Context, repository.Tx, bool) ([]*model.Product, error) { return products, nil },
		}, &mockRedisClient{
			GetFunc: func(context.Context, string) (string, error) { return "", red.Nil },
			SetFunc: func(_ context.Context, key string, _ interface{}, ttl time.Duration) error {
				setKey, setTTL = key, ttl
				return nil
			},
		}, time.Minute, &nop)

		got, err := d.List(ctx, repository.NoTX, false)
		if err != nil || len(got) != 1 {
			t.Fatalf("got %v, %v", got, err)
		}
		if setKey != activeProductsKey || setTTL != time.Minute {
			t.Errorf("cache not populated: key=%q ttl=%v", setKey, setTTL)
		}
	})

	t.Run("redis outage falls through to the database", func(t *testing.T) {
		d := NewProductRepoCacheDecorator(&mockInnerProductRepo{
			ListFunc: func(context.Context, repository.Tx, bool) ([]*model.Product, error) { return products, nil },
		}, &mockRedisClient{
			GetFunc: func(context.Context, string) (string, error) { return "", errors.New("conn refused") },
			SetFunc: func(context.Context, string, interface{}, time.Duration) error { return errors.New("conn refused") },
		}, time.Minute, &nop)

		got, err := d.List(ctx, repository.NoTX, false)
		if err != nil || len(got) != 1 {
			t.Fatalf("got %v, %v", got, err)
		}
	})

	t.Run("admin listing bypasses the cache", func(t *testing.T) {
		d := NewProductRepoCacheDecorator(&mockInnerProductRepo{
			ListFunc: func(_ context.Context, _ repository.Tx, all bool) ([]*model.Product, error) {
				if !all {
					t.Error("expected includeInactive to be forwarded")
				}
				return products, nil
			},
		}, &mockRedisClient{}, time.Minute, &nop)

		if _, err := d.List(ctx, repository.NoTX, true); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("writes invalidate the cache", func(t *testing.T) {
		var deleted []string
		d := NewProductRepoCacheDecorator(&mockInnerProductRepo{
			UpsertFunc:            func(_ context.Context, _ repository.Tx, p *model.Product) (*model.Product, error) { return p, nil },
			UpdateFunc:            func(context.Context, repository.Tx, *model.Product) error { return nil },
			DeactivateMissingFunc: func(context.Context, repository.Tx, []string) (int, error) { return 2, nil },
		}, &mockRedisClient{
			DelFunc: func(_ context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}, time.Minute, &nop)

		if _, err := d.Upsert(ctx, repository.NoTX, products[0]); err != nil {
			t.Fatal(err)
		}
		if err := d.Update(ctx, repository.NoTX, products[0]); err != nil {
			t.Fatal(err)
		}
		if n, err := d.DeactivateMissing(ctx, repository.NoTX, nil); err != nil || n != 2 {
			t.Fatalf("got %d, %v", n, err)
		}
		if len(deleted) != 3 {
			t.Fatalf("expected 3 invalidations, got %d", len(deleted))
		}
	})

	t.Run("transactional write invalidates only after commit", func(t *testing.T) {
		committed := false
		oldRows := []*model.Product{{ID: "p-1", Name: "Old", Active: true}}
		newRows := []*model.Product{{ID: "p-1", Name: "New", Active: true}}

		store := map[string]string{}
		d := NewProductRepoCacheDecorator(&mockInnerProductRepo{
			UpsertFunc: func(_ context.Context, _ repository.Tx, p *model.Product) (*model.Product, error) { return p, nil },
			ListFunc: func(context.Context, repository.Tx, bool) ([]*model.Product, error) {
				if committed {
					return newRows, nil
				}
				return oldRows, nil
			},
		}, &mockRedisClient{
			GetFunc: func(_ context.Context, key string) (string, error) {
				if v, ok := store[key]; ok {
					return v, nil
				}
				return "", red.Nil
			},
			SetFunc: func(_ context.Context, key string, v interface{}, _ time.Duration) error {
				store[key] = string(v.([]byte))
				return nil
			},
			DelFunc: func(_ context.Context, keys ...string) error {
				for _, k := range keys {
					delete(store, k)
				}
				return nil
			},
		}, time.Minute, &nop)

		txCtx, runHooks := repository.WithAfterCommit(ctx)
		if _, err := d.Upsert(txCtx, "open-tx", newRows[0]); err != nil {
			t.Fatal(err)
		}
		// a storefront read while the transaction is still open
		if got, _ := d.List(ctx, repository.NoTX, false); got[0].Name != "Old" {
			t.Fatalf("pre-commit read = %q", got[0].Name)
		}

		committed = true
		runHooks(ctx)

		got, err := d.List(ctx, repository.NoTX, false)
		if err != nil {
			t.Fatal(err)
		}
		if got[0].Name != "New" {
			t.Fatalf("after commit, public list = %q, want New", got[0].Name)
		}
	})

	t.Run("rolled back write leaves the cache alone", func(t *testing.T) {
		dels := 0
		d := NewProductRepoCacheDecorator(&mockInnerProductRepo{
			UpdateFunc: func(context.Context, repository.Tx, *model.Product) error { return errors.New("serialization failure") },
		}, &mockRedisClient{
			DelFunc: func(context.Context, ...string) error { dels++; return nil },
		}, time.Minute, &nop)

		txCtx, _ := repository.WithAfterCommit(ctx)
		if err := d.Update(txCtx, "open-tx", products[0]); err == nil {
			t.Fatal("expected error")
		}
		if dels != 0 {
			t.Fatalf("cache dropped %d times before commit", dels)
		}
	})
}
