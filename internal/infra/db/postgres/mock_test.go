//go:build !integration

package postgres

import (
	"context"
	"time"

	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
	red "adtopia/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

type mockInnerProductRepo struct {
	repository.ProductRepository

	ListFunc              func(ctx context.Context, tx repository.Tx, includeInactive bool) ([]*model.Product, error)
	UpsertFunc            func(ctx context.Context, tx repository.Tx, p *model.Product) (*model.Product, error)
	UpdateFunc            func(ctx context.Context, tx repository.Tx, p *model.Product) error
	DeactivateMissingFunc func(ctx context.Context, tx repository.Tx, keep []string) (int, error)
}

func (m *mockInnerProductRepo) List(ctx context.Context, tx repository.Tx, includeInactive bool) ([]*model.Product, error) {
	return m.ListFunc(ctx, tx, includeInactive)
}
func (m *mockInnerProductRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Product) (*model.Product, error) {
	return m.UpsertFunc(ctx, tx, p)
}
func (m *mockInnerProductRepo) Update(ctx context.Context, tx repository.Tx, p *model.Product) error {
	return m.UpdateFunc(ctx, tx, p)
}
func (m *mockInnerProductRepo) DeactivateMissing(ctx context.Context, tx repository.Tx, keep []string) (int, error) {
	return m.DeactivateMissingFunc(ctx, tx, keep)
}

type mockRedisClient struct {
	red.RedisClient

	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
