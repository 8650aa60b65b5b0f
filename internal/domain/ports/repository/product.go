package repository

import (
	"context"

	"adtopia/internal/domain/model"
)

type ProductRepository interface {
	// Upsert inserts or updates by stripe_product_id and returns the stored row.
	Upsert(ctx context.Context, tx Tx, p *model.Product) (*model.Product, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	FindByStripeID(ctx context.Context, tx Tx, stripeProductID string) (*model.Product, error)
	List(ctx context.Context, tx Tx, includeInactive bool) ([]*model.Product, error)
	Update(ctx context.Context, tx Tx, p *model.Product) error
	// DeactivateMissing marks active products whose Stripe id is not in keep as inactive.
	DeactivateMissing(ctx context.Context, tx Tx, keep []string) (int, error)
	SetActiveByStripeID(ctx context.Context, tx Tx, stripeProductID string, active bool) error
}
