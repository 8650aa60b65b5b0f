package model

import (
	"strings"
	"time"

	"adtopia/internal/domain"
)

// Product mirrors a Stripe product and its default price.
type Product struct {
	ID              string // UUID
	StripeProductID string // prod_...
	StripePriceID   string // price_..., empty when the product has no default price
	Name            string
	Description     string
	PriceCents      int64
	Currency        string // lower-case ISO code as returned by Stripe
	Active          bool
	Metadata        map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Purchasable reports whether a checkout can be opened for the product.
func (p *Product) Purchasable() bool {
	return p != nil && p.Active && p.StripePriceID != "" && p.PriceCents > 0
}

// ProductPatch carries the admin-editable fields. Nil fields stay untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Active      *bool
}

func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Active == nil
}

// Apply validates and applies the patch onto a copy of prod.
func (p ProductPatch) Apply(prod Product) (Product, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return prod, domain.ErrInvalidArgument
		}
		prod.Name = name
	}
	if p.Description != nil {
		prod.Description = strings.TrimSpace(*p.Description)
	}
	if p.Active != nil {
		prod.Active = *p.Active
	}
	return prod, nil
}

// SyncFailure is one product that could not be written during a sync run.
type SyncFailure struct {
	StripeProductID string `json:"stripe_product_id"`
	Error           string `json:"error"`
}

// SyncReport summarises one product sync run.
type SyncReport struct {
	Seen        int           `json:"seen"`
	Upserted    int           `json:"upserted"`
	Deactivated int           `json:"deactivated"`
	Failures    []SyncFailure `json:"failures"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

func (r SyncReport) OK() bool { return len(r.Failures) == 0 }
