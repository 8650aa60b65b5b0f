package adapter

import (
	"context"
	"time"
)

// CheckoutParams describes a one-item checkout session.
type CheckoutParams struct {
	PriceID           string
	CustomerEmail     string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string // our purchase id
	Metadata          map[string]string
}

type CheckoutResult struct {
	SessionID   string
	URL         string
	AmountCents int64
	Currency    string
}

// CatalogProduct is a provider product joined with its default price.
type CatalogProduct struct {
	StripeProductID string
	Name            string
	Description     string
	Active          bool
	PriceID         string
	PriceCents      int64
	Currency        string
	Metadata        map[string]string
}

// WebhookEvent is a verified provider event reduced to the fields we act on.
// Session* fields are set for checkout.session.* events, PaymentIntentID for
// payment_intent.* and charge.* events, Product for product.* and price.* events.
type WebhookEvent struct {
	ID      string
	Type    string
	Created time.Time

	SessionID       string
	PaymentIntentID string
	CustomerEmail   string
	CustomerPhone   string
	AmountCents     int64
	Currency        string
	Metadata        map[string]string

	Product *CatalogProduct
	// PriceOnly marks price.* events, where Product carries only the product id and price fields.
	PriceOnly bool
}

// PaymentGateway is the hex port for the payment provider.
type PaymentGateway interface {
	Name() string

	// CreateCheckoutSession opens a hosted checkout and returns where to redirect the buyer.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutResult, error)
	// ListCatalog returns every active product with its default price.
	ListCatalog(ctx context.Context) ([]CatalogProduct, error)
	// ParseWebhook verifies the signature header and decodes the event.
	// A bad signature yields domain.ErrInvalidSignature.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
