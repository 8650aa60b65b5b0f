package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"adtopia/internal/domain"
	"adtopia/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway talks to Stripe for checkout and catalog reads and verifies
// webhook payloads. Without a secret key only webhook verification works.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if webhookSecret == "" {
		return nil, errors.New("stripe: webhook secret empty")
	}
	g := &StripeGateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		g.api = client.New(secretKey, nil)
	}
	return g, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutResult, error) {
	if g.api == nil {
		return nil, domain.ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(p.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.ClientReferenceID),
		Metadata:          copyMeta(p.Metadata),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			// payment_intent.* and charge.* events carry the same attribution
			Metadata: copyMeta(p.Metadata),
		},
	}
	params.Context = ctx
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	return &adapter.CheckoutResult{
		SessionID:   s.ID,
		URL:         s.URL,
		AmountCents: s.AmountTotal,
		Currency:    string(s.Currency),
	}, nil
}

func (g *StripeGateway) ListCatalog(ctx context.Context) ([]adapter.CatalogProduct, error) {
	if g.api == nil {
		return nil, domain.ErrNotConfigured
	}
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.AddExpand("data.default_price")

	var out []adapter.CatalogProduct
	it := g.api.Products.List(params)
	for it.Next() {
		out = append(out, catalogFromProduct(it.Product()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe list products: %w", err)
	}
	return out, nil
}

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func catalogFromProduct(p *stripe.Product) adapter.CatalogProduct {
	cp := adapter.CatalogProduct{
		StripeProductID: p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Active:          p.Active && !p.Deleted,
		Metadata:        p.Metadata,
	}
	if p.DefaultPrice != nil {
		cp.PriceID = p.DefaultPrice.ID
		cp.PriceCents = p.DefaultPrice.UnitAmount
		cp.Currency = strings.ToLower(string(p.DefaultPrice.Currency))
	}
	return cp
}

// ParseWebhook verifies the Stripe-Signature header and reduces the event to
// the fields the webhook use case acts on.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*adapter.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	ev := &adapter.WebhookEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return ev, nil
	}
	raw := event.Data.Raw

	switch {
	case strings.HasPrefix(ev.Type, "checkout.session."):
		var s stripe.CheckoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", domain.ErrInvalidArgument, err)
		}
		ev.SessionID = s.ID
		ev.AmountCents = s.AmountTotal
		ev.Currency = string(s.Currency)
		ev.Metadata = s.Metadata
		ev.CustomerEmail = s.CustomerEmail
		if s.CustomerDetails != nil {
			if s.CustomerDetails.Email != "" {
				ev.CustomerEmail = s.CustomerDetails.Email
			}
			ev.CustomerPhone = s.CustomerDetails.Phone
		}
		if s.PaymentIntent != nil {
			ev.PaymentIntentID = s.PaymentIntent.ID
		}

	case strings.HasPrefix(ev.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: payment intent: %v", domain.ErrInvalidArgument, err)
		}
		ev.PaymentIntentID = pi.ID
		ev.AmountCents = pi.Amount
		ev.Currency = string(pi.Currency)
		ev.Metadata = pi.Metadata
		ev.CustomerEmail = pi.ReceiptEmail

	case strings.HasPrefix(ev.Type, "charge."):
		var ch stripe.Charge
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: charge: %v", domain.ErrInvalidArgument, err)
		}
		if ch.PaymentIntent != nil {
			ev.PaymentIntentID = ch.PaymentIntent.ID
		}
		ev.AmountCents = ch.AmountRefunded
		ev.Currency = string(ch.Currency)
		ev.Metadata = ch.Metadata

	case strings.HasPrefix(ev.Type, "product."):
		var p stripe.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: product: %v", domain.ErrInvalidArgument, err)
		}
		cp := catalogFromProduct(&p)
		if ev.Type == "product.deleted" {
			cp.Active = false
		}
		ev.Product = &cp

	case strings.HasPrefix(ev.Type, "price."):
		var pr stripe.Price
		if err := json.Unmarshal(raw, &pr); err != nil {
			return nil, fmt.Errorf("%w: price: %v", domain.ErrInvalidArgument, err)
		}
		cp := adapter.CatalogProduct{
			PriceID:    pr.ID,
			PriceCents: pr.UnitAmount,
			Currency:   strings.ToLower(string(pr.Currency)),
			Active:     pr.Active,
		}
		if pr.Product != nil {
			cp.StripeProductID = pr.Product.ID
		}
		ev.Product = &cp
		ev.PriceOnly = true
	}
	return ev, nil
}
