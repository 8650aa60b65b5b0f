package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/infra/logging"
	"adtopia/internal/infra/metrics"
)

// Metadata keys written on every checkout session and payment intent.
const (
	MetaPurchaseID = "purchase_id"
	MetaProductID  = "product_id"
	MetaVisitorID  = "visitor_id"
	MetaABTestID   = "ab_test_id"
	MetaPartnerID  = "agency_partner_id"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

type WebhookUseCase interface {
	// HandleStripeEvent verifies, de-duplicates and applies one Stripe delivery.
	// A failed dispatch rolls back the idempotency marker so Stripe can retry.
	HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error)
}

type webhookUC struct {
	gateway   adapter.PaymentGateway
	events    repository.ProcessedEventRepository
	purchases repository.PurchaseRepository
	products  repository.ProductRepository
	abtests   repository.ABTestRepository
	partners  repository.AgencyPartnerRepository
	tm        repository.TransactionManager
	notifier  NotificationUseCase
	alerts    adapter.AlertNotifier
	log       *zerolog.Logger
}

func NewWebhookUseCase(
	gateway adapter.PaymentGateway,
	events repository.ProcessedEventRepository,
	purchases repository.PurchaseRepository,
	products repository.ProductRepository,
	abtests repository.ABTestRepository,
	partners repository.AgencyPartnerRepository,
	tm repository.TransactionManager,
	notifier NotificationUseCase,
	alerts adapter.AlertNotifier,
	logger *zerolog.Logger,
) *webhookUC {
	return &webhookUC{
		gateway:   gateway,
		events:    events,
		purchases: purchases,
		products:  products,
		abtests:   abtests,
		partners:  partners,
		tm:        tm,
		notifier:  notifier,
		alerts:    alerts,
		log:       logger,
	}
}

func (u *webhookUC) HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error) {
	ev, err := u.gateway.ParseWebhook(payload, signature)
	if err != nil {
		result := "invalid_payload"
		if errors.Is(err, domain.ErrInvalidSignature) {
			result = "invalid_signature"
		}
		metrics.IncWebhookEvent("unknown", result)
		return nil, err
	}

	log := logging.With(ctx, u.log).With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()
	res := &model.WebhookResult{EventID: ev.ID, EventType: ev.Type}
	var paid *model.Purchase

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		fresh, err := u.events.MarkProcessed(ctx, tx, &model.ProcessedEvent{
			EventID:    ev.ID,
			EventType:  ev.Type,
			ReceivedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("mark processed: %w", err)
		}
		if !fresh {
			res.Duplicate = true
			return nil
		}
		handled, p, err := u.dispatch(ctx, tx, ev)
		if err != nil {
			return err
		}
		res.Handled = handled
		paid = p
		return nil
	})
	if err != nil {
		metrics.IncWebhookEvent(ev.Type, "failed")
		log.Error().Err(err).Msg("webhook dispatch failed")
		return nil, err
	}

	switch {
	case res.Duplicate:
		metrics.IncWebhookEvent(ev.Type, "duplicate")
		log.Info().Msg("duplicate webhook delivery ignored")
	case res.Handled:
		metrics.IncWebhookEvent(ev.Type, "processed")
		log.Info().Msg("webhook processed")
	default:
		metrics.IncWebhookEvent(ev.Type, "ignored")
		log.Debug().Msg("webhook event type not handled")
	}

	if paid != nil {
		u.afterPaid(ctx, paid, &log)
	}
	return res, nil
}

// dispatch applies the event inside the marker's transaction. The returned
// purchase is set only when this event moved a purchase to paid.
func (u *webhookUC) dispatch(ctx context.Context, tx repository.Tx, ev *adapter.WebhookEvent) (bool, *model.Purchase, error) {
	now := time.Now().UTC()
	switch ev.Type {
	case "checkout.session.completed":
		p, err := u.completeCheckout(ctx, tx, ev, now)
		return true, p, err

	case "checkout.session.expired":
		_, err := u.purchases.TransitionBySession(ctx, tx, ev.SessionID,
			model.SourceStatuses(model.PurchaseStatusExpired), model.PurchaseStatusExpired, "", now)
		return true, nil, err

	case "payment_intent.payment_failed":
		return true, nil, u.failPayment(ctx, tx, ev, now)

	case "charge.refunded":
		changed, err := u.purchases.TransitionByPaymentIntent(ctx, tx, ev.PaymentIntentID,
			model.SourceStatuses(model.PurchaseStatusRefunded), model.PurchaseStatusRefunded, now)
		if err == nil && changed {
			metrics.IncPurchase(string(model.PurchaseStatusRefunded))
		}
		return true, nil, err

	case "product.created", "product.updated", "product.deleted":
		return true, nil, u.applyProduct(ctx, tx, ev)

	case "price.created", "price.updated":
		return true, nil, u.applyPrice(ctx, tx, ev)
	}
	return false, nil, nil
}

func (u *webhookUC) completeCheckout(ctx context.Context, tx repository.Tx, ev *adapter.WebhookEvent, now time.Time) (*model.Purchase, error) {
	if ev.SessionID == "" {
		return nil, fmt.Errorf("%w: checkout event without session id", domain.ErrInvalidArgument)
	}
	p, err := u.purchases.FindBySessionID(ctx, tx, ev.SessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Session opened outside this service (payment link, dashboard).
		p, err = u.purchaseFromEvent(ctx, tx, ev, now)
		if err != nil {
			return nil, err
		}
		if err := u.purchases.Save(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("save purchase: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		changed, err := u.purchases.TransitionBySession(ctx, tx, ev.SessionID,
			model.SourceStatuses(model.PurchaseStatusPaid), model.PurchaseStatusPaid, ev.PaymentIntentID, now)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, nil
		}
		p.Status = model.PurchaseStatusPaid
		p.PaidAt = &now
		if ev.PaymentIntentID != "" {
			p.StripePaymentIntentID = ev.PaymentIntentID
		}
		if p.CustomerEmail == "" {
			p.CustomerEmail = ev.CustomerEmail
		}
		if p.CustomerPhone == "" {
			p.CustomerPhone = ev.CustomerPhone
		}
		if ev.AmountCents > 0 {
			p.AmountCents = ev.AmountCents
			p.Currency = ev.Currency
		}
	}

	if err := u.recordPurchaseConversion(ctx, tx, p, now); err != nil {
		return nil, err
	}
	return p, nil
}

// purchaseFromEvent builds a paid purchase from event data alone. Foreign keys
// that do not resolve locally are dropped rather than failing the delivery.
func (u *webhookUC) purchaseFromEvent(ctx context.Context, tx repository.Tx, ev *adapter.WebhookEvent, now time.Time) (*model.Purchase, error) {
	meta := ev.Metadata
	p := &model.Purchase{
		ID:                    uuid.NewString(),
		StripeSessionID:       ev.SessionID,
		StripePaymentIntentID: ev.PaymentIntentID,
		CustomerEmail:         ev.CustomerEmail,
		CustomerPhone:         ev.CustomerPhone,
		AmountCents:           ev.AmountCents,
		Currency:              ev.Currency,
		Status:                model.PurchaseStatusPaid,
		VisitorID:             meta[MetaVisitorID],
		CreatedAt:             now,
		UpdatedAt:             now,
		PaidAt:                &now,
	}
	if id := meta[MetaProductID]; isUUID(id) {
		if _, err := u.products.FindByID(ctx, tx, id); err == nil {
			p.ProductID = id
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if id := meta[MetaABTestID]; isUUID(id) {
		if _, err := u.abtests.FindByID(ctx, tx, id); err == nil {
			p.ABTestID = id
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if id := meta[MetaPartnerID]; isUUID(id) {
		if _, err := u.partners.FindByID(ctx, tx, id); err == nil {
			p.AgencyPartnerID = id
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return p, nil
}

func (u *webhookUC) recordPurchaseConversion(ctx context.Context, tx repository.Tx, p *model.Purchase, now time.Time) error {
	if p.ABTestID == "" || p.VisitorID == "" {
		return nil
	}
	a, err := u.abtests.FindAssignment(ctx, tx, p.ABTestID, p.VisitorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find assignment: %w", err)
	}
	c := &model.Conversion{
		ID:         uuid.NewString(),
		TestID:     a.TestID,
		VariantKey: a.VariantKey,
		VisitorID:  a.VisitorID,
		EventName:  "purchase",
		ValueCents: p.AmountCents,
		CreatedAt:  now,
	}
	if err := u.abtests.SaveConversion(ctx, tx, c); err != nil {
		return fmt.Errorf("save conversion: %w", err)
	}
	metrics.IncABConversion(c.EventName)
	return nil
}

// failPayment marks the purchase failed. Checkout-created intents are not known
// by id until the session completes, so fall back to the purchase id in metadata.
func (u *webhookUC) failPayment(ctx context.Context, tx repository.Tx, ev *adapter.WebhookEvent, now time.Time) error {
	from := model.SourceStatuses(model.PurchaseStatusFailed)
	changed, err := u.purchases.TransitionByPaymentIntent(ctx, tx, ev.PaymentIntentID, from, model.PurchaseStatusFailed, now)
	if err != nil || changed {
		if changed {
			metrics.IncPurchase(string(model.PurchaseStatusFailed))
		}
		return err
	}
	id := ev.Metadata[MetaPurchaseID]
	if !isUUID(id) {
		return nil
	}
	p, err := u.purchases.FindByID(ctx, tx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	changed, err = u.purchases.TransitionBySession(ctx, tx, p.StripeSessionID, from, model.PurchaseStatusFailed, ev.PaymentIntentID, now)
	if changed {
		metrics.IncPurchase(string(model.PurchaseStatusFailed))
	}
	return err
}

func (u *webhookUC) applyProduct(ctx context.Context, tx repository.Tx, ev *adapter.WebhookEvent) error {
	cp := ev.Product
	if cp == nil || cp.StripeProductID == "" {
		return fmt.Errorf("%w: product event without product", domain.ErrInvalidArgument)
	}
	existing, err := u.products.FindByStripeID(ctx, tx, cp.StripeProductID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if ev.Type == "product.deleted" {
		if existing == nil {
			return nil
		}
		return u.products.SetActiveByStripeID(ctx, tx, cp.StripeProductID, false)
	}

	p := productFromCatalog(*cp)
	// Product events carry the default price unexpanded, so the amount is unknown.
	if existing != nil && cp.PriceCents == 0 {
		p.StripePriceID = existing.StripePriceID
		p.PriceCents = existing.PriceCents
		p.Currency = existing.Currency
	}
	_, err = u.products.Upsert(ctx, tx, p)
	return err
}

func (u *webhookUC) applyPrice(ctx context.Context, tx repository.Tx, ev *adapter.WebhookEvent) error {
	cp := ev.Product
	if cp == nil || cp.StripeProductID == "" || !cp.Active || cp.PriceCents <= 0 {
		return nil
	}
	p, err := u.products.FindByStripeID(ctx, tx, cp.StripeProductID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.StripePriceID != "" && p.StripePriceID != cp.PriceID {
		return nil
	}
	p.StripePriceID = cp.PriceID
	p.PriceCents = cp.PriceCents
	p.Currency = cp.Currency
	p.UpdatedAt = time.Now().UTC()
	return u.products.Update(ctx, tx, p)
}

// afterPaid runs after commit; every step is best-effort.
func (u *webhookUC) afterPaid(ctx context.Context, p *model.Purchase, log *zerolog.Logger) {
	metrics.IncPurchase(string(model.PurchaseStatusPaid))
	metrics.AddPurchaseRevenue(p.Currency, p.AmountCents)

	productName := "your purchase"
	if p.ProductID != "" {
		if prod, err := u.products.FindByID(ctx, repository.NoTX, p.ProductID); err == nil {
			productName = prod.Name
		}
	}
	data := map[string]string{
		"amount":      formatAmount(p.AmountCents, p.Currency),
		"product":     productName,
		"purchase_id": p.ID,
	}
	if p.CustomerEmail != "" {
		if err := u.notifier.SendEmail(ctx, p.CustomerEmail, "", model.TemplatePurchaseReceipt, data); err != nil {
			log.Warn().Err(err).Msg("queue receipt email")
		}
	}
	if p.CustomerPhone != "" {
		if err := u.notifier.SendSMSTemplate(ctx, p.CustomerPhone, model.TemplatePurchaseSMS, data); err != nil {
			log.Warn().Err(err).Msg("queue receipt sms")
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New purchase: %s (%s)", data["amount"], productName)
	if p.AgencyPartnerID != "" {
		fmt.Fprintf(&b, "\nPartner: %s", p.AgencyPartnerID)
	}
	if p.ABTestID != "" {
		fmt.Fprintf(&b, "\nA/B test: %s", p.ABTestID)
	}
	if err := u.alerts.Alert(ctx, b.String()); err != nil {
		log.Warn().Err(err).Msg("purchase alert failed")
	}
}

func productFromCatalog(cp adapter.CatalogProduct) *model.Product {
	now := time.Now().UTC()
	currency := cp.Currency
	if currency == "" {
		currency = "usd"
	}
	return &model.Product{
		ID:              uuid.NewString(),
		StripeProductID: cp.StripeProductID,
		StripePriceID:   cp.PriceID,
		Name:            strings.TrimSpace(cp.Name),
		Description:     strings.TrimSpace(cp.Description),
		PriceCents:      cp.PriceCents,
		Currency:        currency,
		Active:          cp.Active,
		Metadata:        cp.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func isUUID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
