package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// CreateCheckout opens a Stripe checkout for an active product and records a pending purchase.
	CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error)
	GetBySession(ctx context.Context, sessionID string) (*model.Purchase, error)
	List(ctx context.Context, f model.PurchaseFilter) ([]*model.Purchase, int, error)
	// ExpireStale expires pending purchases older than olderThan and returns how many changed.
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type checkoutUC struct {
	products  repository.ProductRepository
	purchases repository.PurchaseRepository
	abtests   repository.ABTestRepository
	partners  repository.AgencyPartnerRepository
	gateway   adapter.PaymentGateway
	log       *zerolog.Logger
}

func NewCheckoutUseCase(
	products repository.ProductRepository,
	purchases repository.PurchaseRepository,
	abtests repository.ABTestRepository,
	partners repository.AgencyPartnerRepository,
	gateway adapter.PaymentGateway,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		products:  products,
		purchases: purchases,
		abtests:   abtests,
		partners:  partners,
		gateway:   gateway,
		log:       logger,
	}
}

func (u *checkoutUC) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	if !isUUID(req.ProductID) || req.SuccessURL == "" || req.CancelURL == "" {
		return nil, domain.ErrInvalidArgument
	}
	product, err := u.products.FindByID(ctx, repository.NoTX, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Purchasable() {
		return nil, domain.ErrInactiveProduct
	}
	if err := u.checkAttribution(ctx, req); err != nil {
		return nil, err
	}

	purchaseID := uuid.NewString()
	meta := map[string]string{
		MetaPurchaseID: purchaseID,
		MetaProductID:  product.ID,
	}
	for k, v := range map[string]string{
		MetaVisitorID: req.VisitorID,
		MetaABTestID:  req.ABTestID,
		MetaPartnerID: req.AgencyPartnerID,
	} {
		if v != "" {
			meta[k] = v
		}
	}

	res, err := u.gateway.CreateCheckoutSession(ctx, adapter.CheckoutParams{
		PriceID:           product.StripePriceID,
		CustomerEmail:     strings.TrimSpace(req.Email),
		SuccessURL:        req.SuccessURL,
		CancelURL:         req.CancelURL,
		ClientReferenceID: purchaseID,
		Metadata:          meta,
	})
	if err != nil {
		metrics.IncCheckout("failed")
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	amount, currency := product.PriceCents, product.Currency
	if res.AmountCents > 0 {
		amount, currency = res.AmountCents, res.Currency
	}
	now := time.Now().UTC()
	p := &model.Purchase{
		ID:              purchaseID,
		ProductID:       product.ID,
		StripeSessionID: res.SessionID,
		CustomerEmail:   strings.TrimSpace(req.Email),
		CustomerPhone:   strings.TrimSpace(req.Phone),
		AmountCents:     amount,
		Currency:        currency,
		Status:          model.PurchaseStatusPending,
		VisitorID:       req.VisitorID,
		ABTestID:        req.ABTestID,
		AgencyPartnerID: req.AgencyPartnerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.purchases.Save(ctx, repository.NoTX, p); err != nil {
		metrics.IncCheckout("failed")
		u.log.Error().Err(err).Str("session_id", res.SessionID).Msg("checkout session opened but purchase not stored")
		return nil, err
	}
	metrics.IncCheckout("created")
	metrics.IncPurchase(string(model.PurchaseStatusPending))

	return &model.CheckoutSession{SessionID: res.SessionID, URL: res.URL, PurchaseID: purchaseID}, nil
}

// checkAttribution rejects ids that would break the purchase's foreign keys.
func (u *checkoutUC) checkAttribution(ctx context.Context, req model.CheckoutRequest) error {
	if req.ABTestID != "" {
		if !isUUID(req.ABTestID) {
			return fmt.Errorf("%w: ab_test_id", domain.ErrInvalidArgument)
		}
		if _, err := u.abtests.FindByID(ctx, repository.NoTX, req.ABTestID); err != nil {
			return notFoundAs(err, fmt.Errorf("%w: unknown ab test", domain.ErrInvalidArgument))
		}
	}
	if req.AgencyPartnerID != "" {
		if !isUUID(req.AgencyPartnerID) {
			return fmt.Errorf("%w: agency_partner_id", domain.ErrInvalidArgument)
		}
		if _, err := u.partners.FindByID(ctx, repository.NoTX, req.AgencyPartnerID); err != nil {
			return notFoundAs(err, fmt.Errorf("%w: unknown agency partner", domain.ErrInvalidArgument))
		}
	}
	return nil
}

func (u *checkoutUC) GetBySession(ctx context.Context, sessionID string) (*model.Purchase, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.purchases.FindBySessionID(ctx, repository.NoTX, sessionID)
}

func (u *checkoutUC) List(ctx context.Context, f model.PurchaseFilter) ([]*model.Purchase, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.ErrInvalidArgument
	}
	f.Limit = clampLimit(f.Limit)
	f.Offset = clampOffset(f.Offset)
	return u.purchases.List(ctx, repository.NoTX, f)
}

func (u *checkoutUC) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, errors.New("expire stale: non-positive ttl")
	}
	n, err := u.purchases.ExpirePendingBefore(ctx, repository.NoTX, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	metrics.AddPurchases(string(model.PurchaseStatusExpired), n)
	return n, nil
}
