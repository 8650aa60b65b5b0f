package api

import (
	"time"

	"adtopia/internal/domain/model"
)

// ----- requests -----

type checkoutRequest struct {
	ProductID       string `json:"product_id" validate:"required,uuid"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" validate:"omitempty,e164"`
	VisitorID       string `json:"visitor_id" validate:"max=128"`
	ABTestID        string `json:"ab_test_id" validate:"omitempty,uuid"`
	AgencyPartnerID string `json:"agency_partner_id" validate:"omitempty,uuid"`
	SuccessURL      string `json:"success_url" validate:"required,url"`
	CancelURL       string `json:"cancel_url" validate:"required,url"`
}

type assignRequest struct {
	VisitorID string `json:"visitor_id" validate:"required,max=128"`
}

type conversionRequest struct {
	TestID     string `json:"test_id" validate:"required,uuid"`
	VisitorID  string `json:"visitor_id" validate:"required,max=128"`
	EventName  string `json:"event_name" validate:"required,max=64"`
	ValueCents int64  `json:"value_cents" validate:"min=0"`
}

type agencyApplyRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Website string `json:"website" validate:"omitempty,url"`
}

type productPatchRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

type variantRequest struct {
	Key    string `json:"key" validate:"required,max=64"`
	Weight int    `json:"weight" validate:"required,min=1,max=10000"`
}

type createTestRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description"`
	Variants    []variantRequest `json:"variants" validate:"required,min=2,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type grantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,oneof=viewer admin super_admin"`
}

type agencyPatchRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=200"`
	Website       *string `json:"website" validate:"omitempty,url"`
	Tier          *string `json:"tier" validate:"omitempty,oneof=bronze silver gold"`
	CommissionBps *int    `json:"commission_bps" validate:"omitempty,min=0,max=5000"`
}

type emailRequest struct {
	To       string            `json:"to" validate:"required,email"`
	Subject  string            `json:"subject" validate:"max=200"`
	Template string            `json:"template" validate:"required"`
	Data     map[string]string `json:"data"`
}

type smsRequest struct {
	To   string `json:"to" validate:"required,e164"`
	Body string `json:"body" validate:"required,max=1600"`
}

type promptRequest struct {
	Niche       string   `json:"niche"`
	Region      string   `json:"region"`
	Industry    string   `json:"industry"`
	Audience    string   `json:"audience"`
	Competitors []string `json:"competitors"`
	Platform    string   `json:"platform"`
	Product     string   `json:"product"`
	Count       int      `json:"count" validate:"min=0"`
}

func (p promptRequest) toModel(kind model.PromptKind) model.PromptRequest {
	return model.PromptRequest{
		Kind:        kind,
		Niche:       p.Niche,
		Region:      p.Region,
		Industry:    p.Industry,
		Audience:    p.Audience,
		Competitors: p.Competitors,
		Platform:    p.Platform,
		Product:     p.Product,
		Count:       p.Count,
	}
}

// ----- responses -----

type productDTO struct {
	ID              string            `json:"id"`
	StripeProductID string            `json:"stripe_product_id"`
	StripePriceID   string            `json:"stripe_price_id,omitempty"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	PriceCents      int64             `json:"price_cents"`
	Currency        string            `json:"currency"`
	Active          bool              `json:"active"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func productFromDomain(p *model.Product) productDTO {
	return productDTO{
		ID:              p.ID,
		StripeProductID: p.StripeProductID,
		StripePriceID:   p.StripePriceID,
		Name:            p.Name,
		Description:     p.Description,
		PriceCents:      p.PriceCents,
		Currency:        p.Currency,
		Active:          p.Active,
		Metadata:        p.Metadata,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type purchaseDTO struct {
	ID                    string     `json:"id"`
	ProductID             string     `json:"product_id,omitempty"`
	StripeSessionID       string     `json:"stripe_session_id"`
	StripePaymentIntentID string     `json:"stripe_payment_intent_id,omitempty"`
	CustomerEmail         string     `json:"customer_email,omitempty"`
	CustomerPhone         string     `json:"customer_phone,omitempty"`
	AmountCents           int64      `json:"amount_cents"`
	Currency              string     `json:"currency"`
	Status                string     `json:"status"`
	VisitorID             string     `json:"visitor_id,omitempty"`
	ABTestID              string     `json:"ab_test_id,omitempty"`
	AgencyPartnerID       string     `json:"agency_partner_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	PaidAt                *time.Time `json:"paid_at,omitempty"`
}

func purchaseFromDomain(p *model.Purchase) purchaseDTO {
	return purchaseDTO{
		ID:                    p.ID,
		ProductID:             p.ProductID,
		StripeSessionID:       p.StripeSessionID,
		StripePaymentIntentID: p.StripePaymentIntentID,
		CustomerEmail:         p.CustomerEmail,
		CustomerPhone:         p.CustomerPhone,
		AmountCents:           p.AmountCents,
		Currency:              p.Currency,
		Status:                string(p.Status),
		VisitorID:             p.VisitorID,
		ABTestID:              p.ABTestID,
		AgencyPartnerID:       p.AgencyPartnerID,
		CreatedAt:             p.CreatedAt,
		PaidAt:                p.PaidAt,
	}
}

// checkoutStatusDTO is the public view of a purchase; it leaves out customer data.
type checkoutStatusDTO struct {
	PurchaseID  string     `json:"purchase_id"`
	Status      string     `json:"status"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

type abTestDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	Variants    []model.Variant `json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
}

func abTestFromDomain(t *model.ABTest) abTestDTO {
	return abTestDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		Variants:    t.Variants,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		EndedAt:     t.EndedAt,
	}
}

type conversionDTO struct {
	ID         string    `json:"id"`
	TestID     string    `json:"test_id"`
	Variant    string    `json:"variant"`
	EventName  string    `json:"event_name"`
	ValueCents int64     `json:"value_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

type adminDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func adminFromDomain(a *model.AdminUser) adminDTO {
	return adminDTO{ID: a.ID, UserID: a.UserID, Email: a.Email, Role: string(a.Role), CreatedAt: a.CreatedAt}
}

type partnerDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Website       string    `json:"website,omitempty"`
	Tier          string    `json:"tier"`
	CommissionBps int       `json:"commission_bps"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func partnerFromDomain(p *model.AgencyPartner) partnerDTO {
	return partnerDTO{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Website:       p.Website,
		Tier:          string(p.Tier),
		CommissionBps: p.CommissionBps,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type notificationLogDTO struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Template  string    `json:"template"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func mapAll[In any, Out any](in []In, f func(In) Out) []Out {
	out := make([]Out, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
