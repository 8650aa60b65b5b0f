package model

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPending  PurchaseStatus = "pending"  // checkout session opened, not paid yet
	PurchaseStatusPaid     PurchaseStatus = "paid"     // checkout.session.completed received
	PurchaseStatusFailed   PurchaseStatus = "failed"   // payment intent failed
	PurchaseStatusExpired  PurchaseStatus = "expired"  // session expired or reconciled as stale
	PurchaseStatusRefunded PurchaseStatus = "refunded" // charge refunded after payment
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusPaid, PurchaseStatusFailed,
		PurchaseStatusExpired, PurchaseStatusRefunded:
		return true
	}
	return false
}

// CanTransition encodes the purchase lifecycle: pending resolves exactly once,
// and only a paid purchase can be refunded.
func CanTransition(from, to PurchaseStatus) bool {
	switch from {
	case PurchaseStatusPending:
		return to == PurchaseStatusPaid || to == PurchaseStatusFailed || to == PurchaseStatusExpired
	case PurchaseStatusPaid:
		return to == PurchaseStatusRefunded
	}
	return false
}

// SourceStatuses returns every status that may move to `to`.
func SourceStatuses(to PurchaseStatus) []PurchaseStatus {
	var out []PurchaseStatus
	for _, s := range []PurchaseStatus{PurchaseStatusPending, PurchaseStatusPaid} {
		if CanTransition(s, to) {
			out = append(out, s)
		}
	}
	return out
}

// Purchase is one checkout attempt for a product.
type Purchase struct {
	ID                    string // UUID
	ProductID             string // UUID -> products
	StripeSessionID       string // cs_...
	StripePaymentIntentID string // pi_..., known once the session completes
	CustomerEmail         string
	CustomerPhone         string // E.164, optional
	AmountCents           int64
	Currency              string
	Status                PurchaseStatus
	VisitorID             string // anonymous visitor id used by A/B tracking
	ABTestID              string
	AgencyPartnerID       string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	PaidAt                *time.Time
}

type PurchaseFilter struct {
	Status PurchaseStatus
	Limit  int
	Offset int
}

// CheckoutRequest is what a storefront sends to open a Stripe checkout.
type CheckoutRequest struct {
	ProductID       string
	Email           string
	Phone           string
	VisitorID       string
	ABTestID        string
	AgencyPartnerID string
	SuccessURL      string
	CancelURL       string
}

// CheckoutSession is returned to the storefront for redirection.
type CheckoutSession struct {
	SessionID  string `json:"session_id"`
	URL        string `json:"url"`
	PurchaseID string `json:"purchase_id"`
}

// ProcessedEvent is the idempotency marker stored for every accepted webhook event.
type ProcessedEvent struct {
	EventID    string
	EventType  string
	ReceivedAt time.Time
}

// WebhookResult describes what happened to an incoming webhook delivery.
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Duplicate bool   `json:"duplicate"`
	Handled   bool   `json:"handled"`
}
