package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
)

// maxWebhookBody caps Stripe deliveries; real events are a few KiB.
const maxWebhookBody = 64 << 10

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable body"})
		return
	}

	res, err := s.webhooks.HandleStripeEvent(r.Context(), body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true, "duplicate": res.Duplicate})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.ListActive(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all(mapAll(products, productFromDomain)))
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !s.bind(w, r, &req) {
		return
	}
	sess, err := s.checkout.CreateCheckout(r.Context(), model.CheckoutRequest{
		ProductID:       req.ProductID,
		Email:           req.Email,
		Phone:           req.Phone,
		VisitorID:       req.VisitorID,
		ABTestID:        req.ABTestID,
		AgencyPartnerID: req.AgencyPartnerID,
		SuccessURL:      req.SuccessURL,
		CancelURL:       req.CancelURL,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleCheckoutStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.checkout.GetBySession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutStatusDTO{
		PurchaseID:  p.ID,
		Status:      string(p.Status),
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		PaidAt:      p.PaidAt,
	})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !s.bind(w, r, &req) {
		return
	}
	a, err := s.abtests.Assign(r.Context(), chi.URLParam(r, "id"), req.VisitorID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleConversion(w http.ResponseWriter, r *http.Request) {
	var req conversionRequest
	if !s.bind(w, r, &req) {
		return
	}
	c, err := s.abtests.TrackConversion(r.Context(), model.ConversionInput{
		TestID:     req.TestID,
		VisitorID:  req.VisitorID,
		EventName:  strings.TrimSpace(req.EventName),
		ValueCents: req.ValueCents,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversionDTO{
		ID:         c.ID,
		TestID:     c.TestID,
		Variant:    c.VariantKey,
		EventName:  c.EventName,
		ValueCents: c.ValueCents,
		CreatedAt:  c.CreatedAt,
	})
}

func (s *Server) handleAgencyApply(w http.ResponseWriter, r *http.Request) {
	var req agencyApplyRequest
	if !s.bind(w, r, &req) {
		return
	}
	p, err := s.agency.Apply(r.Context(), model.AgencyApplication{Name: req.Name, Email: req.Email, Website: req.Website})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody{Error: "an application with this email already exists"})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, partnerFromDomain(p))
}
